package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzhttp"
	"github.com/kr/pretty"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/indexsupply/ethsig/config"
	"github.com/indexsupply/ethsig/eip712"
	"github.com/indexsupply/ethsig/eip712/legacy"
	"github.com/indexsupply/ethsig/eth"
	"github.com/indexsupply/ethsig/signer"
	"github.com/indexsupply/ethsig/signrpc"
	"github.com/indexsupply/ethsig/wctx"
	"github.com/indexsupply/ethsig/wos"
	"github.com/indexsupply/ethsig/wsecp256k1"
	"github.com/indexsupply/ethsig/wslog"
)

func check(err error) {
	if err != nil {
		fmt.Printf("%s\n", err)
		os.Exit(1)
	}
}

const usage = `usage: ethsig [-v] [-version] <command> [flags] [file]

commands:
	hash     print the digest a method signs
	sign     sign a payload
	recover  print the address that signed a payload
	serve    run the json rpc signing server
	call     call a json rpc signing server

payloads are read from file or stdin:
	eth_sign              hex encoded 32 byte digest
	personal_sign         text, or 0x prefixed hex
	eth_signTypedData     json array of {type, name, value}
	eth_signTypedData_v3  typed data json
	eth_signTypedData_v4  typed data json
`

func main() {
	var (
		ctx     = context.Background()
		version bool
		verbose bool
	)
	flag.BoolVar(&version, "version", false, "version")
	flag.BoolVar(&verbose, "v", false, "verbose logging")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	logLevel := new(slog.LevelVar)
	logLevel.Set(slog.LevelInfo)
	if verbose {
		logLevel.Set(slog.LevelDebug)
	}
	lh := wslog.New(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	lh.RegisterContext(func(ctx context.Context) (string, any) {
		id := wctx.RequestID(ctx)
		if id == "" {
			return "", nil
		}
		return "req", id
	})
	lh.RegisterContext(func(ctx context.Context) (string, any) {
		m := wctx.Method(ctx)
		if m == "" {
			return "", nil
		}
		return "m", m
	})
	lh.RegisterContext(func(ctx context.Context) (string, any) {
		id := wctx.ChainID(ctx)
		if id == 0 {
			return "", nil
		}
		return "chain", id
	})
	lh.RegisterContext(func(ctx context.Context) (string, any) {
		addr := wctx.Remote(ctx)
		if addr == "" {
			return "", nil
		}
		return "remote", addr
	})
	slog.SetDefault(slog.New(lh.WithAttrs([]slog.Attr{
		slog.String("v", Commit),
	})))

	if version {
		fmt.Printf("v%s %s\n", Version, Commit)
		os.Exit(0)
	}
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	args := flag.Args()[1:]
	switch flag.Arg(0) {
	case "hash":
		hash(args)
	case "sign":
		sign(args)
	case "recover":
		recoverAddr(args)
	case "serve":
		serve(ctx, args)
	case "call":
		call(ctx, args)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

type payloadFlags struct {
	method string
	scheme string
}

func (pf *payloadFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&pf.method, "m", string(signer.TypedDataV4), "signing method")
	fs.StringVar(&pf.scheme, "legacy", legacy.SigUtil.String(), "eth_signTypedData scheme: words or sigutil")
}

func (pf *payloadFlags) parse(fs *flag.FlagSet) (signer.Method, signer.Digester, []byte) {
	m, err := signer.ParseMethod(pf.method)
	check(err)
	s, err := legacy.ParseScheme(pf.scheme)
	check(err)
	data, err := input(fs.Arg(0))
	check(err)
	payload, err := decode(m, data)
	check(err)
	return m, signer.Digester{Legacy: s}, payload
}

func input(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func decode(m signer.Method, data []byte) ([]byte, error) {
	switch m {
	case signer.EthSign:
		return eth.DecodeHex(strings.TrimSpace(string(data)))
	case signer.PersonalSign:
		s := strings.TrimSuffix(string(data), "\n")
		if strings.HasPrefix(s, "0x") {
			return eth.DecodeHex(s)
		}
		return []byte(s), nil
	default:
		return data, nil
	}
}

func hash(args []string) {
	var (
		fs  = flag.NewFlagSet("hash", flag.ExitOnError)
		pf  payloadFlags
		dbg bool
	)
	pf.register(fs)
	fs.BoolVar(&dbg, "debug", false, "print the typed data encoding")
	check(fs.Parse(args))
	m, dg, payload := pf.parse(fs)

	if dbg && (m == signer.TypedDataV3 || m == signer.TypedDataV4) {
		v := eip712.V4
		if m == signer.TypedDataV3 {
			v = eip712.V3
		}
		td, err := eip712.Parse(payload)
		check(err)
		ds, err := td.DomainSeparator(v)
		check(err)
		pretty.Println(td.Domain.Fields())
		fmt.Printf("domain:  %s\n", eth.EncodeHex(ds[:]))
		if td.PrimaryType != "EIP712Domain" {
			deps, err := td.Types.Dependencies(td.PrimaryType)
			check(err)
			enc, err := td.Types.EncodeType(td.PrimaryType)
			check(err)
			hs, err := td.StructHash(v)
			check(err)
			fmt.Printf("deps:    %v\n", deps)
			fmt.Printf("encode:  %s\n", enc)
			fmt.Printf("struct:  %s\n", eth.EncodeHex(hs[:]))
		}
	}
	d, err := dg.Digest(m, payload)
	check(err)
	fmt.Println(eth.EncodeHex(d[:]))
}

func sign(args []string) {
	var (
		fs  = flag.NewFlagSet("sign", flag.ExitOnError)
		pf  payloadFlags
		key string
	)
	pf.register(fs)
	fs.StringVar(&key, "key", "$ETHSIG_KEY", "hex private key or $ENV_VAR holding it")
	check(fs.Parse(args))
	m, dg, payload := pf.parse(fs)

	kp, err := wsecp256k1.ParsePrivateKey(wos.Getenv(key))
	check(err)
	d, err := dg.Digest(m, payload)
	check(err)
	sig, err := signer.SignHash(kp, d[:])
	check(err)
	fmt.Println(sig.Hex())
}

func recoverAddr(args []string) {
	var (
		fs  = flag.NewFlagSet("recover", flag.ExitOnError)
		pf  payloadFlags
		sig string
	)
	pf.register(fs)
	fs.StringVar(&sig, "sig", "", "0x prefixed 65 byte signature")
	check(fs.Parse(args))
	m, dg, payload := pf.parse(fs)

	s, err := wsecp256k1.ParseSignature(sig)
	check(err)
	d, err := dg.Digest(m, payload)
	check(err)
	addr, err := signer.Recover(d[:], s)
	check(err)
	fmt.Println(addr.Checksum())
}

func serve(ctx context.Context, args []string) {
	var (
		fs      = flag.NewFlagSet("serve", flag.ExitOnError)
		cfile   string
		listen  string
		key     string
		chainID uint64
		conf    config.Root
	)
	fs.StringVar(&cfile, "config", "", "config file")
	fs.StringVar(&listen, "l", "", "listen address. overrides config")
	fs.StringVar(&key, "key", "$ETHSIG_KEY", "used when there is no config file")
	fs.Uint64Var(&chainID, "chain", 0, "used when there is no config file")
	check(fs.Parse(args))

	switch {
	case cfile == "":
		conf.Key = wos.EnvString(wos.Getenv(key))
		conf.ChainID = chainID
		check(config.ValidateFix(&conf))
	default:
		f, err := os.Open(cfile)
		check(err)
		conf, err = config.Load(f)
		check(err)
		f.Close()
	}
	if listen != "" {
		conf.Listen = listen
	}

	tracingCfg := signrpc.TracingConfigFromEnv()
	if tracingCfg.ServiceVersion == "" {
		tracingCfg.ServiceVersion = Commit
	}
	shutdownTracing, err := signrpc.InitTracing(ctx, tracingCfg)
	check(err)
	defer shutdownTracing(ctx)

	srv, err := signrpc.New(conf)
	check(err)

	gz := gzhttp.GzipHandler(srv)
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		// websocket upgrades need the unwrapped writer
		if strings.EqualFold(r.Header.Get("upgrade"), "websocket") {
			srv.ServeHTTP(w, r)
			return
		}
		gz.ServeHTTP(w, r)
	})
	mux.Handle("/metrics", promhttp.Handler())
	hs := &http.Server{
		Addr:              conf.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		slog.InfoContext(ctx, "serving",
			"addr", conf.Listen,
			"account", srv.Address(),
			"chain", conf.ChainID,
			"methods", conf.Methods,
		)
		if err := hs.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		slog.Info("shutdown")
		return hs.Shutdown(sctx)
	})
	check(eg.Wait())
}

// Params are sent as json when they parse as json
// and as strings otherwise.
func call(ctx context.Context, args []string) {
	var (
		fs  = flag.NewFlagSet("call", flag.ExitOnError)
		url string
	)
	fs.StringVar(&url, "url", "http://"+config.DefaultListen, "http or ws url")
	check(fs.Parse(args))
	if fs.NArg() == 0 {
		check(fmt.Errorf("call requires a method"))
	}
	var params []any
	for _, p := range fs.Args()[1:] {
		params = append(params, param(p))
	}
	c := signrpc.NewClient(url)
	defer c.Close()
	res, err := c.Call(ctx, fs.Arg(0), params...)
	check(err)
	fmt.Println(string(res))
}

func param(s string) any {
	if json.Valid([]byte(s)) && !strings.HasPrefix(s, "0x") {
		return json.RawMessage(s)
	}
	return s
}

// Set using: go build -ldflags="-X main.Version=XXX"
var (
	Version string
	Commit  = func() string {
		bi, ok := debug.ReadBuildInfo()
		if !ok {
			return "ernobuildinfo"
		}
		var (
			revision = ""
			modified bool
		)
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				revision = s.Value[:4]
			case "vcs.modified":
				modified = s.Value == "true"
			}
		}
		if !modified {
			return revision
		}
		return revision + "-"
	}()
)
