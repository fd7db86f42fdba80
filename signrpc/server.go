// JSON RPC 2.0 signing endpoint
//
// Serves the wallet signing methods over HTTP POST
// (single and batch requests) and over websocket.
// The private key never leaves the Server: it is not
// logged, traced or returned.
package signrpc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/indexsupply/ethsig/config"
	"github.com/indexsupply/ethsig/eth"
	"github.com/indexsupply/ethsig/isxerrors"
	"github.com/indexsupply/ethsig/signer"
	"github.com/indexsupply/ethsig/wctx"
	"github.com/indexsupply/ethsig/wsecp256k1"
)

const maxBody = 1 << 20

const (
	CodeParse          = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternal       = -32603
	CodeSignature      = -32000
)

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("code=%d msg=%s", e.Code, e.Message)
}

type request struct {
	Version string            `json:"jsonrpc"`
	ID      json.RawMessage   `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

type response struct {
	Version string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

type Server struct {
	kp   wsecp256k1.KeyPair
	conf config.Root
	dg   signer.Digester
}

func New(conf config.Root) (*Server, error) {
	kp, err := conf.KeyPair()
	if err != nil {
		return nil, fmt.Errorf("loading key: %w", err)
	}
	return &Server{
		kp:   kp,
		conf: conf,
		dg:   signer.Digester{Legacy: conf.Scheme()},
	}, nil
}

func (s *Server) Address() eth.Address { return s.kp.Address() }

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get("x-request-id")
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set("x-request-id", id)
	ctx := wctx.WithRequestID(r.Context(), id)
	ctx = wctx.WithRemote(ctx, r.RemoteAddr)
	ctx = wctx.WithChainID(ctx, s.conf.ChainID)

	if strings.EqualFold(r.Header.Get("upgrade"), "websocket") {
		s.serveWS(ctx, w, r)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		http.Error(w, "request too large", http.StatusRequestEntityTooLarge)
		return
	}
	w.Header().Set("content-type", "application/json")
	if err := json.NewEncoder(w).Encode(s.handle(ctx, body)); err != nil {
		slog.ErrorContext(ctx, "writing response", "error", err)
	}
}

func (s *Server) serveWS(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.ErrorContext(ctx, "ws accept", "error", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "")
	for {
		_, data, err := c.Read(ctx)
		switch {
		case websocket.CloseStatus(err) == websocket.StatusNormalClosure:
			return
		case err != nil:
			slog.DebugContext(ctx, "ws read", "error", err)
			return
		}
		if err := wsjson.Write(ctx, c, s.handle(ctx, data)); err != nil {
			slog.DebugContext(ctx, "ws write", "error", err)
			return
		}
	}
}

// Returns a response or a slice of responses for a batch
func (s *Server) handle(ctx context.Context, body []byte) any {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var reqs []json.RawMessage
		if err := json.Unmarshal(body, &reqs); err != nil {
			return failure(nil, &Error{CodeParse, "parse error"})
		}
		if len(reqs) == 0 {
			return failure(nil, &Error{CodeInvalidRequest, "empty batch"})
		}
		resps := make([]response, len(reqs))
		for i := range reqs {
			resps[i] = s.handleOne(ctx, reqs[i])
		}
		return resps
	}
	return s.handleOne(ctx, body)
}

func failure(id json.RawMessage, e *Error) response {
	return response{Version: "2.0", ID: id, Error: e}
}

func (s *Server) handleOne(ctx context.Context, data []byte) response {
	var req request
	if err := json.Unmarshal(data, &req); err != nil {
		return failure(nil, &Error{CodeParse, "parse error"})
	}
	if req.Version != "2.0" || req.Method == "" {
		return failure(req.ID, &Error{CodeInvalidRequest, "invalid request"})
	}
	var (
		start = time.Now()
		code  = 0
	)
	lbl := label(req.Method)
	ctx = wctx.WithMethod(ctx, lbl)
	ctx, span := Tracer.Start(ctx, "rpc."+lbl)
	span.SetAttributes(
		attribute.String("rpc.method", lbl),
		attribute.String("rpc.request_id", wctx.RequestID(ctx)),
		attribute.Int64("rpc.chain_id", int64(wctx.ChainID(ctx))),
	)
	defer func() {
		span.End()
		Requests.WithLabelValues(lbl, fmt.Sprint(code)).Inc()
		Duration.WithLabelValues(lbl).Observe(time.Since(start).Seconds())
	}()

	res, err := s.Call(ctx, req.Method, req.Params)
	if err != nil {
		rerr := toError(err)
		code = rerr.Code
		span.RecordError(err)
		span.SetStatus(codes.Error, rerr.Message)
		slog.InfoContext(ctx, "rpc", "code", rerr.Code, "error", rerr.Message)
		return failure(req.ID, rerr)
	}
	slog.DebugContext(ctx, "rpc", "dur", time.Since(start).Round(time.Microsecond))
	return response{Version: "2.0", ID: req.ID, Result: res}
}

var served = func() map[string]bool {
	m := map[string]bool{
		"eth_accounts":       true,
		"eth_chainId":        true,
		"personal_ecRecover": true,
	}
	for _, sm := range signer.Methods() {
		m[string(sm)] = true
	}
	return m
}()

// Method names come from the client. Only names the
// server knows are used in metric labels, span names
// and logs so that the number of series stays fixed.
func label(method string) string {
	if served[method] {
		return method
	}
	return "unknown"
}

func toError(err error) *Error {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr
	}
	switch isxerrors.Kind(err) {
	case isxerrors.ErrSignature:
		return &Error{CodeSignature, err.Error()}
	case isxerrors.ErrSchema, isxerrors.ErrEncoding, isxerrors.ErrInputFormat:
		return &Error{CodeInvalidParams, err.Error()}
	default:
		return &Error{CodeInternal, "internal error"}
	}
}
