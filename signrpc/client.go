package signrpc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzhttp"
	"golang.org/x/sync/errgroup"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// Client for a signing endpoint. An http(s) url sends
// each Call as a POST. A ws(s) url sends every Call over
// a single websocket that is dialed on first use.
type Client struct {
	d   bool
	hc  *http.Client
	url string
	n   atomic.Uint64

	ws *websocket.Conn
}

func NewClient(url string) *Client {
	return &Client{
		d: strings.Contains(url, "debug"),
		hc: &http.Client{
			Timeout:   10 * time.Second,
			Transport: gzhttp.Transport(http.DefaultTransport),
		},
		url: url,
	}
}

func (c *Client) debug(r io.Reader) io.Reader {
	if !c.d {
		return r
	}
	return io.TeeReader(r, os.Stdout)
}

type call struct {
	ID      uint64 `json:"id"`
	Version string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type reply struct {
	Result json.RawMessage `json:"result"`
	Error  *Error          `json:"error"`
}

// Returns the raw result. When the server responds
// with an error the returned error is an *Error.
func (c *Client) Call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	if params == nil {
		params = []any{}
	}
	var (
		req = call{
			ID:      c.n.Add(1),
			Version: "2.0",
			Method:  method,
			Params:  params,
		}
		res reply
		err error
	)
	if strings.HasPrefix(c.url, "ws") {
		err = c.wsdo(ctx, &res, req)
	} else {
		err = c.do(ctx, &res, req)
	}
	if err != nil {
		return nil, err
	}
	if res.Error != nil {
		return nil, res.Error
	}
	return res.Result, nil
}

func (c *Client) do(ctx context.Context, dest, req any) error {
	var (
		eg   errgroup.Group
		r, w = io.Pipe()
		resp *http.Response
	)
	eg.Go(func() error {
		defer w.Close()
		return json.NewEncoder(w).Encode(req)
	})
	eg.Go(func() error {
		req, err := http.NewRequestWithContext(ctx, "POST", c.url, c.debug(r))
		if err != nil {
			return fmt.Errorf("unable to new request: %w", err)
		}
		req.Header.Add("content-type", "application/json")
		resp, err = c.hc.Do(req)
		if err != nil {
			r.CloseWithError(err)
			return fmt.Errorf("unable to do http request: %w", err)
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(resp.Body)
		text := strings.Map(func(r rune) rune {
			if unicode.IsPrint(r) {
				return r
			}
			return -1
		}, string(b))
		const msg = "rpc http error: %d %.100s"
		return fmt.Errorf(msg, resp.StatusCode, text)
	}
	if err := json.NewDecoder(c.debug(resp.Body)).Decode(dest); err != nil {
		return fmt.Errorf("unable to json decode: %w", err)
	}
	return nil
}

// Calls over a websocket are not safe for concurrent use.
func (c *Client) wsdo(ctx context.Context, dest, req any) error {
	if c.ws == nil {
		ws, _, err := websocket.Dial(ctx, c.url, nil)
		if err != nil {
			return fmt.Errorf("ws dial %q: %w", c.url, err)
		}
		c.ws = ws
	}
	if err := wsjson.Write(ctx, c.ws, req); err != nil {
		return fmt.Errorf("ws write %q: %w", c.url, err)
	}
	if err := wsjson.Read(ctx, c.ws, dest); err != nil {
		return fmt.Errorf("ws read %q: %w", c.url, err)
	}
	return nil
}

func (c *Client) Close() error {
	if c.ws == nil {
		return nil
	}
	return c.ws.Close(websocket.StatusNormalClosure, "")
}
