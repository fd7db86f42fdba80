package signrpc

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/indexsupply/ethsig/config"
	"github.com/indexsupply/ethsig/tc"
	"kr.dev/diff"
)

const (
	sampleKey     = "0xa392604efc2fad9c0b3da43b5f698a2e3f270f170d859912be0d54742275c5f6"
	sampleAddress = "0xef678007d18427e6022059dbc264f27507cd1ffc"
	personalMsg   = "Example `personal_sign` message"

	personalSig = "0x" +
		"a90bb3ace79bf7c2013da8e0b2f0477d1976f25a8b46865a179350868d55ec15" +
		"69a6c551048c25117662e169f52581cf0c0fb2194167cbd8c5cb40fa7438987b" +
		"1b"
	mailV3Sig = "0x" +
		"55cf8242d391a981810d46f7a748c66fda74fc24d7236d6c2bd381cd1df3c943" +
		"4bfcc9f0465b5ac279336f067ea10a39f8a15b252c4df0b94ca21cc9d4c78d38" +
		"1c"
	mailV4Sig = "0x" +
		"1c0f5a018ba60bd82f6f1aafe5374bad6325efb745489b2766775e8ea1a7a2a2" +
		"20a03f6edd4df580fdff75e680f7569673e132822c7f883d1c6cd73d568458a0" +
		"1c"
	legacySig = "0x" +
		"9751c2047b85179de1a1d2e0bd0e10634f586a4a76112c53f661009f5f79fbe1" +
		"2c3a65d6ca64015fc9340c5dca913d9a7eb51ae79ecb0ee057a7265e395d4d67" +
		"1c"
	ethSignSig = "0x" +
		"b58b6860bbb8cd0743b58c5c0ab845f8a7b887795e4ce0d53d2b3a9ee7970b71" +
		"2c0d20e56ff50aa2b83676cd74a22617f11dbc6bcfc1a8eaf9a7b9fa84df47b6" +
		"1c"
)

func testServer(t *testing.T, conf config.Root) *httptest.Server {
	t.Helper()
	conf.Key = sampleKey
	tc.NoErr(t, config.ValidateFix(&conf))
	srv, err := New(conf)
	if err != nil {
		t.Fatal(err)
	}
	diff.Test(t, t.Errorf, sampleAddress, srv.Address().Hex())
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts
}

func read(tb testing.TB, path string) []byte {
	tb.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		tb.Fatal(err)
	}
	return b
}

func callString(t *testing.T, c *Client, method string, params ...any) string {
	t.Helper()
	res, err := c.Call(context.Background(), method, params...)
	if err != nil {
		t.Fatalf("%s: %s", method, err)
	}
	var s string
	if err := json.Unmarshal(res, &s); err != nil {
		t.Fatalf("%s: decoding %s: %s", method, res, err)
	}
	return s
}

func errCode(t *testing.T, err error) int {
	t.Helper()
	var rerr *Error
	if !errors.As(err, &rerr) {
		t.Fatalf("expected rpc error. got: %v", err)
	}
	return rerr.Code
}

func TestCall(t *testing.T) {
	var (
		ts = testServer(t, config.Root{})
		c  = NewClient(ts.URL)
		v1 = json.RawMessage(read(t, "../eip712/legacy/testdata/v1.json"))
		v3 = string(read(t, "../eip712/testdata/mail_v3.json"))
		v4 = json.RawMessage(read(t, "../eip712/testdata/mail_v4.json"))
	)
	res, err := c.Call(context.Background(), "eth_accounts")
	tc.NoErr(t, err)
	var accounts []string
	tc.NoErr(t, json.Unmarshal(res, &accounts))
	diff.Test(t, t.Errorf, []string{sampleAddress}, accounts)

	diff.Test(t, t.Errorf, "0x1", callString(t, c, "eth_chainId"))
	diff.Test(t, t.Errorf, personalSig, callString(t, c, "personal_sign", personalMsg, sampleAddress))
	diff.Test(t, t.Errorf, personalSig, callString(t, c, "personal_sign",
		hexText(personalMsg),
		"0x"+strings.ToUpper(sampleAddress[2:]),
	))
	diff.Test(t, t.Errorf, mailV3Sig, callString(t, c, "eth_signTypedData_v3", sampleAddress, v3))
	diff.Test(t, t.Errorf, mailV4Sig, callString(t, c, "eth_signTypedData_v4", sampleAddress, v4))
	diff.Test(t, t.Errorf, legacySig, callString(t, c, "eth_signTypedData", v1, sampleAddress))
	diff.Test(t, t.Errorf, sampleAddress, callString(t, c, "personal_ecRecover", personalMsg, personalSig))
}

func hexText(s string) string {
	const digits = "0123456789abcdef"
	b := []byte("0x")
	for i := 0; i < len(s); i++ {
		b = append(b, digits[s[i]>>4], digits[s[i]&0x0f])
	}
	return string(b)
}

func TestCallErrors(t *testing.T) {
	var (
		ts    = testServer(t, config.Root{})
		c     = NewClient(ts.URL)
		ctx   = context.Background()
		v4    = json.RawMessage(read(t, "../eip712/testdata/mail_v4.json"))
		other = "0x0000000000000000000000000000000000000001"
	)
	cases := []struct {
		method string
		params []any
		code   int
	}{
		{"eth_sign", []any{sampleAddress, "0x00"}, CodeMethodNotFound},
		{"eth_sendTransaction", []any{}, CodeMethodNotFound},
		{"personal_sign", []any{personalMsg}, CodeInvalidParams},
		{"personal_sign", []any{personalMsg, other}, CodeInvalidParams},
		{"personal_sign", []any{personalMsg, "0xzz"}, CodeInvalidParams},
		{"personal_sign", []any{"0x0", sampleAddress}, CodeInvalidParams},
		{"eth_signTypedData_v3", []any{sampleAddress, v4}, CodeInvalidParams},
		{"eth_signTypedData_v4", []any{sampleAddress, json.RawMessage(`{"types":{}}`)}, CodeInvalidParams},
		{"eth_signTypedData", []any{json.RawMessage(`[]`), sampleAddress}, CodeInvalidParams},
		{"personal_ecRecover", []any{personalMsg, "0x" + strings.Repeat("00", 64) + "1d"}, CodeSignature},
	}
	for _, tt := range cases {
		_, err := c.Call(ctx, tt.method, tt.params...)
		diff.Test(t, t.Errorf, tt.code, errCode(t, err))
	}
}

func TestEthSignEnabled(t *testing.T) {
	var (
		ts = testServer(t, config.Root{Methods: []string{"eth_sign"}})
		c  = NewClient(ts.URL)
	)
	const digest = "0x879a053d4800c6354e76c7985a865d2922c82fb5b3f4577b2fe08b998954f2e0"
	diff.Test(t, t.Errorf, ethSignSig, callString(t, c, "eth_sign", sampleAddress, digest))

	_, err := c.Call(context.Background(), "eth_sign", sampleAddress, "0x0011")
	diff.Test(t, t.Errorf, CodeInvalidParams, errCode(t, err))
	_, err = c.Call(context.Background(), "personal_sign", personalMsg, sampleAddress)
	diff.Test(t, t.Errorf, CodeMethodNotFound, errCode(t, err))
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServeHTTP(t *testing.T) {
	ts := testServer(t, config.Root{})

	resp, err := http.Get(ts.URL)
	tc.NoErr(t, err)
	resp.Body.Close()
	diff.Test(t, t.Errorf, http.StatusMethodNotAllowed, resp.StatusCode)

	resp = post(t, ts.URL, `[
		{"jsonrpc": "2.0", "id": 1, "method": "eth_chainId", "params": []},
		{"jsonrpc": "2.0", "id": "two", "method": "nope", "params": []},
		{"jsonrpc": "1.0", "id": 3, "method": "eth_chainId"}
	]`)
	diff.Test(t, t.Errorf, http.StatusOK, resp.StatusCode)
	if resp.Header.Get("x-request-id") == "" {
		t.Error("expected x-request-id header")
	}
	var batch []struct {
		ID     json.RawMessage `json:"id"`
		Result string          `json:"result"`
		Error  *Error          `json:"error"`
	}
	tc.NoErr(t, json.NewDecoder(resp.Body).Decode(&batch))
	if len(batch) != 3 {
		t.Fatalf("expected 3 responses. got: %d", len(batch))
	}
	diff.Test(t, t.Errorf, "1", string(batch[0].ID))
	diff.Test(t, t.Errorf, "0x1", batch[0].Result)
	diff.Test(t, t.Errorf, `"two"`, string(batch[1].ID))
	diff.Test(t, t.Errorf, CodeMethodNotFound, batch[1].Error.Code)
	diff.Test(t, t.Errorf, CodeInvalidRequest, batch[2].Error.Code)

	cases := []struct {
		body string
		code int
	}{
		{`{`, CodeParse},
		{`[`, CodeParse},
		{`[]`, CodeInvalidRequest},
		{`{"jsonrpc": "2.0", "id": 1}`, CodeInvalidRequest},
	}
	for _, c := range cases {
		var res response
		resp := post(t, ts.URL, c.body)
		tc.NoErr(t, json.NewDecoder(resp.Body).Decode(&res))
		if res.Error == nil {
			t.Errorf("%s: expected error", c.body)
			continue
		}
		diff.Test(t, t.Errorf, c.code, res.Error.Code)
	}
}

func TestRequestID(t *testing.T) {
	ts := testServer(t, config.Root{})
	req, err := http.NewRequest("POST", ts.URL, strings.NewReader(
		`{"jsonrpc": "2.0", "id": 1, "method": "eth_chainId"}`,
	))
	tc.NoErr(t, err)
	req.Header.Set("x-request-id", "abc")
	resp, err := http.DefaultClient.Do(req)
	tc.NoErr(t, err)
	resp.Body.Close()
	diff.Test(t, t.Errorf, "abc", resp.Header.Get("x-request-id"))
}

func TestWebsocket(t *testing.T) {
	var (
		ts = testServer(t, config.Root{})
		c  = NewClient("ws" + strings.TrimPrefix(ts.URL, "http"))
	)
	defer c.Close()
	diff.Test(t, t.Errorf, "0x1", callString(t, c, "eth_chainId"))
	diff.Test(t, t.Errorf, personalSig, callString(t, c, "personal_sign", personalMsg, sampleAddress))

	_, err := c.Call(context.Background(), "eth_sign", sampleAddress, "0x00")
	diff.Test(t, t.Errorf, CodeMethodNotFound, errCode(t, err))

	diff.Test(t, t.Errorf, "0x1", callString(t, c, "eth_chainId"))
}

func TestToError(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{&Error{CodeMethodNotFound, "x"}, CodeMethodNotFound},
		{errors.New("boom"), CodeInternal},
	}
	for _, c := range cases {
		diff.Test(t, t.Errorf, c.code, toError(c.err).Code)
	}
	diff.Test(t, t.Errorf, "internal error", toError(errors.New("secret detail")).Message)
}

func TestLabel(t *testing.T) {
	diff.Test(t, t.Errorf, "personal_sign", label("personal_sign"))
	diff.Test(t, t.Errorf, "eth_chainId", label("eth_chainId"))
	diff.Test(t, t.Errorf, "unknown", label("eth_sendTransaction"))
	diff.Test(t, t.Errorf, "unknown", label("rpc.junk"))
}

func TestMetricSeriesBounded(t *testing.T) {
	var (
		ts       = testServer(t, config.Root{})
		c        = NewClient(ts.URL)
		requests = testutil.CollectAndCount(Requests)
		duration = testutil.CollectAndCount(Duration)
	)
	for i := 0; i < 100; i++ {
		method := fmt.Sprintf("junk_%d_%s", i, strings.Repeat("x", 64))
		_, err := c.Call(context.Background(), method)
		diff.Test(t, t.Errorf, CodeMethodNotFound, errCode(t, err))
	}
	if n := testutil.CollectAndCount(Requests) - requests; n > 1 {
		t.Errorf("request series grew by %d", n)
	}
	if n := testutil.CollectAndCount(Duration) - duration; n > 1 {
		t.Errorf("duration series grew by %d", n)
	}
}
