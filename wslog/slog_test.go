package wslog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/indexsupply/ethsig/wctx"
	"kr.dev/diff"
)

type wslogTestKey struct{}

func TestHandler_Context(t *testing.T) {
	ctx := context.Background()
	buf := bytes.Buffer{}
	clg := New(&buf, nil)
	clg.RegisterContext(func(ctx context.Context) (string, any) {
		return "foo", ctx.Value(wslogTestKey{})
	})
	clg.RegisterContext(func(ctx context.Context) (string, any) {
		return "", nil
	})
	log := slog.New(clg)

	ctx = context.WithValue(ctx, wslogTestKey{}, "bar")
	log.InfoContext(ctx, "")
	diff.Test(t, t.Errorf, "l=info  foo=bar\n", buf.String())
}

func TestHandler_ChainID(t *testing.T) {
	buf := bytes.Buffer{}
	h := New(&buf, nil)
	h.RegisterContext(func(ctx context.Context) (string, any) {
		id := wctx.ChainID(ctx)
		if id == 0 {
			return "", nil
		}
		return "chain", id
	})
	log := slog.New(h)

	log.InfoContext(context.Background(), "a")
	log.InfoContext(wctx.WithChainID(context.Background(), 137), "b")
	diff.Test(t, t.Errorf, "l=info  msg=a\nl=info  msg=b chain=137\n", buf.String())
}

type secretHolder struct{}

func (secretHolder) LogValue() slog.Value { return slog.StringValue("0xabc") }

func TestHandler(t *testing.T) {
	cases := []struct {
		name  string
		with  func(*slog.Logger) *slog.Logger
		level slog.Level
		msg   string
		attrs []slog.Attr
		want  string
	}{
		{
			name:  "basic",
			attrs: []slog.Attr{slog.String("foo", "bar")},
			msg:   "baz",
			want:  "l=info  msg=baz foo=bar\n",
		},
		{
			name:  "error",
			level: slog.LevelError,
			msg:   "baz",
			want:  "l=error msg=baz\n",
		},
		{
			name: "group",
			attrs: []slog.Attr{
				slog.String("foo", "bar"),
				slog.Group("baz", slog.Int("a", 1), slog.Int("b", 2)),
				slog.Bool("qux", true),
			},
			want: "l=info  foo=bar baz.a=1 baz.b=2 qux=true\n",
		},
		{
			name:  "WithAttrs",
			with:  func(l *slog.Logger) *slog.Logger { return l.With("wa", 1, "wb", 2) },
			attrs: []slog.Attr{slog.String("c", "foo"), slog.Bool("b", true)},
			want:  "l=info  wa=1 wb=2 c=foo b=true\n",
		},
		{
			name: "WithAttrs,WithGroup",
			with: func(l *slog.Logger) *slog.Logger {
				return l.With("wa", 1, "wb", 2).WithGroup("p1").With("wc", 3).WithGroup("p2")
			},
			attrs: []slog.Attr{slog.String("c", "foo"), slog.Bool("b", true)},
			want:  "l=info  wa=1 wb=2 p1.wc=3 p1.p2.c=foo p1.p2.b=true\n",
		},
		{
			name: "redacted",
			attrs: []slog.Attr{
				slog.String("key", "0xa392"),
				slog.Group("signer", slog.String("private_key", "0xa392")),
				slog.String("Password", "hunter2"),
				slog.String("addr", "0xef67"),
			},
			want: "l=info  key=[redacted] signer.private_key=[redacted] Password=[redacted] addr=0xef67\n",
		},
		{
			name:  "LogValuer",
			attrs: []slog.Attr{slog.Any("signer", secretHolder{})},
			want:  "l=info  signer=0xabc\n",
		},
	}

	for _, tc := range cases {
		var (
			ctx = context.Background()
			buf bytes.Buffer
			l   = slog.New(New(&buf, nil))
		)
		if tc.with != nil {
			l = tc.with(l)
		}
		l.LogAttrs(ctx, tc.level, tc.msg, tc.attrs...)
		diff.Test(t, t.Errorf, tc.want, buf.String())
	}
}
