// index for context values
package wctx

import (
	"context"
)

type key int

const (
	chainIDKey   key = 1
	requestIDKey key = 2
	methodKey    key = 3
	remoteKey    key = 4
)

func WithChainID(ctx context.Context, id uint64) context.Context {
	return context.WithValue(ctx, chainIDKey, id)
}

func ChainID(ctx context.Context) uint64 {
	id, _ := ctx.Value(chainIDKey).(uint64)
	return id
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// rpc method being served
func WithMethod(ctx context.Context, m string) context.Context {
	return context.WithValue(ctx, methodKey, m)
}

func Method(ctx context.Context) string {
	m, _ := ctx.Value(methodKey).(string)
	return m
}

func WithRemote(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, remoteKey, addr)
}

func Remote(ctx context.Context) string {
	addr, _ := ctx.Value(remoteKey).(string)
	return addr
}
