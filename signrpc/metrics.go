package signrpc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Requests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ethsig_rpc_requests_total",
		Help: "RPC requests by method and error code. 0 is success",
	}, []string{"method", "code"})

	Duration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ethsig_rpc_duration_seconds",
		Help:    "Time taken to serve an RPC request",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
)
