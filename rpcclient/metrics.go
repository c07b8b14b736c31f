package rpcclient

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	callsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rpcbridge",
		Subsystem: "rpc",
		Name:      "calls_total",
		Help:      "RPC calls made to the daemon by method and outcome.",
	}, []string{"method", "outcome"})

	callDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "rpcbridge",
		Subsystem: "rpc",
		Name:      "call_duration_seconds",
		Help:      "Time from sending an RPC call to its outcome.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})
)

// RegisterMetrics registers the client's collectors with reg.  Registering
// twice with the same registerer is not an error.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{callsTotal, callDuration} {
		err := reg.Register(c)
		var are prometheus.AlreadyRegisteredError
		if err != nil && !errors.As(err, &are) {
			return err
		}
	}
	return nil
}

func observeCall(method string, err error, elapsed time.Duration) {
	callsTotal.WithLabelValues(method, outcome(err)).Inc()
	callDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}
