package model

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	forwardTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sar2rgb",
		Name:      "forward_total",
		Help:      "Forward passes by network and outcome.",
	}, []string{"network", "outcome"})

	forwardSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sar2rgb",
		Name:      "forward_duration_seconds",
		Help:      "Wall time of a single forward pass.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
	}, []string{"network"})
)

func observeForward(network string, start time.Time, err error) {
	outcome := "ok"
	switch err.(type) {
	case nil:
	case *ShapeMismatchError:
		outcome = "shape_mismatch"
	default:
		outcome = "error"
	}
	forwardTotal.WithLabelValues(network, outcome).Inc()
	forwardSeconds.WithLabelValues(network).Observe(time.Since(start).Seconds())
}
