// internal/keygen/metrics.go
package keygen

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "keygen",
		Name:      "requests_total",
		Help:      "Calls to the licensing service by operation and outcome.",
	}, []string{"operation", "outcome"})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "keygen",
		Name:      "request_retries_total",
		Help:      "Retried attempts against the licensing service.",
	}, []string{"operation"})

	seatDenialsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "keygen",
		Name:      "seat_denials_total",
		Help:      "Machine activations refused because the seat pool was full.",
	})

	linkCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "keygen",
		Name:      "download_link_cache_lookups_total",
		Help:      "Download link cache lookups by result.",
	}, []string{"result"})
)

const (
	outcomeSuccess   = "success"
	outcomeHTTPError = "http_error"
	outcomeTransport = "transport_error"
)
