package query

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queryHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamvault_query_hits_total",
		Help: "Total queries served from a fresh entry without fetching",
	})

	queryFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamvault_query_fetches_total",
		Help: "Total fetcher invocations by result",
	}, []string{"result"}) // "success", "error", "discarded"

	queryJoins = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamvault_query_joins_total",
		Help: "Total callers that attached to an in-flight fetch",
	})

	queryEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "streamvault_query_entries",
		Help: "Number of entries currently held by the query cache",
	})
)
