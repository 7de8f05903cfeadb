// Package metrics exposes prometheus counters for the retrieval pipeline.
//
// Lookup failures are swallowed by design (the bot must always answer), so
// the counters here are the only place those errors stay visible.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	LookupHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nikbot_lookup_hits_total",
		Help: "Queries answered verbatim from the knowledge store.",
	})
	LookupMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nikbot_lookup_misses_total",
		Help: "Queries that fell through to the generative model.",
	})
	EmbeddingErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nikbot_embedding_errors_total",
		Help: "Embedding provider failures converted into lookup misses.",
	})
	StoreErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nikbot_store_errors_total",
		Help: "Knowledge store failures converted into lookup misses.",
	})
	GenerativeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nikbot_generative_errors_total",
		Help: "Generative model failures returned to the user as error text.",
	})
	RecordsStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nikbot_records_stored_total",
		Help: "Conversation records written to the knowledge store.",
	})
)

// Serve starts the /metrics endpoint on addr. An empty addr disables it.
func Serve(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()
	log.Info().Str("addr", addr).Msg("metrics endpoint started")
}
