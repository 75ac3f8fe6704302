package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingest metrics
	MonthFetchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chesstrail_month_fetches_total",
		Help: "The total number of month archives fetched from the upstream API",
	})
	ArchiveCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chesstrail_archive_cache_hits_total",
		Help: "The total number of month archives served from the Redis cache",
	})
	GamesIngestedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chesstrail_games_ingested_total",
		Help: "The total number of games inserted into storage",
	})
	GamesSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chesstrail_games_skipped_total",
		Help: "The total number of games skipped as duplicates",
	})

	// Query metrics
	AgentQueriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chesstrail_agent_queries_total",
		Help: "The total number of agent game queries served",
	})

	UpstreamFetchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chesstrail_upstream_fetch_latency_seconds",
		Help:    "Latency of chess.com archive fetches",
		Buckets: prometheus.DefBuckets,
	})
)
