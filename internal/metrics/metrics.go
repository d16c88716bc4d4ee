// Package metrics defines the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors. A zero-value pointer is not usable; create
// one with New.
type Metrics struct {
	GamesProcessed     *prometheus.CounterVec
	PlayersProcessed   *prometheus.CounterVec
	LedgerNoops        *prometheus.CounterVec
	TeamDiscrepancies  *prometheus.CounterVec
	ProcessingDuration prometheus.Histogram
	JobsQueued         prometheus.Counter
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		GamesProcessed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gridiron",
			Name:      "games_processed_total",
			Help:      "Games processed, by outcome.",
		}, []string{"outcome"}),
		PlayersProcessed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gridiron",
			Name:      "players_processed_total",
			Help:      "Player updates, by result.",
		}, []string{"result"}),
		LedgerNoops: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gridiron",
			Name:      "ledger_noops_total",
			Help:      "Rollups skipped because the game was already in the ledger, by tier.",
		}, []string{"tier"}),
		TeamDiscrepancies: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gridiron",
			Name:      "team_discrepancies_total",
			Help:      "Fields on which team stat derivations disagreed.",
		}, []string{"field"}),
		ProcessingDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gridiron",
			Name:      "game_processing_seconds",
			Help:      "Time to process and persist one game.",
			Buckets:   prometheus.DefBuckets,
		}),
		JobsQueued: f.NewCounter(prometheus.CounterOpts{
			Namespace: "gridiron",
			Name:      "jobs_queued_total",
			Help:      "Ingest jobs enqueued.",
		}),
	}
}
