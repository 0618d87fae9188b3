package metrics

import (
	"context"
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// dbGauges are sampled from Postgres on every scrape.
var dbGauges = []struct {
	name  string
	help  string
	query string
}{
	{"lots", "Registered parking lots", "SELECT COUNT(*) FROM lots"},
	{"tariff_active_plans", "Lots with an active tariff plan", "SELECT COUNT(*) FROM tariff_active_plans"},
	{"tariff_event_outbox_pending", "Tariff events recorded but not yet delivered", "SELECT COUNT(*) FROM tariff_event_outbox WHERE status = 'pending'"},
	{"tariff_event_outbox_failed", "Tariff events whose in-process delivery failed", "SELECT COUNT(*) FROM tariff_event_outbox WHERE status = 'failed'"},
}

const scrapeQueryTimeout = 2 * time.Second

func registerDBMetrics(db *sql.DB, logger *zap.Logger) {
	for _, g := range dbGauges {
		query := g.query
		prometheus.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Name: metricPrefix + g.name, Help: g.help},
			func() float64 { return countRows(db, logger, query) },
		))
	}
}

func countRows(db *sql.DB, logger *zap.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	ctx, cancel := context.WithTimeout(context.Background(), scrapeQueryTimeout)
	defer cancel()

	var count int64
	if err := db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		if logger != nil {
			logger.Warn("metrics query failed", zap.String("query", query), zap.Error(err))
		}
		return 0
	}
	return float64(max(count, 0))
}
