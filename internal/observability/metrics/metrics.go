package metrics

import (
	"database/sql"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	metricPrefix = "parking_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	quoteTotal   *prometheus.CounterVec
	quoteLatency *prometheus.HistogramVec
	quoteErrors  *prometheus.CounterVec
	quoteAmount  *prometheus.HistogramVec

	planActivations *prometheus.CounterVec
	ruleValidations *prometheus.CounterVec

	snapshotCache *prometheus.CounterVec

	pricingSnapshotTotal *prometheus.CounterVec

	rateCardExportTotal   *prometheus.CounterVec
	rateCardExportLatency *prometheus.HistogramVec
)

// Init registers pricing metrics and DB-backed gauges.
func Init(db *sql.DB, logger *zap.Logger) {
	registerOnce.Do(func() {
		quoteTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "quote_total",
				Help: "Total quote computations by result",
			},
			[]string{"result"},
		)
		quoteLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "quote_latency_seconds",
				Help:    "Quote latency in seconds including snapshot loading",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		quoteErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "quote_errors_total",
				Help: "Total quote failures by kind",
			},
			[]string{"kind"},
		)
		quoteAmount = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "quote_total_minor_units",
				Help:    "Quoted totals in minor currency units",
				Buckets: prometheus.ExponentialBuckets(100, 4, 10),
			},
			[]string{"vehicle_type"},
		)

		planActivations = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "tariff_plan_activations_total",
				Help: "Total tariff plan activations by result",
			},
			[]string{"result"},
		)
		ruleValidations = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "tariff_rule_validations_total",
				Help: "Total rule set validations by result",
			},
			[]string{"result"},
		)

		snapshotCache = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "tariff_snapshot_cache_total",
				Help: "Plan snapshot cache lookups by outcome",
			},
			[]string{"outcome"},
		)

		pricingSnapshotTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "pricing_snapshot_total",
				Help: "Total recorded pricing snapshots by result",
			},
			[]string{"result"},
		)

		rateCardExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ratecard_export_total",
				Help: "Total rate card exports by format and result",
			},
			[]string{"format", "result"},
		)
		rateCardExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "ratecard_export_latency_seconds",
				Help:    "Rate card export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			quoteTotal,
			quoteLatency,
			quoteErrors,
			quoteAmount,
			planActivations,
			ruleValidations,
			snapshotCache,
			pricingSnapshotTotal,
			rateCardExportTotal,
			rateCardExportLatency,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveQuote records quote latency and result.
func ObserveQuote(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if quoteTotal != nil {
		quoteTotal.WithLabelValues(result).Inc()
	}
	if quoteLatency != nil {
		quoteLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncQuoteError increments the failure counter for an error kind.
func IncQuoteError(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	if quoteErrors != nil {
		quoteErrors.WithLabelValues(kind).Inc()
	}
}

// ObserveQuoteAmount records a successful quote total.
func ObserveQuoteAmount(vehicleType string, total int64) {
	if quoteAmount != nil {
		quoteAmount.WithLabelValues(vehicleType).Observe(float64(total))
	}
}

// IncPlanActivation increments plan activation counters.
func IncPlanActivation(result string) {
	if result == "" {
		result = resultSuccess
	}
	if planActivations != nil {
		planActivations.WithLabelValues(result).Inc()
	}
}

// IncRuleValidation increments rule set validation counters.
func IncRuleValidation(result string) {
	if result == "" {
		result = resultSuccess
	}
	if ruleValidations != nil {
		ruleValidations.WithLabelValues(result).Inc()
	}
}

// IncSnapshotCache counts a snapshot cache lookup outcome.
func IncSnapshotCache(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	if snapshotCache != nil {
		snapshotCache.WithLabelValues(outcome).Inc()
	}
}

// IncPricingSnapshot increments recorded pricing snapshot counters.
func IncPricingSnapshot(result string) {
	if result == "" {
		result = resultSuccess
	}
	if pricingSnapshotTotal != nil {
		pricingSnapshotTotal.WithLabelValues(result).Inc()
	}
}

// ObserveRateCardExport records export latency and result.
func ObserveRateCardExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if rateCardExportTotal != nil {
		rateCardExportTotal.WithLabelValues(format, result).Inc()
	}
	if rateCardExportLatency != nil {
		rateCardExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError

	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)
