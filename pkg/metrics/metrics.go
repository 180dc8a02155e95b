// Package metrics holds the Prometheus collectors for statement imports.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "statements"

// Outcomes recorded on FilesParsed
const (
	OutcomeOK       = "ok"
	OutcomeEmpty    = "empty"
	OutcomeNoParser = "no_parser"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics groups the import collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	FilesParsed         *prometheus.CounterVec
	TransactionsEmitted *prometheus.CounterVec
	DuplicatesInBatch   *prometheus.CounterVec
	ParseDuration       *prometheus.HistogramVec
	HTTPRequests        *prometheus.CounterVec
}

// New registers the collectors on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		FilesParsed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_parsed_total",
			Help:      "Statement files processed, by parser and outcome.",
		}, []string{"parser", "outcome"}),
		TransactionsEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_emitted_total",
			Help:      "Normalized transactions returned, by parser.",
		}, []string{"parser"}),
		DuplicatesInBatch: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_in_batch_total",
			Help:      "Transactions flagged as in-batch duplicates, by parser.",
		}, []string{"parser"}),
		ParseDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parse_duration_seconds",
			Help:      "Time spent parsing one file, by parser.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"parser"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route and status code.",
		}, []string{"route", "code"}),
	}
}

// ObserveParse records one parsed file
func (m *Metrics) ObserveParse(parser, outcome string, transactions, duplicates int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if parser == "" {
		parser = "none"
	}
	m.FilesParsed.WithLabelValues(parser, outcome).Inc()
	m.TransactionsEmitted.WithLabelValues(parser).Add(float64(transactions))
	m.DuplicatesInBatch.WithLabelValues(parser).Add(float64(duplicates))
	m.ParseDuration.WithLabelValues(parser).Observe(elapsed.Seconds())
}

// ObserveRequest records one HTTP response
func (m *Metrics) ObserveRequest(route string, code int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// Handler exposes g in the Prometheus text format
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
