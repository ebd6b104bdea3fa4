// Package metrics holds Prometheus instruments that are used across the
// service.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signup_submissions_total",
			Help: "Submit attempts by outcome (invalid, accepted, rejected, busy).",
		}, []string{"outcome"})

	ValidationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signup_validation_failures_total",
			Help: "Field validation failures by field.",
		}, []string{"field"})

	RelayResponsesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signup_relay_responses_total",
			Help: "Responses from the sheet endpoint by shape.",
		}, []string{"kind"})

	RelayDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "signup_relay_duration_seconds",
			Help:    "Time spent relaying one registration.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"})

	ActiveForms = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "signup_active_forms",
			Help: "Rendered form instances currently held in memory.",
		})

	ArchiveErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "signup_archive_errors_total",
			Help: "Cumulative number of failed archive writes.",
		})
)

func init() {
	prometheus.MustRegister(
		SubmissionsTotal,
		ValidationFailuresTotal,
		RelayResponsesTotal,
		RelayDuration,
		ActiveForms,
		ArchiveErrorsTotal,
	)
}
