// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package metrics defines the Prometheus instruments of the Quizdesk API.

Metric naming follows Prometheus conventions:

  - quizdesk_ prefix for all custom metrics
  - _total suffix for counters
  - _seconds suffix for duration histograms

A [Metrics] value owns its collectors and registers them on the registry it is
given, so tests can build an isolated instance on a fresh registry. All record
methods are safe on a nil receiver.
*/
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// # Outcomes

const (
	OutcomeAllowed = "allowed"
	OutcomeDenied  = "denied"

	OutcomeSuccess = "success"
)

// Metrics groups every collector the service exports.
type Metrics struct {
	// GateRejections counts gate rejections by stage and reason.
	GateRejections *prometheus.CounterVec
	// ThrottleDecisions counts throttle admissions by policy and outcome.
	ThrottleDecisions *prometheus.CounterVec
	// ThrottleSubjects tracks how many subjects each throttle remembers.
	ThrottleSubjects *prometheus.GaugeVec
	// LoginAttempts counts login attempts by outcome (success or rejection code).
	LoginAttempts *prometheus.CounterVec
	// RequestDuration is a histogram of HTTP latencies by route pattern.
	RequestDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them on registry.
//
// # Parameters
//   - registry: Usually a fresh [prometheus.NewRegistry]; it must also be a
//     [prometheus.Gatherer] for [Metrics.Handler] to serve it.
func New(registry *prometheus.Registry) *Metrics {
	metrics := &Metrics{
		GateRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quizdesk_gate_rejections_total",
				Help: "Total requests rejected by the gate, by stage and reason.",
			},
			[]string{"stage", "reason"},
		),
		ThrottleDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quizdesk_throttle_decisions_total",
				Help: "Total throttle decisions by policy and outcome.",
			},
			[]string{"policy", "outcome"},
		),
		ThrottleSubjects: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "quizdesk_throttle_subjects",
				Help: "Subjects currently tracked by each throttle.",
			},
			[]string{"policy"},
		),
		LoginAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quizdesk_login_attempts_total",
				Help: "Total login attempts by outcome.",
			},
			[]string{"outcome"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quizdesk_http_request_duration_seconds",
				Help:    "HTTP request latencies in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		gatherer: registry,
	}

	registry.MustRegister(
		metrics.GateRejections,
		metrics.ThrottleDecisions,
		metrics.ThrottleSubjects,
		metrics.LoginAttempts,
		metrics.RequestDuration,
	)
	return metrics
}

// # Recorders

// GateRejected records one gate rejection.
func (metrics *Metrics) GateRejected(stage, reason string) {
	if metrics == nil {
		return
	}
	metrics.GateRejections.WithLabelValues(stage, reason).Inc()
}

// ThrottleDecided records one throttle decision.
func (metrics *Metrics) ThrottleDecided(policy string, allowed bool) {
	if metrics == nil {
		return
	}
	outcome := OutcomeAllowed
	if !allowed {
		outcome = OutcomeDenied
	}
	metrics.ThrottleDecisions.WithLabelValues(policy, outcome).Inc()
}

// ThrottleTracked sets the tracked-subject gauge for policy.
func (metrics *Metrics) ThrottleTracked(policy string, subjects int) {
	if metrics == nil {
		return
	}
	metrics.ThrottleSubjects.WithLabelValues(policy).Set(float64(subjects))
}

// LoginAttempted records one login attempt.
func (metrics *Metrics) LoginAttempted(outcome string) {
	if metrics == nil {
		return
	}
	metrics.LoginAttempts.WithLabelValues(outcome).Inc()
}

// # HTTP

// Handler serves the registry in the Prometheus exposition format.
func (metrics *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(metrics.gatherer, promhttp.HandlerOpts{})
}

// Instrument observes request latency labelled by the matched chi route pattern.
func (metrics *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		start := time.Now()
		recorder := &statusWriter{ResponseWriter: writer, code: http.StatusOK}

		next.ServeHTTP(recorder, request)

		// The pattern is only known once routing has happened.
		route := "unmatched"
		if routeContext := chi.RouteContext(request.Context()); routeContext != nil {
			if pattern := routeContext.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		metrics.RequestDuration.
			WithLabelValues(request.Method, route, strconv.Itoa(recorder.code)).
			Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (writer *statusWriter) WriteHeader(code int) {
	writer.code = code
	writer.ResponseWriter.WriteHeader(code)
}
