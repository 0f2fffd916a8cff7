// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the chatbot
// service. Metrics are exposed on /metrics; all operations are
// thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "fasttrack"
const chatSubsystem = "chat"

// ChatMetrics holds all Prometheus metrics for chat and feedback
// operations. Initialize once at startup via InitMetrics().
type ChatMetrics struct {
	// RequestsTotal counts chat requests by outcome.
	// Labels: status (success, run_failed, run_cancelled, timeout, error)
	RequestsTotal *prometheus.CounterVec

	// RunPollSeconds measures time from run creation to terminal state.
	// Labels: outcome (completed, failed, cancelled, timeout)
	RunPollSeconds *prometheus.HistogramVec

	// CitationsTotal counts document citations rendered into responses.
	CitationsTotal prometheus.Counter

	// CitationErrorsTotal counts citations dropped because the cited
	// file could not be resolved.
	CitationErrorsTotal prometheus.Counter

	// PhraseLookupsTotal counts verbatim phrase generation calls.
	// Labels: status (success, error)
	PhraseLookupsTotal *prometheus.CounterVec

	// FeedbackTotal counts feedback rows by sink outcome.
	// Labels: status (success, error)
	FeedbackTotal *prometheus.CounterVec
}

// DefaultMetrics is the singleton instance, nil until InitMetrics runs.
// Recording sites nil-check it so unit tests do not need a registry.
var DefaultMetrics *ChatMetrics

// InitMetrics creates and registers all chatbot metrics. Call once at
// startup; a second call panics on duplicate registration.
func InitMetrics() *ChatMetrics {
	DefaultMetrics = &ChatMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: chatSubsystem,
				Name:      "requests_total",
				Help:      "Total chat requests by outcome",
			},
			[]string{"status"},
		),
		RunPollSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: chatSubsystem,
				Name:      "run_poll_seconds",
				Help:      "Time from run creation to terminal state",
				Buckets:   []float64{1, 2, 5, 10, 30, 60, 120, 300},
			},
			[]string{"outcome"},
		),
		CitationsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: chatSubsystem,
				Name:      "citations_total",
				Help:      "Document citations rendered into responses",
			},
		),
		CitationErrorsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: chatSubsystem,
				Name:      "citation_errors_total",
				Help:      "Citations dropped due to failed file resolution",
			},
		),
		PhraseLookupsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: chatSubsystem,
				Name:      "phrase_lookups_total",
				Help:      "Verbatim phrase generation calls by status",
			},
			[]string{"status"},
		),
		FeedbackTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "feedback",
				Name:      "rows_total",
				Help:      "Feedback rows by sink outcome",
			},
			[]string{"status"},
		),
	}
	return DefaultMetrics
}

// RecordRequest records a completed chat request by outcome label.
func (m *ChatMetrics) RecordRequest(status string) {
	m.RequestsTotal.WithLabelValues(status).Inc()
}

// RecordRunPoll records one run's polling duration and outcome.
func (m *ChatMetrics) RecordRunPoll(seconds float64, outcome string) {
	m.RunPollSeconds.WithLabelValues(outcome).Observe(seconds)
}

// RecordCitations adds the number of citations rendered in one response.
func (m *ChatMetrics) RecordCitations(n int) {
	m.CitationsTotal.Add(float64(n))
}

// RecordCitationError counts one dropped citation.
func (m *ChatMetrics) RecordCitationError() {
	m.CitationErrorsTotal.Inc()
}

// RecordPhraseLookup counts one phrase generation call.
func (m *ChatMetrics) RecordPhraseLookup(success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.PhraseLookupsTotal.WithLabelValues(status).Inc()
}

// RecordFeedback counts one feedback row by sink outcome.
func (m *ChatMetrics) RecordFeedback(success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.FeedbackTotal.WithLabelValues(status).Inc()
}
