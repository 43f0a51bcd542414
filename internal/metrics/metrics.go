// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sirius"

type Metrics struct {
	HTTPRequests          *prometheus.CounterVec
	TranscriptsParsed     *prometheus.CounterVec
	TranscriptLineSkipped prometheus.Counter
	ChatEventsPublished   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		TranscriptsParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transcript",
			Name:      "parsed_total",
			Help:      "Transcripts parsed by source.",
		}, []string{"source"}),
		TranscriptLineSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transcript",
			Name:      "lines_skipped_total",
			Help:      "Transcript lines that could not be decoded.",
		}),
		ChatEventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "events_published_total",
			Help:      "Chat change events published by type.",
		}, []string{"type"}),
	}
	for _, c := range []prometheus.Collector{m.HTTPRequests, m.TranscriptsParsed, m.TranscriptLineSkipped, m.ChatEventsPublished} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// NewNop returns collectors that are not registered anywhere. Used by tests
// and tools that do not serve /metrics.
func NewNop() *Metrics {
	m, _ := New(prometheus.NewRegistry())
	return m
}
