// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package indexer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	syncRuns      *prometheus.CounterVec
	syncDuration  prometheus.Histogram
	eventsScanned prometheus.Counter
	malformed     *prometheus.CounterVec
	polls         prometheus.Gauge
	projects      prometheus.Gauge
	lastSuccess   prometheus.Gauge
}

func (m *metrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.syncRuns = promautoFactory.NewCounterVec(prometheus.CounterOpts{
		Name: "massa_polls_sync_runs_total",
		Help: "indexer passes by result",
	}, []string{"result"})
	m.syncDuration = promautoFactory.NewHistogram(prometheus.HistogramOpts{
		Name:    "massa_polls_sync_duration_seconds",
		Help:    "duration of one indexer pass",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
	})
	m.eventsScanned = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "massa_polls_events_scanned_total",
		Help: "contract log events read by the indexer",
	})
	m.malformed = promautoFactory.NewCounterVec(prometheus.CounterOpts{
		Name: "massa_polls_malformed_payloads_total",
		Help: "log payloads skipped as malformed, by entity",
	}, []string{"entity"})
	m.polls = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "massa_polls_indexed_polls",
		Help: "polls in the latest snapshot",
	})
	m.projects = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "massa_polls_indexed_projects",
		Help: "projects in the latest snapshot",
	})
	m.lastSuccess = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "massa_polls_last_success_timestamp_seconds",
		Help: "unix time of the last successful pass",
	})
}
