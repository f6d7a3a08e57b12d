package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics are the engine's prometheus collectors. Each Metrics owns its
// registry so several engines (tests) never collide on registration.
type Metrics struct {
	Registry *prometheus.Registry

	Mutations       *prometheus.CounterVec
	Writes          *prometheus.CounterVec
	PersistFailures *prometheus.CounterVec
	ImportFailures  prometheus.Counter
	Completions     prometheus.Counter
	Health          prometheus.Gauge
	Level           prometheus.Gauge
	Habits          prometheus.Gauge
}

// NewMetrics creates and registers the engine collectors along with the
// standard process and Go runtime collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "habitpal_mutations_total",
			Help: "Engine operations that changed state, by operation.",
		}, []string{"op"}),
		Writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "habitpal_persist_writes_total",
			Help: "Persistence jobs that completed successfully, by operation.",
		}, []string{"op"}),
		PersistFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "habitpal_persist_failures_total",
			Help: "Persistence jobs that failed, by operation.",
		}, []string{"op"}),
		ImportFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "habitpal_legacy_import_failures_total",
			Help: "Legacy data imports that failed and rolled back.",
		}),
		Completions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "habitpal_completions_total",
			Help: "Daily targets reached.",
		}),
		Health: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "habitpal_companion_health",
			Help: "Current companion health.",
		}),
		Level: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "habitpal_companion_level",
			Help: "Current companion level.",
		}),
		Habits: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "habitpal_habits",
			Help: "Number of habits.",
		}),
	}
	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Mutations, m.Writes, m.PersistFailures, m.ImportFailures, m.Completions,
		m.Health, m.Level, m.Habits,
	)
	return m
}
