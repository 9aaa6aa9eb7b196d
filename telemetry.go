package server

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Telemetry mirrors the loop's health counters two ways: atomics for
// the cheap in-process diagnostics snapshot, and prometheus collectors for
// scraping. The tick goroutine only ever increments; readers never block it.
type Telemetry struct {
	ticksTotal           atomic.Uint64
	tickBudgetOverruns   atomic.Uint64
	droppedEvents        atomic.Uint64
	walkAborts           atomic.Uint64
	wanderExhaustions    atomic.Uint64
	projectileSettles    atomic.Uint64
	scaffoldPathFailures atomic.Uint64
	broadcastBytes       atomic.Uint64
	broadcastEntities    atomic.Uint64

	registry     *prometheus.Registry
	tickDuration prometheus.Histogram
	eventCounter *prometheus.CounterVec
}

// TelemetrySnapshot is the diagnostics view of the counters.
type TelemetrySnapshot struct {
	TicksTotal           uint64 `json:"ticksTotal"`
	TickBudgetOverruns   uint64 `json:"tickBudgetOverruns"`
	DroppedEvents        uint64 `json:"droppedEvents"`
	WalkAborts           uint64 `json:"walkAborts"`
	WanderExhaustions    uint64 `json:"wanderExhaustions"`
	ProjectileSettles    uint64 `json:"projectileSettles"`
	ScaffoldPathFailures uint64 `json:"scaffoldPathFailures"`
	BroadcastBytes       uint64 `json:"broadcastBytes"`
	BroadcastEntities    uint64 `json:"broadcastEntities"`
}

func NewTelemetry() *Telemetry {
	registry := prometheus.NewRegistry()
	t := &Telemetry{
		registry: registry,
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "minionkeep",
			Name:      "tick_duration_seconds",
			Help:      "Wall time spent inside one simulation step.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		eventCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "minionkeep",
			Name:      "simulation_events_total",
			Help:      "Simulation incidents by kind.",
		}, []string{"kind"}),
	}
	registry.MustRegister(t.tickDuration, t.eventCounter)
	return t
}

// ObserveTick records one completed step and whether it blew the budget.
func (t *Telemetry) ObserveTick(duration time.Duration, overBudget bool) {
	if t == nil {
		return
	}
	t.ticksTotal.Add(1)
	t.tickDuration.Observe(duration.Seconds())
	if overBudget {
		t.tickBudgetOverruns.Add(1)
	}
}

// ObserveBroadcast records the size of one state broadcast.
func (t *Telemetry) ObserveBroadcast(bytes, entities int) {
	if t == nil {
		return
	}
	t.broadcastBytes.Add(uint64(bytes))
	t.broadcastEntities.Add(uint64(entities))
}

func (t *Telemetry) IncDroppedEvent() {
	if t == nil {
		return
	}
	t.droppedEvents.Add(1)
	t.eventCounter.WithLabelValues("dropped_event").Inc()
}

func (t *Telemetry) IncWalkAbort() {
	if t == nil {
		return
	}
	t.walkAborts.Add(1)
	t.eventCounter.WithLabelValues("walk_abort").Inc()
}

func (t *Telemetry) IncWanderExhausted() {
	if t == nil {
		return
	}
	t.wanderExhaustions.Add(1)
	t.eventCounter.WithLabelValues("wander_exhausted").Inc()
}

func (t *Telemetry) IncProjectileSettled() {
	if t == nil {
		return
	}
	t.projectileSettles.Add(1)
	t.eventCounter.WithLabelValues("projectile_settled").Inc()
}

func (t *Telemetry) IncScaffoldPathFailure() {
	if t == nil {
		return
	}
	t.scaffoldPathFailures.Add(1)
	t.eventCounter.WithLabelValues("scaffold_path_failure").Inc()
}

// Snapshot copies the counters for the diagnostics endpoint.
func (t *Telemetry) Snapshot() TelemetrySnapshot {
	if t == nil {
		return TelemetrySnapshot{}
	}
	return TelemetrySnapshot{
		TicksTotal:           t.ticksTotal.Load(),
		TickBudgetOverruns:   t.tickBudgetOverruns.Load(),
		DroppedEvents:        t.droppedEvents.Load(),
		WalkAborts:           t.walkAborts.Load(),
		WanderExhaustions:    t.wanderExhaustions.Load(),
		ProjectileSettles:    t.projectileSettles.Load(),
		ScaffoldPathFailures: t.scaffoldPathFailures.Load(),
		BroadcastBytes:       t.broadcastBytes.Load(),
		BroadcastEntities:    t.broadcastEntities.Load(),
	}
}

// MetricsHandler serves the prometheus scrape endpoint for these counters.
func (t *Telemetry) MetricsHandler() http.Handler {
	if t == nil || t.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}
