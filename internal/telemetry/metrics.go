// Package telemetry holds the Prometheus metrics every agent exposes,
// adapted from the teacher's internal/observability/telemetry/metrics.go
// down to the epoch-simulation domain: energy allocated, discharge
// events, epoch latency, and bus traffic, in place of the teacher's
// HTTP/OCPP/voice/payment business metrics.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EpochsProcessedTotal counts epochs whose power allocation the
	// Controller has resolved (one per PowerRequirement burst).
	EpochsProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "v2g_epochs_processed_total",
		Help: "Total epochs processed by the controller",
	})

	// EpochDuration tracks wall-clock time spent assembling and resolving
	// one epoch's snapshot.
	EpochDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "v2g_epoch_duration_seconds",
		Help:    "Time spent resolving one epoch's power allocation",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
	})

	// PowerAllocatedKWh tracks total energy allocated to charging users.
	PowerAllocatedKWh = promauto.NewCounter(prometheus.CounterOpts{
		Name: "v2g_power_allocated_kwh_total",
		Help: "Total energy allocated to charging users, in kWh",
	})

	// DischargeEventsTotal counts discharge decisions by outcome.
	DischargeEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "v2g_discharge_events_total",
		Help: "Total discharge trigger decisions",
	}, []string{"outcome"}) // triggered, skipped

	// ConnectedUsers tracks how many users are connected to a station in
	// the most recently resolved epoch.
	ConnectedUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "v2g_connected_users",
		Help: "Number of users connected to a station in the current epoch",
	})

	// GridCurrentPower tracks the grid's reported current draw.
	GridCurrentPower = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "v2g_grid_current_power_kw",
		Help: "Current power drawn from each grid, in kW",
	}, []string{"grid_id"})

	// BusMessagesTotal tracks bus traffic by topic and outcome.
	BusMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "v2g_bus_messages_total",
		Help: "Total bus messages by topic and outcome",
	}, []string{"topic", "outcome"}) // published, received, dropped
)

// RecordEpochResolved records one completed epoch resolution.
func RecordEpochResolved(durationSeconds float64, connectedUsers int, allocatedKWh float64) {
	EpochsProcessedTotal.Inc()
	EpochDuration.Observe(durationSeconds)
	ConnectedUsers.Set(float64(connectedUsers))
	PowerAllocatedKWh.Add(allocatedKWh)
}

// RecordDischargeDecision records whether a user was selected for V2G
// discharge this epoch.
func RecordDischargeDecision(triggered bool) {
	if triggered {
		DischargeEventsTotal.WithLabelValues("triggered").Inc()
	} else {
		DischargeEventsTotal.WithLabelValues("skipped").Inc()
	}
}

// RecordBusMessage records one bus send/receive/drop.
func RecordBusMessage(topic, outcome string) {
	BusMessagesTotal.WithLabelValues(topic, outcome).Inc()
}
