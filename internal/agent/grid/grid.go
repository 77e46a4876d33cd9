// Package grid implements the Grid agent: the capacity ledger grounded
// on grid_component/grid_component.py. Each epoch it absorbs any power
// discharged back from stations (clamped to total capacity) and reports
// its state once.
package grid

import (
	"go.uber.org/zap"

	"github.com/secha-project/ev-v2g-simulation-components/internal/bus"
	"github.com/secha-project/ev-v2g-simulation-components/internal/messages"
)

// epochState tracks per-epoch flags, reset at every StartEpoch.
type epochState struct {
	powerReceived           float64
	dischargeReceived       bool
	gridStateSent           bool
}

// Agent is one Grid: a capacity pool shared by the stations attached to
// it.
type Agent struct {
	log             *zap.Logger
	bus             bus.Bus
	simulationID    string
	sourceProcessID string

	gridID          string
	totalMaxPower   float64
	currentCapacity float64

	epochNumber int
	state       epochState
}

// Config is the grid's static identity/capacity configuration.
type Config struct {
	GridID          string
	TotalMaxPower   float64
	SimulationID    string
	SourceProcessID string
}

// New builds a Grid agent, starting at full capacity.
func New(b bus.Bus, log *zap.Logger, cfg Config) *Agent {
	return &Agent{
		log:             log,
		bus:             b,
		simulationID:    cfg.SimulationID,
		sourceProcessID: cfg.SourceProcessID,
		gridID:          cfg.GridID,
		totalMaxPower:   cfg.TotalMaxPower,
		currentCapacity: cfg.TotalMaxPower,
	}
}

// StartEpoch resets per-epoch flags. CurrentCapacity persists across
// epochs: it is the running ledger of available headroom.
func (a *Agent) StartEpoch(epochNumber int) {
	a.epochNumber = epochNumber
	a.state = epochState{}
}

func (a *Agent) envelope(messageType string) messages.Envelope {
	return messages.NewEnvelope(messageType, a.simulationID, a.sourceProcessID, a.epochNumber, nil)
}

func (a *Agent) publish(topic string, msg messages.Message) {
	if err := a.bus.Publish(topic, msg); err != nil {
		a.log.Error("grid agent failed to publish", zap.String("topic", topic), zap.Error(err))
	}
}

// Handle is the grid's single message-handling entry point.
func (a *Agent) Handle(msg messages.Message) {
	m, ok := msg.(*messages.PowerDischargeStationToGrid)
	if !ok || m.GridID != a.gridID {
		return
	}
	a.state.powerReceived += m.Power
	a.state.dischargeReceived = true
}

// Advance runs the grid's re-entrant per-epoch routine: absorb any
// discharged power (clamped to total capacity) and report state once.
func (a *Agent) Advance() {
	if a.state.dischargeReceived {
		next := a.currentCapacity + a.state.powerReceived
		if next > a.totalMaxPower {
			next = a.totalMaxPower
		}
		a.currentCapacity = next
		a.state.powerReceived = 0
	}

	if !a.state.gridStateSent {
		a.publish(messages.TopicGridState, &messages.GridState{
			Envelope:     a.envelope("GridState"),
			GridID:       a.gridID,
			MaxPower:     a.totalMaxPower,
			CurrentPower: a.currentCapacity,
		})
		a.state.gridStateSent = true
	}
}

// EpochReady reports whether the grid has published its state this
// epoch.
func (a *Agent) EpochReady() bool {
	return a.state.gridStateSent
}
