// Package station implements the Station agent: the charge point state
// machine grounded on station_component/station_component.py. The
// original's ready predicate in process_epoch repeats the same
// condition on both sides of an "and" (a copy-paste bug); this package
// implements the corrected predicate the repetition was clearly meant to
// express: power handled when the grid is not under load, power and the
// discharge flow handled when it is (SPEC_FULL §12 item 2).
package station

import (
	"time"

	"go.uber.org/zap"

	"github.com/secha-project/ev-v2g-simulation-components/internal/bus"
	"github.com/secha-project/ev-v2g-simulation-components/internal/csvdata"
	"github.com/secha-project/ev-v2g-simulation-components/internal/messages"
)

// epochState tracks per-epoch flags, reset at every StartEpoch.
type epochState struct {
	stationStateSent bool

	powerRequirementReceived bool
	powerOutputSent          bool
	grantedUserID            int
	grantedPower             float64

	dischargeRequirementReceived bool
	dischargeSent                bool
	dischargeUserID              int
	dischargePower               float64

	dischargeCarToStationReceived bool
	dischargedPower               float64
	dischargeToGridSent           bool

	gridLoadStatusReceived bool
	gridUnderLoad          bool

	totalChargingCostSent bool
}

// Agent is one charging Station.
type Agent struct {
	log             *zap.Logger
	bus             bus.Bus
	simulationID    string
	sourceProcessID string

	stationID          string
	gridID             string
	maxPower           float64
	chargingCost       float64
	compensationAmount float64
	tariff             *csvdata.TariffGenerator

	totalChargingCost float64

	epochNumber int
	state       epochState
}

// Config is the station's static identity/tariff configuration. Tariff is
// optional: when set, ChargingCost/CompensationAmount are recomputed from
// it at the start of every epoch instead of staying flat (the time-varying
// pricing described in DESIGN.md's csvdata section).
type Config struct {
	StationID          string
	GridID             string
	MaxPower           float64
	ChargingCost       float64
	CompensationAmount float64
	Tariff             *csvdata.TariffGenerator
	SimulationID       string
	SourceProcessID    string
}

// New builds a Station agent.
func New(b bus.Bus, log *zap.Logger, cfg Config) *Agent {
	return &Agent{
		log:                log,
		bus:                b,
		simulationID:       cfg.SimulationID,
		sourceProcessID:    cfg.SourceProcessID,
		stationID:          cfg.StationID,
		gridID:             cfg.GridID,
		maxPower:           cfg.MaxPower,
		chargingCost:       cfg.ChargingCost,
		compensationAmount: cfg.CompensationAmount,
		tariff:             cfg.Tariff,
	}
}

// StartEpoch resets per-epoch flags for a new epoch and, when a Tariff
// generator is configured, re-derives this epoch's charging cost and
// discharge compensation from epochStart instead of holding them flat.
func (a *Agent) StartEpoch(epochNumber int, epochStart time.Time) {
	a.epochNumber = epochNumber
	a.state = epochState{}
	if a.tariff != nil {
		a.chargingCost = a.tariff.ChargingCostAt(epochStart)
		a.compensationAmount = a.tariff.CompensationAt(epochStart)
	}
}

func (a *Agent) envelope(messageType string) messages.Envelope {
	return messages.NewEnvelope(messageType, a.simulationID, a.sourceProcessID, a.epochNumber, nil)
}

func (a *Agent) publish(topic string, msg messages.Message) {
	if err := a.bus.Publish(topic, msg); err != nil {
		a.log.Error("station agent failed to publish", zap.String("topic", topic), zap.Error(err))
	}
}

// Handle is the station's single message-handling entry point.
func (a *Agent) Handle(msg messages.Message) {
	switch m := msg.(type) {
	case *messages.PowerRequirement:
		a.handlePowerRequirement(m)
	case *messages.CarDischargePowerRequirement:
		a.handleDischargeRequirement(m)
	case *messages.PowerDischargeCarToStation:
		a.handleDischargeCarToStation(m)
	case *messages.GridLoadStatus:
		a.handleGridLoadStatus(m)
	}
}

func (a *Agent) handlePowerRequirement(m *messages.PowerRequirement) {
	if m.StationID != a.stationID {
		return
	}
	a.state.grantedUserID = m.UserID
	a.state.grantedPower = m.Power
	a.state.powerRequirementReceived = true
}

func (a *Agent) handleDischargeRequirement(m *messages.CarDischargePowerRequirement) {
	if m.StationID != a.stationID {
		return
	}
	a.state.dischargeUserID = m.UserID
	a.state.dischargePower = m.Power
	a.state.dischargeRequirementReceived = true
}

func (a *Agent) handleDischargeCarToStation(m *messages.PowerDischargeCarToStation) {
	if m.StationID != a.stationID {
		return
	}
	a.state.dischargedPower = m.Power
	a.state.dischargeCarToStationReceived = true
}

func (a *Agent) handleGridLoadStatus(m *messages.GridLoadStatus) {
	if m.GridID != a.gridID {
		return
	}
	a.state.gridLoadStatusReceived = true
	a.state.gridUnderLoad = m.LoadStatus
}

// EmitStationState publishes StationState once per epoch.
func (a *Agent) EmitStationState() {
	if a.state.stationStateSent {
		return
	}
	a.publish(messages.TopicStationState, &messages.StationState{
		Envelope:           a.envelope("StationState"),
		StationID:          a.stationID,
		MaxPower:           a.maxPower,
		ChargingCost:       a.chargingCost,
		CompensationAmount: a.compensationAmount,
	})
	a.state.stationStateSent = true
}

// Advance runs the station's re-entrant per-epoch routine (equivalent to
// the original's process_epoch), safe to call after every inbound
// message and after StartEpoch.
func (a *Agent) Advance() {
	a.EmitStationState()

	if a.state.powerRequirementReceived && !a.state.powerOutputSent {
		a.publish(messages.TopicPowerOutput, &messages.PowerOutput{
			Envelope:    a.envelope("PowerOutput"),
			StationID:   a.stationID,
			UserID:      a.state.grantedUserID,
			PowerOutput: a.state.grantedPower,
		})
		a.state.powerOutputSent = true
	}

	if a.state.dischargeRequirementReceived && !a.state.dischargeSent {
		a.publish(messages.TopicPowerRequirement, &messages.CarDischargePowerRequirement{
			Envelope:  a.envelope("CarDischargePowerRequirement"),
			StationID: a.stationID,
			UserID:    a.state.dischargeUserID,
			Power:     a.state.dischargePower,
		})
		a.state.dischargeSent = true
	}

	if a.state.dischargeCarToStationReceived && !a.state.dischargeToGridSent {
		a.publish(messages.TopicPowerDischargeStationToGrid, &messages.PowerDischargeStationToGrid{
			Envelope:  a.envelope("PowerDischargeStationToGrid"),
			GridID:    a.gridID,
			StationID: a.stationID,
			Power:     a.state.dischargedPower,
		})
		a.state.dischargeToGridSent = true
	}

	if a.state.powerOutputSent && !a.state.totalChargingCostSent {
		a.totalChargingCost += a.state.grantedPower * a.chargingCost
		a.publish(messages.TopicTotalChargingCost, &messages.TotalChargingCost{
			Envelope:          a.envelope("TotalChargingCost"),
			UserID:            a.state.grantedUserID,
			TotalChargingCost: a.totalChargingCost,
		})
		a.state.totalChargingCostSent = true
	}
}

// EpochReady reports whether the station has finished all obligations
// this epoch: power handled when the grid is not under load; when it is,
// power handled and the full discharge flow handled as well.
func (a *Agent) EpochReady() bool {
	if !a.state.gridLoadStatusReceived {
		return false
	}

	powerHandled := a.state.powerRequirementReceived && a.state.powerOutputSent
	if !a.state.gridUnderLoad {
		return powerHandled
	}

	dischargeHandled := a.state.dischargeRequirementReceived &&
		a.state.dischargeSent &&
		a.state.dischargeCarToStationReceived &&
		a.state.dischargeToGridSent

	return powerHandled && dischargeHandled
}
