// Package user implements the User agent: the per-EV accounting state
// machine grounded on user_component/user_component.py, generalized from
// its dynamic message dispatch to a Go type switch and from its boolean
// flags to a small epoch-state struct (spec §4.4).
package user

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/secha-project/ev-v2g-simulation-components/internal/bus"
	"github.com/secha-project/ev-v2g-simulation-components/internal/domain"
	"github.com/secha-project/ev-v2g-simulation-components/internal/messages"
)

// epochState tracks the per-epoch flags spec §4.4 names, reset at every
// StartEpoch.
type epochState struct {
	userStateSent                bool
	carStateSent                 bool
	powerOutputReceived          bool
	dischargeRequirementReceived bool
	dischargeMessageSent         bool
}

// Agent is one User: one EV, tracked for the simulation's lifetime.
type Agent struct {
	log             *zap.Logger
	bus             bus.Bus
	simulationID    string
	sourceProcessID string

	userID    int
	stationID string

	data domain.UserData

	metadataSent bool

	epochNumber int
	epochStart  time.Time
	epochEnd    time.Time
	state       epochState
}

// Config is the static identity/capacity configuration a User agent is
// constructed with, mirroring the original's environment-variable set.
type Config struct {
	UserID             int
	UserName           string
	StationID          string
	CarBatteryCapacity float64
	CarModel           string
	CarMaxPower        float64
	InitialSOC         float64
	ArrivalTime        time.Time
	TargetTime         time.Time
	SimulationID       string
	SourceProcessID    string
}

// New builds a User agent.
func New(b bus.Bus, log *zap.Logger, cfg Config) *Agent {
	return &Agent{
		log:             log,
		bus:             b,
		simulationID:    cfg.SimulationID,
		sourceProcessID: cfg.SourceProcessID,
		userID:          cfg.UserID,
		stationID:       cfg.StationID,
		data: domain.UserData{
			UserID:             cfg.UserID,
			UserName:           cfg.UserName,
			StationID:          cfg.StationID,
			StateOfCharge:      cfg.InitialSOC,
			CarBatteryCapacity: cfg.CarBatteryCapacity,
			CarModel:           cfg.CarModel,
			CarMaxPower:        cfg.CarMaxPower,
			ArrivalTime:        cfg.ArrivalTime,
			TargetTime:         cfg.TargetTime,
		},
	}
}

// StartEpoch resets per-epoch flags for a new epoch window.
func (a *Agent) StartEpoch(epochNumber int, epochStart, epochEnd time.Time) {
	a.epochNumber = epochNumber
	a.epochStart = epochStart
	a.epochEnd = epochEnd
	a.state = epochState{}
}

func (a *Agent) envelope(messageType string) messages.Envelope {
	return messages.NewEnvelope(messageType, a.simulationID, a.sourceProcessID, a.epochNumber, nil)
}

func (a *Agent) publish(topic string, msg messages.Message) {
	if err := a.bus.Publish(topic, msg); err != nil {
		a.log.Error("user agent failed to publish", zap.String("topic", topic), zap.Error(err))
	}
}

// EmitCarMetadata publishes CarMetaData exactly once, at epoch 1 (§4.4).
func (a *Agent) EmitCarMetadata() {
	if a.metadataSent {
		return
	}
	a.publish(messages.TopicCarMetadata, &messages.CarMetaData{
		Envelope:           a.envelope("CarMetaData"),
		UserID:             a.data.UserID,
		UserName:           a.data.UserName,
		StationID:          a.data.StationID,
		StateOfCharge:      a.data.StateOfCharge,
		CarBatteryCapacity: a.data.CarBatteryCapacity,
		CarModel:           a.data.CarModel,
		CarMaxPower:        a.data.CarMaxPower,
	})
	a.metadataSent = true
}

// EmitUserState publishes UserState every epoch, carrying the user's
// occupancy window (§4.4).
func (a *Agent) EmitUserState() {
	if a.state.userStateSent {
		return
	}
	a.publish(messages.TopicUserState, &messages.UserState{
		Envelope:    a.envelope("UserState"),
		UserID:      a.userID,
		ArrivalTime: a.data.ArrivalTime,
		TargetTime:  a.data.TargetTime,
	})
	a.state.userStateSent = true
}

// Connected reports whether this epoch's window falls within the user's
// occupancy window, per the same non-strict containment rule the
// Controller uses (spec §9, open question 3).
func (a *Agent) Connected() bool {
	return a.data.Connected(a.epochStart, a.epochEnd)
}

// HandlePowerOutput applies a granted charge power for (stationID,
// userID) and updates SoC (§4.4). Duplicate delivery in the same epoch is
// dropped with a warning.
func (a *Agent) HandlePowerOutput(m *messages.PowerOutput) {
	if m.StationID != a.stationID || m.UserID != a.userID {
		return
	}
	if a.state.powerOutputReceived {
		a.log.Warn("duplicate PowerOutput in epoch, dropping", zap.Int("user_id", a.userID))
		return
	}

	epochSeconds := a.epochEnd.Sub(a.epochStart).Seconds()
	delivered := m.PowerOutput * epochSeconds / 3600.0
	a.data.StateOfCharge = math.Min(domain.MaxStateOfCharge, a.data.StateOfCharge+delivered/a.data.CarBatteryCapacity*100)
	a.state.powerOutputReceived = true
}

// HandleDischargeRequirement applies a requested discharge to this car's
// SoC and emits PowerDischargeCarToStation acknowledging it (§4.4).
func (a *Agent) HandleDischargeRequirement(m *messages.CarDischargePowerRequirement) {
	if m.StationID != a.stationID || m.UserID != a.userID {
		return
	}
	if a.state.dischargeRequirementReceived {
		a.log.Warn("duplicate discharge requirement in epoch, dropping", zap.Int("user_id", a.userID))
		return
	}
	a.state.dischargeRequirementReceived = true
	// A discharge requirement also satisfies this epoch's power-output
	// obligation: the car is feeding power out instead of receiving it.
	a.state.powerOutputReceived = true

	epochSeconds := a.epochEnd.Sub(a.epochStart).Seconds()
	discharged := m.Power * epochSeconds / 3600.0
	a.data.StateOfCharge = math.Max(0, a.data.StateOfCharge-discharged/a.data.CarBatteryCapacity*100)

	if a.state.dischargeMessageSent {
		return
	}
	a.publish(messages.TopicPowerDischargeCarToStation, &messages.PowerDischargeCarToStation{
		Envelope:  a.envelope("PowerDischargeCarToStation"),
		StationID: a.stationID,
		UserID:    a.userID,
		Power:     m.Power,
	})
	a.state.dischargeMessageSent = true
}

// NotConnectedThisEpoch marks the power-output obligation as vacuously
// satisfied when the car is outside its occupancy window this epoch
// (spec §4.4: its station gets a vacant PowerRequirement and no
// PowerOutput is addressed to this user, so it cannot wait on one).
func (a *Agent) NotConnectedThisEpoch() {
	a.state.powerOutputReceived = true
}

// EmitCarState publishes CarState after the SoC update for this epoch.
func (a *Agent) EmitCarState() {
	if a.state.carStateSent {
		return
	}
	a.publish(messages.TopicCarState, &messages.CarState{
		Envelope:      a.envelope("CarState"),
		UserID:        a.userID,
		StationID:     a.stationID,
		StateOfCharge: a.data.StateOfCharge,
	})
	a.state.carStateSent = true
}

// EpochReady reports whether this agent has completed its per-epoch
// duties: UserState sent, power handled (or vacuously so), CarState sent.
func (a *Agent) EpochReady() bool {
	return a.state.userStateSent && a.state.powerOutputReceived && a.state.carStateSent
}

// StateOfCharge exposes the agent's current SoC, for tests and the
// monitor hub.
func (a *Agent) StateOfCharge() float64 { return a.data.StateOfCharge }
