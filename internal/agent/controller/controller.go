// Package controller implements the V2G Controller: the epoch snapshot
// assembler, power allocator, and discharge-trigger policy at the core of
// the simulation. It is grounded on
// v2g_controller_component/v2g_controller_component.py, with its dynamic
// isinstance dispatch replaced by a Go type switch (Design Note 1), its
// per-attribute runtime checks replaced by messages.Message.Validate
// (Design Note 2), and its ad-hoc boolean forest replaced by the explicit
// Phase state machine below (Design Note 3).
package controller

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/secha-project/ev-v2g-simulation-components/internal/bus"
	"github.com/secha-project/ev-v2g-simulation-components/internal/csvdata"
	"github.com/secha-project/ev-v2g-simulation-components/internal/domain"
	"github.com/secha-project/ev-v2g-simulation-components/internal/messages"
	"github.com/secha-project/ev-v2g-simulation-components/internal/telemetry"
)

// Phase is the explicit small state machine Design Note 3 asks for, in
// place of the original's four independent boolean flags.
type Phase int

const (
	// Gathering: the epoch snapshot (car metadata, station states, user
	// states, grid state) is still incomplete.
	Gathering Phase = iota
	// Allocated: the snapshot completed and the PowerRequirement burst has
	// been sent.
	Allocated
	// Finalizing: the CarDischargePowerRequirement burst has also been sent.
	Finalizing
	// Done: CarState has been received for every user; the epoch is
	// complete.
	Done
)

func (p Phase) String() string {
	switch p {
	case Gathering:
		return "gathering"
	case Allocated:
		return "allocated"
	case Finalizing:
		return "finalizing"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// epochState is constructed fresh on every StartEpoch call and discarded
// at the next one, per Design Note 9 ("global mutable counters ->
// encapsulate in a per-epoch snapshot object").
type epochState struct {
	phase Phase

	stationOrder      []string
	stations          map[string]*domain.StationData
	stationStateCount int
	userStateCount    int
	carStateCount     int
	gridStateReceived bool
	usedPower         float64

	// startedAt is the wall-clock time StartEpoch was called, used to
	// measure how long snapshot assembly and allocation took to resolve
	// (v2g_epoch_duration_seconds), independent of the simulated epoch
	// window's own [start, end] times.
	startedAt time.Time

	triggeringMessageIDs []string
}

func newEpochState() *epochState {
	return &epochState{
		phase:     Gathering,
		stations:  make(map[string]*domain.StationData),
		startedAt: time.Now(),
	}
}

// Controller is the V2G Controller agent. It is driven by Handle, invoked
// once per inbound bus message; Handle and all its helpers run under a
// single mutex so the controller behaves as the single-threaded
// cooperative actor spec §5 requires, regardless of how many goroutines
// the underlying Bus delivers messages on.
type Controller struct {
	log            *zap.Logger
	bus            bus.Bus
	simulationID   string
	sourceProcessID string

	totalUserCount    int
	totalStationCount int

	mu    sync.Mutex
	users map[int]*domain.UserData

	preferences map[int]domain.UserPreference
	gridLoad    csvdata.GridLoadTable

	gridID                string
	totalMaxPower         float64
	totalMaxPowerLatched  bool
	currentAvailablePower float64

	epochNumber int
	epochStart  time.Time
	epochEnd    time.Time

	state *epochState

	chargingCostTotals map[int]float64

	monitor Broadcaster
}

// Config is the static configuration a Controller needs at construction:
// the expected participant counts and the preloaded CSV tables.
type Config struct {
	TotalUserCount    int
	TotalStationCount int
	Preferences       map[int]domain.UserPreference
	GridLoadTable     csvdata.GridLoadTable
	SimulationID      string
	SourceProcessID   string
	// Monitor is optional; when set, every inbound message pushes a fresh
	// epoch snapshot to it for live dashboard observers (SPEC_FULL §11).
	Monitor Broadcaster
}

// New builds a Controller ready to receive messages once StartEpoch has
// been called for epoch 1.
func New(b bus.Bus, log *zap.Logger, cfg Config) *Controller {
	return &Controller{
		log:                log,
		bus:                b,
		simulationID:       cfg.SimulationID,
		sourceProcessID:    cfg.SourceProcessID,
		totalUserCount:     cfg.TotalUserCount,
		totalStationCount:  cfg.TotalStationCount,
		users:              make(map[int]*domain.UserData),
		preferences:        cfg.Preferences,
		gridLoad:           cfg.GridLoadTable,
		state:              newEpochState(),
		chargingCostTotals: make(map[int]float64),
		monitor:            cfg.Monitor,
	}
}

// StartEpoch resets per-epoch state (station data, per-epoch counters,
// burst-sent flags) for epoch number, matching the original's
// clear_epoch_variables. User data and the user-preference/grid-load
// tables persist across epochs.
func (c *Controller) StartEpoch(epochNumber int, start, end time.Time, triggeringMessageIDs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.epochNumber = epochNumber
	c.epochStart = start
	c.epochEnd = end
	c.state = newEpochState()
	c.state.triggeringMessageIDs = triggeringMessageIDs
}

// Phase reports the current epoch's progress, mainly for tests and the
// monitor hub.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.phase
}

// Handle is the controller's single message-handling entry point (Design
// Note 1): a type switch replaces the original's isinstance dispatch
// chain.
func (c *Controller) Handle(msg messages.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch m := msg.(type) {
	case *messages.CarMetaData:
		c.handleCarMetaData(m)
	case *messages.StationState:
		c.handleStationState(m)
	case *messages.UserState:
		c.handleUserState(m)
	case *messages.CarState:
		c.handleCarState(m)
	case *messages.GridState:
		c.handleGridState(m)
	case *messages.TotalChargingCost:
		c.handleTotalChargingCost(m)
	default:
		c.log.Debug("ignoring message type with no controller handler", zap.String("type", msg.Env().MessageType))
		return nil
	}

	c.tryAdvance()
	c.broadcastSnapshot()
	return nil
}

func (c *Controller) handleCarMetaData(m *messages.CarMetaData) {
	if _, exists := c.users[m.UserID]; exists {
		c.log.Warn("received duplicate car metadata", zap.Int("user_id", m.UserID))
		return
	}
	c.users[m.UserID] = &domain.UserData{
		UserID:              m.UserID,
		UserName:            m.UserName,
		StationID:           m.StationID,
		StateOfCharge:       m.StateOfCharge,
		CarBatteryCapacity:  m.CarBatteryCapacity,
		CarModel:            m.CarModel,
		CarMaxPower:         m.CarMaxPower,
		TargetStateOfCharge: domain.DefaultMinimumStateOfCharge,
	}
}

func (c *Controller) handleStationState(m *messages.StationState) {
	if _, exists := c.state.stations[m.StationID]; exists {
		c.log.Warn("received duplicate station state this epoch", zap.String("station_id", m.StationID))
		return
	}
	c.state.stations[m.StationID] = &domain.StationData{
		StationID:          m.StationID,
		MaxPower:           m.MaxPower,
		ChargingCost:       m.ChargingCost,
		CompensationAmount: m.CompensationAmount,
	}
	c.state.stationOrder = append(c.state.stationOrder, m.StationID)
	c.state.stationStateCount++
}

func (c *Controller) handleUserState(m *messages.UserState) {
	user, ok := c.users[m.UserID]
	if !ok {
		c.log.Error("user state for a user without metadata", zap.Int("user_id", m.UserID))
		return
	}

	if pref, ok := c.preferences[user.UserID]; ok {
		user.TargetStateOfCharge = pref.MinimumSOC * 100
	} else {
		c.log.Warn("no preference found for user, defaulting target SoC", zap.Int("user_id", user.UserID))
		user.TargetStateOfCharge = domain.DefaultMinimumStateOfCharge
	}

	user.ArrivalTime = m.ArrivalTime
	user.TargetTime = m.TargetTime
	user.RecomputeRequiredEnergy()

	c.state.userStateCount++
}

func (c *Controller) handleCarState(m *messages.CarState) {
	user, ok := c.users[m.UserID]
	if !ok {
		c.log.Error("car state for a user without data", zap.Int("user_id", m.UserID))
		return
	}

	user.StateOfCharge = m.StateOfCharge
	user.ClampStateOfCharge()
	c.reshapeTarget(user)

	c.state.carStateCount++
}

func (c *Controller) handleGridState(m *messages.GridState) {
	c.state.gridStateReceived = true
	c.gridID = m.GridID

	if !c.totalMaxPowerLatched {
		c.totalMaxPower = m.MaxPower
		c.totalMaxPowerLatched = true
	}
	c.currentAvailablePower = m.CurrentPower
}

func (c *Controller) handleTotalChargingCost(m *messages.TotalChargingCost) {
	c.chargingCostTotals[m.UserID] += m.TotalChargingCost
}

// tryAdvance is the re-entrant routine spec §4.1 describes: safe to call
// after every inbound message because each outbound burst is gated by the
// epoch phase, which only ever moves forward.
func (c *Controller) tryAdvance() {
	// Car metadata completeness is latched implicitly: c.users only grows
	// across epochs and duplicates are rejected in handleCarMetaData.
	snapshotComplete := len(c.users) == c.totalUserCount &&
		c.state.stationStateCount == c.totalStationCount &&
		c.state.userStateCount == c.totalUserCount &&
		c.state.gridStateReceived

	if snapshotComplete && c.state.phase == Gathering {
		c.sendPowerRequirementBurst()
		c.publishGridLoadStatus()
		c.state.phase = Allocated
	}

	if snapshotComplete && c.state.phase == Allocated {
		c.sendDischargeBurst()
		c.state.phase = Finalizing
	}

	if c.state.carStateCount == c.totalUserCount && c.state.phase == Finalizing {
		c.state.phase = Done
	}
}

// EpochComplete reports whether this epoch's work is fully done, matching
// the original's process_epoch return value.
func (c *Controller) EpochComplete() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.gridStateReceived && c.state.phase >= Allocated && c.state.carStateCount == c.totalUserCount
}

func (c *Controller) envelope(messageType string) messages.Envelope {
	return messages.NewEnvelope(messageType, c.simulationID, c.sourceProcessID, c.epochNumber, c.state.triggeringMessageIDs)
}

func (c *Controller) publish(topic string, msg messages.Message) {
	if err := c.bus.Publish(topic, msg); err != nil {
		c.log.Error("failed to publish message",
			zap.String("topic", topic),
			zap.String("type", msg.Env().MessageType),
			zap.Error(err))
		telemetry.RecordBusMessage(topic, "dropped")
		return
	}
	telemetry.RecordBusMessage(topic, "published")
}

// hourString formats t as "HH:00" UTC, the grid_load_daily.csv key.
func hourString(t time.Time) string {
	return fmt.Sprintf("%02d:00", t.UTC().Hour())
}

func (c *Controller) gridUnderLoad() bool {
	return c.gridLoad.UnderLoad(hourString(c.epochStart))
}
