// Command harness spins up a small V2G simulation entirely in-process,
// over the in-memory bus, and drives it for a handful of epochs: one
// Controller, two Stations, two Users, and one Grid. It exists to
// demonstrate the contended-power-allocation scenario from spec §8
// without requiring a running message broker or external Simulation
// Manager.
package main

import (
	"time"

	"go.uber.org/zap"

	"github.com/secha-project/ev-v2g-simulation-components/internal/agent/controller"
	"github.com/secha-project/ev-v2g-simulation-components/internal/agent/grid"
	"github.com/secha-project/ev-v2g-simulation-components/internal/agent/station"
	"github.com/secha-project/ev-v2g-simulation-components/internal/agent/user"
	"github.com/secha-project/ev-v2g-simulation-components/internal/bus"
	"github.com/secha-project/ev-v2g-simulation-components/internal/csvdata"
	"github.com/secha-project/ev-v2g-simulation-components/internal/domain"
	"github.com/secha-project/ev-v2g-simulation-components/internal/epochsim"
	"github.com/secha-project/ev-v2g-simulation-components/internal/messages"
)

// stationParticipant and gridParticipant let the harness drive the
// Station/Grid agents through epochsim.Scheduler instead of hand-rolling
// the StartEpoch/Advance sequencing every cmd binary would otherwise
// repeat; the Controller and User agents stay driven by their bus
// subscriptions directly, since their readiness depends on asynchronous
// deliveries a fixed-round Advance loop cannot itself produce.
type stationParticipant struct{ agent *station.Agent }

func (p stationParticipant) StartEpoch(e epochsim.Epoch) { p.agent.StartEpoch(e.Number, e.Start) }
func (p stationParticipant) Advance()                    { p.agent.Advance() }
func (p stationParticipant) Ready() bool                 { return p.agent.EpochReady() }

type gridParticipant struct{ agent *grid.Agent }

func (p gridParticipant) StartEpoch(e epochsim.Epoch) { p.agent.StartEpoch(e.Number) }
func (p gridParticipant) Advance()                    { p.agent.Advance() }
func (p gridParticipant) Ready() bool                 { return p.agent.EpochReady() }

const (
	simulationID   = "harness-demo"
	epochLength    = time.Hour
	gridID         = "1"
	totalGridPower = 20.0 // kW: deliberately tight, forces the priority heuristic to bind.
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	b := bus.NewInMemory(logger)
	now := time.Now().UTC().Truncate(time.Hour)

	preferences := map[int]domain.UserPreference{
		1: {UserID: 1, MinimumSOC: 0.8, MaxCostForCharging: 0.30, DischargePriceThreshold: 0.50},
		2: {UserID: 2, MinimumSOC: 0.8, MaxCostForCharging: 0.10, DischargePriceThreshold: 0.05},
	}
	gridLoad := csvdata.GridLoadTable{}

	ctrl := controller.New(b, logger, controller.Config{
		TotalUserCount:    2,
		TotalStationCount: 2,
		Preferences:       preferences,
		GridLoadTable:     gridLoad,
		SimulationID:      simulationID,
		SourceProcessID:   "v2g-controller",
	})
	mustSubscribe(b, messages.TopicCarMetadata, func(m messages.Message) error { return ctrl.Handle(m) })
	mustSubscribe(b, messages.TopicStationState, func(m messages.Message) error { return ctrl.Handle(m) })
	mustSubscribe(b, messages.TopicUserState, func(m messages.Message) error { return ctrl.Handle(m) })
	mustSubscribe(b, messages.TopicCarState, func(m messages.Message) error { return ctrl.Handle(m) })
	mustSubscribe(b, messages.TopicGridState, func(m messages.Message) error { return ctrl.Handle(m) })
	mustSubscribe(b, messages.TopicTotalChargingCost, func(m messages.Message) error { return ctrl.Handle(m) })

	g := grid.New(b, logger, grid.Config{
		GridID:          gridID,
		TotalMaxPower:   totalGridPower,
		SimulationID:    simulationID,
		SourceProcessID: "v2g-grid",
	})
	mustSubscribe(b, messages.TopicPowerDischargeStationToGrid, func(m messages.Message) error {
		g.Handle(m)
		g.Advance()
		return nil
	})

	// Both stations derive their charging cost/compensation from the same
	// peak/off-peak/weekend tariff curve instead of a flat rate. The grid
	// load table above is empty, so the grid is never under load here and
	// the discharge-price-threshold gate (§4.3) is never reached.
	tariff := csvdata.NewTariffGenerator(csvdata.DefaultTariffConfig())
	stations := map[string]*station.Agent{
		"station-1": station.New(b, logger, station.Config{
			StationID: "station-1", GridID: gridID, MaxPower: 11, Tariff: tariff,
			SimulationID: simulationID, SourceProcessID: "v2g-station",
		}),
		"station-2": station.New(b, logger, station.Config{
			StationID: "station-2", GridID: gridID, MaxPower: 22, Tariff: tariff,
			SimulationID: simulationID, SourceProcessID: "v2g-station",
		}),
	}
	for _, s := range stations {
		s := s
		mustSubscribe(b, messages.TopicPowerRequirement, func(m messages.Message) error {
			s.Handle(m)
			s.Advance()
			return nil
		})
		mustSubscribe(b, messages.TopicPowerDischargeCarToStation, func(m messages.Message) error {
			s.Handle(m)
			s.Advance()
			return nil
		})
		mustSubscribe(b, messages.TopicGridLoadStatus, func(m messages.Message) error {
			s.Handle(m)
			s.Advance()
			return nil
		})
	}

	users := []*user.Agent{
		user.New(b, logger, user.Config{
			UserID: 1, UserName: "alice", StationID: "station-1",
			CarBatteryCapacity: 60, CarModel: "generic-sedan", CarMaxPower: 7.4, InitialSOC: 40,
			ArrivalTime: now, TargetTime: now.Add(2 * epochLength),
			SimulationID: simulationID, SourceProcessID: "v2g-user",
		}),
		user.New(b, logger, user.Config{
			UserID: 2, UserName: "bob", StationID: "station-2",
			CarBatteryCapacity: 80, CarModel: "generic-suv", CarMaxPower: 22, InitialSOC: 20,
			ArrivalTime: now, TargetTime: now.Add(time.Hour), // tighter deadline: wins priority.
			SimulationID: simulationID, SourceProcessID: "v2g-user",
		}),
	}
	for _, u := range users {
		u := u
		mustSubscribe(b, messages.TopicPowerOutput, func(m messages.Message) error {
			u.HandlePowerOutput(mustPowerOutput(m))
			if u.EpochReady() {
				u.EmitCarState()
			}
			return nil
		})
		mustSubscribe(b, messages.TopicPowerRequirement, func(m messages.Message) error {
			if dm, ok := m.(*messages.CarDischargePowerRequirement); ok {
				u.HandleDischargeRequirement(dm)
				if u.EpochReady() {
					u.EmitCarState()
				}
			}
			return nil
		})
	}

	scheduler := epochsim.NewScheduler(1)
	for _, s := range stations {
		scheduler.Register(stationParticipant{agent: s})
	}
	scheduler.Register(gridParticipant{agent: g})

	for epochNumber := 0; epochNumber < 3; epochNumber++ {
		epochStart := now.Add(time.Duration(epochNumber) * epochLength)
		epochEnd := epochStart.Add(epochLength)

		logger.Info("=== epoch start ===", zap.Int("epoch", epochNumber))
		ctrl.StartEpoch(epochNumber, epochStart, epochEnd, nil)
		for _, u := range users {
			u.StartEpoch(epochNumber, epochStart, epochEnd)
		}

		// One round is enough here: it runs StartEpoch then a single
		// Advance on the Station/Grid agents, publishing StationState and
		// GridState respectively. The Grid is Ready after that Advance;
		// the Stations are not, since their readiness depends on messages
		// the Controller and Users haven't sent yet; the rest of their
		// obligations are completed reactively by the bus subscriptions
		// wired above.
		scheduler.RunEpoch(epochsim.Epoch{Number: epochNumber, Start: epochStart, End: epochEnd})

		for _, u := range users {
			if epochNumber == 0 {
				u.EmitCarMetadata()
			}
			u.EmitUserState()
			if !u.Connected() {
				u.NotConnectedThisEpoch()
			}
		}

		logger.Info("epoch done", zap.Int("epoch", epochNumber), zap.String("phase", ctrl.Phase().String()))
	}
}

func mustSubscribe(b bus.Bus, topic string, handler bus.Handler) {
	if err := b.Subscribe(topic, handler); err != nil {
		panic(err)
	}
}

func mustPowerOutput(m messages.Message) *messages.PowerOutput {
	out, ok := m.(*messages.PowerOutput)
	if !ok {
		panic("harness: unexpected message type on PowerOutputTopic")
	}
	return out
}
