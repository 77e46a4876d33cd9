package station

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/secha-project/ev-v2g-simulation-components/internal/bus"
	"github.com/secha-project/ev-v2g-simulation-components/internal/csvdata"
	"github.com/secha-project/ev-v2g-simulation-components/internal/messages"
)

type recordingBus struct {
	published map[string][]messages.Message
}

func newRecordingBus() *recordingBus {
	return &recordingBus{published: make(map[string][]messages.Message)}
}

func (b *recordingBus) Publish(topic string, msg messages.Message) error {
	b.published[topic] = append(b.published[topic], msg)
	return nil
}
func (b *recordingBus) Subscribe(topic string, handler bus.Handler) error { return nil }
func (b *recordingBus) Close() error                                     { return nil }

func newTestAgent(b *recordingBus) *Agent {
	return New(b, zap.NewNop(), Config{
		StationID: "s1", GridID: "g1", MaxPower: 22, ChargingCost: 0.2, CompensationAmount: 0.1,
		SimulationID: "sim", SourceProcessID: "station",
	})
}

// TestEpochReadyCorrectedPredicate proves the deliberate bug-fix: under a
// grid not under load, power handling alone satisfies readiness; under
// load, the full discharge round-trip is additionally required.
func TestEpochReadyCorrectedPredicate(t *testing.T) {
	b := newRecordingBus()
	a := newTestAgent(b)
	a.StartEpoch(1, time.Time{})

	if a.EpochReady() {
		t.Fatal("expected not ready before GridLoadStatus arrives")
	}
	a.Handle(&messages.GridLoadStatus{GridID: "g1", LoadStatus: false})
	if a.EpochReady() {
		t.Fatal("expected not ready before power is handled")
	}

	a.Handle(&messages.PowerRequirement{StationID: "s1", UserID: 1, Power: 10})
	a.Advance()
	if !a.EpochReady() {
		t.Fatal("expected ready once power is handled and the grid isn't under load")
	}
}

func TestEpochReadyRequiresFullDischargeRoundTripUnderLoad(t *testing.T) {
	b := newRecordingBus()
	a := newTestAgent(b)
	a.StartEpoch(1, time.Time{})

	a.Handle(&messages.GridLoadStatus{GridID: "g1", LoadStatus: true})
	a.Handle(&messages.PowerRequirement{StationID: "s1", UserID: 1, Power: 10})
	a.Advance()
	if a.EpochReady() {
		t.Fatal("expected not ready under load before the discharge round-trip completes")
	}

	a.Handle(&messages.CarDischargePowerRequirement{StationID: "s1", UserID: 1, Power: 5})
	a.Advance()
	if a.EpochReady() {
		t.Fatal("expected not ready until PowerDischargeCarToStation arrives")
	}

	a.Handle(&messages.PowerDischargeCarToStation{StationID: "s1", UserID: 1, Power: 5})
	a.Advance()
	if !a.EpochReady() {
		t.Fatal("expected ready once the full discharge round-trip has completed")
	}
}

func TestAdvanceIsIdempotentPerEpoch(t *testing.T) {
	b := newRecordingBus()
	a := newTestAgent(b)
	a.StartEpoch(1, time.Time{})
	a.Handle(&messages.GridLoadStatus{GridID: "g1", LoadStatus: false})
	a.Handle(&messages.PowerRequirement{StationID: "s1", UserID: 1, Power: 10})

	a.Advance()
	a.Advance()
	a.Advance()

	if n := len(b.published[messages.TopicPowerOutput]); n != 1 {
		t.Fatalf("expected exactly one PowerOutput across repeated Advance calls, got %d", n)
	}
	if n := len(b.published[messages.TopicStationState]); n != 1 {
		t.Fatalf("expected exactly one StationState across repeated Advance calls, got %d", n)
	}
	if n := len(b.published[messages.TopicTotalChargingCost]); n != 1 {
		t.Fatalf("expected exactly one TotalChargingCost across repeated Advance calls, got %d", n)
	}
}

func TestTotalChargingCostAccumulatesAcrossEpochs(t *testing.T) {
	b := newRecordingBus()
	a := newTestAgent(b)

	a.StartEpoch(1, time.Time{})
	a.Handle(&messages.GridLoadStatus{GridID: "g1", LoadStatus: false})
	a.Handle(&messages.PowerRequirement{StationID: "s1", UserID: 1, Power: 10})
	a.Advance()

	a.StartEpoch(2, time.Time{})
	a.Handle(&messages.GridLoadStatus{GridID: "g1", LoadStatus: false})
	a.Handle(&messages.PowerRequirement{StationID: "s1", UserID: 1, Power: 10})
	a.Advance()

	costs := b.published[messages.TopicTotalChargingCost]
	if len(costs) != 2 {
		t.Fatalf("expected one TotalChargingCost per epoch, got %d", len(costs))
	}
	first := costs[0].(*messages.TotalChargingCost).TotalChargingCost
	second := costs[1].(*messages.TotalChargingCost).TotalChargingCost
	if second <= first {
		t.Fatalf("expected cumulative cost to grow across epochs: %f then %f", first, second)
	}
}

func TestHandleIgnoresMessagesForOtherStationsAndGrids(t *testing.T) {
	b := newRecordingBus()
	a := newTestAgent(b)
	a.StartEpoch(1, time.Time{})

	a.Handle(&messages.PowerRequirement{StationID: "other-station", UserID: 1, Power: 10})
	a.Handle(&messages.GridLoadStatus{GridID: "other-grid", LoadStatus: true})
	a.Advance()

	if len(b.published[messages.TopicPowerOutput]) != 0 {
		t.Fatal("expected no PowerOutput for a requirement addressed to another station")
	}
}

func TestStartEpochDerivesPricingFromTariff(t *testing.T) {
	b := newRecordingBus()
	tariff := csvdata.NewTariffGenerator(csvdata.DefaultTariffConfig())
	a := New(b, zap.NewNop(), Config{
		StationID: "s1", GridID: "g1", MaxPower: 22, Tariff: tariff,
		SimulationID: "sim", SourceProcessID: "station",
	})

	offPeak := time.Date(2026, 7, 27, 10, 0, 0, 0, time.UTC) // Monday, before peak window
	a.StartEpoch(1, offPeak)
	a.Handle(&messages.GridLoadStatus{GridID: "g1", LoadStatus: false})
	a.Handle(&messages.PowerRequirement{StationID: "s1", UserID: 1, Power: 10})
	a.Advance()

	peak := time.Date(2026, 7, 27, 18, 0, 0, 0, time.UTC) // Monday, inside peak window
	a.StartEpoch(2, peak)
	a.Handle(&messages.GridLoadStatus{GridID: "g1", LoadStatus: false})
	a.Handle(&messages.PowerRequirement{StationID: "s1", UserID: 1, Power: 10})
	a.Advance()

	states := b.published[messages.TopicStationState]
	if len(states) != 2 {
		t.Fatalf("expected one StationState per epoch, got %d", len(states))
	}
	offPeakCost := states[0].(*messages.StationState).ChargingCost
	peakCost := states[1].(*messages.StationState).ChargingCost
	if peakCost <= offPeakCost {
		t.Fatalf("expected peak charging cost (%f) to exceed off-peak (%f)", peakCost, offPeakCost)
	}
}
