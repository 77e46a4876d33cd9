package controller

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/secha-project/ev-v2g-simulation-components/internal/csvdata"
	"github.com/secha-project/ev-v2g-simulation-components/internal/domain"
)

func newGridLoadController(t *testing.T, prefs map[int]domain.UserPreference, underLoad bool) *Controller {
	t.Helper()
	table := csvdata.GridLoadTable{"08:00": underLoad}
	c := New(newRecordingBus(), zap.NewNop(), Config{
		TotalUserCount: 1, TotalStationCount: 1, Preferences: prefs, GridLoadTable: table,
		SimulationID: "s", SourceProcessID: "c",
	})
	start := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	c.StartEpoch(1, start, start.Add(time.Hour), nil)
	c.state.stations["s1"] = &domain.StationData{StationID: "s1", MaxPower: 22, ChargingCost: 0.2, CompensationAmount: 0.4}
	return c
}

// TestDischargeTriggeredWhenGridUnderLoadAndPriceAcceptable exercises the
// discharge-triggered scenario from spec §8.
func TestDischargeTriggeredWhenGridUnderLoadAndPriceAcceptable(t *testing.T) {
	prefs := map[int]domain.UserPreference{1: {UserID: 1, MinimumSOC: 0.5, DischargePriceThreshold: 0.3}}
	c := newGridLoadController(t, prefs, true)

	user := &domain.UserData{UserID: 1, StationID: "s1", StateOfCharge: 70, TargetStateOfCharge: 50}
	if !c.checkUserDischargeNeed(user) {
		t.Fatal("expected discharge to trigger: grid under load and threshold below compensation")
	}
	if !user.Discharge {
		t.Fatal("expected user.Discharge to be latched true")
	}
}

// TestDischargeNotTriggeredWhenPriceTooHigh proves the threshold gate.
func TestDischargeNotTriggeredWhenPriceTooHigh(t *testing.T) {
	prefs := map[int]domain.UserPreference{1: {UserID: 1, MinimumSOC: 0.5, DischargePriceThreshold: 0.9}}
	c := newGridLoadController(t, prefs, true)

	user := &domain.UserData{UserID: 1, StationID: "s1", StateOfCharge: 70, TargetStateOfCharge: 50}
	if c.checkUserDischargeNeed(user) {
		t.Fatal("expected discharge not to trigger: user's price threshold exceeds station compensation")
	}
}

// TestDischargeNotTriggeredWhenGridNotUnderLoad proves the grid-load gate.
func TestDischargeNotTriggeredWhenGridNotUnderLoad(t *testing.T) {
	prefs := map[int]domain.UserPreference{1: {UserID: 1, MinimumSOC: 0.5, DischargePriceThreshold: 0.1}}
	c := newGridLoadController(t, prefs, false)

	user := &domain.UserData{UserID: 1, StationID: "s1", StateOfCharge: 70, TargetStateOfCharge: 50}
	if c.checkUserDischargeNeed(user) {
		t.Fatal("expected discharge not to trigger when the grid isn't under load")
	}
}

// TestReshapeTargetOnDischargeLowersTarget exercises the discharge-down
// adjustment of §4.2 step 1.
func TestReshapeTargetOnDischargeLowersTarget(t *testing.T) {
	prefs := map[int]domain.UserPreference{1: {UserID: 1, MinimumSOC: 0.5, DischargePriceThreshold: 0.1}}
	c := newGridLoadController(t, prefs, true)

	user := &domain.UserData{UserID: 1, StationID: "s1", StateOfCharge: 70, TargetStateOfCharge: 50}
	c.reshapeTarget(user)

	if !user.Discharge {
		t.Fatal("expected discharge to have been latched")
	}
	if user.TargetStateOfCharge != 60 {
		t.Fatalf("expected target lowered to SoC-10 (60), got %f", user.TargetStateOfCharge)
	}
	if user.RequiredEnergy != 0 {
		t.Fatalf("expected required energy cleared during discharge, got %f", user.RequiredEnergy)
	}
}

// TestReshapeTargetWillingToPayMoreRaisesTarget exercises spec §8's
// willing-to-pay-more scenario: once at target, a user whose max
// acceptable cost covers the station's price raises its target to 100%.
func TestReshapeTargetWillingToPayMoreRaisesTarget(t *testing.T) {
	prefs := map[int]domain.UserPreference{1: {UserID: 1, MinimumSOC: 0.5, MaxCostForCharging: 0.5, DischargePriceThreshold: 0.9}}
	c := newGridLoadController(t, prefs, false)

	user := &domain.UserData{UserID: 1, StationID: "s1", CarBatteryCapacity: 60, StateOfCharge: 50, TargetStateOfCharge: 50}
	c.reshapeTarget(user)

	if user.TargetStateOfCharge != domain.MaxStateOfCharge {
		t.Fatalf("expected target raised to 100, got %f", user.TargetStateOfCharge)
	}
	if user.RequiredEnergy <= 0 {
		t.Fatalf("expected required energy recomputed to a positive value, got %f", user.RequiredEnergy)
	}
}

// TestReshapeTargetLeavesMismatchedSoCAlone proves the willing-to-pay-more
// branch only applies once the user has actually reached its target.
func TestReshapeTargetLeavesMismatchedSoCAlone(t *testing.T) {
	prefs := map[int]domain.UserPreference{1: {UserID: 1, MinimumSOC: 0.5, MaxCostForCharging: 0.5}}
	c := newGridLoadController(t, prefs, false)

	user := &domain.UserData{UserID: 1, StationID: "s1", CarBatteryCapacity: 60, StateOfCharge: 45, TargetStateOfCharge: 50}
	c.reshapeTarget(user)

	if user.TargetStateOfCharge != 50 {
		t.Fatalf("expected target unchanged while SoC hasn't reached it, got %f", user.TargetStateOfCharge)
	}
}
