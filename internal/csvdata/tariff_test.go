package csvdata

import (
	"testing"
	"time"
)

func TestChargingCostAtPeakVsOffPeak(t *testing.T) {
	g := NewTariffGenerator(DefaultTariffConfig())

	offPeak := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC) // Monday morning
	peak := time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)    // Monday evening, within 17-21

	if g.ChargingCostAt(offPeak) != 0.15 {
		t.Fatalf("expected off-peak cost 0.15, got %f", g.ChargingCostAt(offPeak))
	}
	if g.ChargingCostAt(peak) != 0.30 {
		t.Fatalf("expected peak cost 0.30, got %f", g.ChargingCostAt(peak))
	}
}

func TestChargingCostAtWeekendDiscount(t *testing.T) {
	g := NewTariffGenerator(DefaultTariffConfig())
	saturdayPeakHour := time.Date(2026, 3, 7, 18, 0, 0, 0, time.UTC) // Saturday

	got := g.ChargingCostAt(saturdayPeakHour)
	// Weekends are never peak, so off-peak base * weekend multiplier.
	want := 0.15 * 0.85
	if got != roundTo2(want) {
		t.Fatalf("expected weekend rate %f, got %f", roundTo2(want), got)
	}
}

func TestCompensationAtTracksChargingCost(t *testing.T) {
	g := NewTariffGenerator(DefaultTariffConfig())
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	cost := g.ChargingCostAt(at)
	comp := g.CompensationAt(at)
	if comp <= 0 || comp >= cost {
		t.Fatalf("expected compensation to be a positive fraction of cost: cost=%f comp=%f", cost, comp)
	}
}

func roundTo2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
