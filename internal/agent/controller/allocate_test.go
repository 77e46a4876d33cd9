package controller

import (
	"testing"
	"time"

	"github.com/secha-project/ev-v2g-simulation-components/internal/domain"
)

func TestConnectedUsersSortsByDeadlineThenDemand(t *testing.T) {
	start := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	users := map[int]*domain.UserData{
		1: {UserID: 1, ArrivalTime: start, TargetTime: end.Add(time.Hour), RequiredEnergy: 10},
		2: {UserID: 2, ArrivalTime: start, TargetTime: end, RequiredEnergy: 5},
		// Same deadline as 2, but greater demand: tie-break on demand desc.
		3: {UserID: 3, ArrivalTime: start, TargetTime: end, RequiredEnergy: 50},
		// Outside the epoch window entirely.
		4: {UserID: 4, ArrivalTime: end.Add(time.Hour), TargetTime: end.Add(2 * time.Hour), RequiredEnergy: 99},
	}

	got := connectedUsers(users, start, end)
	if len(got) != 3 {
		t.Fatalf("expected 3 connected users, got %d", len(got))
	}
	want := []int{3, 2, 1}
	for i, u := range got {
		if u.UserID != want[i] {
			t.Fatalf("position %d: want user %d, got %d", i, want[i], u.UserID)
		}
	}
}

func TestBuildPowerInfosFillsVacantStations(t *testing.T) {
	stationOrder := []string{"s1", "s2"}
	stations := map[string]*domain.StationData{
		"s1": {StationID: "s1", MaxPower: 11},
		"s2": {StationID: "s2", MaxPower: 22},
	}
	connected := []*domain.UserData{
		{UserID: 7, StationID: "s2", CarMaxPower: 7},
	}

	infos := buildPowerInfos(stationOrder, stations, connected)
	if len(infos) != 2 {
		t.Fatalf("expected one info per station, got %d", len(infos))
	}
	// Occupied slots sort before vacant ones regardless of station order.
	if infos[0].StationID != "s2" || infos[0].UserID != 7 {
		t.Fatalf("expected occupied s2 first, got %+v", infos[0])
	}
	if !infos[1].IsVacant() || infos[1].StationID != "s1" {
		t.Fatalf("expected vacant s1 second, got %+v", infos[1])
	}
}

func TestAllocatePowerStopsAtCapacity(t *testing.T) {
	infos := []domain.PowerInfo{
		{UserID: 1, StationMaxPower: 10, CarMaxPower: 10, StateOfCharge: 40, TargetStateOfCharge: 80, RequiredEnergy: 100},
		{UserID: 2, StationMaxPower: 10, CarMaxPower: 10, StateOfCharge: 40, TargetStateOfCharge: 80, RequiredEnergy: 100},
	}
	powers := allocatePower(infos, 15, 3600)
	if powers[0] != 10 {
		t.Fatalf("expected first user to get full 10kW, got %f", powers[0])
	}
	if powers[1] != 5 {
		t.Fatalf("expected second user capped by remaining 5kW capacity, got %f", powers[1])
	}
}

func TestAllocatePowerSkipsUsersAlreadyAtTarget(t *testing.T) {
	infos := []domain.PowerInfo{
		{UserID: 1, StationMaxPower: 10, CarMaxPower: 10, StateOfCharge: 80, TargetStateOfCharge: 80, RequiredEnergy: 0},
	}
	powers := allocatePower(infos, 50, 3600)
	if powers[0] != 0 {
		t.Fatalf("expected no power for a user already at target SoC, got %f", powers[0])
	}
}

func TestAllocatePowerSkipsVacantSlots(t *testing.T) {
	infos := []domain.PowerInfo{{UserID: domain.VacantUserID, StationMaxPower: 22, CarMaxPower: 0}}
	powers := allocatePower(infos, 50, 3600)
	if powers[0] != 0 {
		t.Fatalf("expected vacant slot to receive no power, got %f", powers[0])
	}
}
