package controller

import (
	"math"
	"sort"
	"time"

	"github.com/secha-project/ev-v2g-simulation-components/internal/domain"
)

// connectedUsers returns the users whose occupancy window fully contains
// [start, end] (spec §9, open question 3: non-strict bounds on both
// sides), sorted by (target_time asc, required_energy desc) per §4.2
// step 3.
func connectedUsers(users map[int]*domain.UserData, start, end time.Time) []*domain.UserData {
	var connected []*domain.UserData
	for _, u := range users {
		if u.Connected(start, end) {
			connected = append(connected, u)
		}
	}
	sort.SliceStable(connected, func(i, j int) bool {
		if !connected[i].TargetTime.Equal(connected[j].TargetTime) {
			return connected[i].TargetTime.Before(connected[j].TargetTime)
		}
		if connected[i].RequiredEnergy != connected[j].RequiredEnergy {
			return connected[i].RequiredEnergy > connected[j].RequiredEnergy
		}
		// Deterministic, policy-unspecified tie-break (§4.2 tie-breaks):
		// lower user_id first.
		return connected[i].UserID < connected[j].UserID
	})
	return connected
}

// buildPowerInfos assembles one PowerInfo per station: the connected
// user assigned to it, in priority order, followed by vacant slots in the
// order their StationState arrived (§4.2 step 5).
func buildPowerInfos(stationOrder []string, stations map[string]*domain.StationData, connected []*domain.UserData) []domain.PowerInfo {
	occupied := make([]domain.PowerInfo, 0, len(stationOrder))
	vacant := make([]domain.PowerInfo, 0, len(stationOrder))

	assignedStation := make(map[string]*domain.UserData, len(connected))
	for _, u := range connected {
		if _, taken := assignedStation[u.StationID]; !taken {
			assignedStation[u.StationID] = u
		}
	}

	for _, stationID := range stationOrder {
		station := stations[stationID]
		user, ok := assignedStation[stationID]
		if !ok {
			vacant = append(vacant, domain.PowerInfo{UserID: domain.VacantUserID, StationID: stationID})
			continue
		}
		occupied = append(occupied, domain.PowerInfo{
			UserID:              user.UserID,
			StationID:           stationID,
			StationMaxPower:     station.MaxPower,
			CarMaxPower:         user.CarMaxPower,
			StateOfCharge:       user.StateOfCharge,
			TargetStateOfCharge: user.TargetStateOfCharge,
			RequiredEnergy:      user.RequiredEnergy,
			TargetTime:          user.TargetTime,
		})
	}

	sort.SliceStable(occupied, func(i, j int) bool {
		if !occupied[i].TargetTime.Equal(occupied[j].TargetTime) {
			return occupied[i].TargetTime.Before(occupied[j].TargetTime)
		}
		if occupied[i].RequiredEnergy != occupied[j].RequiredEnergy {
			return occupied[i].RequiredEnergy > occupied[j].RequiredEnergy
		}
		return occupied[i].UserID < occupied[j].UserID
	})

	return append(occupied, vacant...)
}

// allocatePower computes each PowerInfo's granted power per §4.2 step 4:
// greedy allocation in priority order, capped by station/car/remaining
// capacity and the energy still needed this epoch.
func allocatePower(infos []domain.PowerInfo, capacity float64, epochSeconds int) []float64 {
	powers := make([]float64, len(infos))
	used := 0.0

	for i, info := range infos {
		if info.IsVacant() || epochSeconds <= 0 || used >= capacity {
			continue
		}
		if info.TargetStateOfCharge <= info.StateOfCharge {
			continue
		}

		p := math.Min(
			math.Min(info.StationMaxPower, info.CarMaxPower),
			math.Min(capacity-used, info.RequiredEnergy/(float64(epochSeconds)/3600.0)),
		)
		if p < 0 {
			p = 0
		}
		powers[i] = p
		used += p
	}
	return powers
}
