// Package domain holds the core data model shared by every agent in the
// V2G epoch co-simulation: users (EVs), stations, the grid, and the
// transient per-epoch allocation records the Controller produces.
package domain

import "time"

// MaxStateOfCharge is the ceiling a battery's state of charge can reach.
const MaxStateOfCharge = 100.0

// DefaultMinimumStateOfCharge is used when a user has no preference record
// on file (§7 of the spec: missing preference defaults target SoC to 50%).
const DefaultMinimumStateOfCharge = 50.0

// VacantUserID is the sentinel UserID of a PowerInfo slot for a station
// with no connected user this epoch.
const VacantUserID = 0

// UserData tracks one EV across the lifetime of the simulation. It is
// created on the user's first CarMetaData message and mutated by
// UserState and CarState messages plus the Controller's own target/SoC
// recomputation.
type UserData struct {
	UserID              int       `json:"user_id"`
	UserName            string    `json:"user_name"`
	StationID           string    `json:"station_id"`
	StateOfCharge       float64   `json:"state_of_charge"`        // percent, 0-100
	CarBatteryCapacity  float64   `json:"car_battery_capacity"`   // kWh
	CarModel            string    `json:"car_model"`
	CarMaxPower         float64   `json:"car_max_power"`          // kW
	TargetStateOfCharge float64   `json:"target_state_of_charge"` // percent, 0-100
	RequiredEnergy      float64   `json:"required_energy"`        // kWh, >= 0
	ArrivalTime         time.Time `json:"arrival_time"`
	TargetTime          time.Time `json:"target_time"`
	Discharge           bool      `json:"discharge"` // epoch-scoped
}

// ClampStateOfCharge keeps SoC within [0, MaxStateOfCharge].
func (u *UserData) ClampStateOfCharge() {
	if u.StateOfCharge < 0 {
		u.StateOfCharge = 0
	}
	if u.StateOfCharge > MaxStateOfCharge {
		u.StateOfCharge = MaxStateOfCharge
	}
}

// RecomputeRequiredEnergy derives RequiredEnergy from the current SoC and
// target SoC: required_energy = capacity * max(0, target - soc) / 100.
func (u *UserData) RecomputeRequiredEnergy() {
	delta := u.TargetStateOfCharge - u.StateOfCharge
	if delta < 0 {
		delta = 0
	}
	u.RequiredEnergy = u.CarBatteryCapacity * delta / 100.0
}

// Connected reports whether the epoch window [start, end] is fully
// contained in the user's occupancy window [ArrivalTime, TargetTime],
// using non-strict bounds on both sides (spec §9, open question 3).
func (u *UserData) Connected(start, end time.Time) bool {
	return !start.Before(u.ArrivalTime) && !end.After(u.TargetTime)
}

// StationData is rebuilt each epoch from the station's StationState
// message; nothing about it persists across epochs.
type StationData struct {
	StationID          string  `json:"station_id"`
	MaxPower           float64 `json:"max_power"`          // kW
	ChargingCost       float64 `json:"charging_cost"`      // currency/kWh
	CompensationAmount float64 `json:"compensation_amount"` // currency/kWh paid for discharge
}

// UserPreference holds the static per-user configuration read from
// v2g_user_preferences.csv at Controller boot.
type UserPreference struct {
	UserID                  int     `json:"user_id"`
	MinimumSOC              float64 `json:"minimum_soc"` // fraction, 0-1
	MaxCostForCharging      float64 `json:"max_cost_for_charging"`
	DischargePriceThreshold float64 `json:"discharge_price_threshold"`
	MaximumSOC              float64 `json:"maximum_soc,omitempty"` // fraction, 0-1, optional
}

// GridSnapshot is replaced wholesale each epoch by the latest GridState
// message; MaxPower is latched from the first GridState ever received.
type GridSnapshot struct {
	GridID       string  `json:"grid_id"`
	MaxPower     float64 `json:"max_power"`
	CurrentPower float64 `json:"current_power"`
}

// PowerInfo is a single-epoch allocation slot: either a connected user at a
// station, or a vacant station (UserID == VacantUserID meaning no user).
type PowerInfo struct {
	UserID              int       `json:"user_id"` // VacantUserID means vacant
	StationID           string    `json:"station_id"`
	StationMaxPower     float64   `json:"station_max_power"`
	CarMaxPower         float64   `json:"car_max_power"`
	StateOfCharge       float64   `json:"state_of_charge"`
	TargetStateOfCharge float64   `json:"target_state_of_charge"`
	RequiredEnergy      float64   `json:"required_energy"`
	TargetTime          time.Time `json:"target_time"`
}

// IsVacant reports whether this slot represents a station with no
// connected user this epoch.
func (p PowerInfo) IsVacant() bool {
	return p.UserID == VacantUserID
}
