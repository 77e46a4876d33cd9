package messages

import (
	"encoding/json"
	"fmt"
)

// PowerDischargeCarToStation is published by a User agent that has been
// instructed to discharge, on PowerDischargeCarToStation, carrying the
// kW the car is actually feeding back.
type PowerDischargeCarToStation struct {
	Envelope
	StationID string  `json:"StationId"`
	UserID    int     `json:"UserId"`
	Power     float64 `json:"Power"`
}

func (m *PowerDischargeCarToStation) Env() Envelope { return m.Envelope }

func (m *PowerDischargeCarToStation) Validate() error {
	if m.StationID == "" {
		return fmt.Errorf("StationId must not be empty")
	}
	if m.UserID <= 0 {
		return fmt.Errorf("UserId must be positive, got %d", m.UserID)
	}
	if m.Power < 0 {
		return fmt.Errorf("Power must not be negative, got %f", m.Power)
	}
	return nil
}

func (m *PowerDischargeCarToStation) Equal(other Message) bool {
	o, ok := other.(*PowerDischargeCarToStation)
	if !ok {
		return false
	}
	return m.StationID == o.StationID && m.UserID == o.UserID && m.Power == o.Power
}

func decodePowerDischargeCarToStation(raw []byte) (Message, error) {
	var m PowerDischargeCarToStation
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func init() {
	Register("PowerDischargeCarToStation", decodePowerDischargeCarToStation)
}

// PowerDischargeStationToGrid is forwarded by a Station agent, on
// PowerDischargeStationToGrid, crediting the discharged power to
// the grid that station belongs to.
type PowerDischargeStationToGrid struct {
	Envelope
	GridID    string  `json:"GridId"`
	StationID string  `json:"StationId"`
	Power     float64 `json:"Power"`
}

func (m *PowerDischargeStationToGrid) Env() Envelope { return m.Envelope }

func (m *PowerDischargeStationToGrid) Validate() error {
	if m.GridID == "" {
		return fmt.Errorf("GridId must not be empty")
	}
	if m.StationID == "" {
		return fmt.Errorf("StationId must not be empty")
	}
	if m.Power < 0 {
		return fmt.Errorf("Power must not be negative, got %f", m.Power)
	}
	return nil
}

func (m *PowerDischargeStationToGrid) Equal(other Message) bool {
	o, ok := other.(*PowerDischargeStationToGrid)
	if !ok {
		return false
	}
	return m.GridID == o.GridID && m.StationID == o.StationID && m.Power == o.Power
}

func decodePowerDischargeStationToGrid(raw []byte) (Message, error) {
	var m PowerDischargeStationToGrid
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func init() {
	Register("PowerDischargeStationToGrid", decodePowerDischargeStationToGrid)
}
