package messages

import (
	"encoding/json"
	"fmt"
)

// StationState is published by a Station agent every epoch, on
// StationStateTopic, describing its current capacity and tariffs.
type StationState struct {
	Envelope
	StationID          string  `json:"StationId"`
	MaxPower           float64 `json:"MaxPower"`
	ChargingCost       float64 `json:"ChargingCost"`
	CompensationAmount float64 `json:"CompensationAmount"`
}

func (m *StationState) Env() Envelope { return m.Envelope }

func (m *StationState) Validate() error {
	if m.StationID == "" {
		return fmt.Errorf("StationId must not be empty")
	}
	if m.MaxPower <= 0 {
		return fmt.Errorf("MaxPower must be positive, got %f", m.MaxPower)
	}
	if m.ChargingCost < 0 {
		return fmt.Errorf("ChargingCost must not be negative, got %f", m.ChargingCost)
	}
	if m.CompensationAmount < 0 {
		return fmt.Errorf("CompensationAmount must not be negative, got %f", m.CompensationAmount)
	}
	return nil
}

func (m *StationState) Equal(other Message) bool {
	o, ok := other.(*StationState)
	if !ok {
		return false
	}
	return m.StationID == o.StationID &&
		m.MaxPower == o.MaxPower &&
		m.ChargingCost == o.ChargingCost &&
		m.CompensationAmount == o.CompensationAmount
}

func decodeStationState(raw []byte) (Message, error) {
	var m StationState
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func init() {
	Register("StationState", decodeStationState)
}
