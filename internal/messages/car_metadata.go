package messages

import (
	"encoding/json"
	"fmt"
)

// CarMetaData is published once per user, at epoch 1, on
// Init.User.CarMetadata (spec §6).
type CarMetaData struct {
	Envelope
	UserID             int     `json:"UserId"`
	UserName           string  `json:"UserName"`
	StationID          string  `json:"StationId"`
	StateOfCharge      float64 `json:"StateOfCharge"`
	CarBatteryCapacity float64 `json:"CarBatteryCapacity"`
	CarModel           string  `json:"CarModel"`
	CarMaxPower        float64 `json:"CarMaxPower"`
}

func (m *CarMetaData) Env() Envelope { return m.Envelope }

func (m *CarMetaData) Validate() error {
	if m.UserID <= 0 {
		return fmt.Errorf("UserId must be positive, got %d", m.UserID)
	}
	if m.StationID == "" {
		return fmt.Errorf("StationId must not be empty")
	}
	if m.CarBatteryCapacity <= 0 {
		return fmt.Errorf("CarBatteryCapacity must be positive, got %f", m.CarBatteryCapacity)
	}
	if m.CarMaxPower <= 0 {
		return fmt.Errorf("CarMaxPower must be positive, got %f", m.CarMaxPower)
	}
	if m.StateOfCharge < 0 || m.StateOfCharge > 100 {
		return fmt.Errorf("StateOfCharge out of range: %f", m.StateOfCharge)
	}
	return nil
}

func (m *CarMetaData) Equal(other Message) bool {
	o, ok := other.(*CarMetaData)
	if !ok {
		return false
	}
	return m.UserID == o.UserID &&
		m.UserName == o.UserName &&
		m.StationID == o.StationID &&
		m.StateOfCharge == o.StateOfCharge &&
		m.CarBatteryCapacity == o.CarBatteryCapacity &&
		m.CarModel == o.CarModel &&
		m.CarMaxPower == o.CarMaxPower
}

func decodeCarMetaData(raw []byte) (Message, error) {
	var m CarMetaData
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func init() {
	Register("CarMetaData", decodeCarMetaData)
}
