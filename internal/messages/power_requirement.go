package messages

import (
	"encoding/json"
	"fmt"
)

// PowerRequirement is published by the Controller once per station per
// epoch, on PowerRequirementTopic (spec §4.2, §6). UserId is
// domain.VacantUserID (0) for a station with no connected user.
type PowerRequirement struct {
	Envelope
	StationID string  `json:"StationId"`
	UserID    int     `json:"UserId"`
	Power     float64 `json:"Power"`
}

func (m *PowerRequirement) Env() Envelope { return m.Envelope }

func (m *PowerRequirement) Validate() error {
	if m.StationID == "" {
		return fmt.Errorf("StationId must not be empty")
	}
	if m.UserID < 0 {
		return fmt.Errorf("UserId must not be negative, got %d", m.UserID)
	}
	if m.Power < 0 {
		return fmt.Errorf("Power must not be negative, got %f", m.Power)
	}
	return nil
}

func (m *PowerRequirement) Equal(other Message) bool {
	o, ok := other.(*PowerRequirement)
	if !ok {
		return false
	}
	return m.StationID == o.StationID && m.UserID == o.UserID && m.Power == o.Power
}

func decodePowerRequirement(raw []byte) (Message, error) {
	var m PowerRequirement
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func init() {
	Register("PowerRequirement", decodePowerRequirement)
}

// CarDischargePowerRequirement is published by the Controller, on the same
// PowerRequirementTopic as PowerRequirement (spec §9, open question 2: one
// topic, not two), for users selected for V2G discharge this epoch. Power
// is a kW figure (spec §9, open question 1 resolves the wire unit to kW).
type CarDischargePowerRequirement struct {
	Envelope
	StationID string  `json:"StationId"`
	UserID    int     `json:"UserId"`
	Power     float64 `json:"Power"`
}

func (m *CarDischargePowerRequirement) Env() Envelope { return m.Envelope }

func (m *CarDischargePowerRequirement) Validate() error {
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

func (m *CarDischargePowerRequirement) Equal(other Message) bool {
	o, ok := other.(*CarDischargePowerRequirement)
	if !ok {
		return false
	}
	return m.StationID == o.StationID && m.UserID == o.UserID && m.Power == o.Power
}

func decodeCarDischargePowerRequirement(raw []byte) (Message, error) {
	var m CarDischargePowerRequirement
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func init() {
	Register("CarDischargePowerRequirement", decodeCarDischargePowerRequirement)
}

// PowerOutput is forwarded by a Station to a User once per epoch, on
// PowerOutputTopic, carrying the charge power the Controller granted.
type PowerOutput struct {
	Envelope
	StationID   string  `json:"StationId"`
	UserID      int     `json:"UserId"`
	PowerOutput float64 `json:"PowerOutput"`
}

func (m *PowerOutput) Env() Envelope { return m.Envelope }

func (m *PowerOutput) Validate() error {
	if m.StationID == "" {
		return fmt.Errorf("StationId must not be empty")
	}
	if m.UserID <= 0 {
		return fmt.Errorf("UserId must be positive, got %d", m.UserID)
	}
	if m.PowerOutput < 0 {
		return fmt.Errorf("PowerOutput must not be negative, got %f", m.PowerOutput)
	}
	return nil
}

func (m *PowerOutput) Equal(other Message) bool {
	o, ok := other.(*PowerOutput)
	if !ok {
		return false
	}
	return m.StationID == o.StationID && m.UserID == o.UserID && m.PowerOutput == o.PowerOutput
}

func decodePowerOutput(raw []byte) (Message, error) {
	var m PowerOutput
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func init() {
	Register("PowerOutput", decodePowerOutput)
}
