package messages

import (
	"encoding/json"
	"fmt"
	"time"
)

// UserState is published by a User agent every epoch on User.UserState.
type UserState struct {
	Envelope
	UserID      int       `json:"UserId"`
	ArrivalTime time.Time `json:"ArrivalTime"`
	TargetTime  time.Time `json:"TargetTime"`
}

func (m *UserState) Env() Envelope { return m.Envelope }

func (m *UserState) Validate() error {
	if m.UserID <= 0 {
		return fmt.Errorf("UserId must be positive, got %d", m.UserID)
	}
	if m.ArrivalTime.IsZero() || m.TargetTime.IsZero() {
		return fmt.Errorf("ArrivalTime and TargetTime must be set")
	}
	if m.TargetTime.Before(m.ArrivalTime) {
		return fmt.Errorf("TargetTime %s is before ArrivalTime %s", m.TargetTime, m.ArrivalTime)
	}
	return nil
}

func (m *UserState) Equal(other Message) bool {
	o, ok := other.(*UserState)
	if !ok {
		return false
	}
	return m.UserID == o.UserID &&
		m.ArrivalTime.Equal(o.ArrivalTime) &&
		m.TargetTime.Equal(o.TargetTime)
}

func decodeUserState(raw []byte) (Message, error) {
	var m UserState
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func init() {
	Register("UserState", decodeUserState)
}

// CarState is published by a User agent after its SoC is updated for the
// epoch, on User.CarState.
type CarState struct {
	Envelope
	UserID        int     `json:"UserId"`
	StationID     string  `json:"StationId"`
	StateOfCharge float64 `json:"StateOfCharge"`
}

func (m *CarState) Env() Envelope { return m.Envelope }

func (m *CarState) Validate() error {
	if m.UserID <= 0 {
		return fmt.Errorf("UserId must be positive, got %d", m.UserID)
	}
	if m.StateOfCharge < 0 || m.StateOfCharge > 100 {
		return fmt.Errorf("StateOfCharge out of range: %f", m.StateOfCharge)
	}
	return nil
}

func (m *CarState) Equal(other Message) bool {
	o, ok := other.(*CarState)
	if !ok {
		return false
	}
	return m.UserID == o.UserID && m.StationID == o.StationID && m.StateOfCharge == o.StateOfCharge
}

func decodeCarState(raw []byte) (Message, error) {
	var m CarState
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func init() {
	Register("CarState", decodeCarState)
}
