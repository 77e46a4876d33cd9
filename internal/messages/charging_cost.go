package messages

import (
	"encoding/json"
	"fmt"
)

// TotalChargingCost is published by a Station agent once per epoch, after
// its PowerOutput, on TotalChargingCost, carrying the station's running
// charging-cost total and the user it last served; the Controller
// aggregates the totals per user (supplemented feature: the original
// station's running cost ledger, SPEC_FULL §12 item 1).
type TotalChargingCost struct {
	Envelope
	UserID            int     `json:"UserId"`
	TotalChargingCost float64 `json:"TotalChargingCost"`
}

func (m *TotalChargingCost) Env() Envelope { return m.Envelope }

func (m *TotalChargingCost) Validate() error {
	if m.UserID <= 0 {
		return fmt.Errorf("UserId must be positive, got %d", m.UserID)
	}
	if m.TotalChargingCost < 0 {
		return fmt.Errorf("TotalChargingCost must not be negative, got %f", m.TotalChargingCost)
	}
	return nil
}

func (m *TotalChargingCost) Equal(other Message) bool {
	o, ok := other.(*TotalChargingCost)
	if !ok {
		return false
	}
	return m.UserID == o.UserID && m.TotalChargingCost == o.TotalChargingCost
}

func decodeTotalChargingCost(raw []byte) (Message, error) {
	var m TotalChargingCost
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func init() {
	Register("TotalChargingCost", decodeTotalChargingCost)
}
