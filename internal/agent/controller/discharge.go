package controller

import (
	"math"

	"go.uber.org/zap"

	"github.com/secha-project/ev-v2g-simulation-components/internal/domain"
)

// checkUserDischargeNeed implements the §4.3 discharge-trigger predicate.
// It both returns and records the verdict in user.Discharge, which is
// cleared first so the flag reflects only the latest check, matching the
// original's _check_user_discharge_need, which mutates the user record as
// a side effect of the check.
func (c *Controller) checkUserDischargeNeed(user *domain.UserData) bool {
	user.Discharge = false
	pref, ok := c.preferences[user.UserID]
	if !ok {
		c.log.Warn("no preferences found for user, cannot discharge", zap.Int("user_id", user.UserID))
		return false
	}

	if c.gridUnderLoad() {
		if station, ok := c.state.stations[user.StationID]; ok {
			if pref.DischargePriceThreshold <= station.CompensationAmount {
				user.Discharge = true
			}
		}
	}

	return user.Discharge
}

// reshapeTarget applies §4.2 step 1 on CarState receipt: either the
// discharge-down adjustment, or the willing-to-pay-more upward adjustment,
// whichever condition matches.
func (c *Controller) reshapeTarget(user *domain.UserData) {
	if c.checkUserDischargeNeed(user) {
		if user.StateOfCharge > user.TargetStateOfCharge {
			user.RequiredEnergy = 0
			floor := domain.DefaultMinimumStateOfCharge
			if pref, ok := c.preferences[user.UserID]; ok {
				floor = pref.MinimumSOC * 100
			}
			user.TargetStateOfCharge = math.Max(user.StateOfCharge-10.0, floor)
		}
		return
	}

	if user.StateOfCharge != user.TargetStateOfCharge {
		return
	}

	station, ok := c.state.stations[user.StationID]
	if !ok {
		return
	}
	pref, ok := c.preferences[user.UserID]
	if !ok {
		return
	}
	if pref.MaxCostForCharging < station.ChargingCost {
		return
	}
	if user.TargetStateOfCharge >= domain.MaxStateOfCharge {
		return
	}

	user.TargetStateOfCharge = domain.MaxStateOfCharge
	user.RecomputeRequiredEnergy()
}
