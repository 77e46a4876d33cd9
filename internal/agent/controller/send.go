package controller

import (
	"time"

	"go.uber.org/zap"

	"github.com/secha-project/ev-v2g-simulation-components/internal/messages"
	"github.com/secha-project/ev-v2g-simulation-components/internal/telemetry"
)

// sendPowerRequirementBurst emits one PowerRequirement per station,
// occupied or vacant, in priority order (§4.2 step 5 / §4.1 burst 1).
func (c *Controller) sendPowerRequirementBurst() {
	epochSeconds := int(c.epochEnd.Sub(c.epochStart).Seconds())
	connected := connectedUsers(c.users, c.epochStart, c.epochEnd)
	infos := buildPowerInfos(c.state.stationOrder, c.state.stations, connected)
	powers := allocatePower(infos, c.currentAvailablePower, epochSeconds)

	used := 0.0
	for i, info := range infos {
		used += powers[i]
		c.publish(messages.TopicPowerRequirement, &messages.PowerRequirement{
			Envelope:  c.envelope("PowerRequirement"),
			StationID: info.StationID,
			UserID:    info.UserID,
			Power:     powers[i],
		})
	}
	c.state.usedPower = used

	resolveDuration := time.Since(c.state.startedAt).Seconds()
	usedKWh := used * float64(epochSeconds) / 3600.0

	c.log.Info("power requirement burst sent",
		zap.Int("epoch", c.epochNumber),
		zap.Float64("used_power", used),
		zap.Float64("available_power", c.currentAvailablePower),
		zap.Float64("resolve_duration_seconds", resolveDuration))

	telemetry.RecordEpochResolved(resolveDuration, len(connected), usedKWh)
}

// sendDischargeBurst emits a CarDischargePowerRequirement for every
// connected user flagged for discharge (§4.1 burst 2, §4.3). The energy
// above the user's target SoC is converted to kW over the epoch length,
// the unit CarDischargePowerRequirement.Power carries.
func (c *Controller) sendDischargeBurst() {
	epochHours := c.epochEnd.Sub(c.epochStart).Hours()
	for _, user := range connectedUsers(c.users, c.epochStart, c.epochEnd) {
		if !user.Discharge {
			continue
		}

		energy := user.CarBatteryCapacity * (user.StateOfCharge - user.TargetStateOfCharge) / 100.0
		power := 0.0
		if energy > 0 && epochHours > 0 {
			power = energy / epochHours
		}

		c.publish(messages.TopicPowerRequirement, &messages.CarDischargePowerRequirement{
			Envelope:  c.envelope("CarDischargePowerRequirement"),
			StationID: user.StationID,
			UserID:    user.UserID,
			Power:     power,
		})
		telemetry.RecordDischargeDecision(true)
	}
}

// publishGridLoadStatus broadcasts the same grid_under_load(hour) verdict
// used by the discharge decision, so Station agents can gate their own
// epoch-ready predicate on it (SPEC_FULL §12 item 2).
func (c *Controller) publishGridLoadStatus() {
	if c.gridID == "" {
		return
	}
	c.publish(messages.TopicGridLoadStatus, &messages.GridLoadStatus{
		Envelope:   c.envelope("GridLoadStatus"),
		GridID:     c.gridID,
		LoadStatus: c.gridUnderLoad(),
	})
}
