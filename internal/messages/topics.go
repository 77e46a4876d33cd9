package messages

// Bus topic names, per spec §6. They are fixed constants used as-is by
// every agent; no environment variable or config setting overrides them.
const (
	TopicCarMetadata                = "Init.User.CarMetadata"
	TopicUserState                  = "User.UserState"
	TopicCarState                   = "User.CarState"
	TopicPowerDischargeCarToStation = "PowerDischargeCarToStation"
	TopicStationState               = "StationStateTopic"
	TopicPowerOutput                = "PowerOutputTopic"
	TopicPowerDischargeStationToGrid = "PowerDischargeStationToGrid"
	TopicTotalChargingCost          = "TotalChargingCost"
	TopicGridState                  = "GridState"
	TopicGridLoadStatus             = "GridLoadStatus"
	// TopicPowerRequirement carries both PowerRequirement and
	// CarDischargePowerRequirement messages (spec §9, open question 2).
	TopicPowerRequirement = "PowerRequirementTopic"
)
