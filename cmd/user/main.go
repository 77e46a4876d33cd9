// Command user runs a single User agent (one simulated EV) as a
// standalone process against a configured Bus backend. Like cmd/controller,
// it paces its own epochs in the absence of the external Simulation
// Manager (spec §1).
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/secha-project/ev-v2g-simulation-components/internal/agent/user"
	"github.com/secha-project/ev-v2g-simulation-components/internal/bus"
	"github.com/secha-project/ev-v2g-simulation-components/internal/config"
	"github.com/secha-project/ev-v2g-simulation-components/internal/messages"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	env := config.LoadEnv(
		config.VarSpec{Name: "SIMULATION_ID", Default: "local-simulation"},
		config.VarSpec{Name: "SOURCE_PROCESS_ID", Default: "v2g-user"},
		config.VarSpec{Name: "USER_ID", Default: "1"},
		config.VarSpec{Name: "USER_NAME", Default: "user-1"},
		config.VarSpec{Name: "STATION_ID", Default: "station-1"},
		config.VarSpec{Name: "CAR_BATTERY_CAPACITY", Default: "60"},
		config.VarSpec{Name: "CAR_MODEL", Default: "generic"},
		config.VarSpec{Name: "CAR_MAX_POWER", Default: "11"},
		config.VarSpec{Name: "INITIAL_SOC", Default: "40"},
		config.VarSpec{Name: "ARRIVAL_OFFSET_SECONDS", Default: "0"},
		config.VarSpec{Name: "TARGET_OFFSET_SECONDS", Default: "28800"},
	)

	userID, err := env.Int("USER_ID")
	if err != nil {
		logger.Fatal("bad USER_ID", zap.Error(err))
	}
	batteryCapacity, err := env.Float64("CAR_BATTERY_CAPACITY")
	if err != nil {
		logger.Fatal("bad CAR_BATTERY_CAPACITY", zap.Error(err))
	}
	carMaxPower, err := env.Float64("CAR_MAX_POWER")
	if err != nil {
		logger.Fatal("bad CAR_MAX_POWER", zap.Error(err))
	}
	initialSOC, err := env.Float64("INITIAL_SOC")
	if err != nil {
		logger.Fatal("bad INITIAL_SOC", zap.Error(err))
	}
	arrivalOffset, err := env.Int("ARRIVAL_OFFSET_SECONDS")
	if err != nil {
		logger.Fatal("bad ARRIVAL_OFFSET_SECONDS", zap.Error(err))
	}
	targetOffset, err := env.Int("TARGET_OFFSET_SECONDS")
	if err != nil {
		logger.Fatal("bad TARGET_OFFSET_SECONDS", zap.Error(err))
	}

	now := time.Now().UTC()

	b, err := bus.New(cfg.Bus, cfg.CircuitBreaker, "user-"+env.String("USER_ID"), logger)
	if err != nil {
		logger.Fatal("failed to initialize bus", zap.Error(err))
	}
	defer b.Close()

	agent := user.New(b, logger, user.Config{
		UserID:             userID,
		UserName:           env.String("USER_NAME"),
		StationID:          env.String("STATION_ID"),
		CarBatteryCapacity: batteryCapacity,
		CarModel:           env.String("CAR_MODEL"),
		CarMaxPower:        carMaxPower,
		InitialSOC:         initialSOC,
		ArrivalTime:        now.Add(time.Duration(arrivalOffset) * time.Second),
		TargetTime:         now.Add(time.Duration(targetOffset) * time.Second),
		SimulationID:       env.String("SIMULATION_ID"),
		SourceProcessID:    env.String("SOURCE_PROCESS_ID"),
	})

	maybeEmitCarState := func() {
		if agent.EpochReady() {
			agent.EmitCarState()
		}
	}

	if err := b.Subscribe(messages.TopicPowerOutput, func(msg messages.Message) error {
		if m, ok := msg.(*messages.PowerOutput); ok {
			agent.HandlePowerOutput(m)
			maybeEmitCarState()
		}
		return nil
	}); err != nil {
		logger.Fatal("failed to subscribe", zap.Error(err))
	}

	if err := b.Subscribe(messages.TopicPowerRequirement, func(msg messages.Message) error {
		if m, ok := msg.(*messages.CarDischargePowerRequirement); ok {
			agent.HandleDischargeRequirement(m)
			maybeEmitCarState()
		}
		return nil
	}); err != nil {
		logger.Fatal("failed to subscribe", zap.Error(err))
	}

	epochLength := time.Duration(cfg.Simulation.EpochLengthSeconds) * time.Second
	ticker := time.NewTicker(epochLength)
	defer ticker.Stop()

	epochNumber := 0
	runEpoch := func() {
		epochStart := now.Add(time.Duration(epochNumber) * epochLength)
		agent.StartEpoch(epochNumber, epochStart, epochStart.Add(epochLength))
		if epochNumber == 0 {
			agent.EmitCarMetadata()
		}
		agent.EmitUserState()
		if !agent.Connected() {
			agent.NotConnectedThisEpoch()
		}
		maybeEmitCarState()
	}
	runEpoch()
	logger.Info("user agent started", zap.Int("user_id", userID))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			epochNumber++
			runEpoch()
		case <-quit:
			logger.Info("user agent shutting down")
			return
		}
	}
}
