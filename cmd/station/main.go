// Command station runs a single Station agent as a standalone process
// against a configured Bus backend, pacing its own epochs in the absence
// of the external Simulation Manager (spec §1).
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/secha-project/ev-v2g-simulation-components/internal/agent/station"
	"github.com/secha-project/ev-v2g-simulation-components/internal/bus"
	"github.com/secha-project/ev-v2g-simulation-components/internal/config"
	"github.com/secha-project/ev-v2g-simulation-components/internal/csvdata"
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
		config.VarSpec{Name: "SOURCE_PROCESS_ID", Default: "v2g-station"},
		config.VarSpec{Name: "STATION_ID", Default: "station-1"},
		config.VarSpec{Name: "GRID_ID", Default: "1"},
		config.VarSpec{Name: "MAX_POWER", Default: "22"},
		config.VarSpec{Name: "CHARGING_COST", Default: "0.20"},
		config.VarSpec{Name: "COMPENSATION_AMOUNT", Default: "0.15"},
		config.VarSpec{Name: "DYNAMIC_TARIFF", Default: "false"},
	)

	maxPower, err := env.Float64("MAX_POWER")
	if err != nil {
		logger.Fatal("bad MAX_POWER", zap.Error(err))
	}
	chargingCost, err := env.Float64("CHARGING_COST")
	if err != nil {
		logger.Fatal("bad CHARGING_COST", zap.Error(err))
	}
	compensationAmount, err := env.Float64("COMPENSATION_AMOUNT")
	if err != nil {
		logger.Fatal("bad COMPENSATION_AMOUNT", zap.Error(err))
	}
	dynamicTariff, err := env.Bool("DYNAMIC_TARIFF")
	if err != nil {
		logger.Fatal("bad DYNAMIC_TARIFF", zap.Error(err))
	}

	b, err := bus.New(cfg.Bus, cfg.CircuitBreaker, "station-"+env.String("STATION_ID"), logger)
	if err != nil {
		logger.Fatal("failed to initialize bus", zap.Error(err))
	}
	defer b.Close()

	var tariff *csvdata.TariffGenerator
	if dynamicTariff {
		tariff = csvdata.NewTariffGenerator(csvdata.DefaultTariffConfig())
	}

	agent := station.New(b, logger, station.Config{
		StationID:          env.String("STATION_ID"),
		GridID:             env.String("GRID_ID"),
		MaxPower:           maxPower,
		ChargingCost:       chargingCost,
		CompensationAmount: compensationAmount,
		Tariff:             tariff,
		SimulationID:       env.String("SIMULATION_ID"),
		SourceProcessID:    env.String("SOURCE_PROCESS_ID"),
	})

	subscribe := func(topic string) {
		if err := b.Subscribe(topic, func(msg messages.Message) error {
			agent.Handle(msg)
			agent.Advance()
			return nil
		}); err != nil {
			logger.Fatal("failed to subscribe", zap.String("topic", topic), zap.Error(err))
		}
	}
	subscribe(messages.TopicPowerRequirement)
	subscribe(messages.TopicPowerDischargeCarToStation)
	subscribe(messages.TopicGridLoadStatus)

	epochLength := time.Duration(cfg.Simulation.EpochLengthSeconds) * time.Second
	ticker := time.NewTicker(epochLength)
	defer ticker.Stop()

	epochNumber := 0
	epochStart := time.Now().UTC()
	agent.StartEpoch(epochNumber, epochStart)
	agent.Advance()
	logger.Info("station agent started", zap.String("station_id", env.String("STATION_ID")))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			epochNumber++
			epochStart = epochStart.Add(epochLength)
			agent.StartEpoch(epochNumber, epochStart)
			agent.Advance()
		case <-quit:
			logger.Info("station agent shutting down")
			return
		}
	}
}
