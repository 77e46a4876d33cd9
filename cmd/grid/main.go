// Command grid runs the Grid agent as a standalone process against a
// configured Bus backend, pacing its own epochs in the absence of the
// external Simulation Manager (spec §1).
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/secha-project/ev-v2g-simulation-components/internal/agent/grid"
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
		config.VarSpec{Name: "SOURCE_PROCESS_ID", Default: "v2g-grid"},
		config.VarSpec{Name: "GRID_ID", Default: "1"},
		config.VarSpec{Name: "TOTAL_MAX_POWER_OUTPUT", Default: "500"},
	)

	totalMaxPower, err := env.Float64("TOTAL_MAX_POWER_OUTPUT")
	if err != nil {
		logger.Fatal("bad TOTAL_MAX_POWER_OUTPUT", zap.Error(err))
	}

	b, err := bus.New(cfg.Bus, cfg.CircuitBreaker, "grid-"+env.String("GRID_ID"), logger)
	if err != nil {
		logger.Fatal("failed to initialize bus", zap.Error(err))
	}
	defer b.Close()

	agent := grid.New(b, logger, grid.Config{
		GridID:          env.String("GRID_ID"),
		TotalMaxPower:   totalMaxPower,
		SimulationID:    env.String("SIMULATION_ID"),
		SourceProcessID: env.String("SOURCE_PROCESS_ID"),
	})

	if err := b.Subscribe(messages.TopicPowerDischargeStationToGrid, func(msg messages.Message) error {
		agent.Handle(msg)
		agent.Advance()
		return nil
	}); err != nil {
		logger.Fatal("failed to subscribe", zap.Error(err))
	}

	epochLength := time.Duration(cfg.Simulation.EpochLengthSeconds) * time.Second
	ticker := time.NewTicker(epochLength)
	defer ticker.Stop()

	epochNumber := 0
	agent.StartEpoch(epochNumber)
	agent.Advance()
	logger.Info("grid agent started", zap.String("grid_id", env.String("GRID_ID")))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			epochNumber++
			agent.StartEpoch(epochNumber)
			agent.Advance()
		case <-quit:
			logger.Info("grid agent shutting down")
			return
		}
	}
}
