// Command controller runs the V2G Controller agent as a standalone
// process against a configured Bus backend. Epoch boundaries are, in a
// full deployment, broadcast by the external Simulation Manager (spec
// §1, out of scope here); lacking that collaborator, this binary paces
// itself with a fixed-interval ticker derived from its own
// epoch_length_seconds setting, which is sufficient to exercise the
// Controller's own state machine end to end.
package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/secha-project/ev-v2g-simulation-components/internal/agent/controller"
	"github.com/secha-project/ev-v2g-simulation-components/internal/bus"
	"github.com/secha-project/ev-v2g-simulation-components/internal/config"
	"github.com/secha-project/ev-v2g-simulation-components/internal/csvdata"
	"github.com/secha-project/ev-v2g-simulation-components/internal/messages"
	"github.com/secha-project/ev-v2g-simulation-components/internal/monitor"
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
		config.VarSpec{Name: "SOURCE_PROCESS_ID", Default: "v2g-controller"},
		config.VarSpec{Name: "TOTAL_USER_COUNT", Default: "0"},
		config.VarSpec{Name: "TOTAL_STATION_COUNT", Default: "0"},
	)
	totalUsers, err := env.Int("TOTAL_USER_COUNT")
	if err != nil {
		logger.Fatal("bad TOTAL_USER_COUNT", zap.Error(err))
	}
	totalStations, err := env.Int("TOTAL_STATION_COUNT")
	if err != nil {
		logger.Fatal("bad TOTAL_STATION_COUNT", zap.Error(err))
	}

	preferences, err := csvdata.LoadUserPreferences(cfg.Simulation.UserPreferencesCSV)
	if err != nil {
		logger.Fatal("failed to load user preferences", zap.Error(err))
	}
	gridLoad, err := csvdata.LoadGridLoadTable(cfg.Simulation.GridLoadCSV)
	if err != nil {
		logger.Warn("failed to load grid load table, grid never under load", zap.Error(err))
		gridLoad = csvdata.GridLoadTable{}
	}

	b, err := bus.New(cfg.Bus, cfg.CircuitBreaker, "controller", logger)
	if err != nil {
		logger.Fatal("failed to initialize bus", zap.Error(err))
	}
	defer b.Close()

	var hub *monitor.Hub
	var broadcaster controller.Broadcaster
	if cfg.Monitor.Enabled {
		hub = monitor.NewHub(logger)
		broadcaster = hub
		go hub.Run()
	}

	ctrl := controller.New(b, logger, controller.Config{
		TotalUserCount:    totalUsers,
		TotalStationCount: totalStations,
		Preferences:       preferences,
		GridLoadTable:     gridLoad,
		SimulationID:      env.String("SIMULATION_ID"),
		SourceProcessID:   env.String("SOURCE_PROCESS_ID"),
		Monitor:           broadcaster,
	})

	if cfg.Monitor.Enabled || cfg.Prometheus.Enabled {
		mux := http.NewServeMux()
		if cfg.Monitor.Enabled {
			mux.Handle("/ws", hub)
		}
		if cfg.Prometheus.Enabled {
			path := cfg.Prometheus.Path
			if path == "" {
				path = "/metrics"
			}
			mux.Handle(path, promhttp.Handler())
		}
		port := cfg.Monitor.Port
		if port == 0 {
			port = cfg.Prometheus.Port
		}
		server := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("monitor/metrics server stopped", zap.Error(err))
			}
		}()
		defer server.Close()
	}

	subscribe := func(topic string) {
		if err := b.Subscribe(topic, func(msg messages.Message) error {
			return ctrl.Handle(msg)
		}); err != nil {
			logger.Fatal("failed to subscribe", zap.String("topic", topic), zap.Error(err))
		}
	}
	subscribe(messages.TopicCarMetadata)
	subscribe(messages.TopicStationState)
	subscribe(messages.TopicUserState)
	subscribe(messages.TopicCarState)
	subscribe(messages.TopicGridState)
	subscribe(messages.TopicTotalChargingCost)

	epochLength := time.Duration(cfg.Simulation.EpochLengthSeconds) * time.Second
	ticker := time.NewTicker(epochLength)
	defer ticker.Stop()

	epochNumber := 0
	epochStart := time.Now().UTC()
	ctrl.StartEpoch(epochNumber, epochStart, epochStart.Add(epochLength), nil)
	logger.Info("controller started", zap.Int("epoch", epochNumber), zap.Duration("epoch_length", epochLength))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			epochNumber++
			epochStart = epochStart.Add(epochLength)
			ctrl.StartEpoch(epochNumber, epochStart, epochStart.Add(epochLength), nil)
			logger.Info("epoch advanced", zap.Int("epoch", epochNumber))
		case <-quit:
			logger.Info("controller shutting down")
			return
		}
	}
}
