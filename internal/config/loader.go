package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load reads config.yaml (searched under ./configs, ., and /app/configs)
// and overlays APP_-prefixed environment variables, matching the teacher's
// pkg/config/loader.go layering. A missing config file is not an error:
// every field has a workable zero value or is set entirely from env.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/app/configs")

	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.BindEnv("bus.backend", "BUS_BACKEND", "APP_BUS_BACKEND")
	viper.BindEnv("bus.nats_url", "NATS_URL", "APP_BUS_NATS_URL")
	viper.BindEnv("bus.rabbitmq_url", "RABBITMQ_URL", "APP_BUS_RABBITMQ_URL")
	viper.BindEnv("logging.level", "LOG_LEVEL")
	viper.BindEnv("simulation.epoch_length_seconds", "EPOCH_LENGTH_SECONDS")
	viper.BindEnv("simulation.user_preferences_csv", "USER_PREFERENCES_CSV")
	viper.BindEnv("simulation.grid_load_csv", "GRID_LOAD_CSV")
	viper.BindEnv("monitor.enabled", "MONITOR_ENABLED")
	viper.BindEnv("monitor.port", "MONITOR_PORT")
	viper.BindEnv("prometheus.enabled", "PROMETHEUS_ENABLED")
	viper.BindEnv("prometheus.port", "PROMETHEUS_PORT")

	viper.SetDefault("bus.backend", "memory")
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("circuit_breaker.enabled", true)
	viper.SetDefault("circuit_breaker.failure_threshold", 5)
	viper.SetDefault("circuit_breaker.timeout", "30s")
	viper.SetDefault("simulation.epoch_length_seconds", 3600)
	viper.SetDefault("simulation.user_preferences_csv", "v2g_user_preferences.csv")
	viper.SetDefault("simulation.grid_load_csv", "grid_load_daily.csv")
	viper.SetDefault("monitor.enabled", false)
	viper.SetDefault("monitor.port", 8090)
	viper.SetDefault("prometheus.enabled", false)
	viper.SetDefault("prometheus.port", 9090)
	viper.SetDefault("prometheus.path", "/metrics")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}
