package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool

	// Ledger policy knobs.
	RoundingMode         string // "half_up" or "bankers", fixed at startup
	RequireMappingEvents []string

	// Anomaly detector heuristics.
	AnomalyMeanMultiplier float64 // flag amounts above mean * multiplier
	AnomalyMinSamples     int     // minimum history before the mean check fires
	AnomalyRoundFloor     float64 // round-number check floor

	// Async dispatcher.
	DispatcherWorkers   int
	DispatcherQueueSize int

	RateLimit string // e.g. "100-M"
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ROUNDING_MODE", "half_up")
	viper.SetDefault("REQUIRE_MAPPING_EVENTS", "disbursement")
	viper.SetDefault("ANOMALY_MEAN_MULTIPLIER", 5.0)
	viper.SetDefault("ANOMALY_MIN_SAMPLES", 10)
	viper.SetDefault("ANOMALY_ROUND_FLOOR", 10000.0)
	viper.SetDefault("DISPATCHER_WORKERS", 2)
	viper.SetDefault("DISPATCHER_QUEUE_SIZE", 256)
	viper.SetDefault("RATE_LIMIT", "300-M")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.RoundingMode = viper.GetString("ROUNDING_MODE")
	switch cfg.RoundingMode {
	case "half_up", "bankers":
	default:
		log.Printf("Warning: Invalid ROUNDING_MODE %q. Defaulting to half_up.\n", cfg.RoundingMode)
		cfg.RoundingMode = "half_up"
	}

	// Events for which a missing GL mapping is fatal. The source system
	// requires one for disbursement but tolerates absence for repayment;
	// carried as configuration rather than resolved in code.
	requireRaw := viper.GetString("REQUIRE_MAPPING_EVENTS")
	for _, ev := range strings.Split(requireRaw, ",") {
		if ev = strings.TrimSpace(ev); ev != "" {
			cfg.RequireMappingEvents = append(cfg.RequireMappingEvents, ev)
		}
	}

	cfg.AnomalyMeanMultiplier = viper.GetFloat64("ANOMALY_MEAN_MULTIPLIER")
	cfg.AnomalyMinSamples = viper.GetInt("ANOMALY_MIN_SAMPLES")
	cfg.AnomalyRoundFloor = viper.GetFloat64("ANOMALY_ROUND_FLOOR")

	cfg.DispatcherWorkers = viper.GetInt("DISPATCHER_WORKERS")
	if cfg.DispatcherWorkers <= 0 {
		cfg.DispatcherWorkers = 2
	}
	cfg.DispatcherQueueSize = viper.GetInt("DISPATCHER_QUEUE_SIZE")
	if cfg.DispatcherQueueSize <= 0 {
		cfg.DispatcherQueueSize = 256
	}

	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	return cfg, nil
}

// MappingRequired reports whether a missing GL mapping is fatal for the event type.
func (c *Config) MappingRequired(eventType string) bool {
	for _, ev := range c.RequireMappingEvents {
		if ev == eventType {
			return true
		}
	}
	return false
}
