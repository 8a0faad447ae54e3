package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the moderation engine.
// Detection thresholds live here so services receive them explicitly at
// construction instead of reading ambient state.
type Config struct {
	AppName     string
	AppEnv      string
	AppPort     string
	DatabaseURL string
	RedisURL    string
	NatsURL     string
	NatsSubject string
	JWTSecret   string

	QueueCountsCacheTTL time.Duration
	TrustCacheTTL       time.Duration

	TrustFlagRejectedThreshold  int
	TrustFlagViolationThreshold int

	AnomalySpikeThreshold    float64
	AnomalyAverageWindow     time.Duration
	AnomalyCurrentWindow     time.Duration
	AnomalyMinimumActivities int
	AnomalySweepInterval     time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("HACKVERSE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Hackverse Admin API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("nats.subject", "hackverse.notify")
	v.SetDefault("queue.counts_cache_ttl", "30s")
	v.SetDefault("trust.cache_ttl", "2m")
	v.SetDefault("trust.flag_rejected_threshold", 3)
	v.SetDefault("trust.flag_violation_threshold", 5)
	v.SetDefault("anomaly.spike_threshold", 2.0)
	v.SetDefault("anomaly.average_window", "60m")
	v.SetDefault("anomaly.current_window", "5m")
	v.SetDefault("anomaly.minimum_activities", 10)
	v.SetDefault("anomaly.sweep_interval", "0s")

	countsTTL, err := parseDuration(v, "queue.counts_cache_ttl")
	if err != nil {
		return Config{}, err
	}
	trustTTL, err := parseDuration(v, "trust.cache_ttl")
	if err != nil {
		return Config{}, err
	}
	averageWindow, err := parseDuration(v, "anomaly.average_window")
	if err != nil {
		return Config{}, err
	}
	currentWindow, err := parseDuration(v, "anomaly.current_window")
	if err != nil {
		return Config{}, err
	}
	sweepInterval, err := parseDuration(v, "anomaly.sweep_interval")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:     v.GetString("app.name"),
		AppEnv:      v.GetString("app.env"),
		AppPort:     v.GetString("app.port"),
		DatabaseURL: v.GetString("database.url"),
		RedisURL:    v.GetString("redis.url"),
		NatsURL:     v.GetString("nats.url"),
		NatsSubject: v.GetString("nats.subject"),
		JWTSecret:   v.GetString("jwt.secret"),

		QueueCountsCacheTTL: countsTTL,
		TrustCacheTTL:       trustTTL,

		TrustFlagRejectedThreshold:  v.GetInt("trust.flag_rejected_threshold"),
		TrustFlagViolationThreshold: v.GetInt("trust.flag_violation_threshold"),

		AnomalySpikeThreshold:    v.GetFloat64("anomaly.spike_threshold"),
		AnomalyAverageWindow:     averageWindow,
		AnomalyCurrentWindow:     currentWindow,
		AnomalyMinimumActivities: v.GetInt("anomaly.minimum_activities"),
		AnomalySweepInterval:     sweepInterval,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.AnomalySpikeThreshold <= 1 {
		return Config{}, fmt.Errorf("anomaly spike threshold must exceed 1.0")
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	if raw == "" {
		return 0, nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}
