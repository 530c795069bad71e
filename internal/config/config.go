// Package config loads runtime configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures runtime configuration values for the service.
type Config struct {
	Port              string
	Env               string
	LogLevel          string
	DatabaseURL       string
	RedisURL          string
	SentryDSN         string
	SettingsPath      string
	HTTPClientTimeout time.Duration

	Fitbit      Fitbit
	Huawei      Credentials
	Garmin      Credentials
	Google      Credentials
	TrainerRoad TrainerRoad
	Goals       Goals
}

// Credentials is a vendor client id and secret pair.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Configured reports whether both halves of the pair are set.
func (c Credentials) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

type Fitbit struct {
	Credentials
	RedirectURI   string
	LocationScope bool
	// Optional allows start-up without Fitbit credentials.
	Optional bool
}

type TrainerRoad struct {
	BaseURL string
	CalID   string
}

// Goals are the daily habit targets.
type Goals struct {
	DistanceKm      float64
	HeartRate       int
	DurationMinutes int
}

// Load reads environment variables and applies defaults.
func Load() Config {
	return Config{
		Port:              getEnv("PORT", "8080"),
		Env:               getEnv("ENV", "development"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		RedisURL:          getEnv("REDIS_URL", ""),
		SentryDSN:         getEnv("SENTRY_DSN", ""),
		SettingsPath:      getEnv("SETTINGS_PATH", "/settings"),
		HTTPClientTimeout: getDurationEnv("HTTP_CLIENT_TIMEOUT", 0),
		Fitbit: Fitbit{
			Credentials: Credentials{
				ClientID:     getEnv("FITBIT_CLIENT_ID", ""),
				ClientSecret: getEnv("FITBIT_CLIENT_SECRET", ""),
			},
			RedirectURI:   getEnv("FITBIT_REDIRECT_URI", ""),
			LocationScope: getBoolEnv("FITBIT_LOCATION_SCOPE", false),
			Optional:      getBoolEnv("FITBIT_OPTIONAL", false),
		},
		Huawei: Credentials{
			ClientID:     getEnv("HUAWEI_CLIENT_ID", ""),
			ClientSecret: getEnv("HUAWEI_CLIENT_SECRET", ""),
		},
		Garmin: Credentials{
			ClientID:     getEnv("GARMIN_CONSUMER_KEY", ""),
			ClientSecret: getEnv("GARMIN_CONSUMER_SECRET", ""),
		},
		Google: Credentials{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		},
		TrainerRoad: TrainerRoad{
			BaseURL: getEnv("TRAINERROAD_BASE_URL", ""),
			CalID:   getEnv("TRAINERROAD_CAL_ID", ""),
		},
		Goals: Goals{
			DistanceKm:      getFloatEnv("GOAL_DISTANCE_KM", 5.0),
			HeartRate:       getIntEnv("GOAL_HEART_RATE", 150),
			DurationMinutes: getIntEnv("GOAL_DURATION_MINUTES", 30),
		},
	}
}

// Validate fails when Fitbit credentials are missing and not marked
// optional, or when any vendor has only one half of its credentials.
func (c Config) Validate() error {
	var errs []error
	if !c.Fitbit.Configured() && !c.Fitbit.Optional {
		errs = append(errs, errors.New("FITBIT_CLIENT_ID and FITBIT_CLIENT_SECRET must be set (or FITBIT_OPTIONAL=true)"))
	}
	for name, creds := range map[string]Credentials{
		"FITBIT_CLIENT_ID/FITBIT_CLIENT_SECRET":      c.Fitbit.Credentials,
		"HUAWEI_CLIENT_ID/HUAWEI_CLIENT_SECRET":      c.Huawei,
		"GARMIN_CONSUMER_KEY/GARMIN_CONSUMER_SECRET": c.Garmin,
		"GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET":      c.Google,
	} {
		if (creds.ClientID == "") != (creds.ClientSecret == "") {
			errs = append(errs, fmt.Errorf("%s must be set together", name))
		}
	}
	if c.Port == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
