package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("FITBIT_CLIENT_ID", "ABC123")
	t.Setenv("FITBIT_CLIENT_SECRET", "s3cret")
	t.Setenv("FITBIT_LOCATION_SCOPE", "true")
	t.Setenv("HTTP_CLIENT_TIMEOUT", "15s")
	t.Setenv("GOAL_DISTANCE_KM", "7.5")
	t.Setenv("GOAL_HEART_RATE", "not-a-number")
	t.Setenv("SETTINGS_PATH", "")

	cfg := Load()

	if cfg.Port != "9000" {
		t.Errorf("expected port 9000, got %s", cfg.Port)
	}
	if cfg.Fitbit.ClientID != "ABC123" || cfg.Fitbit.ClientSecret != "s3cret" || !cfg.Fitbit.LocationScope {
		t.Errorf("unexpected fitbit config %+v", cfg.Fitbit)
	}
	if cfg.HTTPClientTimeout != 15*time.Second {
		t.Errorf("expected 15s timeout, got %v", cfg.HTTPClientTimeout)
	}
	if cfg.Goals.DistanceKm != 7.5 || cfg.Goals.HeartRate != 150 || cfg.Goals.DurationMinutes != 30 {
		t.Errorf("unexpected goals %+v", cfg.Goals)
	}
	if cfg.SettingsPath != "/settings" {
		t.Errorf("expected default settings path, got %s", cfg.SettingsPath)
	}
}

func TestValidate(t *testing.T) {
	fitbit := Fitbit{Credentials: Credentials{ClientID: "id", ClientSecret: "secret"}}

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"fitbit configured", Config{Port: "8080", Fitbit: fitbit}, ""},
		{"fitbit missing", Config{Port: "8080"}, "FITBIT_CLIENT_ID and FITBIT_CLIENT_SECRET must be set"},
		{"fitbit optional", Config{Port: "8080", Fitbit: Fitbit{Optional: true}}, ""},
		{
			"half configured vendor",
			Config{Port: "8080", Fitbit: fitbit, Garmin: Credentials{ClientID: "key"}},
			"GARMIN_CONSUMER_KEY/GARMIN_CONSUMER_SECRET must be set together",
		},
		{
			"half configured fitbit even when optional",
			Config{Port: "8080", Fitbit: Fitbit{Credentials: Credentials{ClientSecret: "secret"}, Optional: true}},
			"FITBIT_CLIENT_ID/FITBIT_CLIENT_SECRET must be set together",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}
