package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
		check   func(*testing.T, *Config)
	}{
		{
			name: "default values",
			env:  map[string]string{"KUSTOMER_API_KEY": "key"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.PageSize != 1000 {
					t.Errorf("expected page size 1000, got %d", cfg.PageSize)
				}
				if cfg.MaxRetries != 4 {
					t.Errorf("expected 4 retries, got %d", cfg.MaxRetries)
				}
				if cfg.RequestTimeout != 40*time.Second {
					t.Errorf("expected 40s timeout, got %v", cfg.RequestTimeout)
				}
				if cfg.TimeZone != "Europe/Amsterdam" {
					t.Errorf("expected Europe/Amsterdam, got %s", cfg.TimeZone)
				}
				if cfg.LogLevel != "info" {
					t.Errorf("expected log level info, got %s", cfg.LogLevel)
				}
			},
		},
		{
			name: "custom values",
			env: map[string]string{
				"KUSTOMER_API_KEY":  "key",
				"START_DATE":        "2025-06-01",
				"END_DATE":          "2025-06-03",
				"PAGE_SIZE":         "500",
				"LOG_LEVEL":         "debug",
				"INCLUDE_USER_TIME": "true",
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.StartDate.Format("2006-01-02") != "2025-06-01" {
					t.Errorf("unexpected start date %v", cfg.StartDate)
				}
				if cfg.EndDate.Format("2006-01-02") != "2025-06-03" {
					t.Errorf("unexpected end date %v", cfg.EndDate)
				}
				if cfg.PageSize != 500 {
					t.Errorf("expected page size 500, got %d", cfg.PageSize)
				}
				if !cfg.IncludeUserTime {
					t.Error("expected IncludeUserTime true")
				}
			},
		},
		{
			name:    "missing API key",
			env:     map[string]string{},
			wantErr: true,
		},
		{
			name: "invalid PAGE_SIZE",
			env: map[string]string{
				"KUSTOMER_API_KEY": "key",
				"PAGE_SIZE":        "lots",
			},
			wantErr: true,
		},
		{
			name: "invalid START_DATE",
			env: map[string]string{
				"KUSTOMER_API_KEY": "key",
				"START_DATE":       "June 1st",
			},
			wantErr: true,
		},
		{
			name: "end date before start date",
			env: map[string]string{
				"KUSTOMER_API_KEY": "key",
				"START_DATE":       "2025-06-03",
				"END_DATE":         "2025-06-01",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tt.env {
				os.Setenv(k, v)
			}
			defer os.Clearenv()

			cfg, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}
