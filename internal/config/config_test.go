package config

import (
	"os"
	"testing"
)

func TestLoad_RequiresAPIBaseURL(t *testing.T) {
	os.Unsetenv("API_BASE_URL")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error when API_BASE_URL is missing")
	}
}

func TestLoad_WithAPIBaseURL(t *testing.T) {
	os.Setenv("API_BASE_URL", "http://localhost:9000")
	defer os.Unsetenv("API_BASE_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.APIBaseURL != "http://localhost:9000" {
		t.Errorf("expected API_BASE_URL to be set, got %s", cfg.APIBaseURL)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}

	if cfg.DefaultPageSize != 10 {
		t.Errorf("expected default page size 10, got %d", cfg.DefaultPageSize)
	}

	if cfg.SessionTTLMin != 720 {
		t.Errorf("expected default session TTL 720, got %d", cfg.SessionTTLMin)
	}
}

func TestConfig_IsDev(t *testing.T) {
	c := &Config{Env: "development"}
	if !c.IsDev() {
		t.Error("expected IsDev() to return true for development")
	}

	c.Env = "production"
	if c.IsDev() {
		t.Error("expected IsDev() to return false for production")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "production without session secret",
			cfg:     Config{Env: "production", DefaultPageSize: 10, SessionTTLMin: 60},
			wantErr: true,
		},
		{
			name:    "short session secret",
			cfg:     Config{Env: "production", SessionSecret: "short", DefaultPageSize: 10, SessionTTLMin: 60},
			wantErr: true,
		},
		{
			name:    "zero page size",
			cfg:     Config{Env: "development", DefaultPageSize: 0, SessionTTLMin: 60},
			wantErr: true,
		},
		{
			name:    "valid production",
			cfg:     Config{Env: "production", SessionSecret: "0123456789abcdef", DefaultPageSize: 10, SessionTTLMin: 60},
			wantErr: false,
		},
		{
			name:    "valid development without secret",
			cfg:     Config{Env: "development", DefaultPageSize: 10, SessionTTLMin: 60},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}
