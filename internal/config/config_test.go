package config

import (
	"strings"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "APP_PORT", "DB_DRIVER", "JWT_SECRET", "TOKEN_TTL", "BCRYPT_COST", "PROPERTY_TZ", "AMQP_URL"} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if cfg.Addr() != ":8080" || cfg.DBDriver != "sqlite" || cfg.TokenTTL != 24*time.Hour {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.JWTSecret != devSecret {
		t.Errorf("dev should fall back to the dev secret")
	}
	if cfg.PropertyTZ != time.UTC {
		t.Errorf("PropertyTZ = %v, want UTC", cfg.PropertyTZ)
	}
}

func TestFromEnv(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
		check   func(t *testing.T, cfg Config)
	}{
		{
			name: "overrides",
			env: map[string]string{
				"APP_PORT":    "9090",
				"DB_DRIVER":   "mysql",
				"TOKEN_TTL":   "90m",
				"PROPERTY_TZ": "America/Argentina/Buenos_Aires",
			},
			check: func(t *testing.T, cfg Config) {
				if cfg.Addr() != ":9090" || cfg.DBDriver != "mysql" || cfg.TokenTTL != 90*time.Minute {
					t.Errorf("unexpected config %+v", cfg)
				}
				if cfg.PropertyTZ.String() != "America/Argentina/Buenos_Aires" {
					t.Errorf("PropertyTZ = %v", cfg.PropertyTZ)
				}
			},
		},
		{name: "prod requires a secret", env: map[string]string{"APP_ENV": "prod"}, wantErr: "JWT_SECRET"},
		{name: "unknown driver", env: map[string]string{"DB_DRIVER": "postgres"}, wantErr: "DB_DRIVER"},
		{name: "bad duration", env: map[string]string{"TOKEN_TTL": "tomorrow"}, wantErr: "TOKEN_TTL"},
		{name: "bad int", env: map[string]string{"BCRYPT_COST": "high"}, wantErr: "BCRYPT_COST"},
		{name: "bad zone", env: map[string]string{"PROPERTY_TZ": "Mars/Olympus"}, wantErr: "PROPERTY_TZ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"APP_ENV", "APP_PORT", "DB_DRIVER", "JWT_SECRET", "TOKEN_TTL", "BCRYPT_COST", "PROPERTY_TZ"} {
				t.Setenv(key, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := FromEnv()
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error mentioning %s, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("FromEnv failed: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}
