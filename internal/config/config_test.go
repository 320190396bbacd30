package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr string
		check   func(t *testing.T, c App)
	}{
		{
			name: "defaults",
			check: func(t *testing.T, c App) {
				assert.Equal(t, "8081", c.HTTPPort)
				assert.Equal(t, "postgres", c.StoreBackend)
				assert.Equal(t, 120, c.RateLimitPerMin)
				assert.Equal(t, 2*time.Second, c.StreamInterval)
				assert.Equal(t, []string{"*"}, c.CORSOrigins)
				assert.Equal(t, "Asia/Manila", c.Location().String())
				assert.False(t, c.IsProduction())
				assert.True(t, c.UsesRedis())
			},
		},
		{
			name: "overrides",
			envVars: map[string]string{
				"APP_ENV":            "production",
				"STORE_BACKEND":      "memory",
				"QUEUE_BACKEND":      "memory",
				"TIMEZONE":           "UTC",
				"STREAM_INTERVAL":    "500ms",
				"CORS_ORIGINS":       "https://kiosk.example.edu,https://admin.example.edu",
				"RATE_LIMIT_PER_MIN": "30",
			},
			check: func(t *testing.T, c App) {
				assert.True(t, c.IsProduction())
				assert.Equal(t, time.UTC, c.Location())
				assert.Equal(t, 500*time.Millisecond, c.StreamInterval)
				assert.Len(t, c.CORSOrigins, 2)
				assert.Equal(t, 30, c.RateLimitPerMin)
				assert.False(t, c.UsesRedis())
			},
		},
		{
			name:    "unknown timezone",
			envVars: map[string]string{"TIMEZONE": "Mars/Olympus"},
			wantErr: "TIMEZONE",
		},
		{
			name:    "unknown backend",
			envVars: map[string]string{"STORE_BACKEND": "sqlite"},
			wantErr: "STORE_BACKEND",
		},
		{
			name:    "bad duration",
			envVars: map[string]string{"STREAM_INTERVAL": "often"},
			wantErr: "load config",
		},
		{
			name:    "non-positive rate limit",
			envVars: map[string]string{"RATE_LIMIT_PER_MIN": "0"},
			wantErr: "RATE_LIMIT_PER_MIN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"APP_ENV", "STORE_BACKEND", "QUEUE_BACKEND", "RATE_LIMIT_BACKEND",
				"TIMEZONE", "STREAM_INTERVAL", "CORS_ORIGINS", "RATE_LIMIT_PER_MIN"} {
				t.Setenv(k, "")
				os.Unsetenv(k)
			}
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestApp_Location_ZeroValue(t *testing.T) {
	assert.Equal(t, time.UTC, App{}.Location())
}
