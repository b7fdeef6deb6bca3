package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxdesk/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.True(t, cfg.Server.IsDevelopment())
	assert.Equal(t, config.DriverPostgres, cfg.Storage.SectionsDriver)
	assert.Equal(t, 8, cfg.Fanout.ReadConcurrency)
	assert.Len(t, cfg.CORS.AllowedOrigins, 4)
	assert.False(t, cfg.S3.Enabled())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TAXDESK_STORAGE_SECTIONS_DRIVER", " Mongo ")
	t.Setenv("TAXDESK_NOTIFY_SEND_TIMEOUT", "5s")
	t.Setenv("TAXDESK_CORS_ALLOWED_ORIGINS", "https://app.taxdesk.pk, ,https://admin.taxdesk.pk")
	t.Setenv("TAXDESK_FRONTEND_URL", "https://app.taxdesk.pk/")
	t.Setenv("PORT", "9000")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.DriverMongo, cfg.Storage.SectionsDriver)
	assert.Equal(t, 5*time.Second, cfg.Notify.SendTimeout)
	assert.Equal(t, []string{"https://app.taxdesk.pk", "https://admin.taxdesk.pk"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "https://app.taxdesk.pk", cfg.Frontend.URL)
	assert.Equal(t, ":9000", cfg.Server.Port)
}

func TestLoad_ExplicitPortWinsOverPlatformPort(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("TAXDESK_SERVER_PORT", ":7070")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Port)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"TAXDESK_STORAGE_SECTIONS_DRIVER": "redis"}},
		{"zero fanout", map[string]string{"TAXDESK_FANOUT_WRITE_CONCURRENCY": "0"}},
		{"no notifier workers", map[string]string{"TAXDESK_NOTIFY_WORKERS": "0"}},
		{"default secret in production", map[string]string{"TAXDESK_SERVER_ENVIRONMENT": "production"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}
