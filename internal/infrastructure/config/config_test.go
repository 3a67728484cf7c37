package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 120*time.Second, cfg.WriteTimeout)
	assert.Equal(t, StoreDriverPostgREST, cfg.StoreDriver)
	assert.Equal(t, 2, cfg.StoreRetryMax)
	assert.Equal(t, 1000, cfg.StorePageSize)
	assert.Equal(t, "chronos", cfg.MongoDB)
	assert.Equal(t, "https://zoom.us/oauth/token", cfg.ZoomTokenURL)
	assert.Equal(t, []int64{124}, cfg.ZoomExpiryCodes)
	assert.Equal(t, 10.0, cfg.ZoomRateLimit)
	assert.Equal(t, 5, cfg.UpdateConcurrency)
	assert.Equal(t, 10*time.Second, cfg.RemoteCallTimeout)
	assert.Equal(t, 100, cfg.UpsertBatchSize)
	assert.False(t, cfg.ZoomConfigured())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("SUPABASE_URL", "https://abc.supabase.co/")
	t.Setenv("ZOOM_EXPIRY_CODES", "124, 4700")
	t.Setenv("ZOOM_API_BASE_URL", "http://localhost:9999/v2/")
	t.Setenv("UPDATE_CONCURRENCY", "10")
	t.Setenv("REMOTE_CALL_TIMEOUT", "15")
	t.Setenv("ZOOM_CLIENT_ID", "id")
	t.Setenv("ZOOM_CLIENT_SECRET", "secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, "https://abc.supabase.co", cfg.SupabaseURL)
	assert.Equal(t, "http://localhost:9999/v2", cfg.ZoomAPIBaseURL)
	assert.Equal(t, []int64{124, 4700}, cfg.ZoomExpiryCodes)
	assert.Equal(t, 10, cfg.UpdateConcurrency)
	assert.Equal(t, 15*time.Second, cfg.RemoteCallTimeout)
	assert.True(t, cfg.ZoomConfigured())
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key, value, message string
	}{
		{"STORE_DRIVER", "sqlite", "STORE_DRIVER"},
		{"UPDATE_CONCURRENCY", "11", "UPDATE_CONCURRENCY"},
		{"UPDATE_CONCURRENCY", "0", "UPDATE_CONCURRENCY"},
		{"REMOTE_CALL_TIMEOUT", "30", "REMOTE_CALL_TIMEOUT"},
		{"UPSERT_BATCH_SIZE", "-1", "UPSERT_BATCH_SIZE"},
		{"ZOOM_EXPIRY_CODES", "124,abc", "ZOOM_EXPIRY_CODES"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(tt.key, tt.value)

			_, err := LoadConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}
