package common

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, k := range []string{"CATALOG_PATH", "DB_PATH", "WATCH_DIRS", "WORKERS", "QUEUE_SIZE", "PROCESS_TIMEOUT", "LOG_FORMAT"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig()
	assert.Equal(t, "./Medicine_Details.csv", cfg.Catalog.Path)
	assert.Equal(t, 4, cfg.Queue.Workers)
	assert.Equal(t, 256, cfg.Queue.Size)
	assert.Equal(t, time.Minute, cfg.Queue.ProcessTimeout)
	assert.Nil(t, cfg.Ingest.WatchDirs)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("CATALOG_PATH", "/data/meds.xlsx")
	t.Setenv("WATCH_DIRS", " /in/a, ,/in/b ")
	t.Setenv("WORKERS", "8")
	t.Setenv("PROCESS_TIMEOUT", "30s")
	t.Setenv("WATCH_INITIAL_SCAN", "false")
	t.Setenv("QUEUE_SIZE", "not-a-number")

	cfg := LoadConfig()
	assert.Equal(t, "/data/meds.xlsx", cfg.Catalog.Path)
	assert.Equal(t, []string{"/in/a", "/in/b"}, cfg.Ingest.WatchDirs)
	assert.Equal(t, 8, cfg.Queue.Workers)
	assert.Equal(t, 256, cfg.Queue.Size)
	assert.Equal(t, 30*time.Second, cfg.Queue.ProcessTimeout)
	assert.False(t, cfg.Ingest.InitialScan)
}

func TestConfigValidate(t *testing.T) {
	cfg := &Config{
		Catalog: CatalogConfig{Path: " "},
		Store:   StoreConfig{Path: "x.db"},
		Queue:   QueueConfig{Workers: 0, Size: 1},
		Log:     LogConfig{Format: "xml"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "CATALOG_PATH")
	assert.Contains(t, err.Error(), "WORKERS")
	assert.Contains(t, err.Error(), "LOG_FORMAT")
}

func TestJobIDContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", JobIDFromContext(ctx))
	ctx = WithJobID(ctx, "abc")
	assert.Equal(t, "abc", JobIDFromContext(ctx))
	assert.NotNil(t, LoggerFrom(ctx, nil))
}
