package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boardview/internal/config"
)

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("BOARDVIEW_TEST_VALUE=from-file\n"), 0o600))
	t.Setenv("BOARDVIEW_TEST_VALUE", "")
	os.Unsetenv("BOARDVIEW_TEST_VALUE")

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "from-file", os.Getenv("BOARDVIEW_TEST_VALUE"))

	assert.Error(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
}

func TestSetupLogger(t *testing.T) {
	logger := SetupLogger("debug")
	assert.True(t, logger.Enabled(context.Background(), -4))

	logger = SetupLogger("error")
	assert.False(t, logger.Enabled(context.Background(), 0))
}

func TestLoadAndValidateConfig(t *testing.T) {
	logger := SetupLogger("error")

	t.Setenv("DATA_BACKEND", config.BackendMemory)
	t.Setenv("FIXTURES_DIR", filepath.Join("..", "..", "data", "board"))
	cfg, err := LoadAndValidateConfig(logger)
	require.NoError(t, err)
	assert.Equal(t, config.BackendMemory, cfg.DataBackend)

	t.Setenv("DATA_BACKEND", config.BackendTrello)
	t.Setenv("BOARD_ID", "")
	_, err = LoadAndValidateConfig(logger)
	assert.ErrorContains(t, err, "BOARD_ID is required")
}

func TestNewBoardService(t *testing.T) {
	logger := SetupLogger("error")
	cfg := &config.Config{
		DataBackend:  config.BackendMemory,
		FixturesDir:  filepath.Join("..", "..", "data", "board"),
		BoardID:      "local",
		FetchTimeout: time.Second,
	}

	svc, err := NewBoardService(cfg, logger)
	require.NoError(t, err)
	assert.Equal(t, "local", svc.BoardID())

	idx, err := svc.Index(context.Background())
	require.NoError(t, err)
	assert.Len(t, idx.Cards(), 6)

	cfg.BoardLayoutFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = NewBoardService(cfg, logger)
	assert.Error(t, err)
}
