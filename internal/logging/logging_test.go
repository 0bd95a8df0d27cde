package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lfarina18/metafar-challenge/internal/config"
)

func TestBuild_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := build(config.Log{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept")
	require.NoError(t, logger.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	require.Equal(t, "kept", entry["msg"])
	require.Equal(t, "warn", entry["level"])
}

func TestBuild_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "stocks.log")
	var buf bytes.Buffer
	logger, err := build(config.Log{Format: "console", File: path, MaxSizeMB: 1}, &buf)
	require.NoError(t, err)

	logger.Info("to both")
	require.NoError(t, logger.Sync())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(b), `"msg":"to both"`)
	require.Contains(t, buf.String(), "to both")
}

func TestBuild_BadLevel(t *testing.T) {
	t.Parallel()

	_, err := build(config.Log{Level: "loud"}, &bytes.Buffer{})
	require.Error(t, err)
}
