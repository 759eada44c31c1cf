package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geotab/internal/config"
)

func TestTraditionalHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewTraditionalHandler(&buf, slog.LevelInfo))

	logger.Debug("hidden")
	logger.With("volume", "GO_0017").Warn("observation skipped", "observation", "C0349632100R")

	assert.Equal(t, "[WARN] observation skipped [volume=GO_0017 observation=C0349632100R]\n", buf.String())
}

func TestTraditionalHandlerGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewTraditionalHandler(&buf, slog.LevelDebug)).WithGroup("run")

	logger.Info("done", "rows", 3)
	assert.Equal(t, "[INFO] done [run.rows=3]\n", buf.String())
}

func TestLogObservationSkippedLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewTraditionalHandler(&buf, slog.LevelInfo))

	LogObservationSkipped(logger, "GO_0017", "C1", errors.New("no kernels"), true)
	LogObservationSkipped(logger, "GO_0017", "C2", errors.New("index out of range"), false)

	assert.Contains(t, buf.String(), "[WARN] observation skipped [volume=GO_0017 observation=C1 error=no kernels]")
	assert.Contains(t, buf.String(), "[ERROR] observation failed [volume=GO_0017 observation=C2 error=index out of range]")
}

func TestSetupWritesDatedFile(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{Logging: config.Logging{Level: "debug", FileOutput: true, LogDir: dir}}

	logger, err := Setup(cfg)
	require.NoError(t, err)
	logger.Info("hello")

	target, err := os.Readlink(filepath.Join(dir, "geotab-current.log"))
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, target))
	require.NoError(t, err)
	assert.Contains(t, string(data), "[INFO] hello")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, parseLevel("WARNING"))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}
