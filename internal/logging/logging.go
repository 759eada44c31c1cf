package logging

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"geotab/internal/config"
)

// New returns a slog.Logger with the provided level string (info, debug, warn, error).
// format may be "json" or "text".
func New(level string, format string) *slog.Logger {
	return slog.New(newHandler(os.Stdout, parseLevel(level), format))
}

func newHandler(w io.Writer, level slog.Level, format string) slog.Handler {
	if strings.ToLower(format) == "json" {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	return &TraditionalHandler{logger: log.New(w, "", log.LstdFlags), level: level}
}

// Setup configures global logging with optional dated file output
func Setup(cfg *config.Config) (*slog.Logger, error) {
	level := parseLevel(cfg.Logging.Level)

	if cfg.Logging.FileOutput {
		if err := os.MkdirAll(cfg.Logging.LogDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %v", err)
		}
	}

	// Always include stdout for immediate feedback
	writers := []io.Writer{os.Stdout}

	if cfg.Logging.FileOutput {
		logFile := filepath.Join(cfg.Logging.LogDir, fmt.Sprintf("geotab-%s.log",
			time.Now().Format("2006-01-02")))

		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %v", err)
		}

		writers = append(writers, file)

		currentLogPath := filepath.Join(cfg.Logging.LogDir, "geotab-current.log")
		os.Remove(currentLogPath)
		_ = os.Symlink(filepath.Base(logFile), currentLogPath)
	}

	slogLogger := slog.New(newHandler(io.MultiWriter(writers...), level, cfg.Logging.Format))
	slog.SetDefault(slogLogger)

	slogLogger.Info("geotab logging initialized",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
		"file_output", cfg.Logging.FileOutput,
		"log_dir", cfg.Logging.LogDir,
	)

	return slogLogger, nil
}

// TraditionalHandler implements slog.Handler with traditional log formatting
type TraditionalHandler struct {
	logger *log.Logger
	level  slog.Level
	attrs  []slog.Attr
	group  string
}

// NewTraditionalHandler writes "[LEVEL] message [k=v ...]" lines to w.
func NewTraditionalHandler(w io.Writer, level slog.Level) *TraditionalHandler {
	return &TraditionalHandler{logger: log.New(w, "", 0), level: level}
}

func (h *TraditionalHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *TraditionalHandler) Handle(ctx context.Context, r slog.Record) error {
	msg := r.Message
	attrs := make([]string, 0, len(h.attrs)+r.NumAttrs())

	for _, a := range h.attrs {
		attrs = append(attrs, fmt.Sprintf("%s=%v", a.Key, a.Value))
	}
	r.Attrs(func(a slog.Attr) bool {
		key := a.Key
		if h.group != "" {
			key = h.group + "." + key
		}
		attrs = append(attrs, fmt.Sprintf("%s=%v", key, a.Value))
		return true
	})

	if len(attrs) > 0 {
		msg = fmt.Sprintf("%s [%s]", msg, strings.Join(attrs, " "))
	}

	// Use traditional format: [LEVEL] message
	h.logger.Printf("[%s] %s", strings.ToUpper(r.Level.String()), msg)

	return nil
}

func (h *TraditionalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &next
}

func (h *TraditionalHandler) WithGroup(name string) slog.Handler {
	next := *h
	if next.group != "" {
		name = next.group + "." + name
	}
	next.group = name
	return &next
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogJobStart logs the beginning of a volume run
func LogJobStart(logger *slog.Logger, jobType, jobID, inputPath, outputPath string, options map[string]any) {
	logger.Info("job started",
		"type", jobType,
		"id", jobID,
		"input", inputPath,
		"output", outputPath,
		"options", options,
	)
}

// LogJobComplete logs successful job completion
func LogJobComplete(logger *slog.Logger, jobType, jobID string, duration time.Duration, resultInfo map[string]any) {
	logger.Info("job completed successfully",
		"type", jobType,
		"id", jobID,
		"duration_ms", duration.Milliseconds(),
		"duration_human", duration.String(),
		"result", resultInfo,
	)
}

// LogJobError logs job failures
func LogJobError(logger *slog.Logger, jobType, jobID string, duration time.Duration, err error, context map[string]any) {
	logger.Error("job failed",
		"type", jobType,
		"id", jobID,
		"duration_ms", duration.Milliseconds(),
		"error", err.Error(),
		"context", context,
	)
}

// LogObservationProgress logs one observation of a volume as it starts
func LogObservationProgress(logger *slog.Logger, volumeID, observation string, index, total int) {
	logger.Info(fmt.Sprintf("%s  %s %4d/%4d", volumeID, observation, index, total))
}

// LogObservationSkipped logs an observation left out of every table. Missing
// geometry is expected and logged as a warning; anything else is an error.
func LogObservationSkipped(logger *slog.Logger, volumeID, observation string, err error, expected bool) {
	if expected {
		logger.Warn("observation skipped",
			"volume", volumeID,
			"observation", observation,
			"error", err.Error(),
		)
		return
	}
	logger.Error("observation failed",
		"volume", volumeID,
		"observation", observation,
		"error", err.Error(),
	)
}

// LogUnusedColumns warns about columns that were null in every row of a table
func LogUnusedColumns(logger *slog.Logger, volumeID, table string, positions []int) {
	if len(positions) == 0 {
		return
	}
	logger.Warn("columns null in every row",
		"volume", volumeID,
		"table", table,
		"columns", positions,
	)
}
