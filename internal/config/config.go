package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultConfigPath = "~/.config/geotab/config.json"
	defaultParallel   = 2
	defaultWorkers    = 4
	defaultSampling   = 8
	defaultTilingMin  = 100
)

// Config holds user-editable settings for table generation.
type Config struct {
	Processing Processing `json:"processing"`
	Logging    Logging    `json:"logging"`
	Paths      Paths      `json:"paths"`
	Server     Server     `json:"server"`
}

// Processing captures execution preferences.
type Processing struct {
	ParallelJobs       int    `json:"parallel_jobs"`       // volumes processed at once
	ObservationWorkers int    `json:"observation_workers"` // observations per volume processed at once
	Sampling           int    `json:"sampling"`            // keep every Nth row and column of each backplane
	TilingMin          int    `json:"tiling_min"`
	Selection          string `json:"selection"` // "S", "D" or "SD"
	First              int    `json:"first"`     // at most this many observations per volume; 0 = all
}

// Logging controls logging verbosity and destinations.
type Logging struct {
	Level      string `json:"level"`       // debug, info, warn, error
	Format     string `json:"format"`      // text, json
	FileOutput bool   `json:"file_output"` // Enable file logging
	LogDir     string `json:"log_dir"`     // Directory for log files
}

// Paths configures default input/output locations.
type Paths struct {
	InputTree    string `json:"input_tree"`
	OutputTree   string `json:"output_tree"`
	DatabasePath string `json:"database_path"`
	RulesFile    string `json:"rules_file"` // optional YAML tiling overrides
}

// Server configures the long-running status endpoints.
type Server struct {
	HTTPAddr string `json:"http_addr"`
	GRPCAddr string `json:"grpc_addr"`
}

// Path returns the configuration file in effect.
func Path() string {
	if p := os.Getenv("GEOTAB_CONFIG"); p != "" {
		return p
	}
	return defaultConfigPath
}

// Load reads configuration from disk, falling back to sensible defaults.
func Load() (*Config, error) {
	cfg := defaultConfig()

	expanded, err := expandUser(Path())
	if err != nil {
		return nil, err
	}

	f, err := os.Open(expanded)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", expanded, err)
	}
	for _, p := range []*string{&cfg.Paths.InputTree, &cfg.Paths.OutputTree, &cfg.Paths.DatabasePath, &cfg.Paths.RulesFile, &cfg.Logging.LogDir} {
		if *p, err = expandUser(*p); err != nil {
			return nil, err
		}
	}

	return cfg, cfg.Validate()
}

// Validate rejects settings no run could use.
func (c *Config) Validate() error {
	p := c.Processing
	if p.ParallelJobs <= 0 {
		return fmt.Errorf("config: parallel_jobs must be positive, got %d", p.ParallelJobs)
	}
	if p.ObservationWorkers <= 0 {
		return fmt.Errorf("config: observation_workers must be positive, got %d", p.ObservationWorkers)
	}
	if p.Sampling <= 0 {
		return fmt.Errorf("config: sampling must be positive, got %d", p.Sampling)
	}
	if p.TilingMin < 0 {
		return fmt.Errorf("config: tiling_min must not be negative, got %d", p.TilingMin)
	}
	if p.First < 0 {
		return fmt.Errorf("config: first must not be negative, got %d", p.First)
	}
	if p.Selection == "" || strings.Trim(strings.ToUpper(p.Selection), "SD") != "" {
		return fmt.Errorf("config: selection %q must combine S and D", p.Selection)
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Processing: Processing{
			ParallelJobs:       defaultParallel,
			ObservationWorkers: defaultWorkers,
			Sampling:           defaultSampling,
			TilingMin:          defaultTilingMin,
			Selection:          "SD",
		},
		Logging: Logging{
			Level:      "info",
			Format:     "text",
			FileOutput: false,
			LogDir:     "./logs",
		},
		Paths: Paths{
			InputTree:    ".",
			OutputTree:   "./output",
			DatabasePath: filepath.Join(os.TempDir(), "geotab.db"),
		},
		Server: Server{
			HTTPAddr: "127.0.0.1:8085",
			GRPCAddr: "127.0.0.1:9095",
		},
	}
}

func expandUser(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if path == "~" {
		return home, nil
	}

	return filepath.Join(home, path[2:]), nil
}
