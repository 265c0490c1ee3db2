// Package config loads the designflow service configuration.
//
// Precedence (highest to lowest):
//  1. Environment variables prefixed DESIGNFLOW_
//  2. The YAML file passed to Load
//  3. Built-in defaults
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/HendryAvila/designflow/internal/logging"
)

// Rationale log backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Config is the complete service configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   logging.Config  `koanf:"logging"`
	Workflow  WorkflowConfig  `koanf:"workflow"`
	Pivot     PivotConfig     `koanf:"pivot"`
	Rationale RationaleConfig `koanf:"rationale"`
}

// ServerConfig configures the MCP server process.
type ServerConfig struct {
	Name string `koanf:"name"`
	// MetricsAddr serves Prometheus metrics over HTTP when set.
	MetricsAddr string `koanf:"metrics_addr"`
}

// WorkflowConfig configures the orchestrator and confirmation engine.
type WorkflowConfig struct {
	// ConstraintsFile replaces the embedded constraint catalog.
	ConstraintsFile string `koanf:"constraints_file"`
	// MethodologyDir holds extra *.yaml methodology profiles.
	MethodologyDir   string  `koanf:"methodology_dir"`
	LenientThreshold float64 `koanf:"lenient_threshold"`
	CaptureRationale bool    `koanf:"capture_rationale"`
}

// PivotConfig sets the pivot trigger thresholds.
type PivotConfig struct {
	ComplexityThreshold float64 `koanf:"complexity_threshold"`
	EntropyThreshold    float64 `koanf:"entropy_threshold"`
}

// RationaleConfig selects the rationale log backend.
type RationaleConfig struct {
	Backend string `koanf:"backend"`
	// DataDir holds the SQLite database. Empty keeps it in memory.
	DataDir string `koanf:"data_dir"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Name == "" {
		cfg.Server.Name = "designflow"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Workflow.LenientThreshold == 0 {
		cfg.Workflow.LenientThreshold = 50
	}
	if cfg.Pivot.ComplexityThreshold == 0 {
		cfg.Pivot.ComplexityThreshold = 85
	}
	if cfg.Pivot.EntropyThreshold == 0 {
		cfg.Pivot.EntropyThreshold = 75
	}
	if cfg.Rationale.Backend == "" {
		cfg.Rationale.Backend = BackendMemory
	}
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Name) == "" {
		errs = append(errs, errors.New("server.name is required"))
	}
	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}
	if !inPercentRange(c.Workflow.LenientThreshold) {
		errs = append(errs, fmt.Errorf("workflow.lenient_threshold must be in (0,100], got %v", c.Workflow.LenientThreshold))
	}
	if !inPercentRange(c.Pivot.ComplexityThreshold) {
		errs = append(errs, fmt.Errorf("pivot.complexity_threshold must be in (0,100], got %v", c.Pivot.ComplexityThreshold))
	}
	if !inPercentRange(c.Pivot.EntropyThreshold) {
		errs = append(errs, fmt.Errorf("pivot.entropy_threshold must be in (0,100], got %v", c.Pivot.EntropyThreshold))
	}
	switch c.Rationale.Backend {
	case BackendMemory, BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("rationale.backend must be %q or %q, got %q", BackendMemory, BackendSQLite, c.Rationale.Backend))
	}
	return errors.Join(errs...)
}

func inPercentRange(v float64) bool {
	return v > 0 && v <= 100
}
