// Package config defines the application configuration for EduViz.
// A single Config structure covers every subsystem, organized into
// logical sections:
//   - DataSource: where and how grade data is read
//   - Analysis: risk thresholds and analysis windows
//   - Reporting: report output location and format
//   - Logging: log level and encoding
//
// Configurations load from and save to YAML or JSON, chosen by file
// extension.
package config

import (
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/eduviz/eduviz/pkg/errors"
)

// Config is the complete application configuration.
type Config struct {
	// DataSource describes the grade data input
	DataSource DataSourceConfig `yaml:"data_source" json:"data_source"`

	// Analysis tunes the performance analysis
	Analysis AnalysisConfig `yaml:"analysis" json:"analysis"`

	// Reporting controls report generation
	Reporting ReportingConfig `yaml:"reporting" json:"reporting"`

	// Logging configures the structured logger
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// DataSourceConfig describes how the grade CSV is read.
type DataSourceConfig struct {
	// Path to the grades file
	Path string `yaml:"path" json:"path"`
	// Encoding of the file; empty means UTF-8 with a Windows-1251 fallback
	Encoding string `yaml:"encoding" json:"encoding"`
	// Delimiter separating CSV fields
	Delimiter string `yaml:"delimiter" json:"delimiter"`
	// HasHeader indicates whether the first row carries column names
	HasHeader bool `yaml:"has_header" json:"has_header"`
}

// AnalysisConfig tunes the analysis layer.
type AnalysisConfig struct {
	// Period is the analysis window ("week", "month", "semester")
	Period string `yaml:"period" json:"period"`
	// RiskThreshold is the average grade below which students are flagged
	RiskThreshold float64 `yaml:"risk_threshold" json:"risk_threshold"`
	// MinRecords is the minimum grades per student before analysis applies
	MinRecords int `yaml:"min_records" json:"min_records"`
}

// ReportingConfig controls report generation.
type ReportingConfig struct {
	// OutputDir receives generated reports
	OutputDir string `yaml:"output_dir" json:"output_dir"`
	// DefaultKind is the report type used when none is requested
	DefaultKind string `yaml:"default_kind" json:"default_kind"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level       string `yaml:"level" json:"level"`
	Development bool   `yaml:"development" json:"development"`
	Encoding    string `yaml:"encoding" json:"encoding"`
}

var validPeriods = map[string]bool{
	"week":     true,
	"month":    true,
	"semester": true,
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		DataSource: DataSourceConfig{
			Path:      "data/raw/grades.csv",
			Delimiter: ",",
			HasHeader: true,
		},
		Analysis: AnalysisConfig{
			Period:        "semester",
			RiskThreshold: 5.0,
			MinRecords:    3,
		},
		Reporting: ReportingConfig{
			OutputDir:   "reports",
			DefaultKind: "weekly",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "json",
		},
	}
}

// Validate checks the configuration for values the rest of the system
// cannot work with.
func (c *Config) Validate() error {
	if c.DataSource.Path == "" {
		return errors.New(errors.ErrorTypeConfig, "data_source.path is required")
	}
	if len(c.DataSource.Delimiter) > 1 {
		return errors.Newf(errors.ErrorTypeConfig,
			"data_source.delimiter must be a single character, got %q", c.DataSource.Delimiter)
	}
	if c.Analysis.RiskThreshold < 1 || c.Analysis.RiskThreshold > 10 {
		return errors.Newf(errors.ErrorTypeConfig,
			"analysis.risk_threshold must be between 1 and 10, got %g", c.Analysis.RiskThreshold)
	}
	if c.Analysis.MinRecords < 1 {
		return errors.Newf(errors.ErrorTypeConfig,
			"analysis.min_records must be positive, got %d", c.Analysis.MinRecords)
	}
	if c.Analysis.Period != "" && !validPeriods[c.Analysis.Period] {
		return errors.Newf(errors.ErrorTypeConfig,
			"analysis.period must be week, month or semester, got %q", c.Analysis.Period)
	}
	return nil
}

// Load reads a configuration file in YAML or JSON format, chosen by the
// file extension, on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(err, errors.ErrorTypeNotFound, "config file not found").
				WithDetail("path", path)
		}
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read config file").
			WithDetail("path", path)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid YAML config").
				WithDetail("path", path)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid JSON config").
				WithDetail("path", path)
		}
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig,
			"unsupported config format %q", filepath.Ext(path))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration in YAML or JSON format, chosen by the
// file extension, creating parent directories as needed.
func (c *Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	case ".json":
		data, err = json.MarshalIndent(c, "", "  ")
	default:
		return errors.Newf(errors.ErrorTypeConfig,
			"unsupported config format %q", filepath.Ext(path))
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to encode config")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to create config directory").
				WithDetail("path", dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write config file").
			WithDetail("path", path)
	}
	return nil
}
