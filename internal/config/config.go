// SPDX-License-Identifier: MIT

// Package config provides configuration management for npmerge.
//
// Precedence: CLI flags > NPMERGE_* environment variables > YAML file.
// Flags are applied by the caller on top of the config this package
// assembles.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ManuGH/npmerge/internal/extract"
)

// FileConfig represents the YAML configuration structure.
type FileConfig struct {
	Dir1      string `yaml:"dir1,omitempty"`
	Dir2      string `yaml:"dir2,omitempty"`
	OutputDir string `yaml:"outputDir,omitempty"`
	Extension string `yaml:"extension,omitempty"`
	LogLevel  string `yaml:"logLevel,omitempty"`
	// Range1 and Range2 are optional "start:end" windows in seconds,
	// e.g. "0:30" or "12.5:60".
	Range1 string `yaml:"range1,omitempty"`
	Range2 string `yaml:"range2,omitempty"`
}

// Load reads and strictly parses a YAML config file. Unknown keys are
// rejected so typos surface immediately.
func Load(path string) (*FileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("%s: %v: %w", path, err, ErrUnknownConfigField)
		}
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// ApplyEnv overlays NPMERGE_* environment variables onto the config.
// The log level is not overlaid here; the logger reads NPMERGE_LOG_LEVEL
// itself, before any config exists.
func (c *FileConfig) ApplyEnv() {
	c.Dir1 = ParseString("NPMERGE_DIR1", c.Dir1)
	c.Dir2 = ParseString("NPMERGE_DIR2", c.Dir2)
	c.OutputDir = ParseString("NPMERGE_OUTPUT_DIR", c.OutputDir)
	c.Extension = ParseString("NPMERGE_EXTENSION", c.Extension)
	c.Range1 = ParseString("NPMERGE_RANGE1", c.Range1)
	c.Range2 = ParseString("NPMERGE_RANGE2", c.Range2)
}

// Validate checks that the assembled config can drive a merge run.
func (c *FileConfig) Validate() error {
	switch {
	case c.Dir1 == "":
		return fmt.Errorf("dir1 is required: %w", ErrInvalidConfig)
	case c.Dir2 == "":
		return fmt.Errorf("dir2 is required: %w", ErrInvalidConfig)
	case c.OutputDir == "":
		return fmt.Errorf("outputDir is required: %w", ErrInvalidConfig)
	case c.Extension == "":
		return fmt.Errorf("extension is required: %w", ErrInvalidConfig)
	}
	for _, r := range []struct{ name, v string }{{"range1", c.Range1}, {"range2", c.Range2}} {
		if _, err := ParseTimeRange(r.v); err != nil {
			return fmt.Errorf("%s: %w", r.name, err)
		}
	}
	return nil
}

// TimeRange1 returns the parsed first-side window, nil when unset.
func (c *FileConfig) TimeRange1() (*extract.TimeRange, error) {
	return ParseTimeRange(c.Range1)
}

// TimeRange2 returns the parsed second-side window, nil when unset.
func (c *FileConfig) TimeRange2() (*extract.TimeRange, error) {
	return ParseTimeRange(c.Range2)
}

// ParseTimeRange parses a "start:end" seconds window. An empty string means
// no window (nil).
func ParseTimeRange(s string) (*extract.TimeRange, error) {
	if s == "" {
		return nil, nil
	}
	startStr, endStr, ok := strings.Cut(s, ":")
	if !ok {
		return nil, fmt.Errorf("time range %q: want start:end seconds: %w", s, ErrInvalidConfig)
	}
	start, err := strconv.ParseFloat(strings.TrimSpace(startStr), 64)
	if err != nil {
		return nil, fmt.Errorf("time range %q: bad start: %w", s, ErrInvalidConfig)
	}
	end, err := strconv.ParseFloat(strings.TrimSpace(endStr), 64)
	if err != nil {
		return nil, fmt.Errorf("time range %q: bad end: %w", s, ErrInvalidConfig)
	}
	return &extract.TimeRange{Start: start, End: end}, nil
}
