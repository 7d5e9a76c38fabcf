package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/Garsondee/Simulant/internal/config"
)

// outputManager writes per-run CSV rows and a config snapshot. A nil manager
// discards everything.
type outputManager struct {
	dir           string
	runsFile      *os.File
	headerWritten bool
}

// newOutputManager creates dir and opens runs.csv. Returns nil if dir is empty.
func newOutputManager(dir string) (*outputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, "runs.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating runs.csv: %w", err)
	}
	return &outputManager{dir: dir, runsFile: f}, nil
}

// WriteConfig saves the effective configuration as YAML.
func (om *outputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteRun appends one row to runs.csv.
func (om *outputManager) WriteRun(rs runStats) error {
	if om == nil {
		return nil
	}
	records := []runStats{rs}
	if !om.headerWritten {
		if err := gocsv.Marshal(records, om.runsFile); err != nil {
			return fmt.Errorf("writing runs: %w", err)
		}
		om.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, om.runsFile); err != nil {
		return fmt.Errorf("writing runs: %w", err)
	}
	return nil
}

func (om *outputManager) Close() error {
	if om == nil {
		return nil
	}
	return om.runsFile.Close()
}
