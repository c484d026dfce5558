package packer

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Status is the outcome of one recording.
type Status string

const (
	StatusPacked  Status = "packed"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome describes what happened to one recording.
type Outcome struct {
	// Index is the metadata row of the recording.
	Index  int    `yaml:"index"`
	Name   string `yaml:"name"`
	Source string `yaml:"source"`
	Output string `yaml:"output"`
	Status Status `yaml:"status"`

	// Frames is the number of samples per channel written.
	Frames  int           `yaml:"frames,omitempty"`
	Elapsed time.Duration `yaml:"elapsed,omitempty"`
	Error   string        `yaml:"error,omitempty"`

	err error
}

// Report summarises a pack run.
type Report struct {
	RunID      string        `yaml:"run_id"`
	Metadata   string        `yaml:"metadata"`
	Split      string        `yaml:"split"`
	SourceType string        `yaml:"source_type"`
	HDF5sDir   string        `yaml:"hdf5s_dir"`
	SampleRate int           `yaml:"sample_rate"`
	Channels   int           `yaml:"channels"`
	Started    time.Time     `yaml:"started"`
	Elapsed    time.Duration `yaml:"elapsed"`

	// Total counts the recordings in the split, including any never started
	// because the run was cancelled.
	Total   int `yaml:"total"`
	Packed  int `yaml:"packed"`
	Skipped int `yaml:"skipped"`
	Failed  int `yaml:"failed"`

	Recordings []Outcome `yaml:"recordings"`
}

// tally fills the counters and drops outcomes that never ran.
func (r *Report) tally(outcomes []Outcome) {
	r.Recordings = r.Recordings[:0]
	for _, o := range outcomes {
		switch o.Status {
		case StatusPacked:
			r.Packed++
		case StatusSkipped:
			r.Skipped++
		case StatusFailed:
			r.Failed++
		default:
			continue
		}
		r.Recordings = append(r.Recordings, o)
	}
}

// WriteYAML stores the report at path, creating parent directories.
func (r *Report) WriteYAML(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := os.WriteFile(path, data, filePerm); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
