package packer

import (
	"errors"
	"fmt"
	"path/filepath"
)

// ErrInvalidParams indicates a Params value that cannot be packed.
var ErrInvalidParams = errors.New("invalid pack parameters")

// Params are the values that determine what a pack run produces.
type Params struct {
	// DatasetDir is the MAESTRO root holding maestro-v*.csv and the year folders.
	DatasetDir string

	// Split selects metadata rows: "train", "validation" or "test".
	Split string

	// SourceType names the waveform dataset inside each HDF5 file.
	SourceType string

	// HDF5sDir receives one .h5 file per recording. It is created if missing.
	HDF5sDir string

	// SampleRate is the output rate in Hz.
	SampleRate int

	// Channels is the output channel count.
	Channels int
}

// Validate checks that every field is set and in range.
func (p Params) Validate() error {
	switch {
	case p.DatasetDir == "":
		return fmt.Errorf("%w: dataset dir is empty", ErrInvalidParams)
	case p.Split == "":
		return fmt.Errorf("%w: split is empty", ErrInvalidParams)
	case p.SourceType == "":
		return fmt.Errorf("%w: source type is empty", ErrInvalidParams)
	case p.HDF5sDir == "":
		return fmt.Errorf("%w: hdf5s dir is empty", ErrInvalidParams)
	}

	if p.SampleRate < minSampleRate || p.SampleRate > maxSampleRate {
		return fmt.Errorf("%w: sample rate %d outside [%d, %d]", ErrInvalidParams, p.SampleRate, minSampleRate, maxSampleRate)
	}
	if p.Channels < 1 || p.Channels > maxChannels {
		return fmt.Errorf("%w: channels %d outside [1, %d]", ErrInvalidParams, p.Channels, maxChannels)
	}

	return nil
}

// HDF5sDir returns <workspace>/hdf5s/<sourceGroup>/sr=<rate>_ch=<channels>/<split>.
func HDF5sDir(workspace, sourceGroup, split string, sampleRate, channels int) string {
	return filepath.Join(workspace, hdf5sDir, sourceGroup, fmt.Sprintf("sr=%d_ch=%d", sampleRate, channels), split)
}
