package packer

import (
	"runtime"

	"github.com/tphakala/go-audio-packer/internal/engine"
	"go.uber.org/zap"
)

// Quality selects the resampling filter. It is re-exported from the engine
// so callers can name presets.
type Quality = engine.Quality

// Resampling presets.
const (
	QualityLow      = engine.QualityLow
	QualityMedium   = engine.QualityMedium
	QualityHigh     = engine.QualityHigh
	QualityVeryHigh = engine.QualityVeryHigh
)

// ParseQuality maps "low", "medium", "high" or "veryhigh" to a preset.
// An empty string selects QualityHigh.
func ParseQuality(s string) (Quality, error) {
	return engine.ParseQuality(s)
}

// Options tune how a pack run executes without changing its output layout.
type Options struct {
	// Workers bounds the number of recordings packed at once.
	// Zero means runtime.NumCPU().
	Workers int

	// Quality is the resampling preset. The zero value is QualityLow, so
	// callers normally start from DefaultOptions.
	Quality Quality

	// SkipExisting leaves recordings whose .h5 file already exists untouched.
	SkipExisting bool

	// MetadataFile overrides discovery of maestro-v*.csv in the dataset dir.
	MetadataFile string

	// Logger receives progress. Nil discards it.
	Logger *zap.Logger
}

// DefaultOptions returns the options used by the pack-maestro command.
func DefaultOptions() Options {
	return Options{Quality: QualityHigh}
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}
