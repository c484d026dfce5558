package engine

import (
	"fmt"
	"strings"
)

// Quality selects the filter attenuation and passband width.
type Quality int

const (
	// QualityLow: 80 dB stopband, 80% passband. For previews.
	QualityLow Quality = iota
	// QualityMedium: 100 dB stopband, 90% passband.
	QualityMedium
	// QualityHigh: 120 dB stopband, 93% passband. Default for dataset packing.
	QualityHigh
	// QualityVeryHigh: 150 dB stopband, 95% passband.
	QualityVeryHigh
)

// String returns the preset name accepted by ParseQuality.
func (q Quality) String() string {
	switch q {
	case QualityLow:
		return "low"
	case QualityMedium:
		return "medium"
	case QualityHigh:
		return "high"
	case QualityVeryHigh:
		return "veryhigh"
	default:
		return fmt.Sprintf("Quality(%d)", int(q))
	}
}

// ParseQuality maps a preset name to a Quality. Matching ignores case.
func ParseQuality(s string) (Quality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return QualityLow, nil
	case "medium":
		return QualityMedium, nil
	case "high", "":
		return QualityHigh, nil
	case "veryhigh", "very-high", "very_high":
		return QualityVeryHigh, nil
	default:
		return QualityHigh, fmt.Errorf("unknown quality preset %q (want low, medium, high or veryhigh)", s)
	}
}

// params returns the stopband attenuation and passband fraction of the preset.
func (q Quality) params() (attenuation, passband float64) {
	switch q {
	case QualityLow:
		return lowAttenuation, lowPassband
	case QualityMedium:
		return mediumAttenuation, mediumPassband
	case QualityVeryHigh:
		return veryHighAttenuation, veryHighPassband
	default:
		return highAttenuation, highPassband
	}
}
