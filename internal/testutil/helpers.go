// Package testutil provides reusable test helpers: numeric assertions for
// filter tests and fixture writers for WAV files and dataset metadata.
package testutil

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	halfDivisor = 2
	pcmFormat   = 1
)

// AssertSymmetric verifies that s[i] == s[n-1-i].
func AssertSymmetric(t *testing.T, s []float64, tolerance float64) bool {
	t.Helper()
	n := len(s)
	for i := range n / halfDivisor {
		j := n - 1 - i
		if !assert.InDelta(t, s[i], s[j], tolerance, "not symmetric at %d/%d", i, j) {
			return false
		}
	}
	return true
}

// AssertAllInRange verifies that every element lies in [minVal, maxVal].
func AssertAllInRange(t *testing.T, s []float64, minVal, maxVal float64) bool {
	t.Helper()
	for i, v := range s {
		if v < minVal || v > maxVal {
			return assert.Fail(t, "value out of range", "s[%d]=%f is outside [%f, %f]", i, v, minVal, maxVal)
		}
	}
	return true
}

// AssertDCGain verifies that the coefficients sum to expectedGain.
func AssertDCGain(t *testing.T, coeffs []float64, expectedGain, tolerance float64) bool {
	t.Helper()
	var sum float64
	for _, c := range coeffs {
		sum += c
	}
	return assert.InDelta(t, expectedGain, sum, tolerance, "DC gain = %f, want %f", sum, expectedGain)
}

// AssertCenterIsMax verifies that the center element is the largest.
func AssertCenterIsMax(t *testing.T, s []float64) bool {
	t.Helper()
	if len(s) == 0 {
		return assert.Fail(t, "empty slice")
	}
	center := len(s) / halfDivisor
	for i, v := range s {
		if v > s[center] {
			return assert.Fail(t, "center is not max", "s[%d]=%f > s[%d]=%f", i, v, center, s[center])
		}
	}
	return true
}

// AssertOddLength verifies that a slice has an odd length.
func AssertOddLength(t *testing.T, s []float64) bool {
	t.Helper()
	return assert.Equal(t, 1, len(s)%halfDivisor, "length %d is not odd", len(s))
}

// AssertRelativeError verifies |actual-expected|/|expected| <= tolerance.
func AssertRelativeError(t *testing.T, expected, actual, tolerance float64) bool {
	t.Helper()
	if expected == 0 {
		return assert.InDelta(t, expected, actual, tolerance)
	}
	relErr := math.Abs(actual-expected) / math.Abs(expected)
	return assert.LessOrEqual(t, relErr, tolerance,
		"relative error %e exceeds %e (expected=%f, actual=%f)", relErr, tolerance, expected, actual)
}

// GenerateSine returns n samples of a unit sine at freq Hz.
func GenerateSine(freq float64, sampleRate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
	}
	return out
}

// RMS returns the root mean square of s.
func RMS[F float32 | float64](s []F) float64 {
	if len(s) == 0 {
		return 0
	}
	var sum float64
	for _, v := range s {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(s)))
}

// WAVSpec describes a fixture file.
type WAVSpec struct {
	SampleRate int
	BitDepth   int
	// Channels holds planar samples in [-1, 1]; all must be the same length.
	Channels [][]float64
}

// WriteWAV encodes spec as a PCM WAV file at path, creating parent dirs.
func WriteWAV(t *testing.T, path string, spec WAVSpec) {
	t.Helper()
	require.NotEmpty(t, spec.Channels)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	numChans := len(spec.Channels)
	frames := len(spec.Channels[0])
	scale := math.Pow(2, float64(spec.BitDepth-1)) - 1

	data := make([]int, frames*numChans)
	for i := range frames {
		for ch := range numChans {
			data[i*numChans+ch] = int(math.Round(spec.Channels[ch][i] * scale))
		}
	}

	enc := wav.NewEncoder(f, spec.SampleRate, spec.BitDepth, numChans, pcmFormat)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: numChans, SampleRate: spec.SampleRate},
		Data:           data,
		SourceBitDepth: spec.BitDepth,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
}

// MetadataRow is one line of a MAESTRO-style metadata CSV.
type MetadataRow struct {
	Composer      string
	Title         string
	Split         string
	Year          int
	MIDIFilename  string
	AudioFilename string
	Duration      float64
}

// WriteMetadataCSV writes rows with the MAESTRO column layout.
func WriteMetadataCSV(t *testing.T, path string, rows []MetadataRow) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	require.NoError(t, w.Write([]string{
		"canonical_composer", "canonical_title", "split", "year",
		"midi_filename", "audio_filename", "duration",
	}))
	for _, r := range rows {
		require.NoError(t, w.Write([]string{
			r.Composer, r.Title, r.Split, strconv.Itoa(r.Year),
			r.MIDIFilename, r.AudioFilename, strconv.FormatFloat(r.Duration, 'f', -1, 64),
		}))
	}
	w.Flush()
	require.NoError(t, w.Error())
}
