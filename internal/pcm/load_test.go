package pcm

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/go-audio-packer/internal/engine"
	"github.com/tphakala/go-audio-packer/internal/testutil"
	"pgregory.net/rapid"
)

const (
	rateCD  = 44100
	rateDAT = 48000

	// 16-bit quantization plus resampler passband ripple.
	waveformTolerance = 2e-3
)

func scaled(s []float64, gain float64) []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		out[i] = v * gain
	}
	return out
}

func writeFixture(t *testing.T, spec testutil.WAVSpec) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.wav")
	testutil.WriteWAV(t, path, spec)
	return path
}

func TestLoad_ResamplesStereo(t *testing.T) {
	const frames = 70000 // spans more than one decode chunk
	left := scaled(testutil.GenerateSine(440, rateDAT, frames), 0.5)
	right := scaled(testutil.GenerateSine(880, rateDAT, frames), 0.25)
	path := writeFixture(t, testutil.WAVSpec{SampleRate: rateDAT, BitDepth: 16, Channels: [][]float64{left, right}})

	w, err := Load(path, LoadOptions{SampleRate: rateCD, Channels: 2, Quality: engine.QualityHigh})
	require.NoError(t, err)

	assert.Equal(t, rateCD, w.SampleRate)
	assert.Equal(t, SourceInfo{SampleRate: rateDAT, Channels: 2, BitDepth: 16, Frames: frames}, w.Source)
	require.Len(t, w.Channels, 2)
	assert.Equal(t, int(math.Ceil(frames*float64(rateCD)/rateDAT)), w.Frames())
	assert.Len(t, w.Channels[1], w.Frames())

	wantLeft := scaled(testutil.GenerateSine(440, rateCD, w.Frames()), 0.5)
	wantRight := scaled(testutil.GenerateSine(880, rateCD, w.Frames()), 0.25)
	for i := 1000; i < w.Frames()-1000; i += 7 {
		require.InDelta(t, wantLeft[i], w.Channels[0][i], waveformTolerance, "left sample %d", i)
		require.InDelta(t, wantRight[i], w.Channels[1][i], waveformTolerance, "right sample %d", i)
	}
}

func TestLoad_SequentialMatchesParallel(t *testing.T) {
	left := scaled(testutil.GenerateSine(440, rateDAT, 9000), 0.5)
	right := scaled(testutil.GenerateSine(1000, rateDAT, 9000), 0.5)
	path := writeFixture(t, testutil.WAVSpec{SampleRate: rateDAT, BitDepth: 24, Channels: [][]float64{left, right}})

	opts := LoadOptions{SampleRate: rateCD, Channels: 2, Quality: engine.QualityMedium}
	parallel, err := Load(path, opts)
	require.NoError(t, err)

	opts.Sequential = true
	sequential, err := Load(path, opts)
	require.NoError(t, err)

	assert.Equal(t, parallel.Channels, sequential.Channels)
}

func TestLoad_SameRateIsLossless(t *testing.T) {
	samples := []float64{0, 0.25, -0.25, 0.5, -0.5, 1, -1}
	path := writeFixture(t, testutil.WAVSpec{SampleRate: rateCD, BitDepth: 16, Channels: [][]float64{samples}})

	w, err := Load(path, LoadOptions{SampleRate: rateCD, Channels: 1})
	require.NoError(t, err)
	require.Len(t, w.Channels, 1)
	assert.InDeltaSlice(t, samples, w.Channels[0], 1.0/maxInt16)
}

func TestLoad_MonoToStereoDuplicates(t *testing.T) {
	mono := scaled(testutil.GenerateSine(440, 22050, 4000), 0.5)
	path := writeFixture(t, testutil.WAVSpec{SampleRate: 22050, BitDepth: 16, Channels: [][]float64{mono}})

	w, err := Load(path, LoadOptions{SampleRate: rateCD, Channels: 2, Quality: engine.QualityLow})
	require.NoError(t, err)

	require.Len(t, w.Channels, 2)
	assert.Equal(t, 8000, w.Frames())
	assert.Equal(t, w.Channels[0], w.Channels[1])
	assert.Equal(t, 1, w.Source.Channels)
}

func TestLoad_StereoToMonoAverages(t *testing.T) {
	tone := scaled(testutil.GenerateSine(440, rateCD, 4000), 0.5)
	path := writeFixture(t, testutil.WAVSpec{SampleRate: rateCD, BitDepth: 16, Channels: [][]float64{tone, scaled(tone, -1)}})

	w, err := Load(path, LoadOptions{SampleRate: rateCD, Channels: 1})
	require.NoError(t, err)

	require.Len(t, w.Channels, 1)
	assert.Less(t, testutil.RMS(w.Channels[0]), 1e-4, "opposite-phase channels cancel")
}

func TestLoad_UnsupportedFormats(t *testing.T) {
	t.Run("8-bit", func(t *testing.T) {
		path := writeFixture(t, testutil.WAVSpec{SampleRate: rateCD, BitDepth: 8, Channels: [][]float64{{0, 0.5, -0.5}}})
		_, err := Load(path, LoadOptions{SampleRate: rateCD, Channels: 1})
		require.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("not a wav", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "notes.wav")
		require.NoError(t, os.WriteFile(path, []byte("definitely not RIFF data"), 0o644))
		_, err := Load(path, LoadOptions{SampleRate: rateCD, Channels: 1})
		require.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.wav"), LoadOptions{SampleRate: rateCD, Channels: 1})
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestLoad_InvalidOptions(t *testing.T) {
	path := writeFixture(t, testutil.WAVSpec{SampleRate: rateCD, BitDepth: 16, Channels: [][]float64{{0, 0.1}}})

	_, err := Load(path, LoadOptions{SampleRate: 0, Channels: 2})
	require.Error(t, err)

	_, err = Load(path, LoadOptions{SampleRate: rateCD, Channels: 0})
	require.Error(t, err)
}

func TestMapChannelsInto(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{3, 4, 5}

	t.Run("downmix", func(t *testing.T) {
		dst := make([][]float64, 1)
		mapChannelsInto(dst, [][]float64{a, b}, 3)
		assert.Equal(t, []float64{2, 3, 4}, dst[0])
		assert.Equal(t, []float64{1, 2, 3}, a, "source must not be modified")
	})

	t.Run("partial frames", func(t *testing.T) {
		dst := make([][]float64, 2)
		mapChannelsInto(dst, [][]float64{a, b}, 2)
		assert.Equal(t, []float64{1, 2}, dst[0])
		assert.Equal(t, []float64{3, 4}, dst[1])
	})

	t.Run("upmix repeats last", func(t *testing.T) {
		dst := make([][]float64, 3)
		mapChannelsInto(dst, [][]float64{a, b}, 3)
		assert.Equal(t, b, dst[2])
	})
}

func TestQuantizeInt16(t *testing.T) {
	tests := []struct {
		in   float64
		want int16
	}{
		{0, 0},
		{1, 32767},
		{-1, -32767},
		{1.5, 32767},
		{-7, -32767},
		{0.5, 16383},
		{-0.5, -16383},
		{math.NaN(), 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, QuantizeInt16(tt.in), "QuantizeInt16(%v)", tt.in)
	}
}

func TestQuantizeInt16_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		x := rapid.Float64Range(-4, 4).Draw(rt, "x")
		q := QuantizeInt16(x)

		clipped := math.Max(-1, math.Min(1, x))
		if math.Abs(float64(q)/maxInt16-clipped) >= 1.0/maxInt16 {
			rt.Fatalf("QuantizeInt16(%v) = %d, too far from %v", x, q, clipped)
		}
		if q == math.MinInt16 {
			rt.Fatalf("QuantizeInt16(%v) reached -32768", x)
		}
		if (x > 0 && q < 0) || (x < 0 && q > 0) {
			rt.Fatalf("QuantizeInt16(%v) = %d flips sign", x, q)
		}
	})
}

func TestWaveform_Int16Planar(t *testing.T) {
	w := &Waveform{
		SampleRate: rateCD,
		Channels: [][]float64{
			{0, 0.5, 1},
			{0, -0.5, -1},
		},
	}

	assert.Equal(t, []int16{0, 16383, 32767, 0, -16383, -32767}, w.Int16Planar())
	assert.Equal(t, 3, w.Frames())
	assert.Equal(t, 0, (&Waveform{}).Frames())
}
