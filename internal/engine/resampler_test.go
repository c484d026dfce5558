package engine

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/go-audio-packer/internal/testutil"
	"gonum.org/v1/gonum/dsp/fourier"
	"pgregory.net/rapid"
)

const (
	rateCD  = 44100
	rateDAT = 48000
)

// resampleAll runs a full Process+Flush cycle in chunks of chunkSize.
func resampleAll[F float32 | float64](t *testing.T, r *Resampler[F], input []F, chunkSize int) []F {
	t.Helper()
	var out []F
	for start := 0; start < len(input); start += chunkSize {
		end := min(start+chunkSize, len(input))
		chunk, err := r.Process(input[start:end])
		require.NoError(t, err)
		out = append(out, chunk...)
	}
	tail, err := r.Flush()
	require.NoError(t, err)
	return append(out, tail...)
}

func TestNewResampler_InvalidRates(t *testing.T) {
	_, err := NewResampler[float64](0, rateCD, QualityHigh)
	require.Error(t, err)

	_, err = NewResampler[float64](rateCD, -1, QualityHigh)
	require.Error(t, err)
}

func TestNewResampler_RatioTooComplex(t *testing.T) {
	_, err := NewResampler[float64](rateCD, 48001, QualityLow)
	require.ErrorIs(t, err, ErrUnsupportedRatio)
}

func TestNewResampler_ReducesRatio(t *testing.T) {
	r, err := NewResampler[float64](rateDAT, rateCD, QualityLow)
	require.NoError(t, err)
	assert.Equal(t, 147, r.Phases())
	assert.InDelta(t, 0.91875, r.Ratio(), 1e-12)
	assert.GreaterOrEqual(t, r.TapsPerPhase(), minTapsPerPhase)
}

func TestResampler_Identity(t *testing.T) {
	r, err := NewResampler[float64](rateCD, rateCD, QualityHigh)
	require.NoError(t, err)

	input := testutil.GenerateSine(440, rateCD, 1000)
	out := resampleAll(t, r, input, 333)
	assert.Equal(t, input, out)

	out[0] = 42
	assert.NotEqual(t, 42.0, input[0], "identity output must not alias the input")
}

func TestResampler_EmptyInput(t *testing.T) {
	r, err := NewResampler[float64](rateDAT, rateCD, QualityMedium)
	require.NoError(t, err)

	out, err := r.Process(nil)
	require.NoError(t, err)
	assert.Empty(t, out)

	tail, err := r.Flush()
	require.NoError(t, err)
	assert.Empty(t, tail)
}

func TestResampler_OutputLength(t *testing.T) {
	tests := []struct {
		name    string
		in, out int
	}{
		{"DAT to CD", rateDAT, rateCD},
		{"CD to DAT", rateCD, rateDAT},
		{"double", 22050, rateCD},
		{"half", 88200, rateCD},
		{"16k to CD", 16000, rateCD},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewResampler[float64](tt.in, tt.out, QualityLow)
			require.NoError(t, err)

			const n = 10007
			out := resampleAll(t, r, make([]float64, n), 4096)
			want := int(math.Ceil(float64(n) * float64(tt.out) / float64(tt.in)))
			assert.Len(t, out, want)
		})
	}
}

func TestResampler_OutputLengthProperty(t *testing.T) {
	pairs := [][2]int{{rateDAT, rateCD}, {rateCD, rateDAT}, {32000, rateCD}, {rateCD, 16000}}

	rapid.Check(t, func(rt *rapid.T) {
		pair := rapid.SampledFrom(pairs).Draw(rt, "rates")
		n := rapid.IntRange(0, 5000).Draw(rt, "n")
		chunk := rapid.IntRange(1, 2048).Draw(rt, "chunk")

		r, err := NewResampler[float32](pair[0], pair[1], QualityLow)
		if err != nil {
			rt.Fatalf("NewResampler: %v", err)
		}

		total := 0
		input := make([]float32, n)
		for start := 0; start < n; start += chunk {
			out, err := r.Process(input[start:min(start+chunk, n)])
			if err != nil {
				rt.Fatalf("Process: %v", err)
			}
			total += len(out)
		}
		tail, err := r.Flush()
		if err != nil {
			rt.Fatalf("Flush: %v", err)
		}
		total += len(tail)

		if want := int(r.ExpectedOutput(int64(n))); total != want {
			rt.Fatalf("got %d samples, want %d", total, want)
		}
	})
}

func TestResampler_ChunkingIsTransparent(t *testing.T) {
	input := testutil.GenerateSine(1000, rateDAT, 20000)

	oneShot, err := NewResampler[float64](rateDAT, rateCD, QualityMedium)
	require.NoError(t, err)
	chunked, err := NewResampler[float64](rateDAT, rateCD, QualityMedium)
	require.NoError(t, err)

	want := resampleAll(t, oneShot, input, len(input))
	got := resampleAll(t, chunked, input, 997)

	require.Len(t, got, len(want))
	assert.InDeltaSlice(t, want, got, 1e-12)
}

func TestResampler_PreservesDC(t *testing.T) {
	r, err := NewResampler[float64](rateDAT, rateCD, QualityHigh)
	require.NoError(t, err)

	input := make([]float64, 20000)
	for i := range input {
		input[i] = 0.5
	}
	out := resampleAll(t, r, input, 4096)

	// Skip the edges, where the filter sees the implicit silence.
	for i := 2000; i < len(out)-2000; i++ {
		require.InDelta(t, 0.5, out[i], 1e-4, "sample %d", i)
	}
}

func TestResampler_AlignsWithInput(t *testing.T) {
	tests := []struct {
		name    string
		in, out int
		quality Quality
	}{
		{"downsample", rateDAT, rateCD, QualityHigh},
		{"upsample", rateCD, rateDAT, QualityHigh},
		{"integer up", 22050, rateCD, QualityMedium},
	}

	const freq = 440.0

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewResampler[float64](tt.in, tt.out, tt.quality)
			require.NoError(t, err)

			input := testutil.GenerateSine(freq, tt.in, tt.in/2)
			out := resampleAll(t, r, input, 4096)
			want := testutil.GenerateSine(freq, tt.out, len(out))

			// No delay: output n must match the tone sampled at n/outRate.
			for i := len(out) / 4; i < 3*len(out)/4; i++ {
				require.InDelta(t, want[i], out[i], 1e-3, "sample %d", i)
			}
		})
	}
}

func TestResampler_PreservesToneFrequency(t *testing.T) {
	const freq = 1000.0

	r, err := NewResampler[float32](rateDAT, rateCD, QualityHigh)
	require.NoError(t, err)

	input64 := testutil.GenerateSine(freq, rateDAT, rateDAT)
	input := make([]float32, len(input64))
	for i, v := range input64 {
		input[i] = float32(v)
	}
	out := resampleAll(t, r, input, 8192)

	seq := make([]float64, rateCD)
	for i := range seq {
		seq[i] = float64(out[i])
	}

	fft := fourier.NewFFT(len(seq))
	coeffs := fft.Coefficients(nil, seq)
	peak := 0
	for i := range coeffs {
		if cmplx.Abs(coeffs[i]) > cmplx.Abs(coeffs[peak]) {
			peak = i
		}
	}

	assert.InDelta(t, freq, fft.Freq(peak)*rateCD, 1.0)
}

func TestResampler_RejectsAboveNyquist(t *testing.T) {
	// 23 kHz fits under 48k Nyquist but not under 44.1k.
	r, err := NewResampler[float64](rateDAT, rateCD, QualityHigh)
	require.NoError(t, err)

	out := resampleAll(t, r, testutil.GenerateSine(23000, rateDAT, rateDAT/2), 4096)
	assert.Less(t, testutil.RMS(out[2000:len(out)-2000]), 1e-4)
}

func TestResampler_ResetRestartsStream(t *testing.T) {
	r, err := NewResampler[float64](rateCD, rateDAT, QualityLow)
	require.NoError(t, err)

	input := testutil.GenerateSine(440, rateCD, 5000)
	first := resampleAll(t, r, input, 1024)

	r.Reset()
	second := resampleAll(t, r, input, 1024)
	assert.Equal(t, first, second)
}

func BenchmarkResampler_DATtoCD(b *testing.B) {
	r, err := NewResampler[float32](rateDAT, rateCD, QualityHigh)
	require.NoError(b, err)
	input := make([]float32, 65536)

	for b.Loop() {
		_, _ = r.Process(input)
	}
}
