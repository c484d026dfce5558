// Package filter designs the windowed-sinc prototypes used by the resampler.
package filter

import (
	"errors"
	"fmt"
	"math"

	"github.com/tphakala/go-audio-packer/internal/mathutil"
	"github.com/tphakala/simd/f64"
)

const (
	minFilterTaps = 3
	maxFilterTaps = 1 << 17

	sincZeroThreshold = 1e-10
	halfDivisor       = 2.0
)

// ErrInvalidParams is returned when filter parameters are out of range.
var ErrInvalidParams = errors.New("invalid filter parameters")

// KaiserWindow generates a symmetric Kaiser window of the given length.
//
//	w[n] = I₀(β·sqrt(1 − ((n − α)/α)²)) / I₀(β),  α = (N−1)/2
func KaiserWindow(length int, beta float64) []float64 {
	if length < 1 {
		return []float64{}
	}

	window := make([]float64, length)
	if length == 1 {
		window[0] = 1.0
		return window
	}

	alpha := float64(length-1) / halfDivisor
	i0Beta := mathutil.BesselI0(beta)

	for n := range length {
		x := (float64(n) - alpha) / alpha
		window[n] = mathutil.BesselI0(beta*math.Sqrt(math.Max(0, 1.0-x*x))) / i0Beta
	}

	return window
}

// FilterParams describes a lowpass prototype.
type FilterParams struct {
	// NumTaps is the filter length.
	NumTaps int

	// Cutoff is the -6 dB point in cycles per sample, in (0, 0.5).
	Cutoff float64

	// Attenuation is the stopband attenuation in dB; it sets the Kaiser β.
	Attenuation float64

	// Gain is the DC gain of the finished filter.
	Gain float64
}

// Validate checks the parameters.
func (p *FilterParams) Validate() error {
	if p.NumTaps < minFilterTaps || p.NumTaps > maxFilterTaps {
		return fmt.Errorf("%w: %d taps (must be %d-%d)", ErrInvalidParams, p.NumTaps, minFilterTaps, maxFilterTaps)
	}
	if p.Cutoff <= 0 || p.Cutoff >= 0.5 {
		return fmt.Errorf("%w: cutoff %f (must be in (0, 0.5))", ErrInvalidParams, p.Cutoff)
	}
	if p.Attenuation < 0 {
		return fmt.Errorf("%w: attenuation %f dB", ErrInvalidParams, p.Attenuation)
	}
	if p.Gain <= 0 {
		return fmt.Errorf("%w: gain %f", ErrInvalidParams, p.Gain)
	}
	return nil
}

// DesignLowPass returns a linear-phase Kaiser-windowed sinc lowpass filter
// whose coefficients sum to params.Gain.
func DesignLowPass(params FilterParams) ([]float64, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	window := KaiserWindow(params.NumTaps, mathutil.KaiserBeta(params.Attenuation))
	coeffs := make([]float64, params.NumTaps)
	center := float64(params.NumTaps-1) / halfDivisor

	for n := range params.NumTaps {
		x := float64(n) - center
		var sinc float64
		if math.Abs(x) < sincZeroThreshold {
			sinc = halfDivisor * params.Cutoff
		} else {
			sinc = math.Sin(halfDivisor*math.Pi*params.Cutoff*x) / (math.Pi * x)
		}
		coeffs[n] = sinc * window[n]
	}

	if sum := f64.Sum(coeffs); math.Abs(sum) > sincZeroThreshold {
		f64.Scale(coeffs, coeffs, params.Gain/sum)
	}

	return coeffs, nil
}

// MagnitudeAt evaluates |H(e^jω)| of an FIR filter at freq cycles per sample.
func MagnitudeAt(coeffs []float64, freq float64) float64 {
	omega := halfDivisor * math.Pi * freq
	var re, im float64
	for n, h := range coeffs {
		re += h * math.Cos(omega*float64(n))
		im -= h * math.Sin(omega*float64(n))
	}
	return math.Hypot(re, im)
}

// MagnitudeDB converts a linear magnitude to decibels, floored at -200 dB.
func MagnitudeDB(magnitude float64) float64 {
	const minMagnitude = 1e-10
	if magnitude < minMagnitude {
		magnitude = minMagnitude
	}
	return 20.0 * math.Log10(magnitude)
}
