// Package engine implements streaming rational-ratio resampling.
package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/tphakala/go-audio-packer/internal/filter"
	"github.com/tphakala/go-audio-packer/internal/simdops"
)

// ErrUnsupportedRatio is returned when the reduced ratio needs more
// polyphase branches than the engine allows.
var ErrUnsupportedRatio = errors.New("unsupported resampling ratio")

// Resampler converts a single channel from inRate to outRate.
//
// The ratio is reduced to L/M. A Kaiser-windowed sinc prototype running at
// inRate·L is split into L branches of K taps each; output n reads branch
// (n·M + D) mod L against the K newest inputs, where D is the prototype's
// group delay. Offsetting by D removes the filter delay, so output sample 0
// lines up with input sample 0 and a full Process+Flush run yields exactly
// ceil(nIn·L/M) samples.
//
// A Resampler is not safe for concurrent use; create one per channel.
type Resampler[F simdops.Float] struct {
	inRate  int
	outRate int
	up      int // L
	down    int // M
	taps    int // K
	delay   int // D, in prototype samples

	// branches[p][j] = h[p + (K-1-j)·L], reversed so that a forward dot
	// product against the history window applies the filter.
	branches [][]F
	ops      *simdops.Ops[F]
	identity bool

	hist  []F
	idx   int // hist index of the newest input used by the next output
	phase int

	samplesIn  int64
	samplesOut int64
}

// NewResampler designs the polyphase filter for inRate→outRate.
func NewResampler[F simdops.Float](inRate, outRate int, quality Quality) (*Resampler[F], error) {
	if inRate <= 0 || outRate <= 0 {
		return nil, fmt.Errorf("sample rates must be positive: input=%d, output=%d", inRate, outRate)
	}

	g := gcd(inRate, outRate)
	r := &Resampler[F]{
		inRate:  inRate,
		outRate: outRate,
		up:      outRate / g,
		down:    inRate / g,
		ops:     simdops.For[F](),
	}

	if r.up == 1 && r.down == 1 {
		r.identity = true
		return r, nil
	}

	if r.up > maxPhases {
		return nil, fmt.Errorf("%w: %d→%d Hz reduces to %d/%d (max %d phases)",
			ErrUnsupportedRatio, inRate, outRate, r.up, r.down, maxPhases)
	}

	if err := r.design(quality); err != nil {
		return nil, err
	}

	r.Reset()
	return r, nil
}

// design builds the prototype lowpass and splits it into branches.
func (r *Resampler[F]) design(quality Quality) error {
	attenuation, passband := quality.params()

	// Band edges in prototype cycles/sample, relative to the narrower Nyquist.
	nyquist := 0.5 / float64(max(r.up, r.down))
	cutoff := nyquist * (passband + stopbandEdge) / 2
	transition := nyquist * (stopbandEdge - passband)

	estimate := (attenuation - kaiserLengthOffset) / (kaiserLengthDivisor * transition)
	r.taps = max(minTapsPerPhase, int(math.Ceil(estimate/float64(r.up))))

	numTaps := r.taps * r.up
	if numTaps%2 == 0 {
		numTaps-- // odd length keeps the group delay an integer
	}
	r.delay = (numTaps - 1) / 2

	proto, err := filter.DesignLowPass(filter.FilterParams{
		NumTaps:     numTaps,
		Cutoff:      cutoff,
		Attenuation: attenuation,
		Gain:        float64(r.up),
	})
	if err != nil {
		return fmt.Errorf("failed to design prototype filter: %w", err)
	}

	r.branches = make([][]F, r.up)
	for p := range r.up {
		branch := make([]F, r.taps)
		for k := range r.taps {
			if i := p + k*r.up; i < len(proto) {
				branch[r.taps-1-k] = F(proto[i])
			}
		}
		r.branches[p] = branch
	}

	return nil
}

// Process consumes input and returns every output sample it completes.
func (r *Resampler[F]) Process(input []F) ([]F, error) {
	if len(input) == 0 {
		return []F{}, nil
	}

	r.samplesIn += int64(len(input))

	if r.identity {
		out := make([]F, len(input))
		copy(out, input)
		r.samplesOut += int64(len(out))
		return out, nil
	}

	r.hist = append(r.hist, input...)
	estimate := int(float64(len(input))*r.Ratio()) + 1
	return r.drain(make([]F, 0, estimate), math.MaxInt64), nil
}

// Flush pads the tail with silence and returns the remaining samples. The
// resampler must be Reset before it is reused.
func (r *Resampler[F]) Flush() ([]F, error) {
	if r.identity || r.samplesIn == 0 {
		return []F{}, nil
	}

	expected := (r.samplesIn*int64(r.up) + int64(r.down) - 1) / int64(r.down)
	if r.samplesOut >= expected {
		return []F{}, nil
	}

	r.hist = append(r.hist, make([]F, r.delay/r.up+2)...)
	return r.drain(make([]F, 0, expected-r.samplesOut), expected), nil
}

// drain computes outputs while the history covers them, up to limit total
// outputs, then discards history no future output needs.
func (r *Resampler[F]) drain(out []F, limit int64) []F {
	for r.idx < len(r.hist) && r.samplesOut < limit {
		window := r.hist[r.idx-r.taps+1 : r.idx+1]
		out = append(out, r.ops.DotProductUnsafe(r.branches[r.phase], window))
		r.samplesOut++

		r.phase += r.down
		r.idx += r.phase / r.up
		r.phase %= r.up
	}

	if drop := min(r.idx-r.taps+1, len(r.hist)); drop > 0 {
		n := copy(r.hist, r.hist[drop:])
		r.hist = r.hist[:n]
		r.idx -= drop
	}

	return out
}

// Reset clears all streaming state; the filter is kept.
func (r *Resampler[F]) Reset() {
	r.samplesIn = 0
	r.samplesOut = 0
	if r.identity {
		return
	}

	// K-1 zeros of history stand in for the signal before input 0.
	r.hist = make([]F, r.taps-1, r.taps-1+defaultHistoryHint)
	r.idx = r.delay/r.up + r.taps - 1
	r.phase = r.delay % r.up
}

// Ratio returns outRate / inRate.
func (r *Resampler[F]) Ratio() float64 {
	return float64(r.outRate) / float64(r.inRate)
}

// Phases returns the number of polyphase branches (L).
func (r *Resampler[F]) Phases() int {
	if r.identity {
		return 1
	}
	return r.up
}

// TapsPerPhase returns the branch length (K).
func (r *Resampler[F]) TapsPerPhase() int {
	return r.taps
}

// ExpectedOutput returns the output length for n input samples.
func (r *Resampler[F]) ExpectedOutput(n int64) int64 {
	return (n*int64(r.up) + int64(r.down) - 1) / int64(r.down)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
