package engine

// Filter design limits.
const (
	// maxPhases bounds the upsampling factor L of the reduced ratio. Every
	// pairing of the common rates (8k to 192k) stays under it; 44.1k/48k
	// reduces to 147/160 and 16k→44.1k to 441/160.
	maxPhases = 1024

	// Kaiser length estimate N ≈ (A − 7.95) / (14.36·Δf).
	kaiserLengthOffset  = 7.95
	kaiserLengthDivisor = 14.36

	// Stopband edge as a fraction of the narrower Nyquist frequency.
	stopbandEdge = 1.0

	minTapsPerPhase = 8
)

// Quality preset parameters. Passband is a fraction of the narrower
// Nyquist frequency; attenuation is in dB.
const (
	lowAttenuation = 80.0
	lowPassband    = 0.80

	mediumAttenuation = 100.0
	mediumPassband    = 0.90

	highAttenuation = 120.0
	highPassband    = 0.93

	veryHighAttenuation = 150.0
	veryHighPassband    = 0.95
)

// defaultHistoryHint is the spare history capacity allocated on Reset, in samples.
const defaultHistoryHint = 1 << 16
