package pcm

import "math"

// QuantizeInt16 clips x to [-1, 1], scales by 32767 and truncates toward zero.
func QuantizeInt16(x float64) int16 {
	switch {
	case math.IsNaN(x):
		return 0
	case x > 1:
		x = 1
	case x < -1:
		x = -1
	}
	return int16(x * maxInt16)
}

// Int16Planar returns the waveform as channel-major int16 samples, the
// layout of a (channels, frames) array.
func (w *Waveform) Int16Planar() []int16 {
	frames := w.Frames()
	out := make([]int16, len(w.Channels)*frames)
	for ch, samples := range w.Channels {
		dst := out[ch*frames : (ch+1)*frames]
		for i, v := range samples[:frames] {
			dst[i] = QuantizeInt16(v)
		}
	}
	return out
}
