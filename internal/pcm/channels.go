package pcm

import "gonum.org/v1/gonum/floats"

// mapChannelsInto fills dst with len(dst) channels derived from the first
// frames samples of src:
//
//   - one output channel: the mean of all source channels;
//   - mono source: the mono channel repeated into every output;
//   - otherwise: the first len(dst) source channels, repeating the last
//     source channel when there are fewer.
//
// Output slices may alias src. A downmix reuses dst[0] as scratch across calls.
func mapChannelsInto(dst, src [][]float64, frames int) {
	switch {
	case len(dst) == 1 && len(src) > 1:
		mix := dst[0]
		if cap(mix) < frames {
			mix = make([]float64, frames)
		}
		mix = mix[:frames]
		copy(mix, src[0][:frames])
		for _, s := range src[1:] {
			floats.Add(mix, s[:frames])
		}
		floats.Scale(1/float64(len(src)), mix)
		dst[0] = mix

	case len(src) == 1:
		for ch := range dst {
			dst[ch] = src[0][:frames]
		}

	default:
		for ch := range dst {
			dst[ch] = src[min(ch, len(src)-1)][:frames]
		}
	}
}
