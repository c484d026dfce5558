// Package pcm decodes WAV recordings into planar float waveforms at a
// requested sample rate and channel count.
package pcm

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/tphakala/go-audio-packer/internal/engine"
)

// ErrUnsupportedFormat is returned for files that are not 16/24/32-bit PCM WAV.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// LoadOptions selects the output layout.
type LoadOptions struct {
	// SampleRate is the output rate in Hz.
	SampleRate int

	// Channels is the output channel count.
	Channels int

	// Quality is the resampling preset, used only when rates differ.
	Quality engine.Quality

	// Sequential disables per-channel goroutines.
	Sequential bool
}

func (o LoadOptions) validate() error {
	if o.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", o.SampleRate)
	}
	if o.Channels < 1 {
		return fmt.Errorf("channels must be at least 1, got %d", o.Channels)
	}
	return nil
}

// SourceInfo describes the decoded file before conversion.
type SourceInfo struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Frames     int64
}

// Waveform is planar audio normalised to [-1, 1].
type Waveform struct {
	SampleRate int
	Channels   [][]float64
	Source     SourceInfo
}

// Frames returns the number of samples per channel.
func (w *Waveform) Frames() int {
	if len(w.Channels) == 0 {
		return 0
	}
	return len(w.Channels[0])
}

// Load decodes the WAV file at path.
func Load(path string, opts LoadOptions) (*Waveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer func() { _ = f.Close() }()

	w, err := Decode(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}

// Decode reads a WAV stream, maps it to opts.Channels and resamples it to
// opts.SampleRate, chunk by chunk.
func Decode(r io.ReadSeeker, opts LoadOptions) (*Waveform, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: not a valid WAV file", ErrUnsupportedFormat)
	}
	if decoder.WavAudioFormat != wavFormatPCM && decoder.WavAudioFormat != wavFormatExtensible {
		return nil, fmt.Errorf("%w: WAV format tag %#x", ErrUnsupportedFormat, decoder.WavAudioFormat)
	}

	src := SourceInfo{
		SampleRate: int(decoder.SampleRate),
		Channels:   int(decoder.NumChans),
		BitDepth:   int(decoder.BitDepth),
	}
	maxVal, ok := maxValueForDepth(src.BitDepth)
	if !ok {
		return nil, fmt.Errorf("%w: %d-bit PCM", ErrUnsupportedFormat, src.BitDepth)
	}
	if src.Channels < 1 || src.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d channels at %d Hz", ErrUnsupportedFormat, src.Channels, src.SampleRate)
	}

	resamplers, err := newChannelResamplers(opts.Channels, src.SampleRate, opts.SampleRate, opts.Quality)
	if err != nil {
		return nil, err
	}

	buf := &audio.IntBuffer{
		Data:   make([]int, chunkFrames*src.Channels),
		Format: decoder.Format(),
	}
	planar := make([][]float64, src.Channels)
	for ch := range planar {
		planar[ch] = make([]float64, chunkFrames)
	}
	mapped := make([][]float64, opts.Channels)
	out := make([][]float64, opts.Channels)

	invMaxVal := 1.0 / maxVal
	for {
		n, err := decoder.PCMBuffer(buf)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read audio data: %w", err)
		}
		frames := n / src.Channels
		if frames == 0 {
			break
		}
		src.Frames += int64(frames)

		deinterleaveInto(buf.Data[:frames*src.Channels], planar, frames, invMaxVal)
		mapChannelsInto(mapped, planar, frames)

		resampled, err := resampleChannels(resamplers, mapped, !opts.Sequential)
		if err != nil {
			return nil, err
		}
		for ch := range out {
			out[ch] = append(out[ch], resampled[ch]...)
		}
	}

	for ch, r := range resamplers {
		tail, err := r.Flush()
		if err != nil {
			return nil, fmt.Errorf("failed to flush channel %d: %w", ch, err)
		}
		out[ch] = append(out[ch], tail...)
	}

	return &Waveform{SampleRate: opts.SampleRate, Channels: out, Source: src}, nil
}

// maxValueForDepth returns the full-scale integer value for a PCM bit depth.
func maxValueForDepth(bitDepth int) (float64, bool) {
	switch bitDepth {
	case bitsPerSample16:
		return maxInt16, true
	case bitsPerSample24:
		return maxInt24, true
	case bitsPerSample32:
		return maxInt32, true
	default:
		return 0, false
	}
}

// deinterleaveInto splits interleaved ints into preallocated planar buffers.
func deinterleaveInto(data []int, planar [][]float64, frames int, invMaxVal float64) {
	numChannels := len(planar)

	if numChannels == stereoChannels {
		left, right := planar[0], planar[1]
		for i := range frames {
			left[i] = float64(data[2*i]) * invMaxVal
			right[i] = float64(data[2*i+1]) * invMaxVal
		}
		return
	}

	for i := range frames {
		base := i * numChannels
		for ch := range numChannels {
			planar[ch][i] = float64(data[base+ch]) * invMaxVal
		}
	}
}

func newChannelResamplers(channels, inRate, outRate int, quality engine.Quality) ([]*engine.Resampler[float64], error) {
	resamplers := make([]*engine.Resampler[float64], channels)
	for ch := range channels {
		r, err := engine.NewResampler[float64](inRate, outRate, quality)
		if err != nil {
			return nil, fmt.Errorf("failed to create resampler for channel %d: %w", ch, err)
		}
		resamplers[ch] = r
	}
	return resamplers, nil
}

// resampleChannels runs one chunk through each channel's resampler.
func resampleChannels(resamplers []*engine.Resampler[float64], input [][]float64, parallel bool) ([][]float64, error) {
	output := make([][]float64, len(resamplers))

	if !parallel || len(resamplers) == 1 {
		for ch, r := range resamplers {
			res, err := r.Process(input[ch])
			if err != nil {
				return nil, fmt.Errorf("resampling failed on channel %d: %w", ch, err)
			}
			output[ch] = res
		}
		return output, nil
	}

	var (
		wg         sync.WaitGroup
		errMu      sync.Mutex
		processErr error
	)
	for ch, r := range resamplers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := r.Process(input[ch])
			if err != nil {
				errMu.Lock()
				if processErr == nil {
					processErr = fmt.Errorf("resampling failed on channel %d: %w", ch, err)
				}
				errMu.Unlock()
				return
			}
			output[ch] = res
		}()
	}
	wg.Wait()

	if processErr != nil {
		return nil, processErr
	}
	return output, nil
}
