package pcm

const (
	// chunkFrames is the number of frames decoded per read.
	chunkFrames = 65536

	stereoChannels = 2

	// WAV format tags accepted by the decoder.
	wavFormatPCM        = 0x0001
	wavFormatExtensible = 0xFFFE

	bitsPerSample16 = 16
	bitsPerSample24 = 24
	bitsPerSample32 = 32

	maxInt16 = 32767.0
	maxInt24 = 8388607.0
	maxInt32 = 2147483647.0
)
