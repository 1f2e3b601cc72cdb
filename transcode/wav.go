package transcode

import (
	"fmt"
	"io"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavChunkFrames is how many frames DecodeWAV pulls per read
const wavChunkFrames = 4096

// DecodeWAV reads a PCM WAV stream and downmixes it to mono in [-1, 1].
// Reading stops after maxDuration of audio (0 reads everything). The result
// keeps the native sample rate; Duration is the decoded length and
// SourceDuration the length of the whole data chunk.
func DecodeWAV(r io.ReadSeeker, maxDuration time.Duration) (*AudioData, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: invalid wav stream", ErrUnsupportedFormat)
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("failed to find wav pcm: %w", err)
	}
	if dec.PCMChunk == nil {
		return nil, fmt.Errorf("%w: wav has no data chunk", ErrUnsupportedFormat)
	}

	ch := int(dec.NumChans)
	rate := int(dec.SampleRate)
	bitDepth := int(dec.BitDepth)
	if ch < 1 {
		return nil, fmt.Errorf("%w: wav has no channels", ErrUnsupportedFormat)
	}
	if rate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, rate)
	}
	if bitDepth <= 0 || bitDepth > 32 {
		return nil, fmt.Errorf("%w: unsupported wav bit depth %d", ErrUnsupportedFormat, bitDepth)
	}

	totalFrames := int(dec.PCMLen()) / (ch * ((bitDepth-1)/8 + 1))
	if totalFrames == 0 {
		return nil, ErrEmptySignal
	}
	limit := totalFrames
	if maxDuration > 0 {
		limit = min(limit, int(maxDuration.Seconds()*float64(rate)))
	}

	// 8-bit wav is unsigned
	var offset float64
	scale := float64(int64(1) << (bitDepth - 1))
	if bitDepth == 8 {
		offset = 128
		scale = 128
	}

	buf := &audio.IntBuffer{Data: make([]int, wavChunkFrames*ch), Format: dec.Format()}
	out := make([]float64, 0, min(limit, 1<<22))
	// pending holds samples of a frame split across two reads
	var pending []int
	for len(out) < limit {
		n, err := dec.PCMBuffer(buf)
		if err != nil {
			return nil, fmt.Errorf("failed to read wav pcm: %w", err)
		}
		if n == 0 {
			break
		}

		pending = append(pending, buf.Data[:n]...)
		i := 0
		for ; i+ch <= len(pending) && len(out) < limit; i += ch {
			var sum float64
			for c := range ch {
				sum += (float64(pending[i+c]) - offset) / scale
			}
			out = append(out, sum/float64(ch))
		}
		pending = append(pending[:0], pending[i:]...)
	}
	if len(out) == 0 {
		return nil, ErrEmptySignal
	}

	return &AudioData{
		PCM:            out,
		SampleRate:     rate,
		Channels:       1,
		Duration:       time.Duration(len(out)) * time.Second / time.Duration(rate),
		SourceDuration: time.Duration(totalFrames) * time.Second / time.Duration(rate),
	}, nil
}
