package transcode

import (
	"fmt"
	"time"
)

// AudioSignal is a read-only mono signal. Estimators never modify the samples.
type AudioSignal struct {
	samples       []float64
	sampleRate    int
	trackDuration float64
}

// NewAudioSignal wraps samples taken at sampleRate.
// The slice is not copied; callers hand over ownership.
func NewAudioSignal(samples []float64, sampleRate int) (*AudioSignal, error) {
	if len(samples) == 0 {
		return nil, ErrEmptySignal
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}
	return &AudioSignal{
		samples:       samples,
		sampleRate:    sampleRate,
		trackDuration: float64(len(samples)) / float64(sampleRate),
	}, nil
}

// Samples returns the underlying samples; treat them as read-only
func (s *AudioSignal) Samples() []float64 {
	if s == nil {
		return nil
	}
	return s.samples
}

// SampleRate returns the sampling rate in Hz
func (s *AudioSignal) SampleRate() int {
	if s == nil {
		return 0
	}
	return s.sampleRate
}

// Len returns the number of samples
func (s *AudioSignal) Len() int {
	return len(s.Samples())
}

// Duration returns the length of the signal in seconds
func (s *AudioSignal) Duration() float64 {
	if s.SampleRate() <= 0 {
		return 0
	}
	return float64(s.Len()) / float64(s.sampleRate)
}

// TrackDuration returns the length in seconds of the source the signal was cut
// from, or 0 when it is unknown. It equals Duration for untruncated signals.
func (s *AudioSignal) TrackDuration() float64 {
	if s == nil {
		return 0
	}
	return s.trackDuration
}

// WithTrackDuration returns a copy of s recording seconds as the source length
func (s *AudioSignal) WithTrackDuration(seconds float64) *AudioSignal {
	c := *s
	c.trackDuration = max(seconds, 0)
	return &c
}

// Validate reports why s cannot be analyzed, if it cannot
func (s *AudioSignal) Validate() error {
	if s.Len() == 0 {
		return ErrEmptySignal
	}
	if s.sampleRate <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSampleRate, s.sampleRate)
	}
	return nil
}

// Truncate returns a signal holding at most maxDuration of s; maxDuration <= 0 keeps everything
func (s *AudioSignal) Truncate(maxDuration time.Duration) *AudioSignal {
	if maxDuration <= 0 {
		return s
	}
	n := int(maxDuration.Seconds() * float64(s.sampleRate))
	if n <= 0 || n >= len(s.samples) {
		return s
	}
	return &AudioSignal{samples: s.samples[:n], sampleRate: s.sampleRate, trackDuration: s.trackDuration}
}
