package transcode

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/RyanBlaney/sonido-deck/logging"
)

// LoaderConfig controls how files become analysis signals
type LoaderConfig struct {
	SampleRate  int            `json:"sample_rate" yaml:"sample_rate"`
	MaxDuration time.Duration  `json:"max_duration" yaml:"max_duration"` // 0 loads the full track
	Decoder     *DecoderConfig `json:"decoder" yaml:"decoder"`
}

// DefaultLoaderConfig returns a 60 second window at 22050 Hz
func DefaultLoaderConfig() *LoaderConfig {
	return &LoaderConfig{
		SampleRate:  22050,
		MaxDuration: 60 * time.Second,
		Decoder:     DefaultDecoderConfig(),
	}
}

// Loader resolves paths, byte buffers and readers into mono AudioSignals.
// WAV is decoded natively; other supported formats go through ffmpeg.
type Loader struct {
	config  *LoaderConfig
	decoder *Decoder
	logger  logging.Logger
}

// NewLoader creates a loader. The decoder inherits the loader's rate and window.
func NewLoader(config *LoaderConfig, logger logging.Logger) *Loader {
	if config == nil {
		config = DefaultLoaderConfig()
	}

	decCfg := DefaultDecoderConfig()
	if config.Decoder != nil {
		c := *config.Decoder
		decCfg = &c
	}
	decCfg.TargetSampleRate = config.SampleRate
	decCfg.TargetChannels = 1
	decCfg.MaxDuration = config.MaxDuration

	logger = logging.OrNoOp(logger)

	return &Loader{
		config:  config,
		decoder: NewDecoder(decCfg, logger),
		logger:  logger,
	}
}

// Config returns the loader configuration
func (l *Loader) Config() *LoaderConfig {
	return l.config
}

// LoadFile loads the audio file at path
func (l *Loader) LoadFile(ctx context.Context, path string) (*AudioSignal, error) {
	ext := FormatFromPath(path)
	if err := CheckFormat(ext); err != nil {
		return nil, err
	}

	logger := l.logger.WithContext(ctx).WithFields(logging.Fields{
		"component": "signal_loader",
		"function":  "LoadFile",
		"path":      path,
	})

	if ext == "wav" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()

		signal, err := l.loadWAV(f)
		if err == nil {
			return signal, nil
		}
		// Compressed or exotic WAV payloads are left to ffmpeg
		logger.Debug("Native WAV decode failed, falling back to ffmpeg", logging.Fields{
			"error": err.Error(),
		})
	}

	data, err := l.decoder.DecodeFile(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return l.toSignal(ctx, data, path)
}

// LoadBytes loads an in-memory file whose format is named by ext
func (l *Loader) LoadBytes(ctx context.Context, data []byte, ext string) (*AudioSignal, error) {
	ext = normalizeFormat(ext)
	if err := CheckFormat(ext); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptySignal
	}

	if ext == "wav" {
		if signal, err := l.loadWAV(bytes.NewReader(data)); err == nil {
			return signal, nil
		}
	}

	// Containers like m4a need a seekable input, so ffmpeg reads from a temp file
	tmp, err := os.CreateTemp("", "sonido-*."+ext)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temp file: %w", err)
	}

	decoded, err := l.decoder.DecodeFile(ctx, tmp.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s data: %w", ext, err)
	}

	return l.toSignal(ctx, decoded, tmp.Name())
}

// LoadReader reads r to the end and loads it like LoadBytes
func (l *Loader) LoadReader(ctx context.Context, r io.Reader, ext string) (*AudioSignal, error) {
	if err := CheckFormat(ext); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}

	return l.LoadBytes(ctx, data, ext)
}

// loadWAV reads at most the analysis window, so long files stay cheap
func (l *Loader) loadWAV(r io.ReadSeeker) (*AudioSignal, error) {
	data, err := DecodeWAV(r, l.config.MaxDuration)
	if err != nil {
		return nil, err
	}

	resampled, err := Resample(data.PCM, data.SampleRate, l.config.SampleRate)
	if err != nil {
		return nil, err
	}

	signal, err := NewAudioSignal(resampled, l.config.SampleRate)
	if err != nil {
		return nil, err
	}
	return signal.WithTrackDuration(data.SourceDuration.Seconds()), nil
}

// windowSlack absorbs ffmpeg stopping a few samples short of -t
const windowSlack = 100 * time.Millisecond

// toSignal wraps ffmpeg output. When the decode filled the whole window the
// track may be longer, so its length comes from ffprobe; 0 if that fails.
func (l *Loader) toSignal(ctx context.Context, data *AudioData, path string) (*AudioSignal, error) {
	if data == nil || len(data.PCM) == 0 {
		return nil, ErrEmptySignal
	}

	signal, err := NewAudioSignal(data.PCM, data.SampleRate)
	if err != nil {
		return nil, err
	}
	window := l.config.MaxDuration
	if window <= 0 || data.Duration < window-windowSlack {
		return signal.Truncate(window), nil
	}

	var track float64
	meta, err := l.decoder.Probe(ctx, path)
	if err != nil {
		l.logger.Debug("Track length unavailable", logging.Fields{
			"component": "signal_loader",
			"path":      path,
			"error":     err.Error(),
		})
	} else {
		track = meta.Duration
	}

	return signal.Truncate(window).WithTrackDuration(track), nil
}
