// Package config loads the application settings shared by the CLI and the
// HTTP server: a YAML or JSON file, then SONIDO_* environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/RyanBlaney/sonido-deck/analysis"
	"github.com/RyanBlaney/sonido-deck/library"
	"github.com/RyanBlaney/sonido-deck/logging"
	"github.com/RyanBlaney/sonido-deck/mixing"
	"github.com/RyanBlaney/sonido-deck/transcode"
)

// ServerConfig configures the HTTP boundary
type ServerConfig struct {
	Listen          string        `json:"listen" yaml:"listen"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout"` // covers a full analysis
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxUploadBytes  int64         `json:"max_upload_bytes" yaml:"max_upload_bytes"`
	MaxBatch        int           `json:"max_batch" yaml:"max_batch"`
}

// Config is the complete application configuration. Sections are values so a
// partial file keeps the defaults of the keys it leaves out.
type Config struct {
	LogLevel   string                    `json:"log_level" yaml:"log_level"`
	Server     ServerConfig              `json:"server" yaml:"server"`
	Library    library.BadgerOptions     `json:"library" yaml:"library"`
	Analysis   analysis.Config           `json:"analysis" yaml:"analysis"`
	Scoring    mixing.ScoringConfig      `json:"scoring" yaml:"scoring"`
	Validation mixing.ValidationCriteria `json:"validation" yaml:"validation"`
}

// Default returns the configuration used when no file or environment overrides are given
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Server: ServerConfig{
			Listen:          ":8000",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
			MaxUploadBytes:  100 << 20,
			MaxBatch:        10,
		},
		Library:    library.BadgerOptions{Dir: defaultLibraryDir()},
		Analysis:   *analysis.DefaultConfig(),
		Scoring:    mixing.DefaultScoringConfig(),
		Validation: mixing.DefaultValidationCriteria(),
	}
}

func defaultLibraryDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home + "/.sonido-deck/library"
	}
	return ".sonido-deck/library"
}

// Load reads path over the defaults (an empty path skips the file), applies
// environment overrides and validates the result
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// JSON is valid YAML, so one decoder serves both
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.fillDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides settings from SONIDO_* variables
func (c *Config) applyEnv() error {
	c.LogLevel = envStr("SONIDO_LOG_LEVEL", c.LogLevel)
	c.Server.Listen = envStr("SONIDO_LISTEN", c.Server.Listen)
	c.Library.Dir = envStr("SONIDO_LIBRARY_DIR", c.Library.Dir)

	var err error
	if c.Analysis.SampleRate, err = envInt("SONIDO_SAMPLE_RATE", c.Analysis.SampleRate); err != nil {
		return err
	}
	seconds, err := envFloat("SONIDO_ANALYSIS_SECONDS", c.Analysis.AnalysisDuration.Seconds())
	if err != nil {
		return err
	}
	c.Analysis.AnalysisDuration = time.Duration(seconds * float64(time.Second))

	if c.Analysis.Decoder == nil {
		c.Analysis.Decoder = transcode.DefaultDecoderConfig()
	}
	c.Analysis.Decoder.FFmpegPath = envStr("SONIDO_FFMPEG", c.Analysis.Decoder.FFmpegPath)
	c.Analysis.Decoder.FFprobePath = envStr("SONIDO_FFPROBE", c.Analysis.Decoder.FFprobePath)

	return nil
}

// fillDefaults restores settings a partial file left empty
func (c *Config) fillDefaults() {
	d := transcode.DefaultDecoderConfig()
	if c.Analysis.Decoder == nil {
		c.Analysis.Decoder = d
		return
	}
	dec := c.Analysis.Decoder
	if dec.FFmpegPath == "" {
		dec.FFmpegPath = d.FFmpegPath
	}
	if dec.FFprobePath == "" {
		dec.FFprobePath = d.FFprobePath
	}
	if dec.Timeout == 0 {
		dec.Timeout = d.Timeout
	}
	if dec.ResampleQuality == "" {
		dec.ResampleQuality = d.ResampleQuality
	}
}

// Validate checks every section
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Server.Listen == "" {
		return fmt.Errorf("server listen address is required")
	}
	if c.Server.MaxUploadBytes <= 0 || c.Server.MaxBatch <= 0 {
		return fmt.Errorf("server upload and batch limits must be positive")
	}
	if !c.Library.InMemory && c.Library.Dir == "" {
		return fmt.Errorf("library directory is required unless in_memory is set")
	}
	if err := c.Analysis.Validate(); err != nil {
		return fmt.Errorf("invalid analysis config: %w", err)
	}
	if err := c.Scoring.Validate(); err != nil {
		return fmt.Errorf("invalid scoring config: %w", err)
	}
	return nil
}

// Level returns the parsed log level
func (c *Config) Level() logging.Level {
	level, _ := logging.ParseLevel(c.LogLevel)
	return level
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", key, v, err)
	}
	return n, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", key, v, err)
	}
	return f, nil
}
