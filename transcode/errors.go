package transcode

import (
	"errors"
	"fmt"
)

// Sentinel errors for expected failure modes
var (
	ErrUnsupportedFormat  = errors.New("unsupported file format")
	ErrDecoderUnavailable = errors.New("audio decoder not available")
	ErrEmptySignal        = errors.New("empty audio signal")
	ErrInvalidSampleRate  = errors.New("sample rate must be positive")
)

// ProcessError represents a failure in an external process
type ProcessError struct {
	Tool     string // "ffmpeg", "ffprobe"
	Stage    string // "probe", "decode"
	ExitCode int
	Stderr   string
	Cause    error
}

func (e *ProcessError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s failed at %s (exit %d): %s", e.Tool, e.Stage, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("%s failed at %s (exit %d)", e.Tool, e.Stage, e.ExitCode)
}

func (e *ProcessError) Unwrap() error {
	return e.Cause
}

// NewProcessError creates a ProcessError
func NewProcessError(tool, stage string, exitCode int, stderr string, cause error) *ProcessError {
	return &ProcessError{
		Tool:     tool,
		Stage:    stage,
		ExitCode: exitCode,
		Stderr:   stderr,
		Cause:    cause,
	}
}
