package analysis

import "github.com/RyanBlaney/sonido-deck/transcode"

// Precondition failures. Low-confidence results are never errors.
var (
	ErrEmptySignal       = transcode.ErrEmptySignal
	ErrInvalidSampleRate = transcode.ErrInvalidSampleRate
)
