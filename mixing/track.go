// Package mixing orders and evaluates tracks for harmonic DJ sets.
package mixing

import "github.com/RyanBlaney/sonido-deck/camelot"

// Track is the capability every orderable item exposes.
// An empty Camelot code, a non-positive tempo or a zero energy means unknown.
type Track interface {
	ID() string
	Camelot() string
	Tempo() float64
	Energy() int
}

// TrackInfo is a plain Track carrying the descriptors the validators read
type TrackInfo struct {
	TrackID         string  `json:"id" yaml:"id"`
	Title           string  `json:"title" yaml:"title"`
	Artist          string  `json:"artist" yaml:"artist"`
	Genre           string  `json:"genre,omitempty" yaml:"genre,omitempty"`
	Key             string  `json:"key" yaml:"key"`
	CamelotCode     string  `json:"camelot" yaml:"camelot"`
	BPM             float64 `json:"bpm" yaml:"bpm"`
	EnergyLevel     int     `json:"energy" yaml:"energy"`
	KeyConfidence   float64 `json:"key_confidence" yaml:"key_confidence"`
	DurationSeconds float64 `json:"duration_seconds" yaml:"duration_seconds"`
}

func (t TrackInfo) ID() string      { return t.TrackID }
func (t TrackInfo) Camelot() string { return t.CamelotCode }
func (t TrackInfo) Tempo() float64  { return t.BPM }
func (t TrackInfo) Energy() int     { return t.EnergyLevel }

// codeOf returns the canonical code of t, or "" when it has none
func codeOf(t Track) string {
	c, err := camelot.ParseCode(t.Camelot())
	if err != nil {
		return camelot.UnknownCode
	}
	return c.String()
}
