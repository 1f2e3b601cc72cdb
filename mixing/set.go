package mixing

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidSet is returned when a set fails validation
	ErrInvalidSet = errors.New("invalid set")
	// ErrPositionOutOfRange is returned for a set position outside 1..len
	ErrPositionOutOfRange = errors.New("position out of range")
)

// TransitionType is how a set track is brought in from the previous one
type TransitionType string

const (
	TransitionMix  TransitionType = "mix"
	TransitionCut  TransitionType = "cut"
	TransitionFade TransitionType = "fade"
	TransitionSlam TransitionType = "slam"
	TransitionEcho TransitionType = "echo"
)

// Valid reports whether t is a known transition type
func (t TransitionType) Valid() bool {
	switch t {
	case TransitionMix, TransitionCut, TransitionFade, TransitionSlam, TransitionEcho:
		return true
	}
	return false
}

// Style is the vibe of a set
type Style string

const (
	StyleWarmUp      Style = "warm-up"
	StyleProgressive Style = "progressive"
	StylePeakTime    Style = "peak-time"
	StyleClosing     Style = "closing"
	StyleJourney     Style = "journey"
	StyleMixed       Style = "mixed"
)

// Valid reports whether s is a known style; the empty style is allowed
func (s Style) Valid() bool {
	switch s {
	case "", StyleWarmUp, StyleProgressive, StylePeakTime, StyleClosing, StyleJourney, StyleMixed:
		return true
	}
	return false
}

const (
	MinTargetDuration     = 5   // minutes
	MaxTargetDuration     = 480 // minutes
	DefaultTargetDuration = 60
	maxSetNameLength      = 200
)

// SetTrack is one slot of a set
type SetTrack struct {
	Position       int            `json:"position" yaml:"position" msgpack:"position"` // 1-indexed
	TrackID        string         `json:"track_id" yaml:"track_id" msgpack:"track_id"`
	TransitionType TransitionType `json:"transition_type" yaml:"transition_type" msgpack:"transition_type"`
	MixInPointMs   *int64         `json:"mix_in_point_ms,omitempty" yaml:"mix_in_point_ms,omitempty" msgpack:"mix_in_point_ms,omitempty"`
	MixOutPointMs  *int64         `json:"mix_out_point_ms,omitempty" yaml:"mix_out_point_ms,omitempty" msgpack:"mix_out_point_ms,omitempty"`
	Notes          string         `json:"notes,omitempty" yaml:"notes,omitempty" msgpack:"notes,omitempty"`
}

// Set is a planned DJ set
type Set struct {
	ID                string     `json:"id" yaml:"id" msgpack:"id"`
	Name              string     `json:"name" yaml:"name" msgpack:"name"`
	Description       string     `json:"description,omitempty" yaml:"description,omitempty" msgpack:"description,omitempty"`
	TargetDurationMin int        `json:"target_duration_min" yaml:"target_duration_min" msgpack:"target_duration_min"`
	Style             Style      `json:"style,omitempty" yaml:"style,omitempty" msgpack:"style,omitempty"`
	EnergyCurve       []int      `json:"energy_curve" yaml:"energy_curve" msgpack:"energy_curve"` // target energy per segment
	Tracks            []SetTrack `json:"tracks" yaml:"tracks" msgpack:"tracks"`
	CreatedAt         time.Time  `json:"created_at" yaml:"created_at" msgpack:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" yaml:"updated_at" msgpack:"updated_at"`
}

// NewSet creates an empty set with a fresh id and the default target duration
func NewSet(name string) *Set {
	now := time.Now()
	return &Set{
		ID:                uuid.NewString(),
		Name:              name,
		TargetDurationMin: DefaultTargetDuration,
		EnergyCurve:       []int{},
		Tracks:            []SetTrack{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Len returns the number of tracks in the set
func (s *Set) Len() int {
	return len(s.Tracks)
}

// TrackIDs returns the track ids in play order
func (s *Set) TrackIDs() []string {
	ids := make([]string, len(s.Tracks))
	for i, t := range s.Tracks {
		ids[i] = t.TrackID
	}
	return ids
}

// Last returns the final slot, or false for an empty set
func (s *Set) Last() (SetTrack, bool) {
	if len(s.Tracks) == 0 {
		return SetTrack{}, false
	}
	return s.Tracks[len(s.Tracks)-1], true
}

// AddTrack appends a track. An empty transition type means mix.
func (s *Set) AddTrack(trackID string, transition TransitionType) (SetTrack, error) {
	return s.InsertTrack(len(s.Tracks)+1, trackID, transition)
}

// InsertTrack places a track at position, shifting later tracks down
func (s *Set) InsertTrack(position int, trackID string, transition TransitionType) (SetTrack, error) {
	if transition == "" {
		transition = TransitionMix
	}
	if !transition.Valid() {
		return SetTrack{}, fmt.Errorf("%w: unknown transition type %q", ErrInvalidSet, transition)
	}
	if strings.TrimSpace(trackID) == "" {
		return SetTrack{}, fmt.Errorf("%w: empty track id", ErrInvalidSet)
	}
	if position < 1 || position > len(s.Tracks)+1 {
		return SetTrack{}, fmt.Errorf("%w: %d not in 1..%d", ErrPositionOutOfRange, position, len(s.Tracks)+1)
	}

	st := SetTrack{Position: position, TrackID: trackID, TransitionType: transition}
	s.Tracks = slices.Insert(s.Tracks, position-1, st)
	s.renumber()
	return st, nil
}

// RemoveTrack removes the track at position and renumbers the rest.
// It returns false when no track holds that position.
func (s *Set) RemoveTrack(position int) (SetTrack, bool) {
	i := slices.IndexFunc(s.Tracks, func(t SetTrack) bool { return t.Position == position })
	if i < 0 {
		return SetTrack{}, false
	}

	removed := s.Tracks[i]
	s.Tracks = slices.Delete(s.Tracks, i, i+1)
	s.renumber()
	return removed, true
}

// ReorderTrack moves the track at position from to position to and renumbers the rest.
// Both positions are 1-based and must exist in the set.
func (s *Set) ReorderTrack(from, to int) error {
	n := len(s.Tracks)
	if from < 1 || from > n {
		return fmt.Errorf("%w: from %d not in 1..%d", ErrPositionOutOfRange, from, n)
	}
	if to < 1 || to > n {
		return fmt.Errorf("%w: to %d not in 1..%d", ErrPositionOutOfRange, to, n)
	}
	if from == to {
		return nil
	}

	moved := s.Tracks[from-1]
	s.Tracks = slices.Delete(s.Tracks, from-1, from)
	s.Tracks = slices.Insert(s.Tracks, to-1, moved)
	s.renumber()
	return nil
}

func (s *Set) renumber() {
	for i := range s.Tracks {
		s.Tracks[i].Position = i + 1
	}
	s.UpdatedAt = time.Now()
}

// Validate checks the name, target duration, style, energy curve, transition
// types and that positions run 1..n without gaps
func (s *Set) Validate() error {
	name := strings.TrimSpace(s.Name)
	if name == "" || len(s.Name) > maxSetNameLength {
		return fmt.Errorf("%w: name must be 1-%d characters", ErrInvalidSet, maxSetNameLength)
	}
	if s.TargetDurationMin < MinTargetDuration || s.TargetDurationMin > MaxTargetDuration {
		return fmt.Errorf("%w: target duration %d not in %d-%d minutes",
			ErrInvalidSet, s.TargetDurationMin, MinTargetDuration, MaxTargetDuration)
	}
	if !s.Style.Valid() {
		return fmt.Errorf("%w: unknown style %q", ErrInvalidSet, s.Style)
	}
	for _, e := range s.EnergyCurve {
		if e < 1 || e > 10 {
			return fmt.Errorf("%w: energy curve values must be between 1-10, got %d", ErrInvalidSet, e)
		}
	}

	positions := make([]int, len(s.Tracks))
	for i, t := range s.Tracks {
		if !t.TransitionType.Valid() {
			return fmt.Errorf("%w: track %d has unknown transition type %q", ErrInvalidSet, t.Position, t.TransitionType)
		}
		if (t.MixInPointMs != nil && *t.MixInPointMs < 0) || (t.MixOutPointMs != nil && *t.MixOutPointMs < 0) {
			return fmt.Errorf("%w: track %d has a negative cue point", ErrInvalidSet, t.Position)
		}
		positions[i] = t.Position
	}
	slices.Sort(positions)
	for i, p := range positions {
		if p != i+1 {
			return fmt.Errorf("%w: track positions must be sequential from 1, got %v", ErrInvalidSet, positions)
		}
	}

	return nil
}
