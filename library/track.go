package library

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-deck/camelot"
	"github.com/RyanBlaney/sonido-deck/mixing"
)

// ErrInvalidTrack is returned when a track record fails validation
var ErrInvalidTrack = errors.New("invalid track")

// Sources a track can come from
var Sources = []string{"local", "spotify", "soundcloud", "beatport", "yandex"}

// TrackRecord is a library track. Zero BPM, an empty camelot code or a zero
// energy level mean the descriptor is not known yet.
type TrackRecord struct {
	TrackID    string   `json:"id" yaml:"id" msgpack:"id"`
	Title      string   `json:"title" yaml:"title" msgpack:"title"`
	Artists    []string `json:"artists" yaml:"artists" msgpack:"artists"`
	Album      string   `json:"album,omitempty" yaml:"album,omitempty" msgpack:"album,omitempty"`
	Genre      []string `json:"genre" yaml:"genre" msgpack:"genre"`
	Path       string   `json:"path,omitempty" yaml:"path,omitempty" msgpack:"path,omitempty"`
	Source     string   `json:"source" yaml:"source" msgpack:"source"`
	SourceID   string   `json:"source_id,omitempty" yaml:"source_id,omitempty" msgpack:"source_id,omitempty"`
	DurationMs int64    `json:"duration_ms" yaml:"duration_ms" msgpack:"duration_ms"`

	BPM           float64 `json:"bpm" yaml:"bpm" msgpack:"bpm"`
	BPMConfidence float64 `json:"bpm_confidence" yaml:"bpm_confidence" msgpack:"bpm_confidence"`
	Key           string  `json:"key" yaml:"key" msgpack:"key"`
	CamelotCode   string  `json:"camelot" yaml:"camelot" msgpack:"camelot"`
	IsMinor       bool    `json:"is_minor" yaml:"is_minor" msgpack:"is_minor"`
	KeyConfidence float64 `json:"key_confidence" yaml:"key_confidence" msgpack:"key_confidence"`
	EnergyLevel   int     `json:"energy" yaml:"energy" msgpack:"energy"`

	Rating int      `json:"rating,omitempty" yaml:"rating,omitempty" msgpack:"rating,omitempty"`
	Tags   []string `json:"tags" yaml:"tags" msgpack:"tags"`
	Notes  string   `json:"notes,omitempty" yaml:"notes,omitempty" msgpack:"notes,omitempty"`

	CreatedAt  time.Time  `json:"created_at" yaml:"created_at" msgpack:"created_at"`
	AnalyzedAt *time.Time `json:"analyzed_at,omitempty" yaml:"analyzed_at,omitempty" msgpack:"analyzed_at,omitempty"`
}

func (t *TrackRecord) ID() string      { return t.TrackID }
func (t *TrackRecord) Camelot() string { return t.CamelotCode }
func (t *TrackRecord) Tempo() float64  { return t.BPM }
func (t *TrackRecord) Energy() int     { return t.EnergyLevel }

var _ mixing.Track = (*TrackRecord)(nil)

// Info converts the record for the playlist validators
func (t *TrackRecord) Info() mixing.TrackInfo {
	info := mixing.TrackInfo{
		TrackID:         t.TrackID,
		Title:           t.Title,
		Artist:          strings.Join(t.Artists, ", "),
		Key:             t.Key,
		CamelotCode:     t.CamelotCode,
		BPM:             t.BPM,
		EnergyLevel:     t.EnergyLevel,
		KeyConfidence:   t.KeyConfidence,
		DurationSeconds: float64(t.DurationMs) / 1000,
	}
	if len(t.Genre) > 0 {
		info.Genre = t.Genre[0]
	}
	return info
}

// Validate checks the record invariants. Descriptors may be unset, but set ones must be in range.
func (t *TrackRecord) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidTrack)
	}
	if t.Source != "" && !slices.Contains(Sources, t.Source) {
		return fmt.Errorf("%w: unknown source %q", ErrInvalidTrack, t.Source)
	}
	if t.DurationMs < 0 {
		return fmt.Errorf("%w: negative duration", ErrInvalidTrack)
	}
	if t.BPM < 0 || t.BPM > 300 {
		return fmt.Errorf("%w: bpm %.1f not in 0-300", ErrInvalidTrack, t.BPM)
	}
	if t.CamelotCode != camelot.UnknownCode {
		if _, err := camelot.ParseCode(t.CamelotCode); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTrack, err)
		}
	}
	if t.Key != "" && camelot.KeyToCode(t.Key) == camelot.UnknownCode {
		return fmt.Errorf("%w: invalid musical key %q", ErrInvalidTrack, t.Key)
	}
	if t.EnergyLevel < 0 || t.EnergyLevel > 10 {
		return fmt.Errorf("%w: energy %d not in 1-10", ErrInvalidTrack, t.EnergyLevel)
	}
	if t.Rating < 0 || t.Rating > 5 {
		return fmt.Errorf("%w: rating %d not in 1-5", ErrInvalidTrack, t.Rating)
	}
	return nil
}

// TrackUpdate is a partial update; nil fields are left untouched
type TrackUpdate struct {
	Title      *string   `json:"title,omitempty"`
	Artists    *[]string `json:"artists,omitempty"`
	Album      *string   `json:"album,omitempty"`
	Genre      *[]string `json:"genre,omitempty"`
	Path       *string   `json:"path,omitempty"`
	DurationMs *int64    `json:"duration_ms,omitempty"`
	BPM        *float64  `json:"bpm,omitempty"`
	Key        *string   `json:"key,omitempty"`
	Camelot    *string   `json:"camelot,omitempty"`
	Energy     *int      `json:"energy,omitempty"`
	Rating     *int      `json:"rating,omitempty"`
	Tags       *[]string `json:"tags,omitempty"`
	Notes      *string   `json:"notes,omitempty"`
}

// Apply writes the set fields onto t. Setting Key without Camelot also
// updates the camelot code and mode to match.
func (u TrackUpdate) Apply(t *TrackRecord) {
	setIf(&t.Title, u.Title)
	setIf(&t.Artists, u.Artists)
	setIf(&t.Album, u.Album)
	setIf(&t.Genre, u.Genre)
	setIf(&t.Path, u.Path)
	setIf(&t.DurationMs, u.DurationMs)
	setIf(&t.BPM, u.BPM)
	setIf(&t.EnergyLevel, u.Energy)
	setIf(&t.Rating, u.Rating)
	setIf(&t.Tags, u.Tags)
	setIf(&t.Notes, u.Notes)

	if u.Key != nil {
		t.Key = *u.Key
		if u.Camelot == nil {
			t.CamelotCode = camelot.KeyToCode(t.Key)
		}
	}
	if u.Camelot != nil {
		t.CamelotCode = *u.Camelot
	}
	if c, err := camelot.ParseCode(t.CamelotCode); err == nil {
		t.IsMinor = c.IsMinor()
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// SearchFilter selects tracks. Nil bounds and empty strings match everything.
type SearchFilter struct {
	Query     string   `json:"query,omitempty"` // case-insensitive substring of title or artists
	BPMMin    *float64 `json:"bpm_min,omitempty"`
	BPMMax    *float64 `json:"bpm_max,omitempty"`
	Key       string   `json:"key,omitempty"`
	Camelot   string   `json:"camelot,omitempty"`
	EnergyMin *int     `json:"energy_min,omitempty"`
	EnergyMax *int     `json:"energy_max,omitempty"`
	Source    string   `json:"source,omitempty"`
	Offset    int      `json:"offset,omitempty"`
	Limit     int      `json:"limit,omitempty"` // 0 means DefaultSearchLimit
}

// DefaultSearchLimit caps searches that do not set a limit
const DefaultSearchLimit = 20

// Matches reports whether t passes every set criterion
func (f SearchFilter) Matches(t *TrackRecord) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		hay := strings.ToLower(t.Title + "\x00" + strings.Join(t.Artists, "\x00"))
		if !strings.Contains(hay, q) {
			return false
		}
	}
	if f.BPMMin != nil && t.BPM < *f.BPMMin {
		return false
	}
	if f.BPMMax != nil && t.BPM > *f.BPMMax {
		return false
	}
	if f.Key != "" && t.Key != f.Key {
		return false
	}
	if f.Camelot != "" && !strings.EqualFold(t.CamelotCode, f.Camelot) {
		return false
	}
	if f.EnergyMin != nil && t.EnergyLevel < *f.EnergyMin {
		return false
	}
	if f.EnergyMax != nil && t.EnergyLevel > *f.EnergyMax {
		return false
	}
	if f.Source != "" && t.Source != f.Source {
		return false
	}
	return true
}
