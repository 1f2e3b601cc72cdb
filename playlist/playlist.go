// Package playlist reads and writes the files a DJ set is exchanged in:
// the JSON metadata sidecar, extended M3U8 playlists and plain-text tracklists.
package playlist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-deck/mixing"
)

// Track is one sidecar entry. Zero descriptors mean unknown.
type Track struct {
	Position      int     `json:"position,omitempty" yaml:"position,omitempty"`
	TrackID       string  `json:"id,omitempty" yaml:"id,omitempty"`
	Artist        string  `json:"artist" yaml:"artist"`
	Title         string  `json:"title" yaml:"title"`
	Genre         string  `json:"genre,omitempty" yaml:"genre,omitempty"`
	Label         string  `json:"label,omitempty" yaml:"label,omitempty"`
	Filename      string  `json:"filename,omitempty" yaml:"filename,omitempty"`
	FilePath      string  `json:"file_path,omitempty" yaml:"file_path,omitempty"`
	DurationMs    int64   `json:"duration_ms" yaml:"duration_ms"`
	BPM           float64 `json:"bpm,omitempty" yaml:"bpm,omitempty"`
	BPMConfidence float64 `json:"bpm_confidence,omitempty" yaml:"bpm_confidence,omitempty"`
	Key           string  `json:"key,omitempty" yaml:"key,omitempty"`
	CamelotCode   string  `json:"camelot,omitempty" yaml:"camelot,omitempty"`
	KeyConfidence float64 `json:"key_confidence,omitempty" yaml:"key_confidence,omitempty"`
	EnergyLevel   int     `json:"energy,omitempty" yaml:"energy,omitempty"`
	Error         string  `json:"error,omitempty" yaml:"error,omitempty"` // set when analysis of this file failed
}

// ID falls back to the file name, then the position, for tracks without an id
func (t Track) ID() string {
	switch {
	case t.TrackID != "":
		return t.TrackID
	case t.FileName() != "":
		return t.FileName()
	default:
		return fmt.Sprintf("#%d", t.Position)
	}
}

func (t Track) Camelot() string { return t.CamelotCode }
func (t Track) Tempo() float64  { return t.BPM }
func (t Track) Energy() int     { return t.EnergyLevel }

// FileName is the playlist entry for the track
func (t Track) FileName() string {
	if t.Filename != "" {
		return t.Filename
	}
	if t.FilePath != "" {
		return filepath.Base(t.FilePath)
	}
	return ""
}

// Info converts the track for the playlist validators
func (t Track) Info() mixing.TrackInfo {
	return mixing.TrackInfo{
		TrackID:         t.ID(),
		Title:           t.Title,
		Artist:          t.Artist,
		Genre:           t.Genre,
		Key:             t.Key,
		CamelotCode:     t.CamelotCode,
		BPM:             t.BPM,
		EnergyLevel:     t.EnergyLevel,
		KeyConfidence:   t.KeyConfidence,
		DurationSeconds: float64(t.DurationMs) / 1000,
	}
}

// Infos converts every track
func Infos(tracks []Track) []mixing.TrackInfo {
	out := make([]mixing.TrackInfo, len(tracks))
	for i, t := range tracks {
		out[i] = t.Info()
	}
	return out
}

// Sidecar is the JSON metadata file that travels with a folder of tracks
type Sidecar struct {
	Title       string    `json:"playlist_title,omitempty" yaml:"playlist_title,omitempty"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
	TotalTracks int       `json:"total_tracks" yaml:"total_tracks"`
	Tracks      []Track   `json:"tracks" yaml:"tracks"`
}

// Analyzed returns the tracks that have both a key and a tempo
func (s *Sidecar) Analyzed() []Track {
	out := []Track{}
	for _, t := range s.Tracks {
		if t.CamelotCode != "" && t.BPM > 0 {
			out = append(out, t)
		}
	}
	return out
}

// ReadSidecar loads a sidecar file
func ReadSidecar(path string) (*Sidecar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sidecar: %w", err)
	}

	var s Sidecar
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse sidecar %s: %w", path, err)
	}
	if s.Tracks == nil {
		s.Tracks = []Track{}
	}
	return &s, nil
}

// WriteSidecar writes s as indented JSON, replacing path atomically.
// The generation time and track count are refreshed.
func WriteSidecar(path string, s *Sidecar) error {
	s.GeneratedAt = time.Now().UTC()
	s.TotalTracks = len(s.Tracks)
	if s.Tracks == nil {
		s.Tracks = []Track{}
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode sidecar: %w", err)
	}
	return writeFileAtomic(path, append(data, '\n'))
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// FromTrackInfo builds sidecar entries from validator tracks, numbering them from 1
func FromTrackInfo(infos []mixing.TrackInfo) []Track {
	out := make([]Track, len(infos))
	for i, info := range infos {
		out[i] = Track{
			Position:      i + 1,
			TrackID:       info.TrackID,
			Artist:        info.Artist,
			Title:         info.Title,
			Genre:         info.Genre,
			DurationMs:    int64(info.DurationSeconds * 1000),
			BPM:           info.BPM,
			Key:           info.Key,
			CamelotCode:   info.CamelotCode,
			KeyConfidence: info.KeyConfidence,
			EnergyLevel:   info.EnergyLevel,
		}
	}
	return out
}

// Renumber sets positions 1..n in slice order
func Renumber(tracks []Track) {
	for i := range tracks {
		tracks[i].Position = i + 1
	}
}

// displayName is "Artist - Title", or just the title when the artist is unknown
func (t Track) displayName() string {
	if strings.TrimSpace(t.Artist) == "" {
		return t.Title
	}
	return t.Artist + " - " + t.Title
}
