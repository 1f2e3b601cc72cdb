package library

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/RyanBlaney/sonido-deck/analysis"
	"github.com/RyanBlaney/sonido-deck/camelot"
	"github.com/RyanBlaney/sonido-deck/logging"
	"github.com/RyanBlaney/sonido-deck/mixing"
)

const (
	trackPrefix    = "track"
	setPrefix      = "set"
	analysisPrefix = "analysis"
)

// CachedAnalysis is an analysis result keyed by the hash of the audio it came
// from and the fingerprint of the analysis settings that produced it
type CachedAnalysis struct {
	Hash     string                   `msgpack:"hash"`
	Profile  string                   `msgpack:"profile"`
	Result   *analysis.AnalysisResult `msgpack:"result"`
	CachedAt time.Time                `msgpack:"cached_at"`
}

// Library stores tracks, sets and cached analyses on top of a Store
type Library struct {
	store  Store
	logger logging.Logger
	now    func() time.Time
}

// New wraps store. The caller keeps ownership of store and closes it.
func New(store Store, logger logging.Logger) *Library {
	return &Library{
		store:  store,
		logger: logging.OrNoOp(logger).WithFields(logging.Fields{"component": "library"}),
		now:    time.Now,
	}
}

// PutTrack validates and stores a track, assigning an id and creation time when missing
func (l *Library) PutTrack(ctx context.Context, t *TrackRecord) error {
	if err := l.prepare(t); err != nil {
		return err
	}

	data, err := msgpack.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode track %s: %w", t.TrackID, err)
	}
	if err := l.store.Set(ctx, Key{trackPrefix, t.TrackID}, data); err != nil {
		return fmt.Errorf("failed to store track %s: %w", t.TrackID, err)
	}
	return nil
}

// ImportTracks stores many tracks in one batch
func (l *Library) ImportTracks(ctx context.Context, tracks []*TrackRecord) error {
	entries := make([]Entry, 0, len(tracks))
	for _, t := range tracks {
		if err := l.prepare(t); err != nil {
			return fmt.Errorf("track %q: %w", t.Title, err)
		}
		data, err := msgpack.Marshal(t)
		if err != nil {
			return fmt.Errorf("failed to encode track %s: %w", t.TrackID, err)
		}
		entries = append(entries, Entry{Key: Key{trackPrefix, t.TrackID}, Value: data})
	}

	if err := l.store.BatchSet(ctx, entries); err != nil {
		return fmt.Errorf("failed to import tracks: %w", err)
	}

	l.logger.Info("Imported tracks", logging.Fields{"count": len(entries)})
	return nil
}

func (l *Library) prepare(t *TrackRecord) error {
	if t.TrackID == "" {
		t.TrackID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = l.now()
	}
	if t.Source == "" {
		t.Source = "local"
	}
	if t.CamelotCode == camelot.UnknownCode && t.Key != "" {
		t.CamelotCode = camelot.KeyToCode(t.Key)
	}
	return t.Validate()
}

// GetTrack returns ErrNotFound for an unknown id
func (l *Library) GetTrack(ctx context.Context, id string) (*TrackRecord, error) {
	data, err := l.store.Get(ctx, Key{trackPrefix, id})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("track %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read track %s: %w", id, err)
	}

	var t TrackRecord
	if err := msgpack.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to decode track %s: %w", id, err)
	}
	return &t, nil
}

// DeleteTrack removes a track; an unknown id is ErrNotFound
func (l *Library) DeleteTrack(ctx context.Context, id string) error {
	if _, err := l.GetTrack(ctx, id); err != nil {
		return err
	}
	return l.store.Delete(ctx, Key{trackPrefix, id})
}

// ListTracks returns every track in id order
func (l *Library) ListTracks(ctx context.Context) ([]*TrackRecord, error) {
	return l.SearchTracks(ctx, SearchFilter{Limit: -1})
}

// SearchTracks returns the tracks matching f in id order. A negative limit returns all matches.
func (l *Library) SearchTracks(ctx context.Context, f SearchFilter) ([]*TrackRecord, error) {
	limit := f.Limit
	if limit == 0 {
		limit = DefaultSearchLimit
	}

	tracks := []*TrackRecord{}
	skipped := 0
	for entry, err := range l.store.List(ctx, Key{trackPrefix}) {
		if err != nil {
			return nil, fmt.Errorf("failed to list tracks: %w", err)
		}

		var t TrackRecord
		if err := msgpack.Unmarshal(entry.Value, &t); err != nil {
			l.logger.Warn("Skipping undecodable track", logging.Fields{"key": entry.Key.String(), "error": err.Error()})
			continue
		}
		if !f.Matches(&t) {
			continue
		}
		if skipped < f.Offset {
			skipped++
			continue
		}

		tracks = append(tracks, &t)
		if limit > 0 && len(tracks) >= limit {
			break
		}
	}
	return tracks, nil
}

// UpdateTrack applies u to the stored track and returns the new record
func (l *Library) UpdateTrack(ctx context.Context, id string, u TrackUpdate) (*TrackRecord, error) {
	t, err := l.GetTrack(ctx, id)
	if err != nil {
		return nil, err
	}

	u.Apply(t)
	if err := l.PutTrack(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// ApplyAnalysis writes the analyzed descriptors onto a stored track.
// The duration is only filled in when the track has none and the
// length of the whole source is known.
func (l *Library) ApplyAnalysis(ctx context.Context, id string, result *analysis.AnalysisResult) (*TrackRecord, error) {
	t, err := l.GetTrack(ctx, id)
	if err != nil {
		return nil, err
	}

	ApplyResult(t, result, l.now())
	if err := l.PutTrack(ctx, t); err != nil {
		return nil, err
	}

	l.logger.Debug("Stored analysis", logging.Fields{"track_id": id, "bpm": t.BPM, "camelot": t.CamelotCode})
	return t, nil
}

// ApplyResult copies analyzed descriptors onto t
func ApplyResult(t *TrackRecord, result *analysis.AnalysisResult, at time.Time) {
	s := result.Summary()
	t.BPM = s.BPM
	t.BPMConfidence = s.BPMConfidence
	t.Key = s.Key
	t.CamelotCode = s.Camelot
	t.IsMinor = s.IsMinor
	t.KeyConfidence = s.KeyConfidence
	t.EnergyLevel = s.Energy
	if t.DurationMs == 0 && s.TrackDurationSeconds > 0 {
		t.DurationMs = int64(math.Round(s.TrackDurationSeconds * 1000))
	}
	t.AnalyzedAt = &at
}

// PutSet validates and stores a set
func (l *Library) PutSet(ctx context.Context, s *mixing.Set) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if err := s.Validate(); err != nil {
		return err
	}

	data, err := msgpack.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode set %s: %w", s.ID, err)
	}
	if err := l.store.Set(ctx, Key{setPrefix, s.ID}, data); err != nil {
		return fmt.Errorf("failed to store set %s: %w", s.ID, err)
	}
	return nil
}

// GetSet returns ErrNotFound for an unknown id
func (l *Library) GetSet(ctx context.Context, id string) (*mixing.Set, error) {
	data, err := l.store.Get(ctx, Key{setPrefix, id})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("set %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read set %s: %w", id, err)
	}

	var s mixing.Set
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode set %s: %w", id, err)
	}
	return &s, nil
}

// ListSets returns every set in id order
func (l *Library) ListSets(ctx context.Context) ([]*mixing.Set, error) {
	sets := []*mixing.Set{}
	for entry, err := range l.store.List(ctx, Key{setPrefix}) {
		if err != nil {
			return nil, fmt.Errorf("failed to list sets: %w", err)
		}

		var s mixing.Set
		if err := msgpack.Unmarshal(entry.Value, &s); err != nil {
			l.logger.Warn("Skipping undecodable set", logging.Fields{"key": entry.Key.String(), "error": err.Error()})
			continue
		}
		sets = append(sets, &s)
	}
	return sets, nil
}

// DeleteSet removes a set; an unknown id is ErrNotFound. The set's tracks stay in the library.
func (l *Library) DeleteSet(ctx context.Context, id string) error {
	if _, err := l.GetSet(ctx, id); err != nil {
		return err
	}
	return l.store.Delete(ctx, Key{setPrefix, id})
}

// Stats summarizes the library
type Stats struct {
	TotalTracks    int             `json:"total_tracks" yaml:"total_tracks"`
	AnalyzedTracks int             `json:"analyzed_tracks" yaml:"analyzed_tracks"`
	TotalSets      int             `json:"total_sets" yaml:"total_sets"`
	BPMRange       []float64       `json:"bpm_range" yaml:"bpm_range"`   // nil when no track has a tempo
	AvgEnergy      *float64        `json:"avg_energy" yaml:"avg_energy"` // nil when no track has an energy level
	Camelot        mixing.Coverage `json:"camelot" yaml:"camelot"`
}

// Stats counts tracks and sets and reports the tempo range, mean energy and key coverage
func (l *Library) Stats(ctx context.Context) (*Stats, error) {
	tracks, err := l.ListTracks(ctx)
	if err != nil {
		return nil, err
	}
	sets, err := l.ListSets(ctx)
	if err != nil {
		return nil, err
	}

	st := &Stats{
		TotalTracks: len(tracks),
		TotalSets:   len(sets),
		Camelot:     mixing.CamelotCoverage(tracks),
	}

	var bpms []float64
	energySum, energyCount := 0, 0
	for _, t := range tracks {
		if t.AnalyzedAt != nil {
			st.AnalyzedTracks++
		}
		if t.BPM > 0 {
			bpms = append(bpms, t.BPM)
		}
		if t.EnergyLevel > 0 {
			energySum += t.EnergyLevel
			energyCount++
		}
	}
	if len(bpms) > 0 {
		st.BPMRange = []float64{slices.Min(bpms), slices.Max(bpms)}
	}
	if energyCount > 0 {
		avg := math.Round(float64(energySum)/float64(energyCount)*10) / 10
		st.AvgEnergy = &avg
	}
	return st, nil
}

// SetTracks resolves the tracks of a set in play order.
// Tracks deleted from the library since they were added are skipped.
func (l *Library) SetTracks(ctx context.Context, s *mixing.Set) ([]*TrackRecord, error) {
	tracks := make([]*TrackRecord, 0, s.Len())
	for _, id := range s.TrackIDs() {
		t, err := l.GetTrack(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, nil
}

// ContentHash is the cache key of a file's bytes
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// CachedAnalysis returns the result cached for these bytes under profile, if any
func (l *Library) CachedAnalysis(ctx context.Context, data []byte, profile string) (*analysis.AnalysisResult, bool, error) {
	hash := ContentHash(data)
	raw, err := l.store.Get(ctx, Key{analysisPrefix, profile, hash})
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached analysis: %w", err)
	}

	var cached CachedAnalysis
	if err := msgpack.Unmarshal(raw, &cached); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached analysis %s: %w", hash, err)
	}
	return cached.Result, true, nil
}

// CacheAnalysis stores result under the hash of data and profile
func (l *Library) CacheAnalysis(ctx context.Context, data []byte, profile string, result *analysis.AnalysisResult) error {
	cached := CachedAnalysis{Hash: ContentHash(data), Profile: profile, Result: result, CachedAt: l.now()}
	raw, err := msgpack.Marshal(&cached)
	if err != nil {
		return fmt.Errorf("failed to encode analysis: %w", err)
	}
	return l.store.Set(ctx, Key{analysisPrefix, profile, cached.Hash}, raw)
}

// Analyze serves data from the cache when the same bytes were analyzed under
// the same settings, and otherwise runs it on async, waiting under ctx
func (l *Library) Analyze(ctx context.Context, async *analysis.Async, data []byte, ext string) (*analysis.AnalysisResult, error) {
	logger := l.logger.WithContext(ctx)
	profile := async.Analyzer().Config().Fingerprint()

	if result, ok, err := l.CachedAnalysis(ctx, data, profile); err != nil {
		logger.Warn("Analysis cache unavailable", logging.Fields{"error": err.Error()})
	} else if ok {
		logger.Debug("Analysis cache hit", logging.Fields{"profile": profile})
		return result, nil
	}

	result, err := async.AnalyzeBytesAsync(ctx, data, ext)
	if err != nil {
		return nil, err
	}
	if err := l.CacheAnalysis(ctx, data, profile, result); err != nil {
		logger.Warn("Failed to cache analysis", logging.Fields{"error": err.Error()})
	}
	return result, nil
}
