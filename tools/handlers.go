package tools

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/RyanBlaney/sonido-deck/analysis"
	"github.com/RyanBlaney/sonido-deck/camelot"
	"github.com/RyanBlaney/sonido-deck/library"
	"github.com/RyanBlaney/sonido-deck/mixing"
	"github.com/RyanBlaney/sonido-deck/transcode"
)

const (
	defaultBPMTolerance    = 5.0
	defaultCompatibleLimit = 10
	defaultSuggestionLimit = 5
)

type handlers struct {
	lib   *library.Library
	async *analysis.Async
}

type searchTracksArgs struct {
	Query     string   `json:"query,omitempty" jsonschema:"search query for title or artist"`
	BPMMin    *float64 `json:"bpm_min,omitempty" jsonschema:"minimum BPM"`
	BPMMax    *float64 `json:"bpm_max,omitempty" jsonschema:"maximum BPM"`
	Key       string   `json:"key,omitempty" jsonschema:"musical key, e.g. Am, C, F#m"`
	Camelot   string   `json:"camelot,omitempty" jsonschema:"Camelot notation, e.g. 8A, 5B"`
	EnergyMin *int     `json:"energy_min,omitempty" jsonschema:"minimum energy (1-10)"`
	EnergyMax *int     `json:"energy_max,omitempty" jsonschema:"maximum energy (1-10)"`
	Limit     int      `json:"limit,omitempty" jsonschema:"maximum results (default 20)"`
}

type trackIDArgs struct {
	TrackID string `json:"track_id" jsonschema:"track id"`
}

type compatibleArgs struct {
	TrackID      string   `json:"track_id" jsonschema:"source track id"`
	BPMTolerance *float64 `json:"bpm_tolerance,omitempty" jsonschema:"BPM tolerance percentage (default 5)"`
	Limit        int      `json:"limit,omitempty" jsonschema:"maximum results (default 10)"`
}

type analyzeArgs struct {
	FilePath string `json:"file_path" jsonschema:"path to the audio file"`
}

type createSetArgs struct {
	Name        string `json:"name" jsonschema:"set name"`
	Description string `json:"description,omitempty" jsonschema:"set description"`
}

type addTrackArgs struct {
	SetID    string `json:"set_id" jsonschema:"set id"`
	TrackID  string `json:"track_id" jsonschema:"track id"`
	Position int    `json:"position,omitempty" jsonschema:"position in the set; appends when omitted"`
}

type setIDArgs struct {
	SetID string `json:"set_id" jsonschema:"set id"`
}

type suggestArgs struct {
	SetID           string `json:"set_id" jsonschema:"set id"`
	EnergyDirection string `json:"energy_direction,omitempty" jsonschema:"desired energy direction"`
	Limit           int    `json:"limit,omitempty" jsonschema:"number of suggestions (default 5)"`
}

type buildChainArgs struct {
	TrackIDs []string `json:"track_ids,omitempty" jsonschema:"tracks to order; the whole library when omitted"`
	StartKey string   `json:"start_key,omitempty" jsonschema:"Camelot code to start from"`
	Strategy string   `json:"strategy,omitempty" jsonschema:"progressive, plateau or journey (default journey)"`
}

type emptyArgs struct{}

// trackView is the compact track shape tools return
type trackView struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Artists    []string `json:"artists"`
	Album      string   `json:"album,omitempty"`
	BPM        float64  `json:"bpm"`
	Key        string   `json:"key"`
	Camelot    string   `json:"camelot"`
	Energy     int      `json:"energy"`
	DurationMs int64    `json:"duration_ms"`
	Source     string   `json:"source"`
	Analyzed   bool     `json:"analyzed"`
	Position   int      `json:"position,omitempty"`
}

func viewOf(t *library.TrackRecord) trackView {
	return trackView{
		ID:         t.TrackID,
		Title:      t.Title,
		Artists:    t.Artists,
		Album:      t.Album,
		BPM:        t.BPM,
		Key:        t.Key,
		Camelot:    t.CamelotCode,
		Energy:     t.EnergyLevel,
		DurationMs: t.DurationMs,
		Source:     t.Source,
		Analyzed:   t.AnalyzedAt != nil,
	}
}

func viewsOf(tracks []*library.TrackRecord) []trackView {
	views := make([]trackView, len(tracks))
	for i, t := range tracks {
		views[i] = viewOf(t)
	}
	return views
}

func (r *Registry) registerAll() error {
	h := r.handlers

	suggestSchema, err := jsonschema.For[suggestArgs](nil)
	if err != nil {
		return err
	}
	if p, ok := suggestSchema.Properties["energy_direction"]; ok {
		p.Enum = []any{"up", "down", "maintain"}
	}
	chainSchema, err := jsonschema.For[buildChainArgs](nil)
	if err != nil {
		return err
	}
	if p, ok := chainSchema.Properties["strategy"]; ok {
		p.Enum = []any{"progressive", "plateau", "journey"}
	}

	for _, reg := range []func() error{
		func() error {
			return r.add(newTool("search_tracks",
				"Search tracks in the library by title, artist, BPM range, key, Camelot code or energy level", h.searchTracks))
		},
		func() error {
			return r.add(newTool("get_track", "Get detailed information about a track by id", h.getTrack))
		},
		func() error {
			return r.add(newTool("find_compatible_tracks",
				"Find tracks that mix harmonically with a track (Camelot wheel and BPM window)", h.findCompatible))
		},
		func() error {
			return r.add(newTool("analyze_track", "Detect BPM, key and energy of an audio file", h.analyzeTrack))
		},
		func() error {
			return r.add(newTool("create_set", "Create a new DJ set", h.createSet))
		},
		func() error {
			return r.add(newTool("add_track_to_set", "Add a track to a DJ set", h.addTrackToSet))
		},
		func() error {
			return r.add(newTool("get_set", "Get a DJ set with its tracks in order", h.getSet))
		},
		func() error {
			return r.add(buildTool("suggest_next_track",
				"Suggest the next track for a set from the last track's key and energy", suggestSchema, h.suggestNext))
		},
		func() error {
			return r.add(buildTool("build_chain",
				"Order tracks into a harmonic chain", chainSchema, h.buildChain))
		},
		func() error {
			return r.add(newTool("library_stats", "Summarize the tracks and sets in the library", h.libraryStats))
		},
	} {
		if err := reg(); err != nil {
			return err
		}
	}
	return nil
}

func (h *handlers) searchTracks(ctx context.Context, a searchTracksArgs) (any, error) {
	tracks, err := h.lib.SearchTracks(ctx, library.SearchFilter{
		Query:     a.Query,
		BPMMin:    a.BPMMin,
		BPMMax:    a.BPMMax,
		Key:       a.Key,
		Camelot:   a.Camelot,
		EnergyMin: a.EnergyMin,
		EnergyMax: a.EnergyMax,
		Limit:     a.Limit,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"count": len(tracks), "tracks": viewsOf(tracks)}, nil
}

func (h *handlers) getTrack(ctx context.Context, a trackIDArgs) (any, error) {
	return h.lib.GetTrack(ctx, a.TrackID)
}

func (h *handlers) findCompatible(ctx context.Context, a compatibleArgs) (any, error) {
	source, err := h.lib.GetTrack(ctx, a.TrackID)
	if err != nil {
		return nil, err
	}
	tolerance := defaultBPMTolerance
	if a.BPMTolerance != nil {
		tolerance = *a.BPMTolerance
	}
	limit := a.Limit
	if limit <= 0 {
		limit = defaultCompatibleLimit
	}

	all, err := h.lib.ListTracks(ctx)
	if err != nil {
		return nil, err
	}

	res := mixing.FindCompatible(source, all, tolerance, limit)
	matches := make([]*library.TrackRecord, len(res.Matches))
	for i, m := range res.Matches {
		matches[i] = m.Track
	}

	return map[string]any{
		"source_track":       viewOf(source),
		"compatible_camelot": res.CompatibleCamelot,
		"bpm_range":          res.BPMRange,
		"tracks":             viewsOf(matches),
	}, nil
}

func (h *handlers) analyzeTrack(ctx context.Context, a analyzeArgs) (any, error) {
	data, err := os.ReadFile(a.FilePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("file not found: %s", a.FilePath)
	}
	if err != nil {
		return nil, err
	}
	ext := transcode.FormatFromPath(a.FilePath)
	if err := transcode.CheckFormat(ext); err != nil {
		return nil, err
	}

	result, err := h.lib.Analyze(ctx, h.async, data, ext)
	if err != nil {
		return nil, err
	}

	return struct {
		File string `json:"file"`
		analysis.Summary
	}{File: a.FilePath, Summary: result.Summary()}, nil
}

func (h *handlers) createSet(ctx context.Context, a createSetArgs) (any, error) {
	s := mixing.NewSet(a.Name)
	s.Description = a.Description
	if err := h.lib.PutSet(ctx, s); err != nil {
		return nil, err
	}
	return map[string]any{"id": s.ID, "name": s.Name, "description": s.Description}, nil
}

func (h *handlers) addTrackToSet(ctx context.Context, a addTrackArgs) (any, error) {
	s, err := h.lib.GetSet(ctx, a.SetID)
	if err != nil {
		return nil, err
	}
	t, err := h.lib.GetTrack(ctx, a.TrackID)
	if err != nil {
		return nil, err
	}

	position := a.Position
	if position <= 0 {
		position = s.Len() + 1
	}
	st, err := s.InsertTrack(position, t.TrackID, mixing.TransitionMix)
	if err != nil {
		return nil, err
	}
	if err := h.lib.PutSet(ctx, s); err != nil {
		return nil, err
	}

	return map[string]any{
		"set_id":   s.ID,
		"track_id": t.TrackID,
		"position": st.Position,
		"track":    viewOf(t),
	}, nil
}

func (h *handlers) getSet(ctx context.Context, a setIDArgs) (any, error) {
	s, err := h.lib.GetSet(ctx, a.SetID)
	if err != nil {
		return nil, err
	}

	views := []trackView{}
	for _, st := range s.Tracks {
		t, err := h.lib.GetTrack(ctx, st.TrackID)
		if errors.Is(err, library.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		v := viewOf(t)
		v.Position = st.Position
		views = append(views, v)
	}

	return map[string]any{
		"id":          s.ID,
		"name":        s.Name,
		"description": s.Description,
		"track_count": len(views),
		"tracks":      views,
	}, nil
}

func (h *handlers) suggestNext(ctx context.Context, a suggestArgs) (any, error) {
	direction, err := mixing.ParseEnergyDirection(a.EnergyDirection)
	if err != nil {
		return nil, err
	}
	limit := a.Limit
	if limit <= 0 {
		limit = defaultSuggestionLimit
	}

	s, err := h.lib.GetSet(ctx, a.SetID)
	if err != nil {
		return nil, err
	}
	lastSlot, ok := s.Last()
	if !ok {
		return nil, errors.New("set is empty")
	}
	last, err := h.lib.GetTrack(ctx, lastSlot.TrackID)
	if err != nil {
		return nil, err
	}

	all, err := h.lib.ListTracks(ctx)
	if err != nil {
		return nil, err
	}

	sug := mixing.SuggestNext(last, all, s.TrackIDs(), direction, limit)
	picks := make([]*library.TrackRecord, len(sug.Matches))
	for i, m := range sug.Matches {
		picks[i] = m.Track
	}

	return map[string]any{
		"last_track":         viewOf(last),
		"energy_direction":   direction,
		"compatible_camelot": compatibleOf(last),
		"suggestions":        viewsOf(picks),
	}, nil
}

func (h *handlers) buildChain(ctx context.Context, a buildChainArgs) (any, error) {
	strategy := mixing.StrategyJourney
	if a.Strategy != "" {
		var err error
		if strategy, err = mixing.ParseStrategy(a.Strategy); err != nil {
			return nil, err
		}
	}

	var tracks []*library.TrackRecord
	if len(a.TrackIDs) == 0 {
		all, err := h.lib.ListTracks(ctx)
		if err != nil {
			return nil, err
		}
		tracks = all
	} else {
		for _, id := range a.TrackIDs {
			t, err := h.lib.GetTrack(ctx, id)
			if err != nil {
				return nil, err
			}
			tracks = append(tracks, t)
		}
	}

	chain := mixing.BuildChain(tracks, mixing.ChainOptions{StartKey: a.StartKey, Strategy: strategy})
	return map[string]any{
		"strategy":    strategy,
		"tracks":      viewsOf(chain),
		"transitions": mixing.Guide(chain),
	}, nil
}

func (h *handlers) libraryStats(ctx context.Context, _ emptyArgs) (any, error) {
	return h.lib.Stats(ctx)
}

func compatibleOf(t *library.TrackRecord) []string {
	return camelot.CompatibleCodes(t.CamelotCode)
}
