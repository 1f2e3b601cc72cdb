package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/RyanBlaney/sonido-deck/camelot"
	"github.com/RyanBlaney/sonido-deck/library"
	"github.com/RyanBlaney/sonido-deck/mixing"
)

const (
	defaultBPMTolerance    = 5.0
	defaultCompatibleLimit = 10
	defaultSuggestionLimit = 5
)

type createSetRequest struct {
	Name              string       `json:"name"`
	Description       string       `json:"description"`
	TargetDurationMin int          `json:"target_duration_min"`
	Style             mixing.Style `json:"style"`
	EnergyCurve       []int        `json:"energy_curve"`
}

// updateSetRequest changes only the fields present in the body
type updateSetRequest struct {
	Name              *string       `json:"name"`
	Description       *string       `json:"description"`
	TargetDurationMin *int          `json:"target_duration_min"`
	Style             *mixing.Style `json:"style"`
	EnergyCurve       []int         `json:"energy_curve"`
	Move              *moveRequest  `json:"move"`
}

type moveRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type addSetTrackRequest struct {
	TrackID        string                `json:"track_id"`
	Position       int                   `json:"position"` // appends when 0
	TransitionType mixing.TransitionType `json:"transition_type"`
	Notes          string                `json:"notes"`
}

type chainRequest struct {
	TrackIDs []string `json:"track_ids"`
	StartKey string   `json:"start_key"`
	Strategy string   `json:"strategy"`
}

type setView struct {
	*mixing.Set
	Resolved []*library.TrackRecord `json:"resolved_tracks"`
}

func (s *Server) handleSearchTracks(w http.ResponseWriter, r *http.Request) {
	f, err := searchFilter(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tracks, err := s.lib.SearchTracks(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(tracks), "tracks": tracks})
}

func searchFilter(r *http.Request) (library.SearchFilter, error) {
	q := r.URL.Query()
	f := library.SearchFilter{
		Query:   q.Get("q"),
		Key:     q.Get("key"),
		Camelot: q.Get("camelot"),
		Source:  q.Get("source"),
	}

	var err error
	if f.BPMMin, err = queryFloat(r, "bpm_min"); err != nil {
		return f, err
	}
	if f.BPMMax, err = queryFloat(r, "bpm_max"); err != nil {
		return f, err
	}
	if f.EnergyMin, err = queryInt(r, "energy_min"); err != nil {
		return f, err
	}
	if f.EnergyMax, err = queryInt(r, "energy_max"); err != nil {
		return f, err
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		return f, err
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		return f, err
	}
	f.Offset = intOr(offset, 0)
	f.Limit = intOr(limit, 0)
	if f.Offset < 0 || f.Limit < 0 {
		return f, badRequest("offset and limit must not be negative")
	}
	return f, nil
}

func (s *Server) handleCreateTrack(w http.ResponseWriter, r *http.Request) {
	var t library.TrackRecord
	if err := decodeJSON(r, &t); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.lib.PutTrack(r.Context(), &t); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, &t)
}

func (s *Server) handleGetTrack(w http.ResponseWriter, r *http.Request) {
	t, err := s.lib.GetTrack(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleUpdateTrack(w http.ResponseWriter, r *http.Request) {
	var u library.TrackUpdate
	if err := decodeJSON(r, &u); err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.lib.UpdateTrack(r.Context(), chi.URLParam(r, "id"), u)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTrack(w http.ResponseWriter, r *http.Request) {
	if err := s.lib.DeleteTrack(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCompatible(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tolerance, err := queryFloat(r, "bpm_tolerance")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	source, err := s.lib.GetTrack(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	all, err := s.lib.ListTracks(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	tol := defaultBPMTolerance
	if tolerance != nil {
		tol = *tolerance
	}
	n := intOr(limit, defaultCompatibleLimit)
	if n <= 0 {
		n = defaultCompatibleLimit
	}

	writeJSON(w, http.StatusOK, mixing.FindCompatible(source, all, tol, n))
}

func (s *Server) handleCreateSet(w http.ResponseWriter, r *http.Request) {
	var req createSetRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	set := mixing.NewSet(req.Name)
	set.Description = req.Description
	set.Style = req.Style
	if req.TargetDurationMin != 0 {
		set.TargetDurationMin = req.TargetDurationMin
	}
	if req.EnergyCurve != nil {
		set.EnergyCurve = req.EnergyCurve
	}

	if err := s.lib.PutSet(r.Context(), set); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, set)
}

func (s *Server) handleListSets(w http.ResponseWriter, r *http.Request) {
	sets, err := s.lib.ListSets(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(sets), "sets": sets})
}

func (s *Server) handleUpdateSet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateSetRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	set, err := s.lib.GetSet(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if req.Name != nil {
		set.Name = *req.Name
	}
	if req.Description != nil {
		set.Description = *req.Description
	}
	if req.TargetDurationMin != nil {
		set.TargetDurationMin = *req.TargetDurationMin
	}
	if req.Style != nil {
		set.Style = *req.Style
	}
	if req.EnergyCurve != nil {
		set.EnergyCurve = req.EnergyCurve
	}
	if req.Move != nil {
		if err := set.ReorderTrack(req.Move.From, req.Move.To); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	set.UpdatedAt = time.Now()

	if err := s.lib.PutSet(ctx, set); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func (s *Server) handleDeleteSet(w http.ResponseWriter, r *http.Request) {
	if err := s.lib.DeleteSet(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveSetTrack(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw := chi.URLParam(r, "position")
	position, err := strconv.Atoi(raw)
	if err != nil {
		s.writeError(w, r, badRequest("invalid position: %q", raw))
		return
	}
	set, err := s.lib.GetSet(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	removed, ok := set.RemoveTrack(position)
	if !ok {
		s.writeError(w, r, fmt.Errorf("set %s position %d: %w", set.ID, position, library.ErrNotFound))
		return
	}
	if err := s.lib.PutSet(ctx, set); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"set_id": set.ID, "removed": removed, "track_count": set.Len()})
}

func (s *Server) handleLibraryStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.lib.Stats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleGetSet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	set, err := s.lib.GetSet(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tracks, err := s.lib.SetTracks(ctx, set)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, setView{Set: set, Resolved: tracks})
}

func (s *Server) handleAddSetTrack(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req addSetTrackRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.TrackID == "" {
		s.writeError(w, r, badRequest("track_id is required"))
		return
	}

	set, err := s.lib.GetSet(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := s.lib.GetTrack(ctx, req.TrackID); err != nil {
		s.writeError(w, r, err)
		return
	}

	position := req.Position
	if position == 0 {
		position = set.Len() + 1
	}
	slot, err := set.InsertTrack(position, req.TrackID, req.TransitionType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Notes != "" {
		set.Tracks[slot.Position-1].Notes = req.Notes
		slot.Notes = req.Notes
	}
	if err := s.lib.PutSet(ctx, set); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"set_id": set.ID, "slot": slot, "track_count": set.Len()})
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	direction, err := mixing.ParseEnergyDirection(r.URL.Query().Get("energy_direction"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	n := intOr(limit, defaultSuggestionLimit)
	if n <= 0 {
		n = defaultSuggestionLimit
	}

	set, err := s.lib.GetSet(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	lastSlot, ok := set.Last()
	if !ok {
		s.writeError(w, r, badRequest("set is empty"))
		return
	}
	last, err := s.lib.GetTrack(ctx, lastSlot.TrackID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	all, err := s.lib.ListTracks(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	sug := mixing.SuggestNext(last, all, set.TrackIDs(), direction, n)
	writeJSON(w, http.StatusOK, map[string]any{
		"last_track":         sug.Last,
		"energy_direction":   sug.Direction,
		"compatible_camelot": camelot.CompatibleCodes(last.CamelotCode),
		"suggestions":        sug.Matches,
	})
}

func (s *Server) handleChain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req chainRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	strategy := mixing.StrategyJourney
	if req.Strategy != "" {
		var err error
		if strategy, err = mixing.ParseStrategy(req.Strategy); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	if req.StartKey != "" {
		if _, err := camelot.ParseCode(req.StartKey); err != nil {
			s.writeError(w, r, badRequest("invalid start_key: %q", req.StartKey))
			return
		}
	}

	var tracks []*library.TrackRecord
	if len(req.TrackIDs) == 0 {
		all, err := s.lib.ListTracks(ctx)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		tracks = all
	} else {
		for _, id := range req.TrackIDs {
			t, err := s.lib.GetTrack(ctx, id)
			if err != nil {
				s.writeError(w, r, err)
				return
			}
			tracks = append(tracks, t)
		}
	}

	chain := mixing.BuildChain(tracks, mixing.ChainOptions{StartKey: req.StartKey, Strategy: strategy})
	writeJSON(w, http.StatusOK, map[string]any{
		"strategy":    strategy,
		"tracks":      chain,
		"transitions": mixing.Guide(chain),
	})
}
