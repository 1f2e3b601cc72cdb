package server

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"os"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/RyanBlaney/sonido-deck/analysis"
	"github.com/RyanBlaney/sonido-deck/library"
	"github.com/RyanBlaney/sonido-deck/transcode"
)

const multipartMemory = 32 << 20

type fileAnalysis struct {
	Filename string `json:"filename"`
	analysis.Summary
}

type trackAnalysis struct {
	TrackID  string               `json:"track_id"`
	Track    *library.TrackRecord `json:"track,omitempty"`
	Analysis *analysis.Summary    `json:"analysis,omitempty"`
	Error    string               `json:"error,omitempty"`
}

type batchRequest struct {
	TrackIDs []string `json:"track_ids"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "sonido-deck"})
}

func (s *Server) handleAnalyzeFile(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.config.MaxUploadBytes {
		s.writeError(w, r, badRequest("file exceeds %d bytes", s.config.MaxUploadBytes))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			s.writeError(w, r, badRequest("file exceeds %d bytes", s.config.MaxUploadBytes))
			return
		}
		s.writeError(w, r, badRequest("invalid multipart form: %v", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, badRequest("missing file field"))
		return
	}
	defer file.Close()

	ext := transcode.FormatFromPath(header.Filename)
	if err := transcode.CheckFormat(ext); err != nil {
		s.writeError(w, r, err)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.analyzeBytes(r.Context(), data, ext)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fileAnalysis{Filename: header.Filename, Summary: result.Summary()})
}

func (s *Server) handleAnalyzeTrack(w http.ResponseWriter, r *http.Request) {
	res, err := s.analyzeTrack(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleAnalyzeBatch analyzes up to MaxBatch library tracks concurrently.
// One failing track does not fail the others.
func (s *Server) handleAnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(req.TrackIDs) == 0 {
		s.writeError(w, r, badRequest("track_ids is required"))
		return
	}
	if len(req.TrackIDs) > s.config.MaxBatch {
		s.writeError(w, r, badRequest("at most %d tracks per batch", s.config.MaxBatch))
		return
	}

	results := make([]trackAnalysis, len(req.TrackIDs))
	var wg sync.WaitGroup
	for i, id := range req.TrackIDs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.analyzeTrack(r.Context(), id)
			if err != nil {
				results[i] = trackAnalysis{TrackID: id, Error: err.Error()}
				return
			}
			res.Track = nil
			results[i] = *res
		}()
	}
	wg.Wait()

	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// analyzeTrack analyzes the local file of a library track and stores the descriptors
func (s *Server) analyzeTrack(ctx context.Context, id string) (*trackAnalysis, error) {
	t, err := s.lib.GetTrack(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Path == "" {
		return nil, badRequest("track %s has no local file", id)
	}

	ext := transcode.FormatFromPath(t.Path)
	if err := transcode.CheckFormat(ext); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(t.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, badRequest("file not found: %s", t.Path)
	}
	if err != nil {
		return nil, err
	}

	result, err := s.analyzeBytes(ctx, data, ext)
	if err != nil {
		return nil, err
	}
	t, err = s.lib.ApplyAnalysis(ctx, id, result)
	if err != nil {
		return nil, err
	}

	summary := result.Summary()
	return &trackAnalysis{TrackID: id, Track: t, Analysis: &summary}, nil
}

// analyzeBytes serves repeated uploads from the cache and runs new ones off
// the request goroutine so a cancelled request stops waiting
func (s *Server) analyzeBytes(ctx context.Context, data []byte, ext string) (*analysis.AnalysisResult, error) {
	return s.lib.Analyze(ctx, s.async, data, ext)
}
