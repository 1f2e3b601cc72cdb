package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/RyanBlaney/sonido-deck/library"
	"github.com/RyanBlaney/sonido-deck/logging"
	"github.com/RyanBlaney/sonido-deck/mixing"
	"github.com/RyanBlaney/sonido-deck/transcode"
)

// errBadRequest marks request problems found by the handlers themselves
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

type errorBody struct {
	Detail string `json:"detail"`
}

// statusOf maps domain errors onto HTTP status codes
func statusOf(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, library.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &maxBytes),
		errors.Is(err, errBadRequest),
		errors.Is(err, transcode.ErrUnsupportedFormat),
		errors.Is(err, transcode.ErrEmptySignal),
		errors.Is(err, library.ErrInvalidTrack),
		errors.Is(err, mixing.ErrInvalidSet),
		errors.Is(err, mixing.ErrPositionOutOfRange),
		errors.Is(err, mixing.ErrUnknownStrategy),
		errors.Is(err, mixing.ErrUnknownDirection):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	detail := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.WithContext(r.Context()).Error(err, "Request failed", logging.Fields{"path": r.URL.Path})
	}
	// strip the internal marker from messages the handlers produced
	detail, _ = strings.CutPrefix(detail, errBadRequest.Error()+": ")
	writeJSON(w, status, errorBody{Detail: detail})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	return nil
}

func queryFloat(r *http.Request, name string) (*float64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, badRequest("invalid %s: %q", name, v)
	}
	return &f, nil
}

func queryInt(r *http.Request, name string) (*int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, badRequest("invalid %s: %q", name, v)
	}
	return &n, nil
}

func intOr(p *int, fallback int) int {
	if p == nil {
		return fallback
	}
	return *p
}
