package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-judging/internal/competition"
	"github.com/mind-engage/mindengage-judging/internal/scoring"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return false
	}
	return true
}

type issue struct {
	Section string `json:"section"`
	Reason  string `json:"reason"`
}

type errorBody struct {
	Error  string  `json:"error"`
	Issues []issue `json:"issues,omitempty"`
}

// errorWriter maps service errors onto status codes.
type errorWriter struct {
	log *zap.Logger
}

func (e errorWriter) write(w http.ResponseWriter, r *http.Request, err error) {
	var ve *competition.ValidationError
	switch {
	case errors.As(err, &ve):
		body := errorBody{Error: "validation failed"}
		for _, is := range scoring.Issues(ve.Err) {
			body.Issues = append(body.Issues, issue{Section: is.Section, Reason: is.Err.Error()})
		}
		writeJSON(w, http.StatusUnprocessableEntity, body)
	case errors.Is(err, competition.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, competition.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorBody{Error: err.Error()})
	case errors.Is(err, competition.ErrDuplicateEvaluation),
		errors.Is(err, competition.ErrConflict),
		errors.Is(err, competition.ErrNoRubric):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, competition.ErrInvalid):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	default:
		e.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}
