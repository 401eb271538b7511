package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-judging/internal/competition"
)

func RankingsHandler(svc *competition.Service, errs errorWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roundID := chi.URLParam(r, "roundID")
		list, err := svc.Rankings(r.Context(), roundID)
		if err != nil {
			errs.write(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"round_id": roundID, "items": list})
	}
}

// POST /rounds/{roundID}/snapshot stores the rankings and returns where.
func SnapshotHandler(svc *competition.Service, errs errorWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, err := svc.ExportSnapshot(r.Context(), chi.URLParam(r, "roundID"))
		if err != nil {
			errs.write(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, ref)
	}
}
