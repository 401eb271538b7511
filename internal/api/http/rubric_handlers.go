package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-judging/internal/competition"
	"github.com/mind-engage/mindengage-judging/internal/scoring"
)

type rubricResponse struct {
	scoring.Rubric
	TotalWeight int `json:"total_weight"`
}

func rubricBody(r scoring.Rubric) rubricResponse {
	return rubricResponse{Rubric: r, TotalWeight: r.TotalWeight()}
}

func GetRubricHandler(svc *competition.Service, errs errorWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rb, err := svc.Rubric(r.Context())
		if err != nil {
			errs.write(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rubricBody(rb))
	}
}

// PUT /rubric replaces the whole ordered criteria list.
func PutRubricHandler(svc *competition.Service, errs errorWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in scoring.Rubric
		if !decode(w, r, &in) {
			return
		}
		rb, err := svc.PutRubric(r.Context(), in)
		if err != nil {
			errs.write(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rubricBody(rb))
	}
}

// POST /rubric/criteria/{criterionID}/weight  { "weight": 25 }
func ReweightHandler(svc *competition.Service, errs errorWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Weight *int `json:"weight"`
		}
		if !decode(w, r, &in) {
			return
		}
		if in.Weight == nil {
			http.Error(w, "weight required", http.StatusBadRequest)
			return
		}
		rb, err := svc.Reweight(r.Context(), chi.URLParam(r, "criterionID"), *in.Weight)
		if err != nil {
			errs.write(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rubricBody(rb))
	}
}
