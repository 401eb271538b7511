package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	auth "github.com/mind-engage/mindengage-judging/internal/auth/middleware"
	"github.com/mind-engage/mindengage-judging/internal/competition"
	"github.com/mind-engage/mindengage-judging/internal/rbac"
	"github.com/mind-engage/mindengage-judging/internal/scoring"
)

// POST /evaluations/preview  FormState -> scored result, nothing stored
func PreviewEvaluationHandler(svc *competition.Service, errs errorWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form scoring.FormState
		if !decode(w, r, &form) {
			return
		}
		res, err := svc.PreviewEvaluation(r.Context(), form)
		if err != nil {
			errs.write(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// POST /evaluations  { "schedule_id": "...", "sections": {...}, "overall_feedback": "...", ... }
func SubmitEvaluationHandler(svc *competition.Service, errs errorWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			ScheduleID string `json:"schedule_id"`
			scoring.FormState
		}
		if !decode(w, r, &in) {
			return
		}
		if in.ScheduleID == "" {
			http.Error(w, "schedule_id required", http.StatusBadRequest)
			return
		}
		e, err := svc.SubmitEvaluation(r.Context(), auth.SubjectFromContext(r.Context()), in.ScheduleID, in.FormState)
		if err != nil {
			errs.write(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, e)
	}
}

func UpdateEvaluationHandler(svc *competition.Service, errs errorWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form scoring.FormState
		if !decode(w, r, &form) {
			return
		}
		e, err := svc.UpdateEvaluation(r.Context(), auth.SubjectFromContext(r.Context()),
			chi.URLParam(r, "evaluationID"), form)
		if err != nil {
			errs.write(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

func GetEvaluationHandler(svc *competition.Service, errs errorWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := svc.GetEvaluation(r.Context(), chi.URLParam(r, "evaluationID"))
		if err != nil {
			errs.write(w, r, err)
			return
		}
		if !rbac.Can(r, rbac.PermEvaluationViewAll) && e.JudgeID != auth.SubjectFromContext(r.Context()) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

// GET /evaluations?round_id=&startup_id=&judge_id=
func ListEvaluationsHandler(svc *competition.Service, errs errorWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := competition.EvaluationFilter{RoundID: q.Get("round_id"), StartupID: q.Get("startup_id"), JudgeID: q.Get("judge_id")}
		if !rbac.Can(r, rbac.PermEvaluationViewAll) {
			f.JudgeID = auth.SubjectFromContext(r.Context())
		}
		list, err := svc.ListEvaluations(r.Context(), f)
		if err != nil {
			errs.write(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": list})
	}
}
