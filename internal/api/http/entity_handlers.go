package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	auth "github.com/mind-engage/mindengage-judging/internal/auth/middleware"
	"github.com/mind-engage/mindengage-judging/internal/competition"
	"github.com/mind-engage/mindengage-judging/internal/rbac"
)

func CreateStartupHandler(svc *competition.Service, errs errorWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in competition.Startup
		if !decode(w, r, &in) {
			return
		}
		s, err := svc.CreateStartup(r.Context(), in)
		if err != nil {
			errs.write(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, s)
	}
}

func ListStartupsHandler(svc *competition.Service, errs errorWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListStartups(r.Context())
		if err != nil {
			errs.write(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": list})
	}
}

func GetStartupHandler(svc *competition.Service, errs errorWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := svc.GetStartup(r.Context(), chi.URLParam(r, "startupID"))
		if err != nil {
			errs.write(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

func CreateJudgeHandler(svc *competition.Service, errs errorWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if !decode(w, r, &in) {
			return
		}
		j, err := svc.CreateJudge(r.Context(), in.Name, in.Email, in.Password)
		if err != nil {
			errs.write(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, j)
	}
}

func ListJudgesHandler(svc *competition.Service, errs errorWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListJudges(r.Context())
		if err != nil {
			errs.write(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": list})
	}
}

func CreateRoundHandler(svc *competition.Service, errs errorWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in competition.Round
		if !decode(w, r, &in) {
			return
		}
		rd, err := svc.CreateRound(r.Context(), in)
		if err != nil {
			errs.write(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, rd)
	}
}

func ListRoundsHandler(svc *competition.Service, errs errorWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListRounds(r.Context())
		if err != nil {
			errs.write(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": list})
	}
}

func CreateScheduleHandler(svc *competition.Service, errs errorWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			RoundID   string    `json:"round_id"`
			StartupID string    `json:"startup_id"`
			JudgeID   string    `json:"judge_id"`
			SlotStart time.Time `json:"slot_start"`
		}
		if !decode(w, r, &in) {
			return
		}
		s, err := svc.CreateSchedule(r.Context(), competition.Schedule{
			RoundID: in.RoundID, StartupID: in.StartupID, JudgeID: in.JudgeID, SlotStart: in.SlotStart,
		})
		if err != nil {
			errs.write(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, s)
	}
}

// GET /schedules?round_id=&startup_id=&judge_id=
// Judges only ever see their own schedule.
func ListSchedulesHandler(svc *competition.Service, errs errorWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := competition.ScheduleFilter{RoundID: q.Get("round_id"), StartupID: q.Get("startup_id"), JudgeID: q.Get("judge_id")}
		if !rbac.Can(r, rbac.PermScheduleViewAll) {
			f.JudgeID = auth.SubjectFromContext(r.Context())
		}
		list, err := svc.ListSchedules(r.Context(), f)
		if err != nil {
			errs.write(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": list})
	}
}
