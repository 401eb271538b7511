package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	auth "github.com/mind-engage/mindengage-judging/internal/auth/middleware"
	"github.com/mind-engage/mindengage-judging/internal/competition"
	"github.com/mind-engage/mindengage-judging/internal/config"
	"github.com/mind-engage/mindengage-judging/internal/logging"
	"github.com/mind-engage/mindengage-judging/internal/ratelimit"
	"github.com/mind-engage/mindengage-judging/internal/rbac"
)

type Deps struct {
	Config  config.Config
	Service *competition.Service
	Auth    *auth.AuthService
	Log     *zap.Logger
}

func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	svc := d.Service
	limiter := ratelimit.PerMinute(d.Config.RateLimitPerMin)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, logging.Requests(d.Log), middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Config.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if d.Config.EnableLocalAuth {
		r.With(limiter.Middleware(ratelimit.ClientIP)).
			Post("/auth/login", LoginHandler(svc, d.Auth, d.Config))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", ReadyHandler(svc))

	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth))
		pr.Use(auth.AttachRoleFromStore(judgeLookup(svc)))
		writes := limiter.Middleware(subjectOrIP)
		errs := errorWriter{log: d.Log}

		pr.With(rbac.Require(rbac.PermRubricView)).Get("/rubric", GetRubricHandler(svc, errs))
		pr.With(rbac.Require(rbac.PermRubricEdit)).Put("/rubric", PutRubricHandler(svc, errs))
		pr.With(rbac.Require(rbac.PermRubricEdit)).
			Post("/rubric/criteria/{criterionID}/weight", ReweightHandler(svc, errs))

		pr.With(rbac.Require(rbac.PermStartupManage)).Post("/startups", CreateStartupHandler(svc, errs))
		pr.With(rbac.Require(rbac.PermStartupView)).Get("/startups", ListStartupsHandler(svc, errs))
		pr.With(rbac.Require(rbac.PermStartupView)).Get("/startups/{startupID}", GetStartupHandler(svc, errs))

		pr.With(rbac.Require(rbac.PermJudgeManage)).Post("/judges", CreateJudgeHandler(svc, errs))
		pr.With(rbac.Require(rbac.PermJudgeManage)).Get("/judges", ListJudgesHandler(svc, errs))

		pr.With(rbac.Require(rbac.PermRoundManage)).Post("/rounds", CreateRoundHandler(svc, errs))
		pr.With(rbac.Require(rbac.PermRoundView)).Get("/rounds", ListRoundsHandler(svc, errs))
		pr.With(rbac.Require(rbac.PermRankingsView)).Get("/rounds/{roundID}/rankings", RankingsHandler(svc, errs))
		pr.With(rbac.Require(rbac.PermResultsExport)).Post("/rounds/{roundID}/snapshot", SnapshotHandler(svc, errs))

		pr.With(rbac.Require(rbac.PermScheduleManage)).Post("/schedules", CreateScheduleHandler(svc, errs))
		pr.With(rbac.RequireAny(rbac.PermScheduleViewOwn, rbac.PermScheduleViewAll)).
			Get("/schedules", ListSchedulesHandler(svc, errs))

		pr.With(rbac.Require(rbac.PermEvaluationSubmit)).
			Post("/evaluations/preview", PreviewEvaluationHandler(svc, errs))
		pr.With(rbac.Require(rbac.PermEvaluationSubmit), writes).
			Post("/evaluations", SubmitEvaluationHandler(svc, errs))
		pr.With(rbac.Require(rbac.PermEvaluationSubmit), writes).
			Put("/evaluations/{evaluationID}", UpdateEvaluationHandler(svc, errs))
		pr.With(rbac.RequireAny(rbac.PermEvaluationViewOwn, rbac.PermEvaluationViewAll)).
			Get("/evaluations", ListEvaluationsHandler(svc, errs))
		pr.With(rbac.RequireAny(rbac.PermEvaluationViewOwn, rbac.PermEvaluationViewAll)).
			Get("/evaluations/{evaluationID}", GetEvaluationHandler(svc, errs))
	})

	return r
}

func ReadyHandler(svc *competition.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := svc.Ping(ctx); err != nil {
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func judgeLookup(svc *competition.Service) auth.SubjectLookup {
	return func(ctx context.Context, sub string) (string, error) {
		_, err := svc.GetJudge(ctx, sub)
		if errors.Is(err, competition.ErrNotFound) {
			return "", auth.ErrUnknownSubject
		}
		if err != nil {
			return "", err
		}
		return rbac.RoleJudge, nil
	}
}

func subjectOrIP(r *http.Request) string {
	if sub := auth.SubjectFromContext(r.Context()); sub != "" {
		return "sub:" + sub
	}
	return "ip:" + ratelimit.ClientIP(r)
}
