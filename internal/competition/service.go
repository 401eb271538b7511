package competition

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/mindengage-judging/internal/notify"
	"github.com/mind-engage/mindengage-judging/internal/scoring"
	"github.com/mind-engage/mindengage-judging/internal/storage"
)

var (
	ErrInvalid            = errors.New("invalid input")
	ErrForbidden          = errors.New("forbidden")
	ErrNoRubric           = errors.New("rubric not configured")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError carries every scoring issue of a rejected rubric or form.
// Use scoring.Issues(err.Err) to list them.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return "validation failed: " + e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

type Service struct {
	store    Store
	blobs    storage.BlobStore
	notifier notify.Notifier
	log      *zap.Logger

	now   func() time.Time
	newID func() string
}

func NewService(store Store, blobs storage.BlobStore, n notify.Notifier, log *zap.Logger) *Service {
	if n == nil {
		n = notify.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:    store,
		blobs:    blobs,
		notifier: n,
		log:      log,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		newID:    uuid.NewString,
	}
}

func (s *Service) Ping(ctx context.Context) error { return s.store.Ping(ctx) }

// ---- rubric ----

func (s *Service) Rubric(ctx context.Context) (scoring.Rubric, error) {
	return s.store.GetRubric(ctx)
}

func (s *Service) PutRubric(ctx context.Context, r scoring.Rubric) (scoring.Rubric, error) {
	if err := scoring.ValidateRubric(r); err != nil {
		return scoring.Rubric{}, &ValidationError{Err: err}
	}
	if err := s.store.PutRubric(ctx, r); err != nil {
		return scoring.Rubric{}, err
	}
	s.log.Info("rubric replaced", zap.Int("criteria", len(r.Criteria)), zap.Int("total_weight", r.TotalWeight()))
	return r, nil
}

// Reweight sets one criterion's weight and rebalances the others so the
// rubric still sums to 100.
func (s *Service) Reweight(ctx context.Context, criterionID string, weight int) (scoring.Rubric, error) {
	r, err := s.store.GetRubric(ctx)
	if err != nil {
		return scoring.Rubric{}, err
	}
	i := r.Index(criterionID)
	if i < 0 {
		return scoring.Rubric{}, fmt.Errorf("criterion %q: %w", criterionID, ErrNotFound)
	}
	r.Criteria = scoring.Redistribute(r.Criteria, i, weight)
	if err := s.store.PutRubric(ctx, r); err != nil {
		return scoring.Rubric{}, err
	}
	s.log.Info("criterion reweighted", zap.String("criterion", criterionID), zap.Int("weight", r.Criteria[i].Weight))
	return r, nil
}

// SeedRubric installs r when no rubric is stored yet.
func (s *Service) SeedRubric(ctx context.Context, r scoring.Rubric) (bool, error) {
	cur, err := s.store.GetRubric(ctx)
	if err != nil {
		return false, err
	}
	if len(cur.Criteria) > 0 {
		return false, nil
	}
	if _, err := s.PutRubric(ctx, r); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) activeRubric(ctx context.Context) (scoring.Rubric, error) {
	r, err := s.store.GetRubric(ctx)
	if err != nil {
		return scoring.Rubric{}, err
	}
	if len(r.Criteria) == 0 {
		return scoring.Rubric{}, ErrNoRubric
	}
	return r, nil
}

// ---- evaluations ----

// PreviewEvaluation scores a form without validating completeness or saving.
func (s *Service) PreviewEvaluation(ctx context.Context, form scoring.FormState) (scoring.Result, error) {
	r, err := s.activeRubric(ctx)
	if err != nil {
		return scoring.Result{}, err
	}
	res, err := scoring.Evaluate(r, form.Sections)
	if err != nil {
		return scoring.Result{}, &ValidationError{Err: err}
	}
	return res, nil
}

func (s *Service) score(ctx context.Context, form scoring.FormState) (scoring.Result, error) {
	r, err := s.activeRubric(ctx)
	if err != nil {
		return scoring.Result{}, err
	}
	if err := scoring.ValidateSubmission(r, form); err != nil {
		return scoring.Result{}, &ValidationError{Err: err}
	}
	res, err := scoring.Evaluate(r, form.Sections)
	if err != nil {
		return scoring.Result{}, &ValidationError{Err: err}
	}
	return res, nil
}

// SubmitEvaluation validates, scores and stores the judge's form for a schedule.
func (s *Service) SubmitEvaluation(ctx context.Context, judgeID, scheduleID string, form scoring.FormState) (Evaluation, error) {
	sched, err := s.store.GetSchedule(ctx, scheduleID)
	if err != nil {
		return Evaluation{}, err
	}
	if sched.JudgeID != judgeID {
		return Evaluation{}, fmt.Errorf("schedule %q is assigned to another judge: %w", scheduleID, ErrForbidden)
	}
	res, err := s.score(ctx, form)
	if err != nil {
		return Evaluation{}, err
	}

	now := s.now()
	e := Evaluation{
		ID:                s.newID(),
		JudgeID:           sched.JudgeID,
		StartupID:         sched.StartupID,
		RoundID:           sched.RoundID,
		ScheduleID:        sched.ID,
		SectionScores:     res.SectionScores,
		TotalScore:        res.TotalScore,
		OverallFeedback:   strings.TrimSpace(form.OverallFeedback),
		NominateNextRound: form.NominateNextRound,
		MentorStartup:     form.MentorStartup,
		MeetStartup:       form.MeetStartup,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.CreateEvaluation(ctx, e); err != nil {
		return Evaluation{}, err
	}
	s.log.Info("evaluation submitted",
		zap.String("evaluation_id", e.ID),
		zap.String("judge_id", e.JudgeID),
		zap.String("startup_id", e.StartupID),
		zap.Float64("total_score", e.TotalScore))
	s.publish(ctx, e, false)
	return e, nil
}

// UpdateEvaluation re-scores an existing evaluation. Only its judge may edit
// it and its schedule linkage is kept.
func (s *Service) UpdateEvaluation(ctx context.Context, judgeID, evaluationID string, form scoring.FormState) (Evaluation, error) {
	e, err := s.store.GetEvaluation(ctx, evaluationID)
	if err != nil {
		return Evaluation{}, err
	}
	if e.JudgeID != judgeID {
		return Evaluation{}, fmt.Errorf("evaluation %q belongs to another judge: %w", evaluationID, ErrForbidden)
	}
	res, err := s.score(ctx, form)
	if err != nil {
		return Evaluation{}, err
	}
	e.SectionScores = res.SectionScores
	e.TotalScore = res.TotalScore
	e.OverallFeedback = strings.TrimSpace(form.OverallFeedback)
	e.NominateNextRound = form.NominateNextRound
	e.MentorStartup = form.MentorStartup
	e.MeetStartup = form.MeetStartup
	e.UpdatedAt = s.now()
	if err := s.store.UpdateEvaluation(ctx, e); err != nil {
		return Evaluation{}, err
	}
	s.log.Info("evaluation updated", zap.String("evaluation_id", e.ID), zap.Float64("total_score", e.TotalScore))
	s.publish(ctx, e, true)
	return e, nil
}

// publish never fails the write; a lost notification is only logged.
func (s *Service) publish(ctx context.Context, e Evaluation, updated bool) {
	err := s.notifier.EvaluationSubmitted(ctx, notify.Event{
		EvaluationID:      e.ID,
		JudgeID:           e.JudgeID,
		StartupID:         e.StartupID,
		RoundID:           e.RoundID,
		TotalScore:        e.TotalScore,
		NominateNextRound: e.NominateNextRound,
		MentorStartup:     e.MentorStartup,
		MeetStartup:       e.MeetStartup,
		Updated:           updated,
	})
	if err != nil {
		s.log.Warn("notify failed", zap.String("evaluation_id", e.ID), zap.Error(err))
	}
}

func (s *Service) GetEvaluation(ctx context.Context, id string) (Evaluation, error) {
	return s.store.GetEvaluation(ctx, id)
}

func (s *Service) ListEvaluations(ctx context.Context, f EvaluationFilter) ([]Evaluation, error) {
	return s.store.ListEvaluations(ctx, f)
}

// ---- results ----

func (s *Service) Rankings(ctx context.Context, roundID string) ([]Ranking, error) {
	if _, err := s.store.GetRound(ctx, roundID); err != nil {
		return nil, err
	}
	startups, err := s.store.ListStartups(ctx)
	if err != nil {
		return nil, err
	}
	evals, err := s.store.ListEvaluations(ctx, EvaluationFilter{RoundID: roundID})
	if err != nil {
		return nil, err
	}
	return Rank(startups, evals), nil
}

// Snapshot is the stored result export of one round.
type Snapshot struct {
	RoundID     string         `json:"round_id"`
	RoundName   string         `json:"round_name"`
	GeneratedAt time.Time      `json:"generated_at"`
	Rubric      scoring.Rubric `json:"rubric"`
	Rankings    []Ranking      `json:"rankings"`
}

type SnapshotRef struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// ExportSnapshot writes the round's rankings to the blob store.
func (s *Service) ExportSnapshot(ctx context.Context, roundID string) (SnapshotRef, error) {
	if s.blobs == nil {
		return SnapshotRef{}, errors.New("blob store not configured")
	}
	round, err := s.store.GetRound(ctx, roundID)
	if err != nil {
		return SnapshotRef{}, err
	}
	rankings, err := s.Rankings(ctx, roundID)
	if err != nil {
		return SnapshotRef{}, err
	}
	r, err := s.store.GetRubric(ctx)
	if err != nil {
		return SnapshotRef{}, err
	}
	snap := Snapshot{RoundID: round.ID, RoundName: round.Name, GeneratedAt: s.now(), Rubric: r, Rankings: rankings}
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return SnapshotRef{}, err
	}
	key := fmt.Sprintf("snapshots/%s/%s.json", round.ID, snap.GeneratedAt.Format("20060102T150405.000Z"))
	key, err = s.blobs.Put(ctx, key, bytes.NewReader(b))
	if err != nil {
		return SnapshotRef{}, fmt.Errorf("store snapshot: %w", err)
	}
	url, err := s.blobs.SignedURL(ctx, key)
	if err != nil {
		return SnapshotRef{}, fmt.Errorf("sign snapshot: %w", err)
	}
	s.log.Info("snapshot exported", zap.String("round_id", round.ID), zap.String("key", key), zap.Int("startups", len(rankings)))
	return SnapshotRef{Key: key, URL: url}, nil
}

// ---- entities ----

func required(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalid, field)
	}
	return nil
}

func (s *Service) CreateStartup(ctx context.Context, in Startup) (Startup, error) {
	if err := required("name", in.Name); err != nil {
		return Startup{}, err
	}
	in.ID = s.newID()
	in.Name = strings.TrimSpace(in.Name)
	in.CreatedAt = s.now()
	if err := s.store.CreateStartup(ctx, in); err != nil {
		return Startup{}, err
	}
	return in, nil
}

func (s *Service) GetStartup(ctx context.Context, id string) (Startup, error) {
	return s.store.GetStartup(ctx, id)
}

func (s *Service) ListStartups(ctx context.Context) ([]Startup, error) {
	return s.store.ListStartups(ctx)
}

func (s *Service) CreateJudge(ctx context.Context, name, email, password string) (Judge, error) {
	for _, f := range [][2]string{{"name", name}, {"email", email}, {"password", password}} {
		if err := required(f[0], f[1]); err != nil {
			return Judge{}, err
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Judge{}, err
	}
	j := Judge{
		ID:           s.newID(),
		Name:         strings.TrimSpace(name),
		Email:        normalizeEmail(email),
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.store.CreateJudge(ctx, j); err != nil {
		return Judge{}, err
	}
	return j, nil
}

func (s *Service) GetJudge(ctx context.Context, id string) (Judge, error) {
	return s.store.GetJudge(ctx, id)
}

func (s *Service) ListJudges(ctx context.Context) ([]Judge, error) {
	return s.store.ListJudges(ctx)
}

// Authenticate checks a judge's email and password.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Judge, error) {
	j, err := s.store.GetJudgeByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		return Judge{}, ErrInvalidCredentials
	}
	if err != nil {
		return Judge{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(j.PasswordHash), []byte(password)) != nil {
		return Judge{}, ErrInvalidCredentials
	}
	return j, nil
}

func normalizeEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }

func (s *Service) CreateRound(ctx context.Context, in Round) (Round, error) {
	if err := required("name", in.Name); err != nil {
		return Round{}, err
	}
	in.ID = s.newID()
	in.Name = strings.TrimSpace(in.Name)
	in.CreatedAt = s.now()
	if err := s.store.CreateRound(ctx, in); err != nil {
		return Round{}, err
	}
	return in, nil
}

func (s *Service) ListRounds(ctx context.Context) ([]Round, error) {
	return s.store.ListRounds(ctx)
}

// CreateSchedule assigns a judge to a startup in a round. All three must exist.
func (s *Service) CreateSchedule(ctx context.Context, in Schedule) (Schedule, error) {
	if _, err := s.store.GetRound(ctx, in.RoundID); err != nil {
		return Schedule{}, err
	}
	if _, err := s.store.GetStartup(ctx, in.StartupID); err != nil {
		return Schedule{}, err
	}
	if _, err := s.store.GetJudge(ctx, in.JudgeID); err != nil {
		return Schedule{}, err
	}
	in.ID = s.newID()
	in.CreatedAt = s.now()
	in.SlotStart = in.SlotStart.UTC().Truncate(time.Millisecond)
	if err := s.store.CreateSchedule(ctx, in); err != nil {
		return Schedule{}, err
	}
	return in, nil
}

func (s *Service) GetSchedule(ctx context.Context, id string) (Schedule, error) {
	return s.store.GetSchedule(ctx, id)
}

func (s *Service) ListSchedules(ctx context.Context, f ScheduleFilter) ([]Schedule, error) {
	return s.store.ListSchedules(ctx, f)
}
