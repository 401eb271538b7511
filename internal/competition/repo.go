package competition

import (
	"context"
	"errors"

	"github.com/mind-engage/mindengage-judging/internal/scoring"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("already exists")
	ErrDuplicateEvaluation = errors.New("evaluation already submitted for this schedule")
)

type ScheduleFilter struct {
	RoundID   string
	StartupID string
	JudgeID   string
}

type EvaluationFilter struct {
	RoundID   string
	StartupID string
	JudgeID   string
}

// Store persists the competition. Lists are ordered:
// startups and judges by name, rounds by position, schedules by slot,
// evaluations by creation time.
type Store interface {
	// GetRubric returns an empty rubric when none has been stored.
	GetRubric(ctx context.Context) (scoring.Rubric, error)
	PutRubric(ctx context.Context, r scoring.Rubric) error

	CreateStartup(ctx context.Context, s Startup) error
	GetStartup(ctx context.Context, id string) (Startup, error)
	ListStartups(ctx context.Context) ([]Startup, error)

	CreateJudge(ctx context.Context, j Judge) error
	GetJudge(ctx context.Context, id string) (Judge, error)
	GetJudgeByEmail(ctx context.Context, email string) (Judge, error)
	ListJudges(ctx context.Context) ([]Judge, error)

	CreateRound(ctx context.Context, r Round) error
	GetRound(ctx context.Context, id string) (Round, error)
	ListRounds(ctx context.Context) ([]Round, error)

	CreateSchedule(ctx context.Context, s Schedule) error
	GetSchedule(ctx context.Context, id string) (Schedule, error)
	ListSchedules(ctx context.Context, f ScheduleFilter) ([]Schedule, error)

	// CreateEvaluation fails with ErrDuplicateEvaluation when the judge
	// already has an evaluation for the schedule.
	CreateEvaluation(ctx context.Context, e Evaluation) error
	UpdateEvaluation(ctx context.Context, e Evaluation) error
	GetEvaluation(ctx context.Context, id string) (Evaluation, error)
	ListEvaluations(ctx context.Context, f EvaluationFilter) ([]Evaluation, error)

	Ping(ctx context.Context) error
}
