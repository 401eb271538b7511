package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeEvaluationSubmitted = "evaluation:submitted"

// Event describes a stored evaluation for downstream consumers.
type Event struct {
	EvaluationID      string  `json:"evaluation_id"`
	JudgeID           string  `json:"judge_id"`
	StartupID         string  `json:"startup_id"`
	RoundID           string  `json:"round_id"`
	TotalScore        float64 `json:"total_score"`
	NominateNextRound bool    `json:"nominate_next_round"`
	MentorStartup     bool    `json:"mentor_startup"`
	MeetStartup       bool    `json:"meet_startup"`
	Updated           bool    `json:"updated"`
}

type Notifier interface {
	EvaluationSubmitted(ctx context.Context, e Event) error
}

// Nop drops every event. Used when no queue is configured.
type Nop struct{}

func (Nop) EvaluationSubmitted(context.Context, Event) error { return nil }

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Queue publishes events as asynq tasks.
type Queue struct {
	client enqueuer
	log    *zap.Logger
}

func NewQueue(client *asynq.Client, log *zap.Logger) *Queue {
	return &Queue{client: client, log: log}
}

func (q *Queue) EvaluationSubmitted(ctx context.Context, e Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	task := asynq.NewTask(TypeEvaluationSubmitted, b)
	info, err := q.client.EnqueueContext(ctx, task, asynq.MaxRetry(3))
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", TypeEvaluationSubmitted, err)
	}
	q.log.Debug("event enqueued", zap.String("task_id", info.ID), zap.String("evaluation_id", e.EvaluationID))
	return nil
}
