package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Worker consumes evaluation events. Handle is called once per decoded event.
type Worker struct {
	Log    *zap.Logger
	Handle func(ctx context.Context, e Event) error
}

func (w *Worker) mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeEvaluationSubmitted, w.handleSubmitted)
	return mux
}

func (w *Worker) handleSubmitted(ctx context.Context, t *asynq.Task) error {
	var e Event
	if err := json.Unmarshal(t.Payload(), &e); err != nil {
		// malformed payloads never succeed on retry
		return fmt.Errorf("decode %s: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	w.Log.Info("evaluation submitted",
		zap.String("evaluation_id", e.EvaluationID),
		zap.String("judge_id", e.JudgeID),
		zap.String("startup_id", e.StartupID),
		zap.String("round_id", e.RoundID),
		zap.Float64("total_score", e.TotalScore),
		zap.Bool("nominated", e.NominateNextRound),
		zap.Bool("updated", e.Updated))
	if w.Handle == nil {
		return nil
	}
	return w.Handle(ctx, e)
}

// Run blocks processing tasks from the redis at addr.
func (w *Worker) Run(addr string, concurrency int) error {
	srv := asynq.NewServer(asynq.RedisClientOpt{Addr: addr}, asynq.Config{Concurrency: concurrency})
	return srv.Run(w.mux())
}
