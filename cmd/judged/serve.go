package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	api "github.com/mind-engage/mindengage-judging/internal/api/http"
	auth "github.com/mind-engage/mindengage-judging/internal/auth/middleware"
	"github.com/mind-engage/mindengage-judging/internal/competition"
	"github.com/mind-engage/mindengage-judging/internal/config"
	"github.com/mind-engage/mindengage-judging/internal/db"
	"github.com/mind-engage/mindengage-judging/internal/logging"
	"github.com/mind-engage/mindengage-judging/internal/notify"
	"github.com/mind-engage/mindengage-judging/internal/scoring"
	"github.com/mind-engage/mindengage-judging/internal/storage"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, config.FromEnv())
		},
	}
}

func runServe(ctx context.Context, cfg config.Config) error {
	log, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	dbh, err := db.Open(openCtx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer dbh.Close()

	blobs, err := storage.Open(openCtx, storage.Options{
		Driver:      cfg.BlobDriver,
		BasePath:    cfg.BlobBasePath,
		S3Endpoint:  cfg.S3Endpoint,
		S3Region:    cfg.S3Region,
		S3Bucket:    cfg.S3Bucket,
		S3AccessKey: cfg.S3AccessKey,
		S3SecretKey: cfg.S3SecretKey,
	})
	if err != nil {
		return fmt.Errorf("blob store: %w", err)
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.RedisAddr != "" {
		client := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer client.Close()
		notifier = notify.NewQueue(client, log)
	}

	svc := competition.NewService(competition.NewSQLStore(dbh), blobs, notifier, log)
	if err := seedRubric(ctx, svc, cfg.RubricPath, log); err != nil {
		return err
	}

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: api.NewRouter(api.Deps{
			Config:  cfg,
			Service: svc,
			Auth:    auth.NewAuthService(cfg.AuthHMACSecret),
			Log:     log,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.String("mode", string(cfg.Mode)))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutCtx, cancelShut := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShut()
	return srv.Shutdown(shutCtx)
}

// seedRubric installs the rubric at path, or the built-in one, into an empty store.
func seedRubric(ctx context.Context, svc *competition.Service, path string, log *zap.Logger) error {
	r, err := scoring.DefaultRubric()
	if path != "" {
		r, err = scoring.LoadRubricFile(path)
	}
	if err != nil {
		return fmt.Errorf("rubric: %w", err)
	}
	seeded, err := svc.SeedRubric(ctx, r)
	if err != nil {
		return fmt.Errorf("seed rubric: %w", err)
	}
	if seeded {
		log.Info("rubric seeded", zap.Int("criteria", len(r.Criteria)), zap.String("source", cmp.Or(path, "built-in")))
	}
	return nil
}
