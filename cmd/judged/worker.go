package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mind-engage/mindengage-judging/internal/config"
	"github.com/mind-engage/mindengage-judging/internal/logging"
	"github.com/mind-engage/mindengage-judging/internal/notify"
)

func newWorkerCmd() *cobra.Command {
	var concurrency int
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Consume evaluation events from the queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.FromEnv()
			if cfg.RedisAddr == "" {
				return errors.New("REDIS_ADDR is required for the worker")
			}
			log, err := logging.New(cfg.LogLevel, cfg.LogDev)
			if err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			defer func() { _ = log.Sync() }()
			w := &notify.Worker{Log: log}
			return w.Run(cfg.RedisAddr, concurrency)
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 5, "Number of concurrent task handlers")
	return cmd
}
