package main

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/biaslens/biaslens/config"
	"github.com/biaslens/biaslens/redis"
	"github.com/biaslens/biaslens/worker"
)

var workCmd = &cobra.Command{
	Use:   "work",
	Short: "Run a queued-job worker",
	Long: `Consume classification jobs from the Redis work queue, classify them,
commit the results to the job store, and announce completions on the event
bus. Run alongside one or more serve processes deployed with the queued
strategy.`,
	RunE: runWork,
}

func runWork(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Strategy != config.StrategyQueued {
		return fmt.Errorf("the worker serves the queued strategy, configured strategy is %q", cfg.Strategy)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	conn := openRedis(cfg)
	defer conn.Close()
	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}

	queue := redis.NewQueue(conn, cfg.Queue.Name, cfg.Queue.PopTimeout)
	bus := redis.NewEventBus(conn, cfg.Events.Channel)

	log.Info("working", "queue", cfg.Queue.Name, "store", cfg.Store, "workers", cfg.Queue.Workers)
	w := worker.New(queue, newClassifier(cfg), store, bus, cfg.Queue.Workers)
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
