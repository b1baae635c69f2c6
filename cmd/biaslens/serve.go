package main

import (
	"context"
	"errors"
	log "log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/biaslens/biaslens/config"
	"github.com/biaslens/biaslens/dispatch"
	"github.com/biaslens/biaslens/events"
	"github.com/biaslens/biaslens/extract"
	"github.com/biaslens/biaslens/redis"
	"github.com/biaslens/biaslens/rest_api"
	"github.com/biaslens/biaslens/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve the submission, polling, and event stream endpoints. With the
inline strategy each new submission is classified in-request; with the queued
strategy it is handed to the work queue and completed by a worker process.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	broadcaster := events.NewBroadcaster()
	fetcher := extract.NewArticleFetcher(cfg.ExtractTimeout)

	g, ctx := errgroup.WithContext(ctx)

	var submission *service.Submission
	switch cfg.Strategy {
	case config.StrategyInline:
		dispatcher := dispatch.NewInline(newClassifier(cfg), cfg.Classifier.Timeout)
		submission = service.NewSubmission(store, dispatcher, fetcher, broadcaster)
	case config.StrategyQueued:
		conn := openRedis(cfg)
		defer conn.Close()
		queue := redis.NewQueue(conn, cfg.Queue.Name, cfg.Queue.PopTimeout)
		submission = service.NewSubmission(store, dispatch.NewQueued(store, queue), fetcher, broadcaster)

		// Completions are committed by worker processes; bridge their
		// announcements into this process's /events subscribers.
		bus := redis.NewEventBus(conn, cfg.Events.Channel)
		g.Go(func() error {
			if err := bus.Forward(ctx, broadcaster); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	retrieval := service.NewRetrieval(store, broadcaster)
	server := rest_api.NewServer(submission, retrieval, broadcaster)

	log.Info("serving", "address", cfg.ListenAddress, "strategy", cfg.Strategy, "store", cfg.Store)
	g.Go(func() error {
		return server.Run(ctx, cfg.ListenAddress)
	})
	return g.Wait()
}
