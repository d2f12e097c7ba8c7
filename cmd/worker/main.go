package main

import (
	"log"

	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"github.com/clintrovert/release-tickets/internal/activities"
	"github.com/clintrovert/release-tickets/internal/config"
	"github.com/clintrovert/release-tickets/internal/datasource"
	"github.com/clintrovert/release-tickets/internal/temporal"
	"github.com/clintrovert/release-tickets/internal/temporal/workflows"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load(config.NewViper())
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	// The worker serves any repository, so only the source is checked up front
	if err := cfg.ValidateSource(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	source, err := datasource.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to create data source", zap.Error(err))
	}

	temporalClient, err := temporal.NewClient(cfg.TemporalAddress, cfg.TemporalNamespace, cfg.TaskQueue, logger)
	if err != nil {
		logger.Fatal("failed to create temporal client", zap.Error(err))
	}
	defer temporalClient.Close()

	activities.SetSourceActivities(activities.NewSourceActivities(source, logger))

	w := worker.New(temporalClient.SDK(), cfg.TaskQueue, worker.Options{})

	w.RegisterWorkflow(workflows.ExtractionWorkflow)

	w.RegisterActivity(activities.PrepareRepositoryActivity)
	w.RegisterActivity(activities.ListTagsActivity)
	w.RegisterActivity(activities.GetCommitActivity)
	w.RegisterActivity(activities.ListCommitsActivity)

	logger.Info("starting worker",
		zap.String("task_queue", cfg.TaskQueue),
		zap.String("namespace", cfg.TemporalNamespace),
		zap.String("source", string(cfg.Source)),
	)

	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Fatal("worker failed", zap.Error(err))
	}

	logger.Info("worker stopped")
}
