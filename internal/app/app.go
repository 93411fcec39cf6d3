// Package app wires the application's services, storage and handlers
// together and owns their lifecycle.
package app

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/buzzmon/internal/common"
	"github.com/ternarybob/buzzmon/internal/handlers"
	"github.com/ternarybob/buzzmon/internal/interfaces"
	"github.com/ternarybob/buzzmon/internal/queue"
	"github.com/ternarybob/buzzmon/internal/services/cache"
	"github.com/ternarybob/buzzmon/internal/services/classifier"
	"github.com/ternarybob/buzzmon/internal/services/filter"
	"github.com/ternarybob/buzzmon/internal/services/oracle"
	"github.com/ternarybob/buzzmon/internal/services/sentiment"
	"github.com/ternarybob/buzzmon/internal/services/wordcloud"
	badgerstore "github.com/ternarybob/buzzmon/internal/storage/badger"
)

// App holds all application dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Storage
	DB      *badgerstore.BadgerDB
	Records interfaces.RecordStorage

	// Queue
	Broker     interfaces.JobBroker
	Waiter     *queue.Waiter
	WorkerPool *queue.WorkerPool

	// Services
	Cache    interfaces.ResultCache
	Oracle   interfaces.TopicOracle
	Pipeline *filter.Service

	// Handlers
	FilterHandler *handlers.FilterHandler
	StatusHandler *handlers.StatusHandler
	WSHandler     *handlers.WebSocketHandler

	sweeper *cron.Cron
}

// New creates and wires the application
func New(ctx context.Context, cfg *common.Config, logger arbor.ILogger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
	}

	db, err := badgerstore.NewBadgerDB(logger, &cfg.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger storage: %w", err)
	}
	a.DB = db
	a.Records = badgerstore.NewRecordStorage(db, logger)

	pollInterval, err := cfg.Queue.PollIntervalDuration()
	if err != nil {
		a.Close()
		return nil, err
	}

	broker, err := queue.NewBadgerBroker(db.DB(), cfg.Queue.Name, pollInterval, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create job broker: %w", err)
	}
	a.Broker = broker
	a.Waiter = queue.NewWaiter(broker, pollInterval, logger)

	resultCache, err := cache.NewService(&cfg.Cache, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}
	a.Cache = resultCache

	topicOracle, err := oracle.NewOracle(ctx, &cfg.Oracle, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create topic oracle: %w", err)
	}
	a.Oracle = topicOracle

	sentimentClient, err := sentiment.NewClient(&cfg.Sentiment, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create sentiment client: %w", err)
	}

	cls := classifier.NewService(&cfg.Classifier, topicOracle, logger)
	a.Pipeline = filter.NewService(resultCache, sentimentClient, cls, wordcloud.NewService(), logger)

	pool, err := queue.NewWorkerPool(&cfg.Queue, broker, a.Pipeline, a.Records, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	a.WorkerPool = pool

	a.FilterHandler = handlers.NewFilterHandler(a.Pipeline, resultCache, logger)
	a.StatusHandler = handlers.NewStatusHandler(broker, a.Records, logger)
	a.WSHandler = handlers.NewWebSocketHandler(cfg, broker, a.Waiter, logger)

	if err := a.startSweeper(); err != nil {
		a.Close()
		return nil, err
	}

	logger.Info().
		Str("oracle", topicOracle.Name()).
		Int("workers", cfg.Queue.Concurrency).
		Msg("Application wired")

	return a, nil
}

// startSweeper schedules the periodic removal of unclaimed results
func (a *App) startSweeper() error {
	resultTTL, err := a.Config.Queue.ResultTTLDuration()
	if err != nil {
		return err
	}

	schedule := a.Config.Queue.SweepSchedule
	if schedule == "" {
		schedule = "0 * * * * *"
	}

	a.sweeper = cron.New(cron.WithSeconds())
	_, err = a.sweeper.AddFunc(schedule, func() {
		if _, err := a.Broker.SweepResults(resultTTL); err != nil {
			a.Logger.Warn().Err(err).Msg("Result sweep failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule result sweep: %w", err)
	}

	a.sweeper.Start()
	a.Logger.Info().
		Str("schedule", schedule).
		Dur("result_ttl", resultTTL).
		Msg("Result sweeper scheduled")

	return nil
}

// Start launches the background workers
func (a *App) Start() {
	a.WorkerPool.Start()
}

// Close releases resources in reverse dependency order
func (a *App) Close() {
	if a.sweeper != nil {
		a.sweeper.Stop()
	}
	if a.WorkerPool != nil {
		a.WorkerPool.Stop()
	}
	if a.Broker != nil {
		if err := a.Broker.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close job broker")
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close badger storage")
		}
	}
}
