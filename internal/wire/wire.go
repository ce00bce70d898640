// Package wire provides dependency injection for the curator application.
// It creates singleton services with lazy initialization.
package wire

import (
	"log"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/example/curator/internal/adapters/notify"
	"github.com/example/curator/internal/adapters/skill"
	"github.com/example/curator/internal/adapters/sqlite"
	"github.com/example/curator/internal/adapters/vault"
	"github.com/example/curator/internal/app"
	"github.com/example/curator/internal/config"
	"github.com/example/curator/internal/db"
	"github.com/example/curator/internal/lock"
	"github.com/example/curator/internal/ports/primary"
	"github.com/example/curator/internal/ports/secondary"
)

var (
	cfg           *config.Config
	logger        *logrus.Logger
	feedService   primary.FeedService
	retryService  *app.RetryService
	processedRepo secondary.ProcessedRepository
	runRepo       secondary.RunRepository
	once          sync.Once

	pipelineService primary.PipelineService
	pipelineOnce    sync.Once
)

// Config returns the loaded configuration singleton.
func Config() *config.Config {
	once.Do(initServices)
	return cfg
}

// Logger returns the application logger singleton.
func Logger() *logrus.Logger {
	once.Do(initServices)
	return logger
}

// FeedService returns the singleton FeedService instance.
func FeedService() primary.FeedService {
	once.Do(initServices)
	return feedService
}

// RetryService returns the singleton RetryService instance.
func RetryService() *app.RetryService {
	once.Do(initServices)
	return retryService
}

// ProcessedRepository returns the completion ledger singleton.
func ProcessedRepository() secondary.ProcessedRepository {
	once.Do(initServices)
	return processedRepo
}

// RunRepository returns the run ledger singleton.
func RunRepository() secondary.RunRepository {
	once.Do(initServices)
	return runRepo
}

// PipelineService returns the singleton PipelineService instance. Unlike the
// other services it requires a configured vault, so it is initialized
// separately: feed and queue commands keep working before vault.path is set.
func PipelineService() primary.PipelineService {
	once.Do(initServices)
	pipelineOnce.Do(initPipeline)
	return pipelineService
}

// initServices initializes the shared services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	logger = logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	var err error
	cfg, err = config.Load(config.DefaultPath())
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	database, err := db.Open(cfg.DataDir)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// Repository adapters (secondary ports) with injected DB
	feedRepo := sqlite.NewFeedRepository(database)
	retryRepo := sqlite.NewRetryRepository(database)
	processedRepo = sqlite.NewProcessedRepository(database)
	runRepo = sqlite.NewRunRepository(database)

	// Services (primary ports implementation)
	feedService = app.NewFeedService(feedRepo, processedRepo, logger)
	retryService = app.NewRetryService(retryRepo, logger)
}

// initPipeline wires the orchestrator. Fatal when the vault is unconfigured:
// without a destination there is nowhere to confirm artifacts.
func initPipeline() {
	vaultPath, err := cfg.VaultPath()
	if err != nil {
		log.Fatalf("cannot run pipeline: %v", err)
	}

	pipelineService = app.NewPipelineService(
		cfg,
		feedService,
		retryService,
		processedRepo,
		runRepo,
		skill.NewRunner(cfg.Claude, config.SkillsDir(), logger),
		vault.NewStore(vaultPath),
		lock.New(cfg.DataDir),
		notify.NewDesktop(),
		logger,
	)
}
