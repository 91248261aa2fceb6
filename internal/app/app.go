package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/riskibarqy/pulse-leaderboard/internal/config"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/access"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/calendar"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/jobscheduler"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/leaderboard"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/participant"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/proof"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/reset"
	"github.com/riskibarqy/pulse-leaderboard/internal/domain/submission"
	"github.com/riskibarqy/pulse-leaderboard/internal/infrastructure/events/kafka"
	"github.com/riskibarqy/pulse-leaderboard/internal/infrastructure/identity"
	"github.com/riskibarqy/pulse-leaderboard/internal/infrastructure/proofstore"
	"github.com/riskibarqy/pulse-leaderboard/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/pulse-leaderboard/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/pulse-leaderboard/internal/platform/cache"
	"github.com/riskibarqy/pulse-leaderboard/internal/platform/id"
	"github.com/riskibarqy/pulse-leaderboard/internal/platform/logging"
	"github.com/riskibarqy/pulse-leaderboard/internal/usecase"
)

// App holds the wired services shared by every CLI command.
type App struct {
	Config       config.Config
	Logger       *logging.Logger
	Calendar     *calendar.Calendar
	Submissions  *usecase.SubmissionService
	Leaderboards *usecase.LeaderboardService
	Resets       *usecase.ResetService
	Batch        *usecase.ResetBatchService
	Admin        *usecase.AdminService
	JobRuns      jobscheduler.Repository

	closers []closer
}

type closer struct {
	name string
	fn   func(context.Context) error
}

type repositories struct {
	participants participant.Repository
	submissions  submission.Repository
	resets       reset.Repository
	jobRuns      jobscheduler.Repository
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	cal, err := calendar.New(cfg.TradingTimezone)
	if err != nil {
		return nil, fmt.Errorf("build trading calendar: %w", err)
	}

	a := &App{Config: cfg, Logger: logger, Calendar: cal}

	repos, err := a.openRepositories(ctx)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	a.JobRuns = repos.jobRuns

	publisher, err := kafka.NewPublisher(kafka.Config{
		Enabled:        cfg.KafkaEnabled,
		Brokers:        cfg.KafkaBrokers,
		Topic:          cfg.KafkaTopic,
		WriteTimeout:   cfg.KafkaWriteTimeout,
		CircuitBreaker: cfg.KafkaCircuit,
	}, logger)
	if err != nil {
		_ = a.Close(ctx)
		return nil, fmt.Errorf("build kafka publisher: %w", err)
	}
	a.closers = append(a.closers, closer{name: "kafka publisher", fn: func(context.Context) error { return publisher.Close() }})

	ids := id.NewUUIDGenerator()
	proofs, err := newProofStore(cfg, ids, logger)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	checker := newAccessChecker(cfg, logger)

	var boards *cache.Store[[]leaderboard.Entry]
	if cfg.CacheEnabled {
		boards = cache.NewStore[[]leaderboard.Entry](cfg.CacheTTL)
	}

	a.Leaderboards = usecase.NewLeaderboardService(cal, repos.submissions, repos.participants, checker, boards, logger)
	a.Resets = usecase.NewResetService(cal, repos.submissions, repos.resets, publisher, ids, logger).
		WithLeaderboardInvalidator(a.Leaderboards)
	a.Submissions = usecase.NewSubmissionService(cal, repos.submissions, repos.participants, checker, proofs, ids, a.Leaderboards, logger)
	a.Batch = usecase.NewResetBatchService(cal, repos.submissions, a.Resets, repos.jobRuns, usecase.ResetBatchConfig{
		MaxWorkers:   cfg.ResetMaxWorkers,
		ScopeTimeout: cfg.ResetScopeTimeout,
	}, logger)
	a.Admin = usecase.NewAdminService(cal, repos.submissions, checker, a.Resets, a.Leaderboards)

	logger.Info("app wired",
		"store_backend", cfg.StoreBackend,
		"trading_timezone", cfg.TradingTimezone,
		"cache_enabled", cfg.CacheEnabled,
		"kafka_enabled", cfg.KafkaEnabled,
		"identity_remote", cfg.IdentityBaseURL != "",
		"proof_store", cfg.ProofStoreBackend,
	)

	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", c.name, err))
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) openRepositories(ctx context.Context) (repositories, error) {
	if a.Config.StoreBackend == config.StoreBackendMemory {
		a.Logger.Warn("using in-memory store; data is lost on exit")
		store := memory.NewStore()
		return repositories{
			participants: store.Participants(),
			submissions:  store.Submissions(),
			resets:       store.Resets(),
			jobRuns:      store.JobRuns(),
		}, nil
	}

	db, err := openDB(ctx, a.Config)
	if err != nil {
		return repositories{}, err
	}
	a.closers = append(a.closers, closer{name: "database", fn: func(context.Context) error { return db.Close() }})

	return repositories{
		participants: postgres.NewParticipantRepository(db),
		submissions:  postgres.NewSubmissionRepository(db),
		resets:       postgres.NewResetRepository(db),
		jobRuns:      postgres.NewJobRunRepository(db),
	}, nil
}

func newProofStore(cfg config.Config, ids id.Generator, logger *logging.Logger) (proof.Store, error) {
	if cfg.ProofStoreBackend != config.ProofStoreHTTP {
		return proofstore.NewMemoryStore(ids), nil
	}
	store, err := proofstore.NewHTTPStore(proofstore.HTTPConfig{
		BaseURL: cfg.ProofStoreBaseURL,
		Token:   cfg.ProofStoreToken,
		Timeout: cfg.ProofStoreTimeout,
	}, ids, logger)
	if err != nil {
		return nil, fmt.Errorf("build proof store: %w", err)
	}
	return store, nil
}

// newAccessChecker talks to the identity service when one is configured and
// falls back to the static grant table otherwise.
func newAccessChecker(cfg config.Config, logger *logging.Logger) access.Checker {
	if cfg.IdentityBaseURL != "" {
		return identity.NewClient(nil, identity.Config{
			BaseURL:        cfg.IdentityBaseURL,
			APIKey:         cfg.IdentityAPIKey,
			Timeout:        cfg.IdentityTimeout,
			CacheTTL:       cfg.IdentityCacheTTL,
			CircuitBreaker: cfg.IdentityCircuit,
		}, logger)
	}

	checker := identity.NewStaticChecker()
	for _, g := range cfg.IdentityStaticGrants {
		checker.Grant(g.UserID, g.ScopeID, access.Level(g.Level))
	}
	return checker
}
