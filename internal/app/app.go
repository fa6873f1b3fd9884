package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/soccerschedules/schedule-sync/external/gotsport"
	"github.com/soccerschedules/schedule-sync/internal/config"
	"github.com/soccerschedules/schedule-sync/internal/domain/fetchrun"
	"github.com/soccerschedules/schedule-sync/internal/domain/tournament"
	"github.com/soccerschedules/schedule-sync/internal/infrastructure/repository/memory"
	"github.com/soccerschedules/schedule-sync/internal/infrastructure/repository/postgres"
	"github.com/soccerschedules/schedule-sync/internal/interfaces/httpapi"
	"github.com/soccerschedules/schedule-sync/internal/platform/cache"
	idgen "github.com/soccerschedules/schedule-sync/internal/platform/id"
	"github.com/soccerschedules/schedule-sync/internal/platform/logging"
	"github.com/soccerschedules/schedule-sync/internal/platform/resilience"
	"github.com/soccerschedules/schedule-sync/internal/usecase"
)

// App wires configuration into the HTTP server and the background fetch
// scheduler. Close releases the scheduler pool and the DB handle.
type App struct {
	Server    *http.Server
	Scheduler *usecase.SchedulerService

	db *sqlx.DB
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}

	var (
		db             *sqlx.DB
		tournamentRepo tournament.Repository
		fetchRunRepo   fetchrun.Repository
		scheduleStore  usecase.ScheduleStore
	)

	if cfg.InMemoryDB() {
		logger.Info("using in-memory repositories", "db_url", cfg.DBURL)
		tournamentRepo = memory.NewTournamentRepository()
		fetchRunRepo = memory.NewFetchRunRepository()
		scheduleStore = memory.NewScheduleRepository()
	} else {
		dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
		opened, err := otelsqlx.Connect("postgres", dsn,
			otelsql.WithDBSystem("postgresql"),
			otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
			otelsql.WithQueryFormatter(formatDBQueryForTrace),
		)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}

		db = opened
		tournamentRepo = postgres.NewTournamentRepository(db)
		fetchRunRepo = postgres.NewFetchRunRepository(db)
		scheduleStore = postgres.NewScheduleRepository(db)
	}

	fetcher := gotsport.NewClient(gotsport.ClientConfig{
		BaseURL:          cfg.GotSportBaseURL,
		Timeout:          cfg.GotSportTimeout,
		DivisionFetchers: cfg.GotSportDivisionFetchers,
		Logger:           logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.GotSportCircuitEnabled,
			FailureThreshold: cfg.GotSportCircuitFailureCount,
			OpenTimeout:      cfg.GotSportCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.GotSportCircuitHalfOpenMaxReq,
		},
	})

	seedingCacheTTL := cfg.CacheTTL
	if !cfg.CacheEnabled {
		seedingCacheTTL = -1
	}

	ids := idgen.NewRandomGenerator()
	reconciler := usecase.NewReconcileService(scheduleStore, tournamentRepo, ids, logger)
	seedingSvc := usecase.NewSeedingService(scheduleStore, cache.NewStore(seedingCacheTTL), cfg.SeedingTopRemaining, logger)

	scheduler, err := usecase.NewSchedulerService(
		usecase.SchedulerConfig{
			PreStartInterval: cfg.FetchPreStartInterval,
			ActiveInterval:   cfg.FetchActiveInterval,
			SweepInterval:    cfg.FetchSweepInterval,
			FetchTimeout:     cfg.FetchTimeout,
			MaxRetries:       cfg.FetchMaxRetries,
			RetryBackoff:     cfg.FetchRetryBackoff,
			MaxConcurrent:    cfg.FetchMaxConcurrent,
		},
		tournamentRepo,
		fetchRunRepo,
		fetcher,
		reconciler,
		seedingSvc,
		logger,
	)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("build scheduler: %w", err)
	}

	tournamentSvc := usecase.NewTournamentService(tournamentRepo, scheduleStore, fetchRunRepo, scheduler, logger)

	handler := httpapi.NewHandler(tournamentSvc, seedingSvc, scheduler, logger)
	router := httpapi.NewRouter(handler, logger, httpapi.RouterConfig{
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		InternalJobToken:    cfg.InternalJobToken,
		CaptureRequestBody:  cfg.UptraceCaptureRequestBody,
		RequestBodyMaxBytes: cfg.UptraceRequestBodyMaxBytes,
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &App{
		Server:    server,
		Scheduler: scheduler,
		db:        db,
	}, nil
}

func (a *App) Close(_ context.Context) error {
	a.Scheduler.Close()
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
