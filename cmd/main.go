package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/plateduel/plateduel/internal/adapters/http/api"
	"github.com/plateduel/plateduel/internal/adapters/repository"
	app "github.com/plateduel/plateduel/internal/app"
	"github.com/plateduel/plateduel/internal/config"
	"github.com/plateduel/plateduel/internal/domain/model"
	"github.com/plateduel/plateduel/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// seeder is implemented by stores that can bootstrap entities at startup.
type seeder interface {
	Seed(ctx context.Context, entities []model.Entity) error
}

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, cleanup, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "failed to open store", logger.Error(err))
		return
	}
	defer cleanup()

	if len(cfg.SeedEntities) > 0 {
		if err := seedEntities(ctx, store, cfg.SeedEntities); err != nil {
			log.Error(ctx, "failed to seed entities", logger.Error(err))
			return
		}
		log.Info(ctx, "seeded entities", logger.Int("count", len(cfg.SeedEntities)))
	}

	svc := app.New(store,
		app.WithLogger(log),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithBallotCacheSize(cfg.BallotCacheSize),
		app.WithMaxLeaderboardLimit(cfg.MaxLeaderboardLimit),
	)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	// HTTP mux and routes.
	mux := http.NewServeMux()
	apiServer := api.NewServer(svc, svc)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// openStore selects the store implementation: PostgreSQL when database_url is
// configured, in-memory otherwise.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Info(ctx, "using in-memory store")
		return repository.NewMemStore(), func() {}, nil
	}

	pg, err := repository.OpenPostgres(ctx, cfg.DatabaseURL, log.Named("postgres"))
	if err != nil {
		return nil, nil, err
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		_ = pg.Close()
		return nil, nil, err
	}

	log.Info(ctx, "using postgres store")
	return pg, func() { _ = pg.Close() }, nil
}

// seedEntities bootstraps named entities at the baseline rating. Stores skip
// entities that already exist.
func seedEntities(ctx context.Context, store repository.Store, names []string) error {
	s, ok := store.(seeder)
	if !ok {
		return nil
	}

	entities := make([]model.Entity, len(names))
	for i, name := range names {
		entities[i] = model.Entity{ID: name, Name: name, Ratings: model.NewRatings()}
	}
	return s.Seed(ctx, entities)
}
