package backend

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/course-recommender/internal/config"
	"github.com/morezero/course-recommender/pkg/commsutil"
	"github.com/morezero/course-recommender/pkg/db"
)

const runLogPrefix = "backend:run"

// Run serves the backend API until SIGINT or SIGTERM.
func Run(cfg *config.Config) error {
	slog.Info(fmt.Sprintf("%s - Starting course-recommender API", runLogPrefix))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Step 1: Connect to database
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("%s - failed to connect to database: %w", runLogPrefix, err)
	}
	defer pool.Close()

	// Step 1b: Run migrations if enabled
	if cfg.RunMigrations {
		migrations, err := db.LoadMigrations(cfg.MigrationPath)
		if err != nil {
			return fmt.Errorf("%s - failed to load migrations: %w", runLogPrefix, err)
		}
		if err := db.RunMigrations(ctx, pool, migrations); err != nil {
			return fmt.Errorf("%s - failed to run migrations: %w", runLogPrefix, err)
		}
	}
	if ok, err := db.SchemaApplied(ctx, pool); err != nil {
		slog.Warn(fmt.Sprintf("%s - could not check schema: %v", runLogPrefix, err))
	} else if !ok {
		slog.Warn(fmt.Sprintf("%s - schema not found; run `course-recommender migrate up` or set RUN_MIGRATIONS=true", runLogPrefix))
	}

	repo := db.NewRepository(pool)

	// Step 2: Optionally answer operation requests over COMMS
	var nc *comms.Conn
	var responder *Responder
	if cfg.APIServeComms {
		nc, err = commsutil.Connect(commsutil.ConnectOptions{URL: cfg.COMMSURL, Name: cfg.COMMSName + "-api"})
		if err != nil {
			return err
		}
		responder, err = Serve(ctx, nc, repo, &ResponderOpts{
			SubjectPrefix:  cfg.OperationSubjectPrefix,
			RequestTimeout: cfg.RequestTimeout,
		})
		if err != nil {
			nc.Close()
			return err
		}
	}

	// Step 3: Start HTTP server
	api := NewAPI(APIParams{Caller: repo, Pinger: pool, HealthTimeout: cfg.HealthCheckTimeout})
	httpAddr := fmt.Sprintf(":%d", cfg.APIHTTPPort)
	httpServer := &http.Server{Addr: httpAddr, Handler: api.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		slog.Info(fmt.Sprintf("%s - API listening on %s", runLogPrefix, httpAddr))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error(fmt.Sprintf("%s - HTTP server error: %v", runLogPrefix, err))
		}
	}()

	slog.Info(fmt.Sprintf("%s - API is ready", runLogPrefix))

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info(fmt.Sprintf("%s - Received signal %s, shutting down", runLogPrefix, sig))

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn(fmt.Sprintf("%s - HTTP shutdown: %v", runLogPrefix, err))
	}
	if responder != nil {
		responder.Stop()
	}
	if nc != nil {
		if err := nc.Drain(); err != nil {
			slog.Warn(fmt.Sprintf("%s - COMMS drain: %v", runLogPrefix, err))
		}
	}

	slog.Info(fmt.Sprintf("%s - Shutdown complete", runLogPrefix))
	return nil
}
