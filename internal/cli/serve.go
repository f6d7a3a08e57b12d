package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lazypower/habitpal/internal/config"
	"github.com/lazypower/habitpal/internal/engine"
	"github.com/lazypower/habitpal/internal/logging"
	"github.com/lazypower/habitpal/internal/server"
	"github.com/lazypower/habitpal/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	metrics := engine.NewMetrics()
	if cfg.Database.LegacyDir != "" {
		importOnStart(cmd.Context(), cfg.Database.LegacyDir, db, log, metrics)
	}

	eng := engine.New(db,
		engine.WithMetrics(metrics),
		engine.WithLogger(log.Named("engine")),
		engine.WithLocation(cfg.Location()),
		engine.WithWindowDays(cfg.Engine.WindowDays),
		engine.WithTickSpec(cfg.Engine.TickSpec),
		engine.WithWriteTimeout(cfg.Engine.WriteTimeout),
	)
	// A partial load still serves; the failures are already logged.
	if err := eng.Load(cmd.Context()); err != nil {
		log.Warn("load incomplete", zap.Error(err))
	}
	if err := eng.Start(); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	defer eng.Stop()

	srv := server.New(db, eng, VersionString(), log.Named("http"))
	addr := cfg.ListenAddr()
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		log.Info("habitpal serving", zap.String("addr", addr), zap.String("db", db.Path))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-done:
	case err := <-serveErr:
		return fmt.Errorf("server error: %w", err)
	}
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		return err
	}
	if err := eng.Flush(ctx); err != nil {
		log.Warn("pending writes not flushed", zap.Error(err))
	}
	return nil
}

// openDB opens the configured database, resolving the default path.
func openDB(cfg config.Config) (*store.DB, error) {
	dbPath := cfg.Database.Path
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// importOnStart runs the legacy import for serve. A failed import has
// rolled back, so it is logged and counted and the server starts anyway;
// the next start retries it.
func importOnStart(ctx context.Context, dir string, db *store.DB, log *zap.Logger, m *engine.Metrics) {
	if err := importLegacy(ctx, dir, db, log); err != nil {
		m.ImportFailures.Inc()
		log.Error("legacy import failed", zap.String("dir", dir), zap.Error(err))
	}
}

// importLegacy copies flat-file data from dir into db unless db already
// holds data.
func importLegacy(ctx context.Context, dir string, db *store.DB, log *zap.Logger) error {
	flat, err := store.OpenFlat(dir)
	if err != nil {
		return fmt.Errorf("open legacy data: %w", err)
	}
	if !flat.HasData() {
		log.Debug("no legacy data", zap.String("dir", dir))
		return nil
	}
	res, err := store.MigrateLegacy(ctx, flat, db)
	if err != nil {
		return fmt.Errorf("migrate legacy data: %w", err)
	}
	if res.Skipped {
		log.Debug("legacy import skipped; database already populated")
		return nil
	}
	log.Info("legacy data imported",
		zap.String("dir", dir),
		zap.Int("habits", res.Habits),
		zap.Int("progress", res.Progress),
		zap.Bool("companion", res.Companion),
		zap.Bool("settings", res.Settings),
	)
	return nil
}
