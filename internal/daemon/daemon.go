package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/habitbloom/bloom/internal/api"
	"github.com/habitbloom/bloom/internal/app/engagement"
	"github.com/habitbloom/bloom/internal/app/habits"
	"github.com/habitbloom/bloom/internal/domain"
	"github.com/habitbloom/bloom/internal/health"
	"github.com/habitbloom/bloom/internal/infra/memstore"
	"github.com/habitbloom/bloom/internal/infra/redisstore"
	"github.com/habitbloom/bloom/internal/infra/sqlite"
)

// Daemon is the core Bloom runtime. It wires together all services.
type Daemon struct {
	Config Config
	Store  domain.KVStore
	DB     *sqlite.DB // nil unless the sqlite backend is selected
	Redis  *redisstore.Store
	Engine *engagement.Service
	Habits *habits.Service
	Server *api.Server
	Health *health.Checker
	Logger *log.Logger

	logFile *os.File
	cancel  context.CancelFunc
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return NewWithConfig(context.Background(), cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(ctx context.Context, cfg Config) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	loc, _ := cfg.Location()

	d := &Daemon{Config: cfg, Logger: log.Default()}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0700); err != nil {
			return nil, fmt.Errorf("log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		d.logFile = f
		d.Logger = log.New(io.MultiWriter(os.Stderr, f), "", log.LstdFlags)
	}

	if err := d.openStore(ctx); err != nil {
		d.Close()
		return nil, err
	}

	d.Engine = engagement.NewService(ctx, d.Store,
		engagement.WithLocation(loc),
		engagement.WithLogger(d.Logger),
		engagement.WithDebug(cfg.Debug()),
	)
	d.Habits = habits.NewService(ctx, d.Store,
		habits.WithGamification(d.Engine),
		habits.WithLocation(loc),
		habits.WithLogger(d.Logger),
	)

	d.Health = health.NewChecker(time.Minute, d.healthChecks()...)
	d.Health.SetLogger(d.Logger)

	d.Server = api.NewServer(d.Engine, d.Habits)
	d.Server.SetHealth(d.Health)
	d.Server.SetCORSOrigins(cfg.API.CORSOrigins)
	if cfg.Telemetry.Prometheus {
		d.Server.EnableMetrics()
	}

	return d, nil
}

func (d *Daemon) openStore(ctx context.Context) error {
	switch d.Config.Store.Backend {
	case BackendRedis:
		rs, err := redisstore.Open(ctx, d.Config.Store.RedisURL, d.Config.Store.RedisPrefix)
		if err != nil {
			return fmt.Errorf("open redis: %w", err)
		}
		d.Redis = rs
		d.Store = rs
	case BackendMemory:
		d.Store = memstore.New()
	default:
		db, err := sqlite.Open(bloomHome())
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		db.SetHistoryLimit(d.Config.Store.HistoryLimit)
		d.DB = db
		d.Store = db
	}
	d.Logger.Printf("[daemon] store: %s", d.Config.Store.Backend)
	return nil
}

// healthChecks probes the selected backend and both stored documents.
func (d *Daemon) healthChecks() []health.Check {
	var checks []health.Check
	switch {
	case d.DB != nil:
		checks = append(checks,
			health.PingCheck("sqlite", func(ctx context.Context) error { return d.DB.Ping() }),
			health.DirCheck(bloomHome()),
		)
	case d.Redis != nil:
		checks = append(checks, health.PingCheck("redis", d.Redis.Ping))
	}
	return append(checks,
		health.DocumentCheck(d.Store, domain.KeyGamification, func(b []byte) error {
			var st domain.GamificationState
			return json.Unmarshal(b, &st)
		}),
		health.DocumentCheck(d.Store, domain.KeyHabits, func(b []byte) error {
			var data domain.HabitData
			return json.Unmarshal(b, &data)
		}),
	)
}

// History returns recent snapshots of key. Only the sqlite backend keeps
// history.
func (d *Daemon) History(ctx context.Context, key string, limit int) ([]domain.Snapshot, error) {
	hs, ok := d.Store.(domain.HistoryStore)
	if !ok {
		return nil, fmt.Errorf("store backend %q keeps no history", d.Config.Store.Backend)
	}
	return hs.History(ctx, key, limit)
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	go d.reconcileLoop(ctx, parseDuration(d.Config.Engine.ReconcileInterval, 15*time.Minute))
	go d.Health.Run(ctx)

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	fmt.Printf("Bloom serving on http://%s\n", addr)
	fmt.Printf("  Store: %s\n", d.Config.Store.Backend)
	if d.Config.Telemetry.Prometheus {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}

	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// reconcileLoop breaks the streak once a day has been missed, so the
// snapshot is current even when no completion arrives.
func (d *Daemon) reconcileLoop(ctx context.Context, every time.Duration) {
	d.Engine.Reconcile(ctx)

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Engine.Reconcile(ctx)
		}
	}
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
	if d.Redis != nil {
		_ = d.Redis.Close()
	}
	if d.logFile != nil {
		_ = d.logFile.Close()
	}
}
