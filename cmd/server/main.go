package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/p-n-ai/pai-planner/internal/api"
	"github.com/p-n-ai/pai-planner/internal/holiday"
	"github.com/p-n-ai/pai-planner/internal/plan"
	"github.com/p-n-ai/pai-planner/internal/planner"
	"github.com/p-n-ai/pai-planner/internal/platform/cache"
	"github.com/p-n-ai/pai-planner/internal/platform/config"
	"github.com/p-n-ai/pai-planner/internal/platform/database"
	"github.com/p-n-ai/pai-planner/internal/reference"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(newLogger(cfg.Log))

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	loader, err := reference.NewLoader(cfg.Reference.Path)
	if err != nil {
		slog.Error("failed to load reference data", "path", cfg.Reference.Path, "error", err)
		os.Exit(1)
	}
	refData := loader.Data()
	slog.Info("reference data loaded",
		"path", cfg.Reference.Path,
		"catalog", len(refData.Catalog),
		"syllabus", len(refData.Syllabus),
		"sources", len(refData.Sources),
	)

	var checkers []api.Checker

	var store plan.Store = plan.NewMemoryStore()
	var events plan.EventLogger = plan.NewMemoryEventLogger()
	if cfg.Database.Enabled {
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			slog.Warn("database unavailable, keeping plans in memory", "error", err)
		} else {
			defer db.Close()
			if err := plan.Migrate(ctx, db.Pool); err != nil {
				slog.Error("failed to migrate plan schema", "error", err)
				os.Exit(1)
			}
			pgStore, err := plan.NewPostgresStore(db.Pool)
			if err != nil {
				slog.Error("failed to create plan store", "error", err)
				os.Exit(1)
			}
			store = pgStore
			events = plan.NewPostgresEventLogger(db.Pool)
			checkers = append(checkers, db)
			slog.Info("plan store ready", "backend", "postgres")
		}
	}

	var redis *cache.Cache
	if cfg.Cache.Enabled {
		c, err := cache.New(ctx, cfg.Cache)
		if err != nil {
			slog.Warn("cache unavailable, holiday lookups uncached", "error", err)
		} else {
			defer c.Close()
			redis = c
			checkers = append(checkers, c)
		}
	}

	holidays, err := newHolidayProvider(cfg.Holiday, redis)
	if err != nil {
		slog.Error("failed to configure holidays", "source", cfg.Holiday.Source, "error", err)
		os.Exit(1)
	}

	p, err := planner.New(planner.Config{
		Reference: refData,
		Holidays:  holidays,
		MaxDays:   cfg.Planner.MaxDays,
	})
	if err != nil {
		slog.Error("failed to create planner", "error", err)
		os.Exit(1)
	}

	server, err := api.New(api.Config{
		Planner:        p,
		Store:          store,
		Events:         events,
		Checkers:       checkers,
		DefaultCountry: cfg.Holiday.Country,
	})
	if err != nil {
		slog.Error("failed to create API server", "error", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// newLogger builds the process logger from the log settings.
func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// newHolidayProvider selects the holiday source. Remote lookups are cached
// in Redis when a cache is available.
func newHolidayProvider(cfg config.HolidayConfig, c *cache.Cache) (holiday.Provider, error) {
	switch cfg.Source {
	case config.HolidaySourceNone:
		return holiday.NopProvider{}, nil
	case config.HolidaySourceFile:
		p, err := holiday.LoadFile(cfg.FilePath)
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.HolidaySourceNager:
		var p holiday.Provider = holiday.NewNagerProvider(cfg.BaseURL,
			holiday.WithHTTPClient(&http.Client{Timeout: cfg.Timeout()}),
		)
		if c != nil {
			p = holiday.NewCachedProvider(p, c.HolidayStore(), cfg.CacheTTL())
		}
		return p, nil
	}
	return nil, fmt.Errorf("unknown holiday source %q", cfg.Source)
}
