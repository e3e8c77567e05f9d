package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/khrees2412/mockly/internal/ai"
	"github.com/khrees2412/mockly/internal/blob"
	"github.com/khrees2412/mockly/internal/config"
	"github.com/khrees2412/mockly/internal/database"
	"github.com/khrees2412/mockly/internal/interview"
	"github.com/khrees2412/mockly/internal/logx"
	"github.com/khrees2412/mockly/internal/metrics"
	"github.com/khrees2412/mockly/internal/resume"
)

// App is the dependency container for the CLI application
type App struct {
	Config   *config.Config
	Store    *database.Store
	Blobs    blob.Store
	Engine   *interview.Engine
	Registry *prometheus.Registry
}

// NewApp initializes and returns a new App instance
func NewApp(ctx context.Context) (*App, error) {
	// Initialize config
	if err := config.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize config: %w", err)
	}
	cfg := config.AppConfig

	dataDir, err := config.Dir()
	if err != nil {
		return nil, err
	}

	// Open database with proper pragmas
	store, err := database.Open(filepath.Join(dataDir, "mockly.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	a, err := build(ctx, cfg, store, dataDir)
	if err != nil {
		store.Close()
		return nil, err
	}
	return a, nil
}

func build(ctx context.Context, cfg *config.Config, store *database.Store, dataDir string) (*App, error) {
	blobs, err := blob.New(ctx, cfg, dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize resume storage: %w", err)
	}

	completer, err := ai.NewCompleter(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize AI provider: %w", err)
	}

	bank, err := cfg.QuestionBank()
	if err != nil {
		return nil, fmt.Errorf("failed to load question bank: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	engine, err := interview.New(interview.Options{
		AI:      ai.NewService(completer, 0),
		Archive: store,
		Store:   store,
		Blobs:   blobs,
		Parser:  resume.NewParser(),
		Plan:    cfg.Interview,
		Bank:    bank,
		Metrics: metrics.NewPrometheusRecorder(registry),
		Logger:  logx.NewLogger("interview"),
	})
	if err != nil {
		return nil, err
	}

	if err := engine.Restore(ctx); err != nil {
		return nil, err
	}

	return &App{
		Config:   cfg,
		Store:    store,
		Blobs:    blobs,
		Engine:   engine,
		Registry: registry,
	}, nil
}

// Close closes all resources
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
