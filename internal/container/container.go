package container

import (
	"context"
	"fmt"
	"sync"
	"time"

	"uniscan/adapters/cache"
	"uniscan/adapters/llm"
	"uniscan/adapters/memory"
	"uniscan/adapters/postgres"
	"uniscan/app/email"
	"uniscan/app/history"
	"uniscan/app/pipeline"
	"uniscan/app/settings"
	"uniscan/app/workflow"
	"uniscan/internal"
	"uniscan/internal/api"
	"uniscan/internal/config"
	"uniscan/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB    *sqlx.DB
	Cache ports.ListCache
	redis *cache.Redis
	LLM   ports.LLMClient

	// Repositories (data access layer)
	Catalog   ports.CatalogRepository
	Analyses  ports.AnalysisRepository
	Promoters ports.PromoterRepository

	// Services
	Publisher *settings.PublisherSettings
	Profiles  *settings.ProfileService
	History   *history.Service
	Pipeline  *pipeline.Service
	Emails    *email.Generator
	Workflows *workflow.Manager
	SSEHub    *api.SSEHub

	stopSweep chan struct{}
	sweepDone sync.WaitGroup
}

// New creates a new dependency injection container
func New(cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &Container{Config: cfg, Logger: logger}, nil
}

// InitWithDatabase initializes every component on top of Postgres
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}
	c.DB = db
	c.Catalog = postgres.NewCatalogRepository(db)
	c.Analyses = postgres.NewAnalysisRepository(db)
	c.Promoters = postgres.NewPromoterRepository(db)
	return c.initServices(ctx)
}

// InitHistoryOnly wires the stored analyses and their history on Postgres.
// No model client or workflow is created; the viewer and the CLI use this.
func (c *Container) InitHistoryOnly(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}
	c.DB = db
	c.Catalog = postgres.NewCatalogRepository(db)
	c.Analyses = postgres.NewAnalysisRepository(db)
	if err := c.initCache(ctx); err != nil {
		return err
	}
	c.History = history.NewService(c.Analyses, c.Cache, c.Config.Cache.HistoryTTL, c.Logger.With("component", "history"))
	return nil
}

// InitInMemory initializes every component on in-memory repositories. The
// catalog is returned so callers can seed it.
func (c *Container) InitInMemory(ctx context.Context) (*memory.CatalogRepository, error) {
	catalogRepo := memory.NewCatalogRepository()
	c.Catalog = catalogRepo
	c.Analyses = memory.NewAnalysisRepository(catalogRepo.SubjectName)
	c.Promoters = memory.NewPromoterRepository()
	return catalogRepo, c.initServices(ctx)
}

// WithLLM replaces the model client; it must be called before Init*
func (c *Container) WithLLM(client ports.LLMClient) *Container {
	c.LLM = client
	return c
}

func (c *Container) initServices(ctx context.Context) error {
	if err := c.initCache(ctx); err != nil {
		return err
	}
	if c.LLM == nil {
		client, err := llm.NewOpenAIClient(llm.Config{
			APIKey:      c.Config.AI.OpenAIKey,
			BaseURL:     c.Config.AI.BaseURL,
			Timeout:     c.Config.AI.Timeout,
			Temperature: c.Config.AI.Temperature,
			JSONMode:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create LLM client: %w", err)
		}
		c.LLM = client
	}

	c.Publisher = settings.NewPublisherSettings(c.Config.Publisher.Default)
	c.Publisher.OnChange(func(p string) {
		c.Logger.Info("publisher changed", "publisher", p)
	})
	c.Profiles = settings.NewProfileService(c.Promoters, c.Logger.With("component", "settings"))
	c.History = history.NewService(c.Analyses, c.Cache, c.Config.Cache.HistoryTTL, c.Logger.With("component", "history"))

	c.Pipeline = pipeline.NewService(c.Catalog, c.Analyses, c.LLM, c.Publisher, pipeline.Config{
		Model:     c.Config.AI.Model,
		MaxTokens: c.Config.AI.MaxTokens,
	}, c.Logger.With("component", "pipeline"))
	c.Emails = email.NewGenerator(c.Analyses, c.Profiles, c.LLM, c.Publisher, c.Config.AI.Model, 0, c.Logger.With("component", "email"))

	c.SSEHub = api.NewSSEHub(c.Logger)
	c.Workflows = workflow.NewManager(c.History.Track(c.Pipeline), workflow.Options{
		Timeout: c.Config.Workflow.PipelineTimeout,
		Logger:  c.Logger.With("component", "workflow"),
		OnChange: func(snap workflow.Snapshot) {
			c.SSEHub.Publish(snap.SessionID, api.EventWorkflow, snap)
		},
	})

	c.Logger.Info("container initialized",
		"model", c.Config.AI.Model,
		"publisher", c.Publisher.Publisher(),
		"redis", c.redis != nil)
	return nil
}

func (c *Container) initCache(ctx context.Context) error {
	if c.Config.Cache.RedisURL == "" {
		c.Cache = cache.NewMemory()
		return nil
	}
	r, err := cache.NewRedis(ctx, c.Config.Cache.RedisURL, "uniscan:")
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	c.redis = r
	c.Cache = r
	return nil
}

// StartSweeper periodically drops workflows idle for longer than the
// configured session timeout
func (c *Container) StartSweeper(interval time.Duration) {
	idle := c.Config.Workflow.SessionIdleTimeout
	if idle <= 0 || c.Workflows == nil || c.stopSweep != nil {
		return
	}
	c.stopSweep = make(chan struct{})
	c.sweepDone.Add(1)
	go func() {
		defer c.sweepDone.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := c.Workflows.Sweep(idle); n > 0 {
					c.Logger.Debug("idle workflows removed", "count", n)
				}
			case <-c.stopSweep:
				return
			}
		}
	}()
}

// Shutdown stops background work, aborts running analyses and closes
// connections
func (c *Container) Shutdown(ctx context.Context) error {
	if c.stopSweep != nil {
		close(c.stopSweep)
		c.sweepDone.Wait()
		c.stopSweep = nil
	}
	if c.Workflows != nil {
		c.Workflows.Shutdown()
	}
	if c.SSEHub != nil {
		c.SSEHub.Close()
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.Logger.Warn("redis close failed", "error", err)
		}
	}
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
