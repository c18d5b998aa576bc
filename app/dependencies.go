package app

import (
	"context"
	"fmt"
	"time"

	"github.com/upb/shopping-assistant/config"
	"github.com/upb/shopping-assistant/internal/observability"
	"github.com/upb/shopping-assistant/repositories"
	"github.com/upb/shopping-assistant/repositories/postgres"
	"github.com/upb/shopping-assistant/services/assistant"
	"github.com/upb/shopping-assistant/services/audit"
	"github.com/upb/shopping-assistant/services/embedding"
	"github.com/upb/shopping-assistant/services/generation"
	"github.com/upb/shopping-assistant/services/providers"
	"github.com/upb/shopping-assistant/services/providers/bedrock"
	"github.com/upb/shopping-assistant/services/retrieval"
	"go.uber.org/zap"
)

// auditStopTimeout bounds how long Close waits for queued interactions
const auditStopTimeout = 5 * time.Second

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config  *config.Config
	DB      *postgres.DB // nil when DATABASE_URL is unset
	Logger  *zap.Logger
	Metrics *observability.PrometheusMetrics

	// Repositories
	Interactions repositories.InteractionRepository

	// Services
	Models    providers.ModelInvoker
	Audit     *audit.AuditService
	Assistant *assistant.Service
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewPrometheusMetrics(),
	}

	// Initialize PostgreSQL audit store
	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize model runtime
	if err := deps.initModels(ctx, cfg); err != nil {
		deps.closeDatabase()
		return nil, fmt.Errorf("failed to initialize model runtime: %w", err)
	}

	deps.initAssistant(cfg)

	logger.Info("all dependencies initialized successfully",
		zap.Bool("audit_enabled", deps.Audit != nil),
		zap.Bool("metrics_enabled", cfg.Observability.MetricsEnabled))
	return deps, nil
}

// initDatabase connects the optional interaction audit store
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	if !cfg.Database.Enabled() {
		d.Logger.Info("DATABASE_URL not set, interaction audit disabled")
		return nil
	}

	db, err := postgres.NewDB(ctx, cfg.Database, d.Logger)
	if err != nil {
		return err
	}

	if err := db.InitSchema(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	d.DB = db
	d.Interactions = postgres.NewInteractionRepository(db, d.Logger)

	d.Audit = audit.NewAuditService(d.Interactions, d.Logger, audit.DefaultConfig())
	if err := d.Audit.Start(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to start audit service: %w", err)
	}

	return nil
}

// initModels builds the Bedrock runtime adapter shared by embedding and generation
func (d *Dependencies) initModels(ctx context.Context, cfg *config.Config) error {
	providerCfg := providers.DefaultProviderConfig()
	providerCfg.Region = cfg.Bedrock.Region
	providerCfg.AccessKeyID = cfg.Bedrock.AccessKeyID
	providerCfg.SecretAccessKey = cfg.Bedrock.SecretAccessKey
	providerCfg.Timeout = cfg.Pipeline.UpstreamTimeout

	adapter, err := bedrock.NewAdapter(ctx, providerCfg)
	if err != nil {
		return err
	}

	d.Models = adapter
	d.Logger.Info("model runtime initialized",
		zap.String("provider", adapter.Name()),
		zap.String("region", providerCfg.Region))
	return nil
}

// initAssistant wires the answer pipeline
func (d *Dependencies) initAssistant(cfg *config.Config) {
	embedder := embedding.NewTitanEmbedder(d.Models, cfg.Bedrock.EmbeddingModelID, d.Logger)
	generator := generation.NewClaudeGenerator(d.Models, cfg.Bedrock.ChatModelID, d.Logger)
	retriever := retrieval.NewPineconeRetriever(retrieval.Config{
		APIKey:        cfg.Pinecone.APIKey,
		IndexName:     cfg.Pinecone.IndexName,
		IndexHost:     cfg.Pinecone.IndexHost,
		ControllerURL: cfg.Pinecone.ControllerURL,
		Timeout:       cfg.Pipeline.UpstreamTimeout,
	}, d.Logger)

	opts := []assistant.Option{assistant.WithMetrics(d.Metrics)}
	if d.Audit != nil {
		opts = append(opts, assistant.WithRecorder(d.Audit))
	}

	d.Assistant = assistant.NewService(embedder, retriever, generator, assistant.Config{
		TopK:            cfg.Pipeline.TopK,
		UpstreamTimeout: cfg.Pipeline.UpstreamTimeout,
	}, d.Logger, opts...)
}

func (d *Dependencies) closeDatabase() {
	if d.Audit != nil {
		_ = d.Audit.Stop(auditStopTimeout)
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	// Drain queued interactions before the pool goes away
	if d.Audit != nil {
		if err := d.Audit.Stop(auditStopTimeout); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop audit service: %w", err))
		}
	}

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	// Sync logger
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
