package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/upb/shopping-assistant/app"
	"github.com/upb/shopping-assistant/config"
	"github.com/upb/shopping-assistant/handlers"
	"github.com/upb/shopping-assistant/internal/observability"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	handler, err := newHandler(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize function: %v\n", err)
		os.Exit(1)
	}

	lambda.Start(handler.Handle)
}

// newHandler builds the pipeline once per cold start.
func newHandler(ctx context.Context) (*handlers.LambdaHandler, error) {
	cfg, err := config.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	if err != nil {
		return nil, err
	}

	deps, err := app.NewDependencies(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	logger.Info("function initialized", zap.String("environment", cfg.Environment))

	generate := handlers.NewGenerateHandler(deps.Assistant, logger)
	return handlers.NewLambdaHandler(generate, cfg.CORS.AllowedOrigin, logger), nil
}
