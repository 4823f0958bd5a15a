package main

import (
	"context"
	"os/signal"
	"syscall"

	"rideshare/internal/coordinator"
	"rideshare/internal/recognition"
	"rideshare/internal/recognition/repository"
	"rideshare/pkg/client"
	"rideshare/pkg/config"
)

const ServiceName = "coordinator"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Coordinator service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	matcher := initMatcher(ctx, cfg)
	account := client.NewHttpClient(cfg.AccountServiceURL)

	server := coordinator.NewServer(cfg, matcher, account)
	if err := server.Listen(); err != nil {
		cfg.Log.Fatal("Coordinator failed to start", "error", err)
	}
	if err := server.Serve(ctx); err != nil {
		cfg.Log.Fatal("Coordinator stopped unexpectedly", "error", err)
	}

	cfg.Log.Info("Coordinator stopped gracefully")
}

func initMatcher(ctx context.Context, cfg *config.Config) *recognition.Matcher {
	encodingRepo := repository.NewMongoEncodingRepository(cfg)
	matcher := recognition.NewMatcher(encodingRepo, recognition.NewHistogramEncoder(), cfg)

	if err := matcher.Rebuild(ctx); err != nil {
		cfg.Log.Fatal("Failed to load face encodings", "error", err)
	}

	cfg.Log.Info("Face matcher initialized", "threshold", cfg.MatchThreshold)
	return matcher
}
