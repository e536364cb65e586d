package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stagepass/cmd/consumers/jobs"
	"stagepass/internal/config"
	"stagepass/internal/consumers"
	"stagepass/internal/logger"
)

func main() {
	log.Println("Starting consumers service...")

	// Load configuration
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	// Override NATS client ID for consumers
	cfg.NATS.ClientID = "stagepass-consumers"

	// Create and start consumers
	consumerService, err := consumers.NewConsumerService(cfg)
	if err != nil {
		log.Fatalf("Failed to create consumer service: %v", err)
	}

	// Start consuming messages
	if err := consumerService.Start(); err != nil {
		log.Fatalf("Failed to start consumers: %v", err)
	}

	// Pending orders from the admin console time out here
	jobCtx, cancelJob := context.WithCancel(context.Background())
	expirationJob := jobs.NewOrderExpirationJob(
		consumerService.Repositories().Orders,
		consumerService.NATS(),
		cfg.PendingOrderTimeout,
	)
	expirationJob.Start(jobCtx)

	log.Println("Consumers service started successfully")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down consumers service...")

	expirationJob.Stop()
	cancelJob()

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := consumerService.Shutdown(ctx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Consumers service stopped")
}
