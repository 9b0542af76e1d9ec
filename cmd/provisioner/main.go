package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/kaiac/backend/internal/config"
	"github.com/kaiac/backend/internal/database"
	"github.com/kaiac/backend/internal/mailer"
	"github.com/kaiac/backend/internal/models"
	"github.com/kaiac/backend/internal/queue"
)

func main() {
	// Load configuration
	cfg := config.Load()

	if cfg.QueueURL == "" {
		log.Fatal("PROVISIONING_QUEUE_URL is required for the provisioner")
	}

	// Connect to database and Redis
	db, rdb, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db, rdb)

	// Run migrations
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// SQS client
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.QueueRegion))
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}
	client := sqs.NewFromConfig(awsCfg)

	// Mail platform client
	mail := mailer.NewClient(cfg)

	poller := queue.NewPoller(client, cfg.QueueURL, db, mail)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down provisioner...")
		poller.Stop()
	}()

	log.Printf("Starting KaiaC provisioner on queue %s", cfg.QueueURL)
	poller.Start()
}
