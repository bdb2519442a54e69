package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver

	"payroll.service/internal/config"
	"payroll.service/internal/core"
	payslipPDF "payroll.service/internal/payslip"
	"payroll.service/internal/ports/repository"
	"payroll.service/internal/worker"
	"payroll.service/internal/worker/payslip"
	"payroll.service/pkg/aws"
	"payroll.service/pkg/database"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Could not load configuration: %v", err)
	}

	// DB connection
	db, err := database.NewConnection(cfg)
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	defer db.Close()
	log.Println("Successfully connected to the database.")

	// AWS SDK Config
	awsCfg, err := aws.NewAWSConfig(context.Background(), cfg)
	if err != nil {
		log.Fatalf("unable to load SDK config: %v", err)
	}

	// Initialize Dependencies
	sqsClient := sqs.NewFromConfig(awsCfg)
	sesClient := ses.NewFromConfig(awsCfg)

	repo := repository.NewHRRepository(db)
	mailer := core.NewSESEmailService(sesClient, cfg.SenderEmail)

	renderer, err := payslipPDF.NewRenderer(cfg.CompanyName, cfg.PayslipFontPath)
	if err != nil {
		log.Fatalf("Could not initialize payslip renderer: %v", err)
	}

	processor := payslip.NewProcessor(repo, renderer, mailer)

	// Start Worker
	ctx, cancel := context.WithCancel(context.Background())
	app := worker.NewWorker(sqsClient, cfg.PayslipSQSQueueURL, processor)

	go func() {
		app.Start(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down worker...")

	// Cancel the context to signal the worker to stop polling.
	cancel()

	log.Println("Worker exited gracefully")
}
