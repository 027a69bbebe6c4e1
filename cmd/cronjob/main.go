package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "time/tzdata"

	_ "github.com/lib/pq"

	"hotel-pms-backend/internal/config"
	"hotel-pms-backend/internal/jobs"
	"hotel-pms-backend/internal/logger"
	"hotel-pms-backend/internal/repository/postgres"
	"hotel-pms-backend/internal/scheduler"
	"hotel-pms-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'release-out-of-order-rooms', 'mark-no-shows', 'all-nightly')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Hotel PMS Cronjob Runner...", "log_level", cfg.Log.Level)

	if cfg.Storage.Type != "postgres" {
		log.Fatalf("Cronjob runner needs postgres storage; the server runs jobs itself for %q", cfg.Storage.Type)
	}

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Services
	jobServices := &jobs.Services{
		Rooms: service.NewRoomService(store.Rooms, store.RoomTypes),
		Reservations: service.NewReservationService(
			store.Reservations,
			store.Rooms,
			store.RoomTypes,
			store.Rates,
			store.Payments,
			store.BusinessUnits,
			// The nightly transitions send no lifecycle notices.
			service.NopNotifier(),
			cfg.DefaultLocation(),
		),
	}

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(jobServices, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		log.Fatalf("Failed to register jobs: %v", err)
	}

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "release-out-of-order-rooms":
		jobRunner.ReleaseOutOfOrderRooms()
	case "mark-no-shows":
		jobRunner.MarkNoShows()
	case "all-nightly":
		jobRunner.RunAllNightlyJobs()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - release-out-of-order-rooms\n")
		fmt.Printf("  - mark-no-shows\n")
		fmt.Printf("  - all-nightly\n")
		os.Exit(1)
	}
}
