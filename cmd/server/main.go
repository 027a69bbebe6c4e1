package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Properties name IANA zones; embed the database for minimal images.
	_ "time/tzdata"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	httpapi "hotel-pms-backend/internal/api/http"
	"hotel-pms-backend/internal/config"
	"hotel-pms-backend/internal/idempotency"
	"hotel-pms-backend/internal/jobs"
	"hotel-pms-backend/internal/logger"
	"hotel-pms-backend/internal/notify"
	"hotel-pms-backend/internal/repository"
	"hotel-pms-backend/internal/repository/memory"
	"hotel-pms-backend/internal/repository/postgres"
	"hotel-pms-backend/internal/scheduler"
	"hotel-pms-backend/internal/security"
	"hotel-pms-backend/internal/service"

	_ "github.com/lib/pq"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Hotel PMS Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress(), "grpc_address", cfg.GetGRPCAddress())
	logger.Info("Property defaults", "timezone", cfg.Property.DefaultTimezone)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Repositories
	var (
		store *repository.Store
		ready []func(ctx context.Context) error
	)
	switch cfg.Storage.Type {
	case "memory":
		logger.Warn("Using in-memory storage; data is lost on restart")
		store = memory.NewStore()
	default:
		logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
		logger.Debug("Connecting to database...", "connection_string", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database))
		db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
		if err != nil {
			logger.Error("Failed to connect to database", "error", err)
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		// Test database connection
		if err := db.PingContext(ctx); err != nil {
			logger.Error("Failed to ping database", "error", err)
			log.Fatalf("Failed to ping database: %v", err)
		}
		logger.Info("Database connection established")
		store = postgres.NewStore(db)
		ready = append(ready, db.PingContext)
	}

	// Idempotency-Key replay
	var idemStore idempotency.Store
	if cfg.Redis.Enabled {
		client := idempotency.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Error("Failed to ping redis", "addr", cfg.Redis.Addr, "error", err)
			log.Fatalf("Failed to ping redis: %v", err)
		}
		logger.Info("Redis connection established", "addr", cfg.Redis.Addr)
		idemStore = idempotency.NewRedisStore(client, cfg.Redis.KeyPrefix, 30*time.Second, cfg.IdempotencyTTL())
		ready = append(ready, func(ctx context.Context) error { return client.Ping(ctx).Err() })
	} else {
		idemStore = idempotency.NewMemoryStore()
	}

	// Initialize Notification Dispatcher
	var sender notify.Sender
	switch cfg.Notifications.Channel {
	case "smtp":
		logger.Info("SMTP configuration", "host", cfg.SMTP.Host, "port", cfg.SMTP.Port)
		sender, err = notify.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From)
		if err != nil {
			log.Fatalf("Failed to configure SMTP: %v", err)
		}
	case "sendgrid":
		logger.Info("SendGrid configuration", "from", cfg.SendGrid.FromEmail)
		sender = notify.NewSendGridSender(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)
	default:
		sender = notify.NewLogSender()
	}
	dispatcher := notify.NewDispatcher(sender, store.Notifications, notify.Options{
		Workers:    cfg.Notifications.Workers,
		QueueSize:  cfg.Notifications.QueueSize,
		MaxRetries: cfg.Notifications.MaxRetries,
		Backoff:    cfg.NotificationBackoff(),
	})
	dispatcherCtx, stopDispatcher := context.WithCancel(context.Background())
	dispatcher.Start(dispatcherCtx)

	// Initialize Services
	loc := cfg.DefaultLocation()
	roomSvc := service.NewRoomService(store.Rooms, store.RoomTypes)
	reservationSvc := service.NewReservationService(
		store.Reservations,
		store.Rooms,
		store.RoomTypes,
		store.Rates,
		store.Payments,
		store.BusinessUnits,
		dispatcher,
		loc,
	)
	services := httpapi.Services{
		RoomTypes:     service.NewRoomTypeService(store.RoomTypes, store.BusinessUnits),
		Rates:         service.NewRateService(store.Rates, store.RoomTypes, store.BusinessUnits, loc),
		Rooms:         roomSvc,
		Reservations:  reservationSvc,
		Payments:      service.NewPaymentService(store.Payments, store.Reservations),
		Notifications: service.NewNotificationService(store.Notifications),
	}

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Audience)

	router := httpapi.NewRouter(services, httpapi.Options{
		Tokens:      tokenManager,
		Idempotency: idemStore,
		Ready: func(ctx context.Context) error {
			for _, check := range ready {
				if err := check(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	})
	httpServer := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// The cronjob binary cannot see an in-memory store, so run the jobs here.
	var cronScheduler *scheduler.Scheduler
	if cfg.Storage.Type == "memory" {
		runner := jobs.NewJobRunner(&jobs.Services{Rooms: roomSvc, Reservations: reservationSvc}, cfg)
		cronScheduler, err = scheduler.NewScheduler(runner)
		if err != nil {
			log.Fatalf("Failed to register jobs: %v", err)
		}
		cronScheduler.Start()
	}

	// Set up gRPC health server
	var grpcServer *grpc.Server
	healthServer := health.NewServer()
	if addr := cfg.GetGRPCAddress(); addr != "" {
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			logger.Error("Failed to listen", "error", err, "address", addr)
			log.Fatalf("Failed to listen: %v", err)
		}
		grpcServer = grpc.NewServer()
		healthpb.RegisterHealthServer(grpcServer, healthServer)
		// Register reflection service for grpcurl
		reflection.Register(grpcServer)
		healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

		go func() {
			logger.Info("gRPC health server listening", "address", addr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("Failed to serve gRPC", "error", err)
			}
		}()
	}

	go func() {
		logger.Info("HTTP server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	// Graceful shutdown
	logger.Info("Shutting down...")
	healthServer.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	if cronScheduler != nil {
		cronScheduler.Stop()
	}
	stopDispatcher()
	dispatcher.Wait()
	logger.Info("Server stopped. Goodbye!")
}
