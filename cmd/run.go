package cmd

import (
	"context"
	"fmt"
	"time"

	"coinflip/config"
	"coinflip/database"
	"coinflip/events"
	"coinflip/infrastructure"
	"coinflip/infrastructure/observability"
	"coinflip/repository"
	"coinflip/service"

	log "github.com/sirupsen/logrus"
)

// ConfigureLogging applies the configured level and formatter
func ConfigureLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Environment == "production" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()
	ConfigureLogging(cfg)

	log.WithField("environment", cfg.Environment).Info("Starting coinflip service...")

	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	databaseURL := cfg.GetDatabaseURL()
	if cfg.MigrateOnStart {
		log.Info("Applying database migrations...")
		if err := database.RunMigrationsWithURL(databaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, databaseURL, cfg.PoolOptions())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established successfully")

	// Committed events fan out to metrics and, when enabled, NATS
	eventBus := events.NewBus()
	eventBus.SubscribeAll(observability.GetMetrics().HandleEvent,
		events.EventTypeBetPlaced,
		events.EventTypeBetSettled,
		events.EventTypeFundsTransferred,
	)

	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	houseService := service.NewHouseService(uowFactory)
	bettingService := service.NewBettingService(uowFactory)
	settlementService := service.NewSettlementService(uowFactory)
	accountService := service.NewAccountService(uowFactory, cfg)
	log.Info("Services initialized successfully")

	var natsClient *infrastructure.NATSClient
	if cfg.NATSEnabled {
		natsClient = infrastructure.NewNATSClient(cfg.NATSServers)
		if err := natsClient.Connect(ctx); err != nil {
			db.Close()
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}

		publisher := infrastructure.NewNATSEventPublisher(natsClient, infrastructure.NewEventSubjectMapper())
		if err := publisher.EnsureEventStream(natsClient); err != nil {
			log.WithError(err).Error("Failed to ensure event stream, events may be dropped")
		}
		publisher.Attach(eventBus)

		auth := infrastructure.NewCommandAuthenticator(repository.NewCommandNonceRepository(db), cfg.CommandMaxSkew)
		commands := infrastructure.NewCommandServer(natsClient, auth, infrastructure.CommandServices{
			Houses:     houseService,
			Betting:    bettingService,
			Settlement: settlementService,
			Accounts:   accountService,
		})
		if err := commands.Start(); err != nil {
			natsClient.Close()
			db.Close()
			return err
		}
	} else {
		log.Warn("NATS disabled, no commands will be served")
	}

	log.Info("Coinflip service is running")
	<-ctx.Done()

	log.Info("Shutting down coinflip service...")

	// Stop taking commands before closing the pool
	if natsClient != nil {
		if err := natsClient.Close(); err != nil {
			log.WithError(err).Error("Error closing NATS connection")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down metrics")
	}

	log.Info("Closing database connection...")
	db.Close()

	log.Info("Shutdown completed")
	return nil
}
