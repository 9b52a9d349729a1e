package cmd

import (
	"context"
	"fmt"
	"os"

	"plombir/api"
	"plombir/auth"
	"plombir/cache"
	"plombir/catalog"
	"plombir/config"
	"plombir/database"
	"plombir/events"
	"plombir/repository"
	"plombir/service"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	// Load configuration
	cfg := config.Get()
	configureLogging(cfg)

	log.Info("Starting plombir API...")

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, database.ConstructDatabaseURL(cfg.DatabaseURL, cfg.DatabaseName))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	// Initialize event bus
	eventBus := events.NewBus()

	// Forward domain events to NATS for the notification bot
	if cfg.NATSServers != "" {
		natsClient := events.NewNATSClient(cfg.NATSServers)
		if err := natsClient.Connect(ctx); err != nil {
			return err
		}
		defer func() {
			if err := natsClient.Close(); err != nil {
				log.WithError(err).Warn("Error closing NATS connection")
			}
		}()
		if err := natsClient.EnsureStream(events.DomainEventStream, events.Subjects()); err != nil {
			return err
		}
		events.NewForwarder(natsClient).Attach(eventBus)
		log.Info("Event forwarding to NATS enabled")
	}

	// The leaderboard cache is optional
	var topCache service.TopCache
	if cfg.RedisAddr != "" {
		redisClient, err := cache.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return err
		}
		defer redisClient.Close()

		c := cache.NewTopCache(redisClient, cfg.TopCacheTTL)
		c.SubscribeInvalidation(eventBus)
		topCache = c
		log.WithField("addr", cfg.RedisAddr).Info("Leaderboard cache enabled")
	}

	// Load the farm catalog
	var farmCatalog *catalog.Catalog
	if cfg.CatalogPath != "" {
		farmCatalog, err = catalog.Load(cfg.CatalogPath)
	} else {
		farmCatalog, err = catalog.Default()
	}
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize services
	log.Info("Initializing services...")
	roller := service.NewRandomRoller()
	services := api.Services{
		Users:       service.NewUserService(uowFactory, cfg.StartingBalance),
		Farm:        service.NewFarmService(uowFactory, farmCatalog),
		Tasks:       service.NewTaskService(uowFactory),
		PvP:         service.NewPvPService(uowFactory, roller),
		Giveaways:   service.NewGiveawayService(uowFactory),
		Promo:       service.NewPromoService(uowFactory),
		Profile:     service.NewProfileService(uowFactory),
		Dice:        service.NewDiceService(uowFactory, roller),
		Leaderboard: service.NewLeaderboardService(uowFactory, topCache),
		Admin:       service.NewAdminService(uowFactory),
	}

	validator := auth.NewValidator(cfg.BotToken, cfg.InitDataMaxAge)
	sessions := auth.NewSessionIssuer(cfg.SessionSecret, cfg.SessionTTL)
	if cfg.AllowUserIDHeader {
		log.Warn("X-User-Id header identity is enabled; callers can act as any user")
	}

	server := api.NewServer(cfg, validator, sessions, services)

	log.Infof("API is running in %s mode...", cfg.Environment)
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	log.Info("Shutdown completed")
	return nil
}

func configureLogging(cfg *config.Config) {
	log.SetOutput(os.Stdout)
	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
