package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	appConfiguration "github.com/variantlab/configcore/pkg/app/configuration"
	"github.com/variantlab/configcore/pkg/app/pricing"
	"github.com/variantlab/configcore/pkg/app/substitution"
	"github.com/variantlab/configcore/pkg/app/tree"
	"github.com/variantlab/configcore/pkg/config"
	"github.com/variantlab/configcore/pkg/domain/integration"
	handlers "github.com/variantlab/configcore/pkg/handlers/http"
	"github.com/variantlab/configcore/pkg/infra/apiclient"
	"github.com/variantlab/configcore/pkg/infra/database"
	"github.com/variantlab/configcore/pkg/infra/jwt"
	infraLogger "github.com/variantlab/configcore/pkg/infra/logger"
	"github.com/variantlab/configcore/pkg/infra/repository"
	"github.com/variantlab/configcore/pkg/infra/settings"
	"github.com/variantlab/configcore/pkg/middleware"
	"github.com/variantlab/configcore/pkg/server"
)

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	logger := infraLogger.NewLogger()

	// Load configuration
	if err := config.Load("./config"); err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	cfg := config.GetConfig()

	// Initialize database
	db, err := database.NewDB(logger, &database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Settings store backed by redis
	retryStatuses, err := settings.ParseRetryStatuses(cfg.Api.RetryStatuses)
	if err != nil {
		logger.Fatalf("invalid api retry statuses %q: %v", cfg.Api.RetryStatuses, err)
	}
	settingsStore := settings.NewStore(settings.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		RetryDefaults: integration.RetryPolicy{
			Count:    cfg.Api.RetryCount,
			Delay:    time.Duration(cfg.Api.RetryDelayMs) * time.Millisecond,
			Statuses: retryStatuses,
		},
	}, db.DB)

	// repository
	configuratorRepository := repository.NewConfiguratorRepository(db.DB)
	configurationRepository := repository.NewConfigurationRepository(db.DB)
	integrationRepository := repository.NewIntegrationRepository(db.DB)
	queryRunner := repository.NewQueryRunner(db.DB)

	// external API gateway
	clientTimeout, err := time.ParseDuration(cfg.Api.ClientTimeout)
	if err != nil {
		logger.Fatalf("invalid api client timeout %q: %v", cfg.Api.ClientTimeout, err)
	}
	apiCaller := apiclient.NewClient(
		logger,
		&http.Client{Timeout: clientTimeout},
		settingsStore,
		cfg.Api.LanguageCode,
	)

	// service
	engine := substitution.NewEngine(logger)
	legacyResolver := tree.NewLegacyResolver(logger, configuratorRepository)
	materializer := tree.NewMaterializer(logger, configuratorRepository)
	calculator := pricing.NewCalculator(
		logger,
		configuratorRepository,
		integrationRepository,
		legacyResolver,
		engine,
		queryRunner,
		apiCaller,
		settingsStore,
	)
	deliveryFinder := pricing.NewDeliveryFinder(
		logger,
		configuratorRepository,
		legacyResolver,
		engine,
		queryRunner,
		settingsStore,
	)
	saver := appConfiguration.NewSaver(
		logger,
		configuratorRepository,
		integrationRepository,
		configurationRepository,
		engine,
		queryRunner,
		apiCaller,
		settingsStore,
	)
	configurationFinder := appConfiguration.NewFinder(logger, configurationRepository)

	jwtManager := jwt.NewJwtManager(&cfg.Server)

	// middleware
	middlewareTransport := middleware.Transport{
		AuthMiddleware:         middleware.NewAdminAuthMiddleware(logger, jwtManager),
		PanicRecoverMiddleware: middleware.NewPanicRecoverMiddleware(logger),
	}

	// Handler Transport
	handlerTransport := handlers.HandlerTransport{
		// Tree resolution
		GetLegacyTreeHandler: handlers.NewGetLegacyTreeHandler(logger, legacyResolver),
		GetTreeHandler:       handlers.NewGetTreeHandler(logger, materializer),
		// Pricing
		CalculatePriceHandler: handlers.NewCalculatePriceHandler(logger, calculator),
		DeliveryTimeHandler:   handlers.NewDeliveryTimeHandler(logger, deliveryFinder),
		// Persistence
		SaveConfigurationHandler: handlers.NewSaveConfigurationHandler(logger, calculator, deliveryFinder, saver),
		GetConfigurationHandler:  handlers.NewGetConfigurationHandler(logger, configurationFinder),
	}

	srv := server.NewApiServer(server.ApiServerDI{
		MiddlewareTransport: middlewareTransport,
		HandlerTransport:    handlerTransport,
		Config:              cfg,
		Logger:              logger,
	})

	go func() {
		if err := srv.Run(); err != nil {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	fmt.Println("shutting down server...")
	if err := srv.Shutdown(); err != nil {
		fmt.Println("error shutting down server:", err)
		os.Exit(1)
	}
	fmt.Println("server gracefully stopped")
}
