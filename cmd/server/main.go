// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "printer-service/docs"
	"printer-service/internal/config"
	"printer-service/internal/database"
	"printer-service/internal/escpos"
	"printer-service/internal/handler"
	"printer-service/internal/registry"
	"printer-service/internal/repository"
	"printer-service/internal/routes"
	"printer-service/internal/service"
	"printer-service/internal/transport"
	"printer-service/internal/utils"
)

// configFileEnv names an explicit config file; unset searches ./ and ./configs
const configFileEnv = "PRINTER_SERVICE_CONFIG_FILE"

// Application represents the main application
type Application struct {
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
	database *database.DB
	router   *routes.Router

	jobRepo          repository.JobRepository
	transportFactory *transport.Factory
	registry         *registry.Registry
	eventBus         *handler.EventBus
	printerService   *service.PrinterService
}

// @title Printer Service API
// @version 1.0
// @description Thermal receipt printer service over USB, Bluetooth, serial, network and API relays.

// @host localhost:8084
// @BasePath /
func main() {
	app, err := NewApplication()
	if err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}
	defer utils.LogPanic(app.logger)

	if err := app.Start(); err != nil {
		app.logger.Fatal("Failed to start application", zap.Error(err))
	}
}

// NewApplication creates a new application instance
func NewApplication() (*Application, error) {
	cfg, err := config.Load(os.Getenv(configFileEnv))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	serviceLogger := utils.NewServiceLogger(logger, "printer-service")
	serviceLogger.LogServiceStart(cfg.App.Version, cfg)

	app := &Application{
		config: cfg,
		logger: logger,
	}

	if err := app.initializeDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	app.initializeRepositories()
	app.initializeTransports()
	app.initializeServices()
	app.initializeServer()

	return app, nil
}

// initializeDatabase connects and migrates the job journal when enabled
func (app *Application) initializeDatabase() error {
	if !app.config.Database.Enabled {
		app.logger.Info("Database disabled, print journal kept in memory",
			zap.Int("journal_size", app.config.Database.JournalSize),
		)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, app.config, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}
	app.database = db

	migrator := database.NewMigrator(app.logger, &app.config.Database)
	if err := migrator.Up(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	app.logger.Info("Database initialized successfully")
	return nil
}

// initializeRepositories creates the job journal
func (app *Application) initializeRepositories() {
	if app.database != nil {
		app.jobRepo = repository.NewJobRepository(app.database, app.logger)
	} else {
		app.jobRepo = repository.NewMemoryJobRepository(app.config.Database.JournalSize)
	}

	app.logger.Info("Repositories initialized successfully")
}

// initializeTransports sets up the transport factory and connection registry
func (app *Application) initializeTransports() {
	app.transportFactory = transport.NewFactory(app.config.TransportDefaults(), app.logger)
	transport.RegisterDefaultTransports(app.transportFactory, app.logger)

	app.eventBus = handler.NewEventBus(app.logger)
	app.registry = registry.New(app.transportFactory, app.logger)
	app.registry.SetEventHandler(app.eventBus)

	kinds := make([]string, 0)
	for _, kind := range app.transportFactory.Kinds() {
		kinds = append(kinds, string(kind))
	}
	app.logger.Info("Transport registry initialized successfully",
		zap.Strings("transports", kinds),
	)
}

// initializeServices creates service instances
func (app *Application) initializeServices() {
	encoder := escpos.NewEncoder(escpos.Config{
		Width:      app.config.Printer.Width,
		Currency:   app.config.Printer.Currency,
		TimeLayout: app.config.Printer.TimeLayout,
		Location:   app.config.Location(),
	})

	app.printerService = service.NewPrinterService(app.registry, encoder, app.jobRepo, app.logger)

	app.logger.Info("Services initialized successfully")
}

// initializeServer sets up HTTP server and routes
func (app *Application) initializeServer() {
	app.router = routes.NewRouter(
		app.config,
		app.logger,
		app.database,
		app.printerService,
		app.eventBus,
	)

	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      app.router.SetupRouter(),
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
	}

	app.logger.Info("HTTP server initialized",
		zap.String("address", app.config.GetServerAddr()),
	)
}

// Start serves HTTP until a shutdown signal arrives
func (app *Application) Start() error {
	go app.eventBus.Start()

	go func() {
		app.logger.Info("Starting HTTP server",
			zap.String("address", app.server.Addr),
		)

		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	app.waitForShutdown()
	return nil
}

// waitForShutdown waits for shutdown signal and performs graceful shutdown
func (app *Application) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	app.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	app.shutdown()
}

// shutdown performs graceful shutdown
func (app *Application) shutdown() {
	serviceLogger := utils.NewServiceLogger(app.logger, "printer-service")
	serviceLogger.LogServiceStop("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	app.router.Close()

	if err := app.server.Shutdown(ctx); err != nil {
		utils.LogError(app.logger, "HTTP server shutdown error", err)
	} else {
		app.logger.Info("HTTP server stopped")
	}

	// Release the printer device
	if err := app.printerService.Disconnect(ctx); err != nil {
		app.logger.Warn("Printer disconnect error", zap.Error(err))
	}

	app.eventBus.Stop()

	if app.database != nil {
		if err := app.database.Close(); err != nil {
			utils.LogError(app.logger, "Database close error", err)
		} else {
			app.logger.Info("Database connection closed")
		}
	}

	app.logger.Info("Application shutdown completed")

	if err := utils.CloseLogger(app.logger); err != nil {
		fmt.Printf("Logger close error: %v\n", err)
	}
}
