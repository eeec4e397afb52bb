// Package app wires the application together: configuration, providers,
// the router and domestic pipeline, the HTTP server, and the background
// scheduler. One instance per process, assembled explicitly.
package app

import (
	"fmt"
	"log/slog"

	"trailweather.app/api"
	"trailweather.app/config"
	"trailweather.app/domestic"
	"trailweather.app/elevation"
	"trailweather.app/metrics"
	"trailweather.app/providers"
	"trailweather.app/providers/cache"
	"trailweather.app/scheduler"
	"trailweather.app/service"
)

// Application represents the main application with all its dependencies
type Application struct {
	config      *config.Config
	server      *api.Server
	scheduler   *scheduler.Scheduler
	router      *providers.Router
	elevation   *elevation.Service
	meteoFrance *domestic.MeteoFranceClient
}

// NewApplication creates and initializes a new application instance
func NewApplication() (*Application, error) {
	app := &Application{}

	if err := app.loadConfiguration(); err != nil {
		return nil, err
	}
	if err := app.initializeServices(); err != nil {
		return nil, err
	}

	return app, nil
}

func (app *Application) loadConfiguration() error {
	slog.Info("Loading configuration...")

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return fmt.Errorf("load application configuration: %w", err)
	}

	app.config = cfg
	slog.Info("Configuration loaded successfully")
	return nil
}

func (app *Application) initializeServices() error {
	slog.Info("Initializing services...")
	cfg := app.config

	forecastCache := cache.NewForecastCache(cfg.Cache.TTL())
	providerMetrics := metrics.NewProviderMetrics()
	app.elevation = elevation.NewService(&cfg.Elevation)

	fallback := providers.NewOpenMeteoProvider(&cfg.OpenMeteo)
	app.router = providers.NewRouter(fallback, forecastCache, providerMetrics)
	app.router.Register("US", providers.NewNWSProvider(&cfg.NWS))
	app.router.Register("CA", providers.NewEnvCanadaProvider(&cfg.EnvCanada))
	app.router.Register("GB", providers.NewMetOfficeProvider(&cfg.MetOffice))

	app.meteoFrance = domestic.NewMeteoFranceClient(&cfg.MeteoFrance)
	pipeline := domestic.NewPipeline(
		app.meteoFrance,
		fallback,
		app.elevation,
		forecastCache,
		providerMetrics,
		cfg.Domestic,
		cfg.Cache.TTL(),
	)

	weatherService := service.NewWeatherService(cfg.Domestic.HomeCountry, pipeline, app.router)
	app.server = api.NewServer(cfg, weatherService, providerMetrics)
	app.scheduler = scheduler.NewScheduler(forecastCache, cfg.Cache.SweepInterval())

	slog.Info("Services initialized successfully",
		"home_country", cfg.Domestic.HomeCountry,
		"fallback", fallback.Name())
	return nil
}

// Start starts the application
func (app *Application) Start() error {
	slog.Info("Starting scheduler...")
	if err := app.scheduler.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	slog.Info("Starting HTTP server", "port", app.config.Server.Port)
	return app.server.Start()
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	slog.Info("Shutting down application...")

	if app.scheduler != nil {
		app.scheduler.Stop()
	}
	if app.router != nil {
		app.router.Close()
	}
	if app.elevation != nil {
		app.elevation.Close()
	}
	if app.meteoFrance != nil {
		app.meteoFrance.Close()
	}

	slog.Info("Application shutdown complete")
	return nil
}

// Config returns the application configuration
func (app *Application) Config() *config.Config {
	return app.config
}
