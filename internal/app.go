// Package internal contains core application functionality
package internal

import (
	"fmt"

	"github.com/karloscodes/cartridge"

	"brightholme/internal/config"
	"brightholme/internal/database"
)

// Application wraps cartridge.Application with brightholme-specific components
type Application struct {
	*cartridge.Application
	DBManager *database.DBManager
}

// NewApp creates a new application instance with default settings
func NewApp() (*Application, error) {
	cfg := config.GetConfig()
	return NewAppWithConfig(cfg)
}

// NewAppWithConfig creates a new application with the provided config
func NewAppWithConfig(cfg *config.Config) (*Application, error) {
	return newApp(cfg, MountAppRoutes)
}

// NewAppWithRoutes creates a new application with a custom route mounting function
func NewAppWithRoutes(cfg *config.Config, routeMount func(*cartridge.Server)) (*Application, error) {
	return newApp(cfg, routeMount)
}

func newApp(cfg *config.Config, routeMount func(*cartridge.Server)) (*Application, error) {
	logger := cartridge.NewLogger(cfg, nil)

	dbManager := database.NewDBManager(cfg, logger)
	if err := dbManager.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Global SecFetchSite middleware allows: cross-site, same-site,
	// same-origin. The tracking beacon and lead forms arrive cross-origin
	// from the marketing site; the default same-origin-only set would 403
	// every one of them. Header-less (server-to-server) POSTs stay blocked.
	serverConfig := cartridge.DefaultServerConfig()
	serverConfig.EnableSecFetchSite = true
	serverConfig.SecFetchSiteAllowedValues = []string{"cross-site", "same-site", "same-origin"}

	app, err := cartridge.NewApplication(cartridge.ApplicationOptions{
		Config:         cfg,
		Logger:         logger,
		DBManager:      dbManager,
		RouteMountFunc: routeMount,
		ServerConfig:   serverConfig,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	return &Application{
		Application: app,
		DBManager:   dbManager,
	}, nil
}
