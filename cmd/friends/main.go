package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/mroshb/friends/internal/config"
	"github.com/mroshb/friends/internal/database"
	"github.com/mroshb/friends/internal/services"
	"github.com/mroshb/friends/pkg/logger"
)

// Bootstrap entrypoint: validates configuration, connects to the
// database and brings the schema up to date. The social-graph services
// are library surface; embedding applications construct a Registry and
// call into it.
func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Initialize logger
	logger.Init()
	defer logger.Sync()

	logger.Info("Starting friends service bootstrap...")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", err)
	}

	// Validate production security settings
	if cfg.AppEnv == "production" {
		if err := cfg.ValidateProductionSecurity(); err != nil {
			logger.Fatal("Production security validation failed", err)
		}
		logger.Info("Production security validation passed")
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", err)
	}

	// Run GORM auto-migration
	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	services.NewRegistry(db, cfg, nil, nil, nil)

	logger.Info("Schema ready", "env", cfg.AppEnv)
}
