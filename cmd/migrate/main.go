package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/fdebbabi/nwassik-backend-serverless/internal/config"
	"github.com/fdebbabi/nwassik-backend-serverless/internal/database"
)

func main() {
	var (
		action  = flag.String("action", "up", "Migration action: up, down, status, force")
		version = flag.Int("version", -1, "Version to force, used with -action=force")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logger := config.NewLogger(cfg.Log)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	if err := cfg.Database.EnsureDirectories(); err != nil {
		logger.WithError(err).Fatal("Failed to prepare database directory")
	}

	logger.WithFields(logrus.Fields{
		"driver": cfg.Database.Driver,
		"action": *action,
	}).Info("Starting migration tool")

	migrations := database.NewMigrationManager(cfg.Database.ToRepositoryConfig(), logger)
	ctx := context.Background()

	switch *action {
	case "up":
		if err := migrations.RunMigrations(ctx); err != nil {
			logger.WithError(err).Fatal("Migration up failed")
		}
	case "down":
		if err := migrations.RollbackMigration(ctx); err != nil {
			logger.WithError(err).Fatal("Migration down failed")
		}
	case "status":
		if err := showMigrationStatus(ctx, migrations); err != nil {
			logger.WithError(err).Fatal("Failed to get migration status")
		}
	case "force":
		if *version < 0 {
			logger.Fatal("-version is required with -action=force")
		}
		if err := migrations.ForceVersion(ctx, *version); err != nil {
			logger.WithError(err).Fatal("Force version failed")
		}
	default:
		logger.WithField("action", *action).Fatal("Unknown action. Use: up, down, status, force")
	}

	logger.Info("Migration tool completed successfully")
}

func showMigrationStatus(ctx context.Context, migrations *database.MigrationManager) error {
	status, err := migrations.GetMigrationStatus(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Migration Status:\n")
	fmt.Printf("  Version: %d\n", status.Version)
	fmt.Printf("  Applied: %t\n", status.Applied)
	fmt.Printf("  Dirty: %t\n", status.Dirty)
	return nil
}
