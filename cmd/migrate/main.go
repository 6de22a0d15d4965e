package main

import (
	"context"
	"os"
	"strings"

	"github.com/fhuszti/skillswap-media-ms/internal/config"
	"github.com/fhuszti/skillswap-media-ms/internal/db"
	"github.com/fhuszti/skillswap-media-ms/internal/logger"
	"github.com/fhuszti/skillswap-media-ms/internal/migration"
)

func main() {
	ctx := context.Background()
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		logger.Errorf(ctx, "❌  Configuration error: %v", err)
		os.Exit(1)
	}

	database, err := db.New(withMultiStatements(cfg.MariaDBDSN), 1, 1, cfg.ConnMaxLifetime)
	if err != nil {
		logger.Errorf(ctx, "❌  Failed to connect to db: %v", err)
		os.Exit(1)
	}

	err = migration.MigrateUp(database.DB)
	if cErr := database.Close(); cErr != nil {
		logger.Warnf(ctx, "⚠️  DB close error: %v", cErr)
	}
	if err != nil {
		logger.Errorf(ctx, "❌  Migration up failed: %v", err)
		os.Exit(1)
	}

	logger.Info(ctx, "✅  Migrations applied successfully")
}

// withMultiStatements lets each migration file hold several statements.
func withMultiStatements(dsn string) string {
	if strings.Contains(dsn, "multiStatements=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&multiStatements=true"
	}
	return dsn + "?multiStatements=true"
}
