package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/harvestlink/backend/internal/config"
)

// Applies goose migrations from the migrations/ directory. Usage:
//
//	migrate [-dir migrations] up|down|status
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	dir := flag.String("dir", "migrations", "directory with migration files")
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.User,
		cfg.Database.Password, cfg.Database.Name, cfg.Database.SSLMode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()

	var runErr error
	switch command {
	case "up":
		runErr = goose.UpContext(ctx, db, *dir)
	case "down":
		runErr = goose.DownContext(ctx, db, *dir)
	case "status":
		runErr = goose.StatusContext(ctx, db, *dir)
	default:
		logger.Error("unknown command", slog.String("command", command))
		os.Exit(1)
	}

	if runErr != nil {
		logger.Error("migration failed", slog.String("command", command), slog.Any("error", runErr))
		os.Exit(1)
	}

	logger.Info("migration complete", slog.String("command", command))
}
