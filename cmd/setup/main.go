// Command setup creates the hotel schema and seeds the default room inventory.
//
//	go run ./cmd/setup          # create tables if missing, add default rooms
//	go run ./cmd/setup -reset   # drop everything first
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/hotel-booking-assistant/internal/config"
	"github.com/Shivanand-hulikatti/hotel-booking-assistant/internal/database"
	"github.com/Shivanand-hulikatti/hotel-booking-assistant/internal/logger"
)

func main() {
	reset := flag.Bool("reset", false, "drop existing tables, including all bookings, before creating them")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logg, err := logger.New(cfg.App.LogLevel, cfg.App.LogFormat, "hotel-setup")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logg.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database, logg)
	if err != nil {
		logg.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()

	if *reset {
		if err := database.Reset(ctx, pool); err != nil {
			logg.Fatal("reset failed", zap.Error(err))
		}
		logg.Warn("dropped existing tables")
	}

	if err := database.Migrate(ctx, pool); err != nil {
		logg.Fatal("schema migration failed", zap.Error(err))
	}
	logg.Info("schema ready")

	inserted, err := database.Seed(ctx, pool, database.DefaultRooms)
	if err != nil {
		logg.Fatal("seeding rooms failed", zap.Error(err))
	}
	logg.Info("room inventory seeded",
		zap.Int("inserted", inserted),
		zap.Int("already_present", len(database.DefaultRooms)-inserted),
	)
}
