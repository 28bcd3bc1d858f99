package database

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/hotel-booking-assistant/internal/model"
)

//go:embed schema.sql
var schema string

// DefaultRooms is the inventory a fresh hotel starts with. Prices are INR.
var DefaultRooms = []model.Room{
	{RoomType: "standard", TotalRooms: 20, PricePerNight: 3000},
	{RoomType: "deluxe", TotalRooms: 20, PricePerNight: 6500},
	{RoomType: "suite", TotalRooms: 20, PricePerNight: 12000},
}

// Migrate creates the tables and indexes if they do not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Reset drops all tables. Bookings go first because they reference rooms.
func Reset(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `DROP TABLE IF EXISTS bookings; DROP TABLE IF EXISTS room_types;`); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	return nil
}

// Seed inserts rooms in one batch, leaving existing room types untouched.
// It returns the number of rows actually inserted.
func Seed(ctx context.Context, pool *pgxpool.Pool, rooms []model.Room) (int, error) {
	batch := &pgx.Batch{}
	for _, r := range rooms {
		batch.Queue(
			`INSERT INTO room_types (room_type, total_rooms, price_per_night)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (room_type) DO NOTHING`,
			r.RoomType, r.TotalRooms, r.PricePerNight,
		)
	}

	results := pool.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for range rooms {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("seed room: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}
