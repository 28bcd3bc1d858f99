// Package repository implements all database queries for the hotel booking assistant.
// It uses pgx directly (no ORM).
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/hotel-booking-assistant/internal/availability"
	"github.com/Shivanand-hulikatti/hotel-booking-assistant/internal/dates"
	"github.com/Shivanand-hulikatti/hotel-booking-assistant/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrRoomTypeExists is returned when a room category is registered twice.
var ErrRoomTypeExists = errors.New("room type already exists")

// ErrNoAvailability is returned when a booking would exceed a category's
// capacity on at least one day of its range.
var ErrNoAvailability = errors.New("no rooms available for the requested dates")

const uniqueViolation = "23505"

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// RoomRepository handles persistence for room categories.
type RoomRepository struct {
	db *pgxpool.Pool
}

// NewRoomRepository constructs a RoomRepository.
func NewRoomRepository(db *pgxpool.Pool) *RoomRepository {
	return &RoomRepository{db: db}
}

// Create inserts a new room category. A duplicate name yields ErrRoomTypeExists.
func (r *RoomRepository) Create(ctx context.Context, room model.Room) (*model.Room, error) {
	_, err := r.db.Exec(ctx,
		`INSERT INTO room_types (room_type, total_rooms, price_per_night)
		 VALUES ($1, $2, $3)`,
		room.RoomType, room.TotalRooms, room.PricePerNight,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrRoomTypeExists
		}
		return nil, fmt.Errorf("insert room type: %w", err)
	}
	return &room, nil
}

// GetByType returns a single room category or ErrNotFound.
func (r *RoomRepository) GetByType(ctx context.Context, roomType string) (*model.Room, error) {
	var room model.Room
	err := r.db.QueryRow(ctx,
		`SELECT room_type, total_rooms, price_per_night
		 FROM room_types WHERE room_type = $1`,
		roomType,
	).Scan(&room.RoomType, &room.TotalRooms, &room.PricePerNight)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get room type: %w", err)
	}
	return &room, nil
}

// List returns all room categories ordered by name.
func (r *RoomRepository) List(ctx context.Context) ([]model.Room, error) {
	rows, err := r.db.Query(ctx,
		`SELECT room_type, total_rooms, price_per_night
		 FROM room_types
		 ORDER BY room_type`,
	)
	if err != nil {
		return nil, fmt.Errorf("list room types: %w", err)
	}
	defer rows.Close()

	var rooms []model.Room
	for rows.Next() {
		var room model.Room
		if err := rows.Scan(&room.RoomType, &room.TotalRooms, &room.PricePerNight); err != nil {
			return nil, fmt.Errorf("scan room type: %w", err)
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

// BookingRepository handles persistence for bookings.
type BookingRepository struct {
	db *pgxpool.Pool
}

// NewBookingRepository constructs a BookingRepository.
func NewBookingRepository(db *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{db: db}
}

// ListStays returns the confirmed stays of a room category that touch [from, to].
func (r *BookingRepository) ListStays(ctx context.Context, roomType string, from, to time.Time) ([]model.Stay, error) {
	return listStays(ctx, r.db, roomType, from, to)
}

func listStays(ctx context.Context, q querier, roomType string, from, to time.Time) ([]model.Stay, error) {
	rows, err := q.Query(ctx,
		`SELECT start_date, end_date
		 FROM bookings
		 WHERE room_type = $1
		   AND status = $2
		   AND NOT (end_date < $3 OR start_date > $4)`,
		roomType, model.BookingStatusConfirmed, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list stays: %w", err)
	}
	defer rows.Close()

	var stays []model.Stay
	for rows.Next() {
		var s model.Stay
		if err := rows.Scan(&s.Start, &s.End); err != nil {
			return nil, fmt.Errorf("scan stay: %w", err)
		}
		stays = append(stays, s)
	}
	return stays, rows.Err()
}

// Book commits a booking without ever exceeding the category's capacity.
//
// A plain read-then-insert lets two concurrent requests both observe the last
// free unit and both insert. Every booking for a category therefore first
// takes SELECT … FOR UPDATE on that category's room_types row; concurrent
// bookers for the same category queue on the lock, and each one re-counts the
// peak daily occupancy after the previous one has committed or rolled back.
//
// The booking's price is recomputed from the locked row. On success b is
// returned with its generated ID.
func (r *BookingRepository) Book(ctx context.Context, b *model.Booking) (*model.Booking, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	// No-op once committed.
	defer func() { _ = tx.Rollback(ctx) }()

	var totalRooms int
	var pricePerNight float64
	err = tx.QueryRow(ctx,
		`SELECT total_rooms, price_per_night
		 FROM room_types
		 WHERE room_type = $1
		 FOR UPDATE`,
		b.RoomType,
	).Scan(&totalRooms, &pricePerNight)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock room type: %w", err)
	}

	start, end := b.StartDate.Time(), b.EndDate.Time()
	stays, err := listStays(ctx, tx, b.RoomType, start, end)
	if err != nil {
		return nil, err
	}
	if availability.Free(totalRooms, stays, start, end) <= 0 {
		return nil, ErrNoAvailability
	}

	b.Price = availability.Price(dates.Nights(start, end), pricePerNight)
	if b.Status == "" {
		b.Status = model.BookingStatusConfirmed
	}

	if err := insertBooking(ctx, tx, b); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return b, nil
}

const maxIDAttempts = 5

// insertBooking assigns a short random ID, drawing a new one if it collides
// with an existing booking.
func insertBooking(ctx context.Context, tx pgx.Tx, b *model.Booking) error {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := newBookingID()
		var inserted string
		err := tx.QueryRow(ctx,
			`INSERT INTO bookings (booking_id, guest_name, room_type, start_date, end_date, contact, price, status)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (booking_id) DO NOTHING
			 RETURNING booking_id`,
			id, b.GuestName, b.RoomType, b.StartDate.Time(), b.EndDate.Time(), b.Contact, b.Price, b.Status,
		).Scan(&inserted)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
		b.ID = inserted
		return nil
	}
	return fmt.Errorf("insert booking: no free booking id after %d attempts", maxIDAttempts)
}

// GetByID returns a single booking or ErrNotFound.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	var (
		b          model.Booking
		start, end time.Time
	)
	err := r.db.QueryRow(ctx,
		`SELECT booking_id, guest_name, room_type, start_date, end_date, contact, price, status
		 FROM bookings WHERE booking_id = $1`,
		id,
	).Scan(&b.ID, &b.GuestName, &b.RoomType, &start, &end, &b.Contact, &b.Price, &b.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	b.StartDate = model.NewDate(start)
	b.EndDate = model.NewDate(end)
	return &b, nil
}

// newBookingID returns the first eight hex digits of a random UUID.
func newBookingID() string {
	return uuid.NewString()[:8]
}
