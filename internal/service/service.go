// Package service implements business logic, validation, and orchestration
// between the tool boundary and the repository layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/hotel-booking-assistant/internal/availability"
	"github.com/Shivanand-hulikatti/hotel-booking-assistant/internal/dates"
	"github.com/Shivanand-hulikatti/hotel-booking-assistant/internal/model"
	"github.com/Shivanand-hulikatti/hotel-booking-assistant/internal/repository"
	"github.com/Shivanand-hulikatti/hotel-booking-assistant/internal/telemetry"
)

// Validation errors.
var (
	ErrInvalidDate      = errors.New("invalid date format")
	ErrEndBeforeStart   = errors.New("end date cannot be before start date")
	ErrMinimumStay      = errors.New("booking must be for at least one night")
	ErrInvalidRoom      = errors.New("room count must be at least 1 and price must be greater than 0")
	ErrRoomTypeRequired = errors.New("room type is required")
	ErrGuestRequired    = errors.New("guest name is required")
)

// RoomStore persists room categories.
type RoomStore interface {
	Create(ctx context.Context, room model.Room) (*model.Room, error)
	GetByType(ctx context.Context, roomType string) (*model.Room, error)
	List(ctx context.Context) ([]model.Room, error)
}

// BookingStore persists bookings. Book must refuse, with
// repository.ErrNoAvailability, any booking that would push a day of its range
// past the category's capacity, even under concurrent calls.
type BookingStore interface {
	ListStays(ctx context.Context, roomType string, from, to time.Time) ([]model.Stay, error)
	Book(ctx context.Context, b *model.Booking) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
}

// HotelService orchestrates room and booking operations.
type HotelService struct {
	rooms    RoomStore
	bookings BookingStore
	log      *zap.Logger
}

// NewHotelService constructs a HotelService with its dependencies.
func NewHotelService(rooms RoomStore, bookings BookingStore, log *zap.Logger) *HotelService {
	return &HotelService{rooms: rooms, bookings: bookings, log: log}
}

// CheckAvailability reports how many units of roomType are free on every day
// of [startDate, endDate] and what the stay would cost.
//
// A same-day range is not an error: the result carries the free count, a zero
// price and model.StatusMinimumStay.
func (s *HotelService) CheckAvailability(ctx context.Context, roomType, startDate, endDate string) (_ *model.Availability, err error) {
	ctx, span := telemetry.StartSpan(ctx, "service.CheckAvailability",
		attribute.String("room_type", roomType),
		attribute.String("start_date", startDate),
		attribute.String("end_date", endDate),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	start, err := dates.Parse(startDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDate, err)
	}
	end, err := dates.Parse(endDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDate, err)
	}
	if end.Time().Before(start.Time()) {
		return nil, ErrEndBeforeStart
	}

	roomType = strings.TrimSpace(roomType)
	room, err := s.rooms.GetByType(ctx, roomType)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get room type: %w", err)
	}

	stays, err := s.bookings.ListStays(ctx, roomType, start.Time(), end.Time())
	if err != nil {
		return nil, fmt.Errorf("list stays: %w", err)
	}

	nights := dates.Nights(start.Time(), end.Time())
	result := &model.Availability{
		RoomType:  roomType,
		StartDate: start,
		EndDate:   end,
		Available: availability.Free(room.TotalRooms, stays, start.Time(), end.Time()),
		Nights:    nights,
		Status:    model.StatusSuccess,
	}
	if nights <= 0 {
		result.Status = model.StatusMinimumStay
	} else {
		result.EstimatedPrice = availability.Price(nights, room.PricePerNight)
	}
	return result, nil
}

// CreateBooking validates the request against current availability and
// delegates the concurrency-safe commit to the booking store.
func (s *HotelService) CreateBooking(ctx context.Context, req model.BookingRequest) (_ *model.Booking, err error) {
	ctx, span := telemetry.StartSpan(ctx, "service.CreateBooking",
		attribute.String("room_type", req.RoomType),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	guest := strings.TrimSpace(req.GuestName)
	if guest == "" {
		return nil, ErrGuestRequired
	}

	avail, err := s.CheckAvailability(ctx, req.RoomType, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if avail.Status != model.StatusSuccess {
		return nil, ErrMinimumStay
	}
	if avail.Available <= 0 {
		return nil, repository.ErrNoAvailability
	}

	b := &model.Booking{
		GuestName: guest,
		RoomType:  avail.RoomType,
		StartDate: avail.StartDate,
		EndDate:   avail.EndDate,
		Contact:   normalizeContact(req.Contact),
		Price:     avail.EstimatedPrice,
	}

	booked, err := s.bookings.Book(ctx, b)
	if err != nil {
		// Surface domain errors directly so the boundary can word them.
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrNoAvailability) {
			return nil, err
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.log.Info("booking created",
		zap.String("booking_id", booked.ID),
		zap.String("room_type", booked.RoomType),
		zap.Stringer("start_date", booked.StartDate),
		zap.Stringer("end_date", booked.EndDate),
		zap.Float64("price", booked.Price),
	)
	return booked, nil
}

// CreateRoom validates and registers a new room category.
func (s *HotelService) CreateRoom(ctx context.Context, req model.CreateRoomRequest) (_ *model.Room, err error) {
	ctx, span := telemetry.StartSpan(ctx, "service.CreateRoom",
		attribute.String("room_type", req.RoomType),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	req.RoomType = strings.TrimSpace(req.RoomType)
	if req.RoomType == "" {
		return nil, ErrRoomTypeRequired
	}
	if req.TotalRooms < 1 || req.PricePerNight <= 0 {
		return nil, ErrInvalidRoom
	}

	room, err := s.rooms.Create(ctx, model.Room{
		RoomType:      req.RoomType,
		TotalRooms:    req.TotalRooms,
		PricePerNight: req.PricePerNight,
	})
	if err != nil {
		if errors.Is(err, repository.ErrRoomTypeExists) {
			return nil, err
		}
		return nil, fmt.Errorf("create room: %w", err)
	}

	s.log.Info("room type created",
		zap.String("room_type", room.RoomType),
		zap.Int("total_rooms", room.TotalRooms),
		zap.Float64("price_per_night", room.PricePerNight),
	)
	return room, nil
}

// ListRooms returns all room categories ordered by name.
func (s *HotelService) ListRooms(ctx context.Context) ([]model.Room, error) {
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// GetBooking returns a single booking by ID.
func (s *HotelService) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, repository.ErrNotFound
	}
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

func normalizeContact(c *string) *string {
	if c == nil {
		return nil
	}
	v := strings.TrimSpace(*c)
	if v == "" {
		return nil
	}
	return &v
}
