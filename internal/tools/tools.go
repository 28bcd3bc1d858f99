// Package tools is the boundary between callers (HTTP clients and the LLM
// agent) and the hotel service. Every failure is turned into a human-readable
// status or reason here; nothing below this package deals in user-facing text.
package tools

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/hotel-booking-assistant/internal/model"
	"github.com/Shivanand-hulikatti/hotel-booking-assistant/internal/repository"
	"github.com/Shivanand-hulikatti/hotel-booking-assistant/internal/service"
	"github.com/Shivanand-hulikatti/hotel-booking-assistant/internal/weather"
)

// Messages returned to callers.
const (
	msgInvalidDate      = "Invalid date format provided."
	msgEndBeforeStart   = "End date cannot be before start date."
	msgNoAvailability   = "No rooms available for the requested dates."
	msgInvalidRoom      = "Room count must be at least 1 and price must be greater than 0."
	msgRoomTypeRequired = "Room type is required."
	msgGuestRequired    = "Guest name is required."
	msgNoRooms          = "There are no rooms configured in the system."
	msgWeatherNoKey     = "Weather service failed: API Key not configured or is invalid."
)

// HotelService is the subset of service.HotelService the tools call.
type HotelService interface {
	CheckAvailability(ctx context.Context, roomType, startDate, endDate string) (*model.Availability, error)
	CreateBooking(ctx context.Context, req model.BookingRequest) (*model.Booking, error)
	CreateRoom(ctx context.Context, req model.CreateRoomRequest) (*model.Room, error)
	ListRooms(ctx context.Context) ([]model.Room, error)
	GetBooking(ctx context.Context, id string) (*model.Booking, error)
}

// WeatherSource looks up current conditions for a city.
type WeatherSource interface {
	Current(ctx context.Context, city string) (*weather.Report, error)
}

// AvailabilityReport is the answer to an availability query. On failure
// Available and EstimatedPrice are zero and Status carries the reason.
type AvailabilityReport struct {
	Available      int     `json:"available_rooms"`
	EstimatedPrice float64 `json:"estimated_price"`
	Status         string  `json:"status_message"`
}

// Outcome is the result of a write. Result holds the created record on
// success and the reason string on failure.
type Outcome struct {
	Success bool `json:"success"`
	Result  any  `json:"result"`
}

// Toolkit exposes the hotel operations as tools.
type Toolkit struct {
	svc     HotelService
	weather WeatherSource
	log     *zap.Logger
}

// New constructs a Toolkit.
func New(svc HotelService, weather WeatherSource, log *zap.Logger) *Toolkit {
	return &Toolkit{svc: svc, weather: weather, log: log}
}

// CheckAvailability reports free units and the estimated price for a stay.
func (t *Toolkit) CheckAvailability(ctx context.Context, roomType, startDate, endDate string) AvailabilityReport {
	avail, err := t.svc.CheckAvailability(ctx, roomType, startDate, endDate)
	if err != nil {
		return AvailabilityReport{Status: t.reason(err, roomType)}
	}
	return AvailabilityReport{
		Available:      avail.Available,
		EstimatedPrice: avail.EstimatedPrice,
		Status:         avail.Status,
	}
}

// CreateBooking books one unit and returns the booking record or the reason
// it was refused.
func (t *Toolkit) CreateBooking(ctx context.Context, req model.BookingRequest) Outcome {
	b, err := t.svc.CreateBooking(ctx, req)
	if err != nil {
		return Outcome{Success: false, Result: t.reason(err, req.RoomType)}
	}
	return Outcome{Success: true, Result: b}
}

// CreateRoom registers a room category and echoes it back.
func (t *Toolkit) CreateRoom(ctx context.Context, req model.CreateRoomRequest) Outcome {
	room, err := t.svc.CreateRoom(ctx, req)
	if err != nil {
		return Outcome{Success: false, Result: t.reason(err, req.RoomType)}
	}
	return Outcome{Success: true, Result: room}
}

// Rooms lists every room category.
func (t *Toolkit) Rooms(ctx context.Context) Outcome {
	rooms, err := t.svc.ListRooms(ctx)
	if err != nil {
		return Outcome{Success: false, Result: t.reason(err, "")}
	}
	if rooms == nil {
		rooms = []model.Room{}
	}
	return Outcome{Success: true, Result: rooms}
}

// RoomOverview describes every room category in one sentence.
func (t *Toolkit) RoomOverview(ctx context.Context) string {
	rooms, err := t.svc.ListRooms(ctx)
	if err != nil {
		return t.reason(err, "")
	}
	if len(rooms) == 0 {
		return msgNoRooms
	}
	parts := make([]string, 0, len(rooms))
	for _, r := range rooms {
		parts = append(parts, fmt.Sprintf("%s (%d rooms at %.2f per night)", r.RoomType, r.TotalRooms, r.PricePerNight))
	}
	return "The hotel has the following rooms: " + strings.Join(parts, ", ")
}

// LookupBooking returns a stored booking.
func (t *Toolkit) LookupBooking(ctx context.Context, id string) Outcome {
	b, err := t.svc.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Outcome{Success: false, Result: fmt.Sprintf("Booking '%s' not found.", id)}
		}
		return Outcome{Success: false, Result: t.reason(err, "")}
	}
	return Outcome{Success: true, Result: b}
}

// Weather describes the current weather in city.
func (t *Toolkit) Weather(ctx context.Context, city string) string {
	report, err := t.weather.Current(ctx, city)
	if err != nil {
		if errors.Is(err, weather.ErrNoAPIKey) {
			return msgWeatherNoKey
		}
		return fmt.Sprintf("Could not fetch weather for %s. Error: %s", city, err.Error())
	}
	return fmt.Sprintf("Weather in %s: %s, %s°C",
		report.City, report.Description, strconv.FormatFloat(report.TempC, 'f', -1, 64))
}

// reason words err for the caller. Unexpected errors are logged and reported
// as internal database errors.
func (t *Toolkit) reason(err error, roomType string) string {
	roomType = strings.TrimSpace(roomType)
	switch {
	case errors.Is(err, service.ErrInvalidDate):
		return msgInvalidDate
	case errors.Is(err, service.ErrEndBeforeStart):
		return msgEndBeforeStart
	case errors.Is(err, service.ErrMinimumStay):
		return model.StatusMinimumStay
	case errors.Is(err, service.ErrInvalidRoom):
		return msgInvalidRoom
	case errors.Is(err, service.ErrRoomTypeRequired):
		return msgRoomTypeRequired
	case errors.Is(err, service.ErrGuestRequired):
		return msgGuestRequired
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Sprintf("Room type '%s' not found.", roomType)
	case errors.Is(err, repository.ErrRoomTypeExists):
		return fmt.Sprintf("Room type '%s' already exists.", roomType)
	case errors.Is(err, repository.ErrNoAvailability):
		return msgNoAvailability
	}
	t.log.Error("tool call failed", zap.String("room_type", roomType), zap.Error(err))
	return fmt.Sprintf("An internal database error occurred: %v", err)
}
