// Package model defines the core domain types for the hotel booking assistant.
package model

import (
	"encoding/json"
	"time"
)

// DateLayout is the storage and wire format of a calendar day.
const DateLayout = "2006-01-02"

// BookingStatusConfirmed marks a booking that occupies inventory.
const BookingStatusConfirmed = "confirmed"

// Availability status messages.
const (
	StatusSuccess     = "Success"
	StatusMinimumStay = "Booking must be for at least one night."
)

// Room is a bookable room category with a fixed number of identical units.
type Room struct {
	RoomType      string  `json:"room_type"`
	TotalRooms    int     `json:"total_rooms"`
	PricePerNight float64 `json:"price_per_night"`
}

// Date is a calendar day, serialised as YYYY-MM-DD.
type Date time.Time

// NewDate truncates t to midnight UTC of the same calendar day.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// Time returns the underlying time value.
func (d Date) Time() time.Time { return time.Time(d) }

func (d Date) String() string { return time.Time(d).Format(DateLayout) }

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// Stay is the occupied date range of one confirmed booking.
type Stay struct {
	Start time.Time
	End   time.Time
}

// Booking is a confirmed reservation of one unit of a room category.
type Booking struct {
	ID        string  `json:"booking_id"`
	GuestName string  `json:"guest_name"`
	RoomType  string  `json:"room_type"`
	StartDate Date    `json:"start_date"`
	EndDate   Date    `json:"end_date"`
	Contact   *string `json:"contact"`
	Price     float64 `json:"price"`
	Status    string  `json:"-"`
}

// Stay returns the booking's occupied range.
func (b *Booking) Stay() Stay {
	return Stay{Start: b.StartDate.Time(), End: b.EndDate.Time()}
}

// Availability is the outcome of an availability query for a room category.
type Availability struct {
	RoomType       string
	StartDate      Date
	EndDate        Date
	Available      int
	Nights         int
	EstimatedPrice float64
	Status         string
}

// CreateRoomRequest is the payload for registering a room category.
type CreateRoomRequest struct {
	RoomType      string  `json:"room_type" validate:"required"`
	TotalRooms    int     `json:"total_rooms"`
	PricePerNight float64 `json:"price_per_night"`
}

// AvailabilityRequest is the payload for an availability query.
type AvailabilityRequest struct {
	RoomType  string `json:"room_type" validate:"required"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
}

// BookingRequest is the payload for creating a booking.
type BookingRequest struct {
	GuestName string  `json:"guest_name" validate:"required"`
	RoomType  string  `json:"room_type" validate:"required"`
	StartDate string  `json:"start_date" validate:"required"`
	EndDate   string  `json:"end_date" validate:"required"`
	Contact   *string `json:"contact"`
}

// WeatherRequest is the payload for a weather lookup.
type WeatherRequest struct {
	City string `json:"city" validate:"required"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
