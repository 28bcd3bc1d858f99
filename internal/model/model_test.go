package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDate_TruncatesToDay(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	d := NewDate(time.Date(2025, 6, 10, 23, 45, 0, 0, loc))

	assert.Equal(t, "2025-06-10", d.String())
	assert.Equal(t, time.UTC, d.Time().Location())
	assert.Zero(t, d.Time().Hour())
}

func TestBooking_JSON(t *testing.T) {
	b := Booking{
		ID:        "a1b2c3d4",
		GuestName: "Asha",
		RoomType:  "deluxe",
		StartDate: NewDate(time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)),
		EndDate:   NewDate(time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)),
		Price:     13000,
		Status:    BookingStatusConfirmed,
	}

	raw, err := json.Marshal(b)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "2025-06-09", got["start_date"])
	assert.Equal(t, "2025-06-11", got["end_date"])
	assert.Nil(t, got["contact"])
	assert.NotContains(t, got, "Status")
	assert.Equal(t, b.StartDate.Time(), b.Stay().Start)
}
