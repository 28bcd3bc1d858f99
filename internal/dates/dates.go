// Package dates parses loosely formatted calendar dates and does day arithmetic.
package dates

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/Shivanand-hulikatti/hotel-booking-assistant/internal/model"
)

// ErrEmpty is returned for a blank date string.
var ErrEmpty = errors.New("empty date")

// Parse accepts common human and machine date spellings ("2025-06-10",
// "June 10, 2025", "06/10/2025", RFC 3339 timestamps) and returns the
// calendar day. Time-of-day components are discarded.
func Parse(s string) (model.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.Date{}, ErrEmpty
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return model.Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return model.NewDate(t), nil
}

// Nights is the number of nights between check-in and check-out. It is
// negative when end precedes start. Both values are expected at midnight UTC.
func Nights(start, end time.Time) int {
	return int((end.Unix() - start.Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60
