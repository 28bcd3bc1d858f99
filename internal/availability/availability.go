// Package availability computes room-category occupancy over a date range.
//
// A category with T identical units can take a new booking for [start, end]
// only if, on every calendar day of that range, fewer than T confirmed
// bookings occupy the category. The number that matters is therefore the
// peak daily occupancy inside the window, not the number of bookings that
// touch the window: two bookings on disjoint days inside the window use the
// same unit and count once.
package availability

import (
	"cmp"
	"slices"
	"time"

	"github.com/Shivanand-hulikatti/hotel-booking-assistant/internal/model"
)

// Overlap reports whether [s1, e1] and [s2, e2] share at least one day.
// Both ranges are inclusive.
func Overlap(s1, e1, s2, e2 time.Time) bool {
	return !(e1.Before(s2) || e2.Before(s1))
}

// PeakCommitted returns the highest number of stays occupying any single day
// in [start, end]. Each stay is clipped to the window and contributes a
// check-in event and a release event on the day after it ends; a running
// count over the sorted events gives the daily occupancy, so the cost depends
// on the number of stays and not on the length of the window.
func PeakCommitted(stays []model.Stay, start, end time.Time) int {
	events := make([]event, 0, 2*len(stays))
	for _, s := range stays {
		if !Overlap(s.Start, s.End, start, end) {
			continue
		}
		from, to := s.Start, s.End
		if from.Before(start) {
			from = start
		}
		if to.After(end) {
			to = end
		}
		events = append(events, event{at: from, delta: 1}, event{at: to.AddDate(0, 0, 1), delta: -1})
	}

	// Releases sort before check-ins on the same day: that unit is free again.
	slices.SortFunc(events, func(a, b event) int {
		if c := a.at.Compare(b.at); c != 0 {
			return c
		}
		return cmp.Compare(a.delta, b.delta)
	})

	peak, booked := 0, 0
	for _, e := range events {
		booked += e.delta
		peak = max(peak, booked)
	}
	return peak
}

type event struct {
	at    time.Time
	delta int
}

// Free returns the units of a category of size total still open over
// [start, end], floored at zero.
func Free(total int, stays []model.Stay, start, end time.Time) int {
	free := total - PeakCommitted(stays, start, end)
	if free < 0 {
		return 0
	}
	return free
}

// Price is the total charge for the given number of nights.
func Price(nights int, pricePerNight float64) float64 {
	if nights <= 0 {
		return 0
	}
	return float64(nights) * pricePerNight
}
