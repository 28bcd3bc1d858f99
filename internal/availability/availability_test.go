package availability

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/hotel-booking-assistant/internal/model"
)

func day(m time.Month, d int) time.Time {
	return time.Date(2025, m, d, 0, 0, 0, 0, time.UTC)
}

func stay(fromM time.Month, from int, toM time.Month, to int) model.Stay {
	return model.Stay{Start: day(fromM, from), End: day(toM, to)}
}

func TestOverlap(t *testing.T) {
	tests := []struct {
		name           string
		s1, e1, s2, e2 time.Time
		want           bool
	}{
		{"disjoint before", day(6, 1), day(6, 3), day(6, 5), day(6, 7), false},
		{"disjoint after", day(6, 8), day(6, 9), day(6, 5), day(6, 7), false},
		{"touching end day", day(6, 1), day(6, 5), day(6, 5), day(6, 7), true},
		{"contained", day(6, 1), day(6, 10), day(6, 4), day(6, 5), true},
		{"single day inside", day(6, 4), day(6, 4), day(6, 1), day(6, 10), true},
		{"identical", day(6, 4), day(6, 6), day(6, 4), day(6, 6), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlap(tt.s1, tt.e1, tt.s2, tt.e2))
			assert.Equal(t, tt.want, Overlap(tt.s2, tt.e2, tt.s1, tt.e1), "overlap must be symmetric")
		})
	}
}

func TestPeakCommitted_DisjointSubBookingsCountOnce(t *testing.T) {
	// Both bookings sit inside the query window but never on the same day.
	stays := []model.Stay{
		stay(6, 1, 6, 2),
		stay(6, 4, 6, 5),
	}

	assert.Equal(t, 1, PeakCommitted(stays, day(6, 1), day(6, 6)))
	assert.Equal(t, 4, Free(5, stays, day(6, 1), day(6, 6)))
}

func TestPeakCommitted_PartialOverlaps(t *testing.T) {
	stays := []model.Stay{
		stay(6, 8, 6, 10),
		stay(6, 10, 6, 12),
		stay(6, 9, 6, 10),
		stay(6, 14, 6, 15),
	}

	// 2025-06-10 is covered by the first three stays.
	assert.Equal(t, 3, PeakCommitted(stays, day(6, 9), day(6, 11)))
	assert.Equal(t, 1, PeakCommitted(stays, day(6, 13), day(6, 16)))
	assert.Equal(t, 0, PeakCommitted(stays, day(6, 16), day(6, 20)))
	assert.Equal(t, 0, PeakCommitted(nil, day(6, 1), day(6, 30)))
}

// dailyPeak counts occupancy day by day; PeakCommitted must agree with it.
func dailyPeak(stays []model.Stay, start, end time.Time) int {
	peak := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		booked := 0
		for _, s := range stays {
			if Overlap(s.Start, s.End, d, d) {
				booked++
			}
		}
		peak = max(peak, booked)
	}
	return peak
}

func TestPeakCommitted_MatchesDailyCount(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	base := day(5, 1)
	at := func(offset int) time.Time { return base.AddDate(0, 0, offset) }

	for i := 0; i < 500; i++ {
		stays := make([]model.Stay, rng.Intn(12))
		for j := range stays {
			from := rng.Intn(60)
			stays[j] = model.Stay{Start: at(from), End: at(from + rng.Intn(8))}
		}
		from := rng.Intn(60)
		start, end := at(from), at(from+rng.Intn(15))

		require.Equal(t, dailyPeak(stays, start, end), PeakCommitted(stays, start, end), "case %d: %v in [%s, %s]", i, stays, start, end)
	}
}

func TestPeakCommitted_WholeCalendar(t *testing.T) {
	start := time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

	stays := make([]model.Stay, 0, 200)
	for i := 0; i < 200; i++ {
		from := day(1, 1).AddDate(0, 0, i)
		stays = append(stays, model.Stay{Start: from, End: from.AddDate(0, 0, 2)})
	}

	began := time.Now()
	assert.Equal(t, 3, PeakCommitted(stays, start, end))
	assert.Equal(t, 2, Free(5, stays, start, end))
	assert.Less(t, time.Since(began), time.Second)
}

func TestFree_ExampleInventory(t *testing.T) {
	// Five deluxe rooms, four bookings covering 2025-06-10.
	stays := []model.Stay{
		stay(6, 10, 6, 11),
		stay(6, 9, 6, 10),
		stay(6, 10, 6, 10),
		stay(6, 5, 6, 12),
	}
	start, end := day(6, 9), day(6, 11)

	assert.Equal(t, 1, Free(5, stays, start, end))

	stays = append(stays, model.Stay{Start: start, End: end})
	assert.Equal(t, 0, Free(5, stays, start, end))

	stays = append(stays, model.Stay{Start: start, End: end})
	assert.Equal(t, 0, Free(5, stays, start, end), "free units never go negative")
}

func TestPrice(t *testing.T) {
	assert.Equal(t, 13000.0, Price(2, 6500))
	assert.Equal(t, 0.0, Price(0, 6500))
	assert.Equal(t, 0.0, Price(-3, 6500))
}
