package calendar

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/existflow/weekplanner/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func resolverAt(loc *time.Location, year int, month time.Month, day, hour, min int) *Resolver {
	now := time.Date(year, month, day, hour, min, 0, 0, loc)
	return New(WithLocation(loc), WithClock(func() time.Time { return now }))
}

func TestMondayOfYearBoundary(t *testing.T) {
	ams := mustLoad(t, "Europe/Amsterdam")

	r := resolverAt(ams, 2024, time.December, 31, 12, 0)
	assert.Equal(t, "2024-12-30", r.WeekStartKey(0))

	r = resolverAt(ams, 2025, time.January, 1, 9, 0)
	assert.Equal(t, "2024-12-30", r.WeekStartKey(0))
	assert.Equal(t, "2025-01-06", r.WeekStartKey(1))
	assert.Equal(t, "2024-12-23", r.WeekStartKey(-1))
}

func TestMondayOfSundayBelongsToPreviousWeek(t *testing.T) {
	ams := mustLoad(t, "Europe/Amsterdam")
	r := resolverAt(ams, 2025, time.January, 5, 18, 0)
	assert.Equal(t, "2024-12-30", r.WeekStartKey(0))
}

func TestMondayOfIsMidnightMonday(t *testing.T) {
	ams := mustLoad(t, "Europe/Amsterdam")
	r := resolverAt(ams, 2025, time.March, 12, 15, 45)

	m := r.MondayOf(0)
	assert.Equal(t, time.Monday, m.Weekday())
	assert.Equal(t, 0, m.Hour())
	assert.Equal(t, 0, m.Minute())
	assert.Equal(t, ams, m.Location())
}

func TestMondayOfConsecutiveOffsetsAreSevenDaysApart(t *testing.T) {
	for _, zone := range []string{"Europe/Amsterdam", "America/New_York", "Australia/Sydney", "UTC"} {
		t.Run(zone, func(t *testing.T) {
			loc := mustLoad(t, zone)
			r := resolverAt(loc, 2024, time.February, 29, 23, 59)

			for o := -80; o <= 80; o++ {
				cur := r.MondayOf(o)
				next := r.MondayOf(o + 1)
				assert.True(t, cur.AddDate(0, 0, 7).Equal(next), "offset %d", o)
				assert.Equal(t, time.Monday, cur.Weekday(), "offset %d", o)
				key, err := ParseWeekStart(r.WeekStartKey(o), loc)
				require.NoError(t, err)
				assert.True(t, cur.Equal(key), "offset %d", o)
			}
		})
	}
}

func TestMondayOfAcrossDaylightSaving(t *testing.T) {
	ams := mustLoad(t, "Europe/Amsterdam")

	// Clocks moved forward on Sunday 2025-03-30
	r := resolverAt(ams, 2025, time.March, 30, 23, 30)
	assert.Equal(t, "2025-03-24", r.WeekStartKey(0))

	r = resolverAt(ams, 2025, time.March, 31, 0, 30)
	assert.Equal(t, "2025-03-31", r.WeekStartKey(0))

	// Clocks moved back on Sunday 2025-10-26
	r = resolverAt(ams, 2025, time.October, 27, 0, 15)
	assert.Equal(t, "2025-10-27", r.WeekStartKey(0))
	assert.Equal(t, "2025-10-20", r.WeekStartKey(-1))
}

func TestWeekStartKeyUsesLocalCalendarBehindUTC(t *testing.T) {
	ny := mustLoad(t, "America/New_York")

	// 23:30 on Sunday in New York is already Monday in UTC
	r := resolverAt(ny, 2025, time.January, 5, 23, 30)
	assert.Equal(t, "2024-12-30", r.WeekStartKey(0))

	// Just after local midnight on Monday
	r = resolverAt(ny, 2025, time.January, 6, 0, 5)
	assert.Equal(t, "2025-01-06", r.WeekStartKey(0))
	days := r.WeekDates(0)
	assert.Equal(t, "2025-01-06", days[0].ISO)
	assert.Equal(t, "2025-01-10", days[4].ISO)
}

func TestWeekDates(t *testing.T) {
	ams := mustLoad(t, "Europe/Amsterdam")
	r := resolverAt(ams, 2025, time.January, 8, 10, 0)

	for o := -3; o <= 3; o++ {
		days := r.WeekDates(o)
		require.Len(t, days, 5)
		for i, d := range days {
			assert.Equal(t, model.Weekdays[i], d.Label)
		}
	}

	days := r.WeekDates(0)
	assert.Equal(t, WeekDay{Label: model.Monday, Display: "6 jan", ISO: "2025-01-06"}, days[0])
	assert.Equal(t, WeekDay{Label: model.Friday, Display: "10 jan", ISO: "2025-01-10"}, days[4])

	// Week spanning a month boundary in a leap year
	r = resolverAt(ams, 2024, time.February, 29, 10, 0)
	days = r.WeekDates(0)
	assert.Equal(t, "2024-02-26", days[0].ISO)
	assert.Equal(t, "2024-02-29", days[3].ISO)
	assert.Equal(t, "2024-03-01", days[4].ISO)
	assert.Equal(t, "1 mrt", days[4].Display)
}

func TestWeekNumber(t *testing.T) {
	ams := mustLoad(t, "Europe/Amsterdam")

	r := resolverAt(ams, 2025, time.January, 8, 10, 0)
	assert.Equal(t, 2, r.WeekNumber(0))
	assert.Equal(t, 3, r.WeekNumber(1))

	// Monday 2024-12-30 still counts in 2024
	r = resolverAt(ams, 2025, time.January, 1, 10, 0)
	assert.Equal(t, 53, r.WeekNumber(0))
	assert.Equal(t, 2, r.WeekNumber(1))

	// Non-decreasing within a year, always positive
	r = resolverAt(ams, 2025, time.January, 6, 10, 0)
	prev := 0
	for o := 0; o < 52; o++ {
		n := r.WeekNumber(o)
		assert.Positive(t, n)
		if r.MondayOf(o).Year() == 2025 {
			assert.GreaterOrEqual(t, n, prev, "offset %d", o)
			prev = n
		}
	}
}

func TestTodayLabel(t *testing.T) {
	ams := mustLoad(t, "Europe/Amsterdam")

	assert.Equal(t, NoDay, resolverAt(ams, 2025, time.January, 4, 12, 0).TodayLabel())
	assert.Equal(t, NoDay, resolverAt(ams, 2025, time.January, 5, 12, 0).TodayLabel())
	assert.Equal(t, "Maandag", resolverAt(ams, 2025, time.January, 6, 12, 0).TodayLabel())
	assert.Equal(t, "Woensdag", resolverAt(ams, 2025, time.January, 8, 0, 0).TodayLabel())
	assert.Equal(t, "Vrijdag", resolverAt(ams, 2025, time.January, 10, 23, 59).TodayLabel())
}

func TestWeekBundle(t *testing.T) {
	ams := mustLoad(t, "Europe/Amsterdam")
	r := resolverAt(ams, 2025, time.January, 8, 10, 0)

	w := r.Week(-1)
	assert.Equal(t, -1, w.Offset)
	assert.Equal(t, "2024-12-30", w.Start)
	assert.Equal(t, w.Start, w.Days[0].ISO)
	assert.Equal(t, 53, w.Number)
}

func TestOffsetOf(t *testing.T) {
	ams := mustLoad(t, "Europe/Amsterdam")
	r := resolverAt(ams, 2025, time.January, 8, 10, 0)

	o, err := r.OffsetOf("2025-01-20")
	require.NoError(t, err)
	assert.Equal(t, 2, o)

	o, err = r.OffsetOf("2024-12-23")
	require.NoError(t, err)
	assert.Equal(t, -2, o)

	// Across the spring DST change
	r = resolverAt(ams, 2025, time.March, 20, 10, 0)
	o, err = r.OffsetOf("2025-04-07")
	require.NoError(t, err)
	assert.Equal(t, 3, o)

	_, err = r.OffsetOf("2025-01-08")
	assert.Error(t, err)

	_, err = r.OffsetOf("not-a-date")
	assert.Error(t, err)
}
