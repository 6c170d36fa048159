package calendar

import (
	"fmt"
	"time"

	"github.com/existflow/weekplanner/internal/model"
)

// DateLayout is the canonical week-start key format
const DateLayout = "2006-01-02"

// NoDay is returned by TodayLabel on weekends
const NoDay = "none"

var monthsNL = [...]string{"jan", "feb", "mrt", "apr", "mei", "jun", "jul", "aug", "sep", "okt", "nov", "dec"}

// WeekDay is one placeable day of a computed week
type WeekDay struct {
	Label   model.Day
	Display string // e.g. "6 jan"
	ISO     string // e.g. "2025-01-06"
}

// Week bundles the facts derived for one week offset
type Week struct {
	Offset int
	Monday time.Time
	Days   []WeekDay
	Number int
	Start  string
}

// Resolver maps "now" plus a week offset to calendar facts. All arithmetic
// happens on the local calendar of the configured location.
type Resolver struct {
	now func() time.Time
	loc *time.Location
}

// Option configures a Resolver
type Option func(*Resolver)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// WithLocation sets the zone whose calendar defines days
func WithLocation(loc *time.Location) Option {
	return func(r *Resolver) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// New creates a resolver using time.Now and time.Local unless overridden
func New(opts ...Option) *Resolver {
	r := &Resolver{now: time.Now, loc: time.Local}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) today() time.Time {
	now := r.now().In(r.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, r.loc)
}

// isoWeekday returns 1 for Monday through 7 for Sunday
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// MondayOf returns local midnight of the Monday offset weeks from the current week
func (r *Resolver) MondayOf(offset int) time.Time {
	today := r.today()
	shift := -(isoWeekday(today) - 1) + offset*7
	// time.Date normalises day overflow, so month, year and DST boundaries
	// resolve on the calendar rather than by adding 24h multiples.
	return time.Date(today.Year(), today.Month(), today.Day()+shift, 0, 0, 0, 0, r.loc)
}

// WeekDates returns Monday through Friday of the offset week
func (r *Resolver) WeekDates(offset int) []WeekDay {
	monday := r.MondayOf(offset)
	days := make([]WeekDay, len(model.Weekdays))
	for i, label := range model.Weekdays {
		d := time.Date(monday.Year(), monday.Month(), monday.Day()+i, 0, 0, 0, 0, r.loc)
		days[i] = WeekDay{
			Label:   label,
			Display: DisplayDate(d),
			ISO:     d.Format(DateLayout),
		}
	}
	return days
}

// WeekNumber counts weeks from the start of the Monday's year, with the
// first partial week counted as week 1.
func (r *Resolver) WeekNumber(offset int) int {
	monday := r.MondayOf(offset)
	jan1 := time.Date(monday.Year(), time.January, 1, 0, 0, 0, 0, r.loc)
	days := monday.YearDay() - 1 + int(jan1.Weekday())
	return (days + 6) / 7
}

// WeekStartKey returns the ISO date of the offset week's Monday
func (r *Resolver) WeekStartKey(offset int) string {
	return r.MondayOf(offset).Format(DateLayout)
}

// TodayLabel returns today's weekday label, or NoDay on weekends
func (r *Resolver) TodayLabel() string {
	wd := isoWeekday(r.today())
	if wd > 5 {
		return NoDay
	}
	return string(model.Weekdays[wd-1])
}

// Week returns every derived fact for an offset
func (r *Resolver) Week(offset int) Week {
	return Week{
		Offset: offset,
		Monday: r.MondayOf(offset),
		Days:   r.WeekDates(offset),
		Number: r.WeekNumber(offset),
		Start:  r.WeekStartKey(offset),
	}
}

// OffsetOf returns how many weeks weekStart lies from the current week
func (r *Resolver) OffsetOf(weekStart string) (int, error) {
	monday, err := ParseWeekStart(weekStart, r.loc)
	if err != nil {
		return 0, err
	}
	current := r.MondayOf(0)
	// Compare calendar days through UTC so DST-shortened weeks still divide by 7.
	a := time.Date(current.Year(), current.Month(), current.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours()/24) / 7, nil
}

// Location returns the zone the resolver computes in
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// ParseWeekStart parses an ISO date that must fall on a Monday
func ParseWeekStart(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid week start %q: %w", s, err)
	}
	if t.Weekday() != time.Monday {
		return time.Time{}, fmt.Errorf("invalid week start %q: not a Monday", s)
	}
	return t, nil
}

// DisplayDate formats a day as "6 jan"
func DisplayDate(t time.Time) string {
	return fmt.Sprintf("%d %s", t.Day(), monthsNL[t.Month()-1])
}
