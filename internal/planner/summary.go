package planner

import "github.com/existflow/weekplanner/internal/model"

// DayLoad is the planned work on one weekday
type DayLoad struct {
	Day       model.Day
	Hours     float64
	Remaining float64
	Over      bool
	Tasks     int
}

// ClientLoad is the planned work for one client this week
type ClientLoad struct {
	Client string
	Hours  float64
}

// Summary is the viewed week's workload
type Summary struct {
	Week     string
	Capacity float64
	Days     []DayLoad
	Clients  []ClientLoad
	Total    float64
}

// Summary totals the viewed week's placed tasks per day and per client.
// Completed tasks still count towards the day they were planned on.
func (s *Store) Summary() Summary {
	placed := s.Placed()

	sum := Summary{Week: s.Week(), Capacity: s.capacity}

	byDay := make(map[model.Day]*DayLoad, len(model.Weekdays))
	for _, d := range model.Weekdays {
		sum.Days = append(sum.Days, DayLoad{Day: d})
	}
	for i := range sum.Days {
		byDay[sum.Days[i].Day] = &sum.Days[i]
	}

	byClient := make(map[string]float64)
	var extra []string
	known := make(map[string]bool)
	for _, c := range s.Clients() {
		known[c] = true
	}

	for _, t := range placed {
		if dl, ok := byDay[t.Day]; ok {
			dl.Hours += t.Hours
			dl.Tasks++
		}
		if _, seen := byClient[t.Client]; !seen && !known[t.Client] {
			extra = append(extra, t.Client)
		}
		byClient[t.Client] += t.Hours
		sum.Total += t.Hours
	}

	for i := range sum.Days {
		dl := &sum.Days[i]
		dl.Remaining = sum.Capacity - dl.Hours
		dl.Over = dl.Hours > sum.Capacity
	}

	for _, c := range append(s.Clients(), extra...) {
		if h := byClient[c]; h > 0 {
			sum.Clients = append(sum.Clients, ClientLoad{Client: c, Hours: h})
		}
	}

	return sum
}
