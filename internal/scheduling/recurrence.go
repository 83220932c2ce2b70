package scheduling

import (
	"sort"
	"time"

	"fitbook/gym-app/internal/domain"
)

// RecurrenceKind selects how a schedule request expands into calendar dates.
type RecurrenceKind string

const (
	RecurrenceSingle RecurrenceKind = "single"
	RecurrenceWeekly RecurrenceKind = "weekly"
	RecurrenceCustom RecurrenceKind = "custom"
)

// RecurrenceSelection is the user's recurrence choice. DaysOfWeek applies to
// weekly recurrence (time.Weekday, Sunday=0..Saturday=6); Dates applies to
// custom recurrence.
type RecurrenceSelection struct {
	Kind       RecurrenceKind `json:"kind"`
	DaysOfWeek []time.Weekday `json:"daysOfWeek,omitempty"`
	Dates      []time.Time    `json:"dates,omitempty"`
}

// ValidRecurrenceKind reports whether k is a known recurrence kind.
func ValidRecurrenceKind(k RecurrenceKind) bool {
	return k == RecurrenceSingle || k == RecurrenceWeekly || k == RecurrenceCustom
}

// ExpandRecurrence materializes the concrete calendar dates a schedule
// request covers. The result is always deduplicated and sorted ascending,
// and never contains a date before today — recurrence does not schedule into
// the past relative to generation time, regardless of baseDate. The today
// reference is an explicit argument so that preview and commit, and repeated
// calls in tests, see identical output.
//
// Weekly expansion walks rules.RecurrenceWeeks week-offsets; within each week
// the target weekday is reached by wrapping forward from baseDate's weekday
// (a target earlier in the week than the base lands in the following week).
// An empty weekly day set falls back to [baseDate]; that is a documented
// policy, not an error.
func ExpandRecurrence(baseDate time.Time, selection RecurrenceSelection, today time.Time, rules Rules) []time.Time {
	rules = rules.withDefaults()
	base := domain.DateOnly(baseDate)
	today = domain.DateOnly(today)

	var raw []time.Time
	switch selection.Kind {
	case RecurrenceWeekly:
		if len(selection.DaysOfWeek) == 0 {
			return []time.Time{base}
		}
		for week := 0; week < rules.RecurrenceWeeks; week++ {
			for _, day := range selection.DaysOfWeek {
				offset := int(day) - int(base.Weekday())
				if offset < 0 {
					offset += 7
				}
				raw = append(raw, base.AddDate(0, 0, week*7+offset))
			}
		}
	case RecurrenceCustom:
		for _, d := range selection.Dates {
			raw = append(raw, domain.DateOnly(d))
		}
	default:
		// Single, and anything unrecognized degrades to single.
		return []time.Time{base}
	}

	seen := make(map[time.Time]struct{}, len(raw))
	dates := make([]time.Time, 0, len(raw))
	for _, d := range raw {
		if d.Before(today) {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}
