package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandRecurrence_Single(t *testing.T) {
	base := date("2025-06-02")
	today := date("2025-06-01")

	dates := ExpandRecurrence(base, RecurrenceSelection{Kind: RecurrenceSingle}, today, DefaultRules())
	assert.Equal(t, []time.Time{base}, dates)
}

func TestExpandRecurrence_SingleDropsClockComponent(t *testing.T) {
	base := time.Date(2025, 6, 2, 14, 30, 12, 0, time.UTC)
	today := date("2025-06-01")

	dates := ExpandRecurrence(base, RecurrenceSelection{Kind: RecurrenceSingle}, today, DefaultRules())
	assert.Equal(t, []time.Time{date("2025-06-02")}, dates)
}

func TestExpandRecurrence_WeeklyWraparound(t *testing.T) {
	// 2025-06-04 is a Wednesday; Monday is earlier in the week, so the first
	// generated date must be the Monday of the following week.
	base := date("2025-06-04")
	today := date("2025-06-01")
	sel := RecurrenceSelection{Kind: RecurrenceWeekly, DaysOfWeek: []time.Weekday{time.Monday}}

	dates := ExpandRecurrence(base, sel, today, DefaultRules())
	require.Equal(t, []time.Time{
		date("2025-06-09"),
		date("2025-06-16"),
		date("2025-06-23"),
	}, dates)
}

func TestExpandRecurrence_WeeklySameWeekday(t *testing.T) {
	// Base itself is a Wednesday and Wednesday is selected: week offset 0
	// starts at the base date.
	base := date("2025-06-04")
	today := date("2025-06-01")
	sel := RecurrenceSelection{Kind: RecurrenceWeekly, DaysOfWeek: []time.Weekday{time.Wednesday}}

	dates := ExpandRecurrence(base, sel, today, DefaultRules())
	assert.Equal(t, []time.Time{
		date("2025-06-04"),
		date("2025-06-11"),
		date("2025-06-18"),
	}, dates)
}

func TestExpandRecurrence_WeeklyMultipleDaysSorted(t *testing.T) {
	base := date("2025-06-04") // Wednesday
	today := date("2025-06-01")
	sel := RecurrenceSelection{Kind: RecurrenceWeekly, DaysOfWeek: []time.Weekday{time.Friday, time.Monday}}

	dates := ExpandRecurrence(base, sel, today, DefaultRules())
	require.Len(t, dates, 6)
	for i := 1; i < len(dates); i++ {
		assert.True(t, dates[i-1].Before(dates[i]), "dates must be strictly ascending")
	}
}

func TestExpandRecurrence_WeeklyEmptySelectionFallback(t *testing.T) {
	base := date("2025-06-04")
	today := date("2025-06-01")
	sel := RecurrenceSelection{Kind: RecurrenceWeekly}

	assert.Equal(t, []time.Time{base}, ExpandRecurrence(base, sel, today, DefaultRules()))
}

func TestExpandRecurrence_WeeklyExcludesPast(t *testing.T) {
	// Generation time is after the first expanded Wednesday; that date must
	// be dropped regardless of the base date.
	base := date("2025-06-04")
	today := date("2025-06-05")
	sel := RecurrenceSelection{Kind: RecurrenceWeekly, DaysOfWeek: []time.Weekday{time.Wednesday}}

	dates := ExpandRecurrence(base, sel, today, DefaultRules())
	assert.Equal(t, []time.Time{
		date("2025-06-11"),
		date("2025-06-18"),
	}, dates)
}

func TestExpandRecurrence_WeeklyTodayInclusive(t *testing.T) {
	base := date("2025-06-04")
	today := date("2025-06-04")
	sel := RecurrenceSelection{Kind: RecurrenceWeekly, DaysOfWeek: []time.Weekday{time.Wednesday}}

	dates := ExpandRecurrence(base, sel, today, DefaultRules())
	require.NotEmpty(t, dates)
	assert.Equal(t, date("2025-06-04"), dates[0], "today itself is schedulable")
}

func TestExpandRecurrence_WeeklyConfigurableHorizon(t *testing.T) {
	base := date("2025-06-04")
	today := date("2025-06-01")
	sel := RecurrenceSelection{Kind: RecurrenceWeekly, DaysOfWeek: []time.Weekday{time.Wednesday}}

	dates := ExpandRecurrence(base, sel, today, Rules{SlotCapacity: 2, RecurrenceWeeks: 5})
	assert.Len(t, dates, 5)
}

func TestExpandRecurrence_CustomSortedDeduplicated(t *testing.T) {
	today := date("2025-06-01")
	sel := RecurrenceSelection{Kind: RecurrenceCustom, Dates: []time.Time{
		date("2025-06-20"),
		date("2025-06-10"),
		date("2025-06-20"), // Duplicate
		date("2025-05-30"), // Past, dropped
	}}

	dates := ExpandRecurrence(date("2025-06-02"), sel, today, DefaultRules())
	assert.Equal(t, []time.Time{
		date("2025-06-10"),
		date("2025-06-20"),
	}, dates)
}

func TestExpandRecurrence_CustomAllPast(t *testing.T) {
	today := date("2025-06-01")
	sel := RecurrenceSelection{Kind: RecurrenceCustom, Dates: []time.Time{date("2025-05-01")}}

	assert.Empty(t, ExpandRecurrence(date("2025-06-02"), sel, today, DefaultRules()))
}

func TestExpandRecurrence_Deterministic(t *testing.T) {
	base := date("2025-06-04")
	today := date("2025-06-01")
	sel := RecurrenceSelection{Kind: RecurrenceWeekly, DaysOfWeek: []time.Weekday{time.Monday, time.Friday, time.Monday}}

	first := ExpandRecurrence(base, sel, today, DefaultRules())
	second := ExpandRecurrence(base, sel, today, DefaultRules())
	assert.Equal(t, first, second, "same inputs and today reference must yield identical output")
}
