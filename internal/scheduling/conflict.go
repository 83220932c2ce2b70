package scheduling

import (
	"fmt"
	"time"

	"fitbook/gym-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Rules are the policy constants the engine runs under. The defaults mirror
// the product's current behavior; both values are exposed through config so
// they can be tuned without a code change.
type Rules struct {
	// SlotCapacity is the maximum number of classes allowed to share one
	// (date, time) slot across all locations.
	SlotCapacity int
	// RecurrenceWeeks is how many week-offsets a weekly recurrence expands
	// over (offset 0 .. RecurrenceWeeks-1).
	RecurrenceWeeks int
}

// DefaultRules returns the standard policy: two concurrent classes per slot,
// three weeks of weekly recurrence.
func DefaultRules() Rules {
	return Rules{SlotCapacity: 2, RecurrenceWeeks: 3}
}

func (r Rules) withDefaults() Rules {
	if r.SlotCapacity <= 0 {
		r.SlotCapacity = 2
	}
	if r.RecurrenceWeeks <= 0 {
		r.RecurrenceWeeks = 3
	}
	return r
}

// ConflictKind discriminates the three conflict dimensions.
type ConflictKind string

const (
	ConflictCapacityExceeded     ConflictKind = "capacity_exceeded"
	ConflictLocationDoubleBooked ConflictKind = "location_double_booked"
	ConflictTrainerDoubleBooked  ConflictKind = "trainer_double_booked"
)

// Conflict is a result value describing one detected violation. It is not an
// error: conflicts are expected outcomes that block workflow progression
// until the draft changes.
type Conflict struct {
	Kind        ConflictKind         `json:"kind"`
	Message     string               `json:"message"`
	ScheduleIDs []primitive.ObjectID `json:"scheduleIds,omitempty"`
}

// Candidate is the (date, time, location, trainer) tuple being evaluated
// against the existing schedule snapshot.
type Candidate struct {
	Date      time.Time
	Time      domain.TimeOfDay
	Location  domain.Location
	TrainerID primitive.ObjectID
}

// CheckConflicts evaluates a candidate slot against a snapshot of existing
// schedules and returns every violation found, so the caller can show all of
// them at once. It never fails: snapshot records whose date or time cannot be
// parsed are treated as non-matching and skipped.
func CheckConflicts(candidate Candidate, existing []domain.ScheduledClass, rules Rules) []Conflict {
	rules = rules.withDefaults()
	candidateDate := domain.DateOnly(candidate.Date)

	// Records occupying the same (date, time) slot, seconds ignored.
	var sameSlot []domain.ScheduledClass
	for _, s := range existing {
		d, ok := s.Date()
		if !ok || !d.Equal(candidateDate) {
			continue
		}
		t, ok := s.Time()
		if !ok || !t.Equal(candidate.Time) {
			continue
		}
		sameSlot = append(sameSlot, s)
	}

	conflicts := []Conflict{}
	if len(sameSlot) >= rules.SlotCapacity {
		conflicts = append(conflicts, Conflict{
			Kind: ConflictCapacityExceeded,
			Message: fmt.Sprintf("time slot %s on %s already has %d classes scheduled (maximum %d)",
				candidate.Time, domain.FormatDate(candidateDate), len(sameSlot), rules.SlotCapacity),
			ScheduleIDs: scheduleIDs(sameSlot),
		})
	}

	if hits := matching(sameSlot, func(s domain.ScheduledClass) bool { return s.Location == candidate.Location }); len(hits) > 0 {
		conflicts = append(conflicts, Conflict{
			Kind: ConflictLocationDoubleBooked,
			Message: fmt.Sprintf("location %q is already booked by %q at %s",
				candidate.Location, hits[0].DisplayName(), candidate.Time),
			ScheduleIDs: scheduleIDs(hits),
		})
	}

	if hits := matching(sameSlot, func(s domain.ScheduledClass) bool { return s.TrainerID == candidate.TrainerID }); len(hits) > 0 {
		conflicts = append(conflicts, Conflict{
			Kind: ConflictTrainerDoubleBooked,
			Message: fmt.Sprintf("trainer is already teaching %q at %s",
				hits[0].DisplayName(), candidate.Time),
			ScheduleIDs: scheduleIDs(hits),
		})
	}

	return conflicts
}

func matching(schedules []domain.ScheduledClass, pred func(domain.ScheduledClass) bool) []domain.ScheduledClass {
	var out []domain.ScheduledClass
	for _, s := range schedules {
		if pred(s) {
			out = append(out, s)
		}
	}
	return out
}

func scheduleIDs(schedules []domain.ScheduledClass) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, len(schedules))
	for i, s := range schedules {
		ids[i] = s.ID
	}
	return ids
}
