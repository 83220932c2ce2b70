package scheduling

import (
	"context"
	"errors"
	"time"

	"fitbook/gym-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrClassRequired         = errors.New("a class must be selected first")
	ErrSlotRequired          = errors.New("a date and time must be selected first")
	ErrLocationRequired      = errors.New("a valid location must be selected first")
	ErrTrainerRequired       = errors.New("a trainer must be selected first")
	ErrConflictCheckRequired = errors.New("the current selection has not been conflict-checked")
	ErrUnresolvedConflicts   = errors.New("the current selection has unresolved conflicts")
	ErrRecurrenceRequired    = errors.New("a recurrence selection is required")
	ErrInvalidDifficulty     = errors.New("invalid difficulty level")
	ErrInvalidCapacity       = errors.New("max bookings must be positive")
	ErrInvalidLocation       = errors.New("invalid location")
	ErrInvalidRecurrence     = errors.New("invalid recurrence kind")
	ErrAlreadyCommitted      = errors.New("workflow is already committed")
	ErrInvalidBackStep       = errors.New("can only navigate back to an earlier step")
	ErrNotAtDetails          = errors.New("commit is only possible from the details step")
	ErrNoDatesToSchedule     = errors.New("recurrence expands to no schedulable dates")
	ErrCommitFailed          = errors.New("no schedules could be created")
)

// Step is a state of the scheduling workflow.
type Step int

const (
	StepClassSelect Step = iota
	StepTimeSelect
	StepLocationSelect
	StepTrainerSelect
	StepConflictCheck
	StepRecurrence
	StepDetails
	StepCommitted
)

func (s Step) String() string {
	switch s {
	case StepClassSelect:
		return "class_select"
	case StepTimeSelect:
		return "time_select"
	case StepLocationSelect:
		return "location_select"
	case StepTrainerSelect:
		return "trainer_select"
	case StepConflictCheck:
		return "conflict_check"
	case StepRecurrence:
		return "recurrence"
	case StepDetails:
		return "details"
	case StepCommitted:
		return "committed"
	}
	return "unknown"
}

// Draft accumulates the admin's selections while stepping through the
// workflow. It is ephemeral: never persisted, destroyed with the workflow on
// commit or cancel.
type Draft struct {
	ClassID     primitive.ObjectID
	ClassName   string
	TrainerID   primitive.ObjectID
	Date        time.Time
	Time        *domain.TimeOfDay
	Location    domain.Location
	Difficulty  domain.Difficulty
	MaxBookings int
	Recurrence  RecurrenceSelection
}

// ScheduleCreator is the single write operation the workflow needs from the
// persistence layer.
type ScheduleCreator interface {
	CreateSchedule(ctx context.Context, schedule *domain.ScheduledClass) (primitive.ObjectID, error)
}

// DateOutcome is the per-date result of a commit. Creations are independent:
// one failing does not roll back the others.
type DateOutcome struct {
	Date       time.Time
	ScheduleID primitive.ObjectID
	Err        error
}

// CommitResult collects the per-date outcomes of a commit so the caller
// knows exactly which dates succeeded.
type CommitResult struct {
	Outcomes []DateOutcome
}

// CreatedCount returns how many schedules were persisted.
func (r *CommitResult) CreatedCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err == nil {
			n++
		}
	}
	return n
}

// FailedCount returns how many creations failed.
func (r *CommitResult) FailedCount() int {
	return len(r.Outcomes) - r.CreatedCount()
}

// Workflow is the scheduling state machine:
//
//	ClassSelect → TimeSelect → LocationSelect → TrainerSelect →
//	ConflictCheck → Recurrence → Details → Committed
//
// ConflictCheck is a gating step: advancing past it requires a clean
// CheckConflicts run against the current draft, and any later edit to the
// class, slot, location, or trainer invalidates that result and drops the
// workflow back to ConflictCheck. Backward navigation is free and always
// preserves already-entered draft fields.
//
// A Workflow is single-session state; it is not safe for concurrent use.
type Workflow struct {
	rules     Rules
	step      Step
	draft     Draft
	checked   bool
	conflicts []Conflict
}

// NewWorkflow starts a fresh scheduling session at the class-selection step.
func NewWorkflow(rules Rules) *Workflow {
	return &Workflow{rules: rules.withDefaults(), step: StepClassSelect}
}

// Step returns the current workflow step.
func (w *Workflow) Step() Step {
	return w.step
}

// Draft returns a copy of the accumulated selections.
func (w *Workflow) Draft() Draft {
	return w.draft
}

// Conflicts returns the result of the most recent conflict check, valid only
// until the draft's slot-relevant fields change.
func (w *Workflow) Conflicts() ([]Conflict, bool) {
	return w.conflicts, w.checked
}

// invalidateCheck drops any cached conflict-check result. If the workflow has
// already moved past the gate, it is pulled back so the new selection must be
// re-checked before proceeding.
func (w *Workflow) invalidateCheck() {
	w.checked = false
	w.conflicts = nil
	if w.step > StepConflictCheck && w.step < StepCommitted {
		w.step = StepConflictCheck
	}
}

// SelectClass records the class choice.
func (w *Workflow) SelectClass(classID primitive.ObjectID, className string) error {
	if w.step == StepCommitted {
		return ErrAlreadyCommitted
	}
	if classID == primitive.NilObjectID {
		return ErrClassRequired
	}
	w.draft.ClassID = classID
	w.draft.ClassName = className
	w.invalidateCheck()
	return nil
}

// SelectSlot records the date and time-of-day choice.
func (w *Workflow) SelectSlot(date time.Time, timeOfDay domain.TimeOfDay) error {
	if w.step == StepCommitted {
		return ErrAlreadyCommitted
	}
	if date.IsZero() {
		return ErrSlotRequired
	}
	d := domain.DateOnly(date)
	w.draft.Date = d
	w.draft.Time = &timeOfDay
	w.invalidateCheck()
	return nil
}

// SelectLocation records the location choice.
func (w *Workflow) SelectLocation(location domain.Location) error {
	if w.step == StepCommitted {
		return ErrAlreadyCommitted
	}
	if !domain.ValidLocation(location) {
		return ErrInvalidLocation
	}
	w.draft.Location = location
	w.invalidateCheck()
	return nil
}

// SelectTrainer records the trainer choice.
func (w *Workflow) SelectTrainer(trainerID primitive.ObjectID) error {
	if w.step == StepCommitted {
		return ErrAlreadyCommitted
	}
	if trainerID == primitive.NilObjectID {
		return ErrTrainerRequired
	}
	w.draft.TrainerID = trainerID
	w.invalidateCheck()
	return nil
}

// SetRecurrence records the recurrence selection. Recurrence does not affect
// the conflict check, which evaluates the base slot only.
func (w *Workflow) SetRecurrence(selection RecurrenceSelection) error {
	if w.step == StepCommitted {
		return ErrAlreadyCommitted
	}
	if !ValidRecurrenceKind(selection.Kind) {
		return ErrInvalidRecurrence
	}
	w.draft.Recurrence = selection
	return nil
}

// SetDetails records the difficulty and booking capacity.
func (w *Workflow) SetDetails(difficulty domain.Difficulty, maxBookings int) error {
	if w.step == StepCommitted {
		return ErrAlreadyCommitted
	}
	if !domain.ValidDifficulty(difficulty) {
		return ErrInvalidDifficulty
	}
	if maxBookings <= 0 {
		return ErrInvalidCapacity
	}
	w.draft.Difficulty = difficulty
	w.draft.MaxBookings = maxBookings
	return nil
}

// Candidate builds the conflict-check tuple from the draft. It fails with a
// validation error if any slot-relevant selection is missing; such errors are
// rejected locally and never reach the repository.
func (w *Workflow) Candidate() (Candidate, error) {
	switch {
	case w.draft.ClassID == primitive.NilObjectID:
		return Candidate{}, ErrClassRequired
	case w.draft.Date.IsZero() || w.draft.Time == nil:
		return Candidate{}, ErrSlotRequired
	case !domain.ValidLocation(w.draft.Location):
		return Candidate{}, ErrLocationRequired
	case w.draft.TrainerID == primitive.NilObjectID:
		return Candidate{}, ErrTrainerRequired
	}
	return Candidate{
		Date:      w.draft.Date,
		Time:      *w.draft.Time,
		Location:  w.draft.Location,
		TrainerID: w.draft.TrainerID,
	}, nil
}

// RunConflictCheck evaluates the current draft against a snapshot of existing
// schedules and caches the result for the gate. The snapshot is supplied by
// the caller so the check itself stays synchronous and side-effect-free.
func (w *Workflow) RunConflictCheck(snapshot []domain.ScheduledClass) ([]Conflict, error) {
	if w.step == StepCommitted {
		return nil, ErrAlreadyCommitted
	}
	candidate, err := w.Candidate()
	if err != nil {
		return nil, err
	}
	w.conflicts = CheckConflicts(candidate, snapshot, w.rules)
	w.checked = true
	return w.conflicts, nil
}

// Advance moves the workflow one step forward, validating that the current
// step's selection is complete. The ConflictCheck step additionally requires
// a clean check result for the current draft.
func (w *Workflow) Advance() error {
	switch w.step {
	case StepClassSelect:
		if w.draft.ClassID == primitive.NilObjectID {
			return ErrClassRequired
		}
	case StepTimeSelect:
		if w.draft.Date.IsZero() || w.draft.Time == nil {
			return ErrSlotRequired
		}
	case StepLocationSelect:
		if !domain.ValidLocation(w.draft.Location) {
			return ErrLocationRequired
		}
	case StepTrainerSelect:
		if w.draft.TrainerID == primitive.NilObjectID {
			return ErrTrainerRequired
		}
	case StepConflictCheck:
		if !w.checked {
			return ErrConflictCheckRequired
		}
		if len(w.conflicts) > 0 {
			return ErrUnresolvedConflicts
		}
	case StepRecurrence:
		if !ValidRecurrenceKind(w.draft.Recurrence.Kind) {
			return ErrRecurrenceRequired
		}
	case StepDetails:
		return ErrNotAtDetails
	case StepCommitted:
		return ErrAlreadyCommitted
	}
	w.step++
	return nil
}

// Back navigates to an earlier step. Draft fields already entered are kept.
func (w *Workflow) Back(to Step) error {
	if w.step == StepCommitted {
		return ErrAlreadyCommitted
	}
	if to < StepClassSelect || to >= w.step {
		return ErrInvalidBackStep
	}
	w.step = to
	return nil
}

// PreviewDates expands the draft's recurrence selection without committing,
// so the UI can show the affected dates. Preview and commit share the same
// expansion, and therefore cannot diverge.
func (w *Workflow) PreviewDates(today time.Time) []time.Time {
	return ExpandRecurrence(w.draft.Date, w.draft.Recurrence, today, w.rules)
}

// Commit expands the recurrence selection and issues one create call per
// resulting date, all sharing the draft's class, trainer, time, difficulty,
// and location. Creations are independent; failures are collected per date
// rather than rolled back. If nothing could be created the workflow stays at
// the details step with the draft intact, so the caller can retry without
// re-entering selections.
func (w *Workflow) Commit(ctx context.Context, creator ScheduleCreator, today time.Time) (*CommitResult, error) {
	if w.step == StepCommitted {
		return nil, ErrAlreadyCommitted
	}
	if w.step != StepDetails {
		return nil, ErrNotAtDetails
	}
	if !domain.ValidDifficulty(w.draft.Difficulty) {
		return nil, ErrInvalidDifficulty
	}
	if w.draft.MaxBookings <= 0 {
		return nil, ErrInvalidCapacity
	}

	dates := ExpandRecurrence(w.draft.Date, w.draft.Recurrence, today, w.rules)
	if len(dates) == 0 {
		return nil, ErrNoDatesToSchedule
	}

	result := &CommitResult{Outcomes: make([]DateOutcome, 0, len(dates))}
	for _, date := range dates {
		record := &domain.ScheduledClass{
			ClassID:       w.draft.ClassID,
			TrainerID:     w.draft.TrainerID,
			ClassName:     w.draft.ClassName,
			ScheduledDate: domain.FormatDate(date),
			ScheduledTime: w.draft.Time.String(),
			Difficulty:    w.draft.Difficulty,
			Location:      w.draft.Location,
			MaxBookings:   w.draft.MaxBookings,
			Status:        domain.StatusActive,
		}
		id, err := creator.CreateSchedule(ctx, record)
		result.Outcomes = append(result.Outcomes, DateOutcome{Date: date, ScheduleID: id, Err: err})
	}

	if result.CreatedCount() == 0 {
		// Every create failed (repository unreachable, most likely). Keep the
		// draft and step so the commit can be retried as-is.
		return result, ErrCommitFailed
	}
	w.step = StepCommitted
	return result, nil
}
