package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fitbook/gym-app/internal/domain"
	"fitbook/gym-app/internal/repository"
	"fitbook/gym-app/internal/scheduling"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrTrainerNotFound  = errors.New("trainer not found")
	ErrNotATrainer      = errors.New("user is not a trainer")
	ErrScheduleNotFound = errors.New("scheduled class not found")
	ErrInvalidStatus    = errors.New("invalid schedule status")
	// ErrStoreUnavailable wraps repository I/O failures. Callers can retry;
	// nothing about the request has been consumed.
	ErrStoreUnavailable = errors.New("schedule store unavailable")
)

// ScheduleDraft is the completed set of workflow selections the API layer
// submits for commit. It mirrors scheduling.Draft but uses zero-value
// defaults the service resolves against the class template.
type ScheduleDraft struct {
	ClassID     primitive.ObjectID
	TrainerID   primitive.ObjectID
	Date        time.Time
	Time        domain.TimeOfDay
	Location    domain.Location
	Difficulty  domain.Difficulty // Empty: fall back to the template's default
	MaxBookings int               // Zero: fall back to the template's max members
	Recurrence  scheduling.RecurrenceSelection
}

// RecurrencePreview is a bounded view of the expanded dates for display:
// the first PreviewLimit dates plus a count of the remainder.
type RecurrencePreview struct {
	Dates []time.Time `json:"dates"`
	More  int         `json:"more"`
	Total int         `json:"total"`
}

type ScheduleService interface {
	// ListSchedules returns schedules in the inclusive [from, to] date range.
	ListSchedules(ctx context.Context, from, to time.Time) ([]domain.ScheduledClass, error)
	// CheckCandidate evaluates a candidate slot against the live snapshot.
	CheckCandidate(ctx context.Context, candidate scheduling.Candidate) ([]scheduling.Conflict, error)
	// PreviewRecurrence expands a recurrence selection for display.
	PreviewRecurrence(base time.Time, selection scheduling.RecurrenceSelection) RecurrencePreview
	// CommitDraft drives the full scheduling workflow for a completed draft:
	// it validates referenced entities, re-checks conflicts against a fresh
	// snapshot, and on a clean check creates one schedule per expanded date.
	// A non-empty conflicts slice means the commit was blocked; outcomes are
	// only returned when creation was attempted.
	CommitDraft(ctx context.Context, draft ScheduleDraft) (*scheduling.CommitResult, []scheduling.Conflict, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.ScheduleStatus) error
	DeleteSchedule(ctx context.Context, id primitive.ObjectID) error
	// BookClass and CancelBooking adjust the booking counter, respecting the
	// capacity invariant.
	BookClass(ctx context.Context, id primitive.ObjectID) error
	CancelBooking(ctx context.Context, id primitive.ObjectID) error
}

// scheduleService implements the ScheduleService interface.
type scheduleService struct {
	scheduleRepo repository.ScheduleRepository
	classRepo    repository.ClassRepository
	userRepo     repository.UserRepository
	rules        scheduling.Rules
	previewLimit int
	now          func() time.Time // Injected so previews and commits are testable
}

// NewScheduleService creates a new instance of scheduleService.
func NewScheduleService(
	scheduleRepo repository.ScheduleRepository,
	classRepo repository.ClassRepository,
	userRepo repository.UserRepository,
	rules scheduling.Rules,
	previewLimit int,
) ScheduleService {
	if previewLimit <= 0 {
		previewLimit = 10
	}
	return &scheduleService{
		scheduleRepo: scheduleRepo,
		classRepo:    classRepo,
		userRepo:     userRepo,
		rules:        rules,
		previewLimit: previewLimit,
		now:          time.Now,
	}
}

// snapshotFor fetches all schedules on the candidate's date. Conflict rules
// only ever compare within a single date, so a one-day range is enough.
func (s *scheduleService) snapshotFor(ctx context.Context, date time.Time) ([]domain.ScheduledClass, error) {
	day := domain.FormatDate(domain.DateOnly(date))
	snapshot, err := s.scheduleRepo.ListByDateRange(ctx, day, day)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return snapshot, nil
}

// ListSchedules returns schedules in the inclusive [from, to] date range.
func (s *scheduleService) ListSchedules(ctx context.Context, from, to time.Time) ([]domain.ScheduledClass, error) {
	schedules, err := s.scheduleRepo.ListByDateRange(ctx,
		domain.FormatDate(domain.DateOnly(from)), domain.FormatDate(domain.DateOnly(to)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return schedules, nil
}

// CheckCandidate runs the conflict rules against a fresh snapshot. The
// snapshot fetch is the only fallible part; the check itself cannot fail.
func (s *scheduleService) CheckCandidate(ctx context.Context, candidate scheduling.Candidate) ([]scheduling.Conflict, error) {
	snapshot, err := s.snapshotFor(ctx, candidate.Date)
	if err != nil {
		return nil, err
	}
	return scheduling.CheckConflicts(candidate, snapshot, s.rules), nil
}

// PreviewRecurrence expands a recurrence selection and bounds the result for
// display. The same expansion runs at commit time, so the preview cannot
// diverge from what gets created.
func (s *scheduleService) PreviewRecurrence(base time.Time, selection scheduling.RecurrenceSelection) RecurrencePreview {
	dates := scheduling.ExpandRecurrence(base, selection, s.now(), s.rules)
	preview := RecurrencePreview{Total: len(dates)}
	if len(dates) > s.previewLimit {
		preview.Dates = dates[:s.previewLimit]
		preview.More = len(dates) - s.previewLimit
	} else {
		preview.Dates = dates
	}
	return preview
}

// scheduleCreator adapts the repository to the workflow's creator interface.
type scheduleCreator struct {
	repo repository.ScheduleRepository
}

func (c scheduleCreator) CreateSchedule(ctx context.Context, schedule *domain.ScheduledClass) (primitive.ObjectID, error) {
	return c.repo.Create(ctx, schedule)
}

// CommitDraft drives the workflow state machine end to end for a draft whose
// selections are already complete. The machine is the single path to commit,
// so the conflict gate cannot be bypassed.
func (s *scheduleService) CommitDraft(ctx context.Context, draft ScheduleDraft) (*scheduling.CommitResult, []scheduling.Conflict, error) {
	// 1. Resolve the class template (also supplies the display name that
	// conflict messages and schedule listings use).
	class, err := s.classRepo.GetByID(ctx, draft.ClassID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrClassNotFound
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	// 2. Resolve and verify the trainer.
	trainer, err := s.userRepo.GetByID(ctx, draft.TrainerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrTrainerNotFound
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !trainer.IsTrainer() {
		return nil, nil, ErrNotATrainer
	}

	// 3. Fill draft defaults from the template.
	difficulty := draft.Difficulty
	if difficulty == "" {
		difficulty = class.Difficulty
	}
	if difficulty == "" {
		difficulty = domain.DifficultyAllLevels
	}
	maxBookings := draft.MaxBookings
	if maxBookings == 0 {
		maxBookings = class.MaxMembers
	}

	// 4. Replay the selections through the workflow.
	w := scheduling.NewWorkflow(s.rules)
	steps := []func() error{
		func() error { return w.SelectClass(class.ID, class.Name) },
		w.Advance,
		func() error { return w.SelectSlot(draft.Date, draft.Time) },
		w.Advance,
		func() error { return w.SelectLocation(draft.Location) },
		w.Advance,
		func() error { return w.SelectTrainer(trainer.ID) },
		w.Advance,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, nil, err
		}
	}

	// 5. Conflict gate, against a fresh snapshot.
	snapshot, err := s.snapshotFor(ctx, draft.Date)
	if err != nil {
		return nil, nil, err
	}
	conflicts, err := w.RunConflictCheck(snapshot)
	if err != nil {
		return nil, nil, err
	}
	if len(conflicts) > 0 {
		return nil, conflicts, nil
	}

	// 6. Recurrence, details, commit.
	steps = []func() error{
		w.Advance,
		func() error { return w.SetRecurrence(draft.Recurrence) },
		w.Advance,
		func() error { return w.SetDetails(difficulty, maxBookings) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, nil, err
		}
	}

	result, err := w.Commit(ctx, scheduleCreator{repo: s.scheduleRepo}, s.now())
	if err != nil {
		if errors.Is(err, scheduling.ErrCommitFailed) {
			// Everything failed; surface as a retryable store error but keep
			// the per-date outcomes for reporting.
			return result, nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return nil, nil, err
	}
	return result, nil, nil
}

// UpdateStatus transitions a schedule's lifecycle status.
func (s *scheduleService) UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.ScheduleStatus) error {
	if !domain.ValidStatus(status) {
		return ErrInvalidStatus
	}
	if err := s.scheduleRepo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrScheduleNotFound
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// DeleteSchedule removes a scheduled class.
func (s *scheduleService) DeleteSchedule(ctx context.Context, id primitive.ObjectID) error {
	if err := s.scheduleRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrScheduleNotFound
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// BookClass reserves one spot on a scheduled class.
func (s *scheduleService) BookClass(ctx context.Context, id primitive.ObjectID) error {
	err := s.scheduleRepo.IncrementBookings(ctx, id, 1)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrScheduleNotFound
	case errors.Is(err, repository.ErrClassFull):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}

// CancelBooking releases one spot on a scheduled class.
func (s *scheduleService) CancelBooking(ctx context.Context, id primitive.ObjectID) error {
	err := s.scheduleRepo.IncrementBookings(ctx, id, -1)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrScheduleNotFound
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}
