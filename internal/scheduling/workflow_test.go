package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"fitbook/gym-app/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeCreator records create calls and can be told to fail specific dates.
type fakeCreator struct {
	created   []*domain.ScheduledClass
	failDates map[string]error // Keyed by scheduledDate
	failAll   error
}

func (f *fakeCreator) CreateSchedule(_ context.Context, s *domain.ScheduledClass) (primitive.ObjectID, error) {
	if f.failAll != nil {
		return primitive.NilObjectID, f.failAll
	}
	if err, ok := f.failDates[s.ScheduledDate]; ok {
		return primitive.NilObjectID, err
	}
	f.created = append(f.created, s)
	return primitive.NewObjectID(), nil
}

// draftWorkflow walks a workflow up to the conflict-check step with a
// complete, conflict-free draft.
func draftWorkflow(t *testing.T) *Workflow {
	t.Helper()
	w := NewWorkflow(DefaultRules())
	require.NoError(t, w.SelectClass(oid(), "Yoga"))
	require.NoError(t, w.Advance())
	require.NoError(t, w.SelectSlot(date("2025-06-04"), tod(9, 0)))
	require.NoError(t, w.Advance())
	require.NoError(t, w.SelectLocation(domain.LocationGym))
	require.NoError(t, w.Advance())
	require.NoError(t, w.SelectTrainer(oid()))
	require.NoError(t, w.Advance())
	require.Equal(t, StepConflictCheck, w.Step())
	return w
}

// readyWorkflow walks a workflow all the way to the details step.
func readyWorkflow(t *testing.T, sel RecurrenceSelection) *Workflow {
	t.Helper()
	w := draftWorkflow(t)
	_, err := w.RunConflictCheck(nil)
	require.NoError(t, err)
	require.NoError(t, w.Advance())
	require.NoError(t, w.SetRecurrence(sel))
	require.NoError(t, w.Advance())
	require.NoError(t, w.SetDetails(domain.DifficultyAllLevels, 10))
	require.Equal(t, StepDetails, w.Step())
	return w
}

func TestWorkflow_AdvanceRequiresSelections(t *testing.T) {
	w := NewWorkflow(DefaultRules())
	assert.ErrorIs(t, w.Advance(), ErrClassRequired)

	require.NoError(t, w.SelectClass(oid(), "Yoga"))
	require.NoError(t, w.Advance())
	assert.ErrorIs(t, w.Advance(), ErrSlotRequired)

	require.NoError(t, w.SelectSlot(date("2025-06-04"), tod(9, 0)))
	require.NoError(t, w.Advance())
	assert.ErrorIs(t, w.Advance(), ErrLocationRequired)

	require.NoError(t, w.SelectLocation(domain.LocationPark))
	require.NoError(t, w.Advance())
	assert.ErrorIs(t, w.Advance(), ErrTrainerRequired)
}

func TestWorkflow_ConflictCheckGate(t *testing.T) {
	w := draftWorkflow(t)

	// Advancing without a check is rejected.
	assert.ErrorIs(t, w.Advance(), ErrConflictCheckRequired)

	// A dirty check blocks progression.
	draft := w.Draft()
	snapshot := []domain.ScheduledClass{
		existing("2025-06-04", "09:00", domain.LocationGym, draft.TrainerID, "Spin"),
	}
	conflicts, err := w.RunConflictCheck(snapshot)
	require.NoError(t, err)
	assert.Len(t, conflicts, 2)
	assert.ErrorIs(t, w.Advance(), ErrUnresolvedConflicts)

	// A clean re-check unblocks it.
	_, err = w.RunConflictCheck(nil)
	require.NoError(t, err)
	assert.NoError(t, w.Advance())
	assert.Equal(t, StepRecurrence, w.Step())
}

func TestWorkflow_EditInvalidatesCheck(t *testing.T) {
	w := draftWorkflow(t)
	_, err := w.RunConflictCheck(nil)
	require.NoError(t, err)
	require.NoError(t, w.Advance())
	require.NoError(t, w.SetRecurrence(RecurrenceSelection{Kind: RecurrenceSingle}))
	require.NoError(t, w.Advance())
	require.Equal(t, StepDetails, w.Step())

	// Changing the trainer after the check drops the workflow back to the
	// gate and discards the cached result.
	require.NoError(t, w.SelectTrainer(oid()))
	assert.Equal(t, StepConflictCheck, w.Step())
	_, checked := w.Conflicts()
	assert.False(t, checked)
	assert.ErrorIs(t, w.Advance(), ErrConflictCheckRequired)

	// Recurrence does not feed the conflict check, so setting it is not
	// invalidating.
	_, err = w.RunConflictCheck(nil)
	require.NoError(t, err)
	require.NoError(t, w.SetRecurrence(RecurrenceSelection{Kind: RecurrenceSingle}))
	_, checked = w.Conflicts()
	assert.True(t, checked)
}

func TestWorkflow_ConflictCheckRequiresCompleteDraft(t *testing.T) {
	w := NewWorkflow(DefaultRules())
	_, err := w.RunConflictCheck(nil)
	assert.ErrorIs(t, err, ErrClassRequired)

	require.NoError(t, w.SelectClass(oid(), "Yoga"))
	_, err = w.RunConflictCheck(nil)
	assert.ErrorIs(t, err, ErrSlotRequired)
}

func TestWorkflow_BackNavigationPreservesDraft(t *testing.T) {
	w := draftWorkflow(t)
	before := w.Draft()

	require.NoError(t, w.Back(StepClassSelect))
	assert.Equal(t, StepClassSelect, w.Step())
	assert.Equal(t, before, w.Draft())

	// Back must target an earlier step.
	assert.ErrorIs(t, w.Back(StepDetails), ErrInvalidBackStep)
	assert.ErrorIs(t, w.Back(StepClassSelect), ErrInvalidBackStep)
}

func TestWorkflow_CommitFanOut(t *testing.T) {
	sel := RecurrenceSelection{Kind: RecurrenceWeekly, DaysOfWeek: []time.Weekday{time.Wednesday}}
	w := readyWorkflow(t, sel)
	creator := &fakeCreator{}

	result, err := w.Commit(context.Background(), creator, date("2025-06-01"))
	require.NoError(t, err)
	assert.Equal(t, StepCommitted, w.Step())
	assert.Equal(t, 3, result.CreatedCount())
	require.Len(t, creator.created, 3)

	// Same class/trainer/time/difficulty/location on every record, only the
	// date differs.
	draft := w.Draft()
	seenDates := map[string]bool{}
	for _, rec := range creator.created {
		assert.Equal(t, draft.ClassID, rec.ClassID)
		assert.Equal(t, draft.TrainerID, rec.TrainerID)
		assert.Equal(t, "09:00", rec.ScheduledTime)
		assert.Equal(t, domain.DifficultyAllLevels, rec.Difficulty)
		assert.Equal(t, domain.LocationGym, rec.Location)
		assert.Equal(t, 10, rec.MaxBookings)
		assert.Equal(t, domain.StatusActive, rec.Status)
		seenDates[rec.ScheduledDate] = true
	}
	assert.Len(t, seenDates, 3)
}

func TestWorkflow_CommitPartialFailure(t *testing.T) {
	sel := RecurrenceSelection{Kind: RecurrenceCustom, Dates: []time.Time{
		date("2025-06-10"), date("2025-06-11"), date("2025-06-12"),
	}}
	w := readyWorkflow(t, sel)
	boom := errors.New("insert failed")
	creator := &fakeCreator{failDates: map[string]error{"2025-06-11": boom}}

	result, err := w.Commit(context.Background(), creator, date("2025-06-01"))
	require.NoError(t, err, "partial success is not an error")
	assert.Equal(t, StepCommitted, w.Step())
	assert.Equal(t, 2, result.CreatedCount())
	assert.Equal(t, 1, result.FailedCount())

	var failed []string
	for _, o := range result.Outcomes {
		if o.Err != nil {
			failed = append(failed, domain.FormatDate(o.Date))
			assert.ErrorIs(t, o.Err, boom)
		}
	}
	assert.Equal(t, []string{"2025-06-11"}, failed, "caller must know which dates failed")
}

func TestWorkflow_CommitTotalFailureKeepsDraft(t *testing.T) {
	w := readyWorkflow(t, RecurrenceSelection{Kind: RecurrenceSingle})
	creator := &fakeCreator{failAll: errors.New("repository unreachable")}
	before := w.Draft()

	result, err := w.Commit(context.Background(), creator, date("2025-06-01"))
	assert.ErrorIs(t, err, ErrCommitFailed)
	assert.Equal(t, 1, result.FailedCount())
	assert.Equal(t, StepDetails, w.Step(), "draft state stays intact for retry")
	assert.Equal(t, before, w.Draft())

	// Retry after the repository recovers.
	retry := &fakeCreator{}
	result, err = w.Commit(context.Background(), retry, date("2025-06-01"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.CreatedCount())
	assert.Equal(t, StepCommitted, w.Step())
}

func TestWorkflow_CommitNoSchedulableDates(t *testing.T) {
	sel := RecurrenceSelection{Kind: RecurrenceCustom, Dates: []time.Time{date("2025-05-01")}}
	w := readyWorkflow(t, sel)

	_, err := w.Commit(context.Background(), &fakeCreator{}, date("2025-06-01"))
	assert.ErrorIs(t, err, ErrNoDatesToSchedule)
	assert.Equal(t, StepDetails, w.Step())
}

func TestWorkflow_CommittedIsTerminal(t *testing.T) {
	w := readyWorkflow(t, RecurrenceSelection{Kind: RecurrenceSingle})
	_, err := w.Commit(context.Background(), &fakeCreator{}, date("2025-06-01"))
	require.NoError(t, err)

	assert.ErrorIs(t, w.SelectClass(oid(), "Spin"), ErrAlreadyCommitted)
	assert.ErrorIs(t, w.Advance(), ErrAlreadyCommitted)
	assert.ErrorIs(t, w.Back(StepClassSelect), ErrAlreadyCommitted)
	_, err = w.Commit(context.Background(), &fakeCreator{}, date("2025-06-01"))
	assert.ErrorIs(t, err, ErrAlreadyCommitted)
}

func TestWorkflow_PreviewMatchesCommit(t *testing.T) {
	sel := RecurrenceSelection{Kind: RecurrenceWeekly, DaysOfWeek: []time.Weekday{time.Monday, time.Friday}}
	w := readyWorkflow(t, sel)
	today := date("2025-06-01")

	preview := w.PreviewDates(today)
	creator := &fakeCreator{}
	result, err := w.Commit(context.Background(), creator, today)
	require.NoError(t, err)

	require.Len(t, result.Outcomes, len(preview))
	for i, o := range result.Outcomes {
		assert.Equal(t, preview[i], o.Date)
	}
}
