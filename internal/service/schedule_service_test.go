package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"fitbook/gym-app/internal/domain"
	"fitbook/gym-app/internal/repository"
	"fitbook/gym-app/internal/scheduling"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- In-memory fakes ---

type fakeScheduleRepo struct {
	schedules  map[primitive.ObjectID]*domain.ScheduledClass
	failList   error
	failCreate error
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{schedules: map[primitive.ObjectID]*domain.ScheduledClass{}}
}

func (f *fakeScheduleRepo) Create(_ context.Context, s *domain.ScheduledClass) (primitive.ObjectID, error) {
	if f.failCreate != nil {
		return primitive.NilObjectID, f.failCreate
	}
	s.ID = primitive.NewObjectID()
	cp := *s
	f.schedules[s.ID] = &cp
	return s.ID, nil
}

func (f *fakeScheduleRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.ScheduledClass, error) {
	s, ok := f.schedules[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s, nil
}

func (f *fakeScheduleRepo) ListByDateRange(_ context.Context, from, to string) ([]domain.ScheduledClass, error) {
	if f.failList != nil {
		return nil, f.failList
	}
	var out []domain.ScheduledClass
	for _, s := range f.schedules {
		if s.ScheduledDate >= from && s.ScheduledDate <= to {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeScheduleRepo) Update(_ context.Context, s *domain.ScheduledClass) error {
	if _, ok := f.schedules[s.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *s
	f.schedules[s.ID] = &cp
	return nil
}

func (f *fakeScheduleRepo) UpdateStatus(_ context.Context, id primitive.ObjectID, status domain.ScheduleStatus) error {
	s, ok := f.schedules[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.Status = status
	return nil
}

func (f *fakeScheduleRepo) IncrementBookings(_ context.Context, id primitive.ObjectID, delta int) error {
	s, ok := f.schedules[id]
	if !ok {
		return repository.ErrNotFound
	}
	next := s.CurrentBookings + delta
	if next > s.MaxBookings {
		return repository.ErrClassFull
	}
	if next < 0 {
		return repository.ErrUpdateFailed
	}
	s.CurrentBookings = next
	return nil
}

func (f *fakeScheduleRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := f.schedules[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.schedules, id)
	return nil
}

type fakeClassRepo struct {
	classes map[primitive.ObjectID]*domain.ClassTemplate
}

func (f *fakeClassRepo) Create(_ context.Context, c *domain.ClassTemplate) (primitive.ObjectID, error) {
	c.ID = primitive.NewObjectID()
	f.classes[c.ID] = c
	return c.ID, nil
}

func (f *fakeClassRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.ClassTemplate, error) {
	c, ok := f.classes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

func (f *fakeClassRepo) List(_ context.Context) ([]domain.ClassTemplate, error) {
	var out []domain.ClassTemplate
	for _, c := range f.classes {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeClassRepo) Update(_ context.Context, c *domain.ClassTemplate) error {
	if _, ok := f.classes[c.ID]; !ok {
		return repository.ErrNotFound
	}
	f.classes[c.ID] = c
	return nil
}

func (f *fakeClassRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := f.classes[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.classes, id)
	return nil
}

type fakeUserRepo struct {
	users map[primitive.ObjectID]*domain.User
}

func (f *fakeUserRepo) Create(_ context.Context, u *domain.User) (primitive.ObjectID, error) {
	u.ID = primitive.NewObjectID()
	f.users[u.ID] = u
	return u.ID, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) ListByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	var out []domain.User
	for _, u := range f.users {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	return out, nil
}

// --- Fixture ---

type fixture struct {
	svc       *scheduleService
	schedules *fakeScheduleRepo
	classID   primitive.ObjectID
	trainerID primitive.ObjectID
	memberID  primitive.ObjectID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	schedules := newFakeScheduleRepo()
	classes := &fakeClassRepo{classes: map[primitive.ObjectID]*domain.ClassTemplate{}}
	users := &fakeUserRepo{users: map[primitive.ObjectID]*domain.User{}}

	classID, err := classes.Create(context.Background(), &domain.ClassTemplate{
		Name: "Yoga", Duration: 60, MaxMembers: 10,
	})
	require.NoError(t, err)
	trainerID, err := users.Create(context.Background(), &domain.User{
		FirstName: "Jane", LastName: "Doe", Email: "jane@gym.test", Role: domain.RoleTrainer,
	})
	require.NoError(t, err)
	memberID, err := users.Create(context.Background(), &domain.User{
		FirstName: "Moe", Email: "moe@gym.test", Role: domain.RoleMember,
	})
	require.NoError(t, err)

	svc := NewScheduleService(schedules, classes, users, scheduling.DefaultRules(), 10).(*scheduleService)
	svc.now = func() time.Time { return mustDate("2025-06-01") }

	return &fixture{svc: svc, schedules: schedules, classID: classID, trainerID: trainerID, memberID: memberID}
}

func mustDate(s string) time.Time {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (fx *fixture) draft() ScheduleDraft {
	return ScheduleDraft{
		ClassID:    fx.classID,
		TrainerID:  fx.trainerID,
		Date:       mustDate("2025-06-04"),
		Time:       domain.TimeOfDay{Hour: 9},
		Location:   domain.LocationGym,
		Recurrence: scheduling.RecurrenceSelection{Kind: scheduling.RecurrenceSingle},
	}
}

// --- Tests ---

func TestCommitDraft_SingleHappyPath(t *testing.T) {
	fx := newFixture(t)

	result, conflicts, err := fx.svc.CommitDraft(context.Background(), fx.draft())
	require.NoError(t, err)
	assert.Empty(t, conflicts)
	require.Equal(t, 1, result.CreatedCount())

	created := fx.schedules.schedules[result.Outcomes[0].ScheduleID]
	require.NotNil(t, created)
	assert.Equal(t, "Yoga", created.ClassName, "display name is denormalized from the template")
	assert.Equal(t, "2025-06-04", created.ScheduledDate)
	assert.Equal(t, "09:00", created.ScheduledTime)
	assert.Equal(t, domain.DifficultyAllLevels, created.Difficulty, "difficulty defaults when draft omits it")
	assert.Equal(t, 10, created.MaxBookings, "capacity defaults to the template's max members")
	assert.Equal(t, domain.StatusActive, created.Status)
	assert.Equal(t, 0, created.CurrentBookings)
}

func TestCommitDraft_WeeklyFanOut(t *testing.T) {
	fx := newFixture(t)
	draft := fx.draft()
	draft.Recurrence = scheduling.RecurrenceSelection{
		Kind:       scheduling.RecurrenceWeekly,
		DaysOfWeek: []time.Weekday{time.Wednesday},
	}

	result, conflicts, err := fx.svc.CommitDraft(context.Background(), draft)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
	assert.Equal(t, 3, result.CreatedCount())
	assert.Len(t, fx.schedules.schedules, 3)

	dates := map[string]bool{}
	for _, s := range fx.schedules.schedules {
		dates[s.ScheduledDate] = true
		assert.Equal(t, "09:00", s.ScheduledTime)
		assert.Equal(t, domain.LocationGym, s.Location)
		assert.Equal(t, fx.trainerID, s.TrainerID)
	}
	assert.Equal(t, map[string]bool{"2025-06-04": true, "2025-06-11": true, "2025-06-18": true}, dates)
}

func TestCommitDraft_BlockedByConflicts(t *testing.T) {
	fx := newFixture(t)

	// First commit occupies the slot.
	_, _, err := fx.svc.CommitDraft(context.Background(), fx.draft())
	require.NoError(t, err)

	// Same slot, same location and trainer: blocked with both conflicts.
	result, conflicts, err := fx.svc.CommitDraft(context.Background(), fx.draft())
	require.NoError(t, err)
	assert.Nil(t, result)
	require.Len(t, conflicts, 2)
	assert.Len(t, fx.schedules.schedules, 1, "nothing new was created")
}

func TestCommitDraft_UnknownClass(t *testing.T) {
	fx := newFixture(t)
	draft := fx.draft()
	draft.ClassID = primitive.NewObjectID()

	_, _, err := fx.svc.CommitDraft(context.Background(), draft)
	assert.ErrorIs(t, err, ErrClassNotFound)
}

func TestCommitDraft_TrainerRoleEnforced(t *testing.T) {
	fx := newFixture(t)
	draft := fx.draft()
	draft.TrainerID = fx.memberID

	_, _, err := fx.svc.CommitDraft(context.Background(), draft)
	assert.ErrorIs(t, err, ErrNotATrainer)
}

func TestCommitDraft_SnapshotFetchFailureIsRetryable(t *testing.T) {
	fx := newFixture(t)
	fx.schedules.failList = errors.New("connection refused")

	_, _, err := fx.svc.CommitDraft(context.Background(), fx.draft())
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Empty(t, fx.schedules.schedules)

	// The failure consumed nothing: the same draft commits once the store
	// recovers.
	fx.schedules.failList = nil
	result, conflicts, err := fx.svc.CommitDraft(context.Background(), fx.draft())
	require.NoError(t, err)
	assert.Empty(t, conflicts)
	assert.Equal(t, 1, result.CreatedCount())
}

func TestCommitDraft_AllCreatesFail(t *testing.T) {
	fx := newFixture(t)
	fx.schedules.failCreate = errors.New("write timeout")

	result, _, err := fx.svc.CommitDraft(context.Background(), fx.draft())
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	require.NotNil(t, result, "per-date outcomes are still reported")
	assert.Equal(t, 1, result.FailedCount())
}

func TestCheckCandidate(t *testing.T) {
	fx := newFixture(t)
	_, _, err := fx.svc.CommitDraft(context.Background(), fx.draft())
	require.NoError(t, err)

	// Same slot, different location and trainer: clean.
	otherTrainer := primitive.NewObjectID()
	conflicts, err := fx.svc.CheckCandidate(context.Background(), scheduling.Candidate{
		Date:      mustDate("2025-06-04"),
		Time:      domain.TimeOfDay{Hour: 9},
		Location:  domain.LocationPark,
		TrainerID: otherTrainer,
	})
	require.NoError(t, err)
	assert.Empty(t, conflicts)

	// Same location: one conflict naming the class.
	conflicts, err = fx.svc.CheckCandidate(context.Background(), scheduling.Candidate{
		Date:      mustDate("2025-06-04"),
		Time:      domain.TimeOfDay{Hour: 9},
		Location:  domain.LocationGym,
		TrainerID: otherTrainer,
	})
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, scheduling.ConflictLocationDoubleBooked, conflicts[0].Kind)
	assert.Contains(t, conflicts[0].Message, "Yoga")
}

func TestPreviewRecurrence_Bounded(t *testing.T) {
	fx := newFixture(t)

	var custom []time.Time
	for i := 0; i < 12; i++ {
		custom = append(custom, mustDate("2025-06-01").AddDate(0, 0, i+1))
	}
	preview := fx.svc.PreviewRecurrence(mustDate("2025-06-02"), scheduling.RecurrenceSelection{
		Kind:  scheduling.RecurrenceCustom,
		Dates: custom,
	})
	assert.Len(t, preview.Dates, 10)
	assert.Equal(t, 2, preview.More)
	assert.Equal(t, 12, preview.Total)
}

func TestBookClass_CapacityInvariant(t *testing.T) {
	fx := newFixture(t)
	draft := fx.draft()
	draft.MaxBookings = 1
	result, _, err := fx.svc.CommitDraft(context.Background(), draft)
	require.NoError(t, err)
	id := result.Outcomes[0].ScheduleID

	require.NoError(t, fx.svc.BookClass(context.Background(), id))
	assert.ErrorIs(t, fx.svc.BookClass(context.Background(), id), repository.ErrClassFull)

	require.NoError(t, fx.svc.CancelBooking(context.Background(), id))
	require.NoError(t, fx.svc.BookClass(context.Background(), id))
}

func TestUpdateStatus(t *testing.T) {
	fx := newFixture(t)
	result, _, err := fx.svc.CommitDraft(context.Background(), fx.draft())
	require.NoError(t, err)
	id := result.Outcomes[0].ScheduleID

	require.NoError(t, fx.svc.UpdateStatus(context.Background(), id, domain.StatusCancelled))
	assert.Equal(t, domain.StatusCancelled, fx.schedules.schedules[id].Status)

	assert.ErrorIs(t, fx.svc.UpdateStatus(context.Background(), id, "postponed"), ErrInvalidStatus)
	assert.ErrorIs(t, fx.svc.UpdateStatus(context.Background(), primitive.NewObjectID(), domain.StatusActive), ErrScheduleNotFound)
}
