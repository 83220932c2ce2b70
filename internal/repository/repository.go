package repository

import (
	"context"

	"fitbook/gym-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound       = RepositoryError("not found")
	ErrUpdateFailed   = RepositoryError("update failed")
	ErrDeleteFailed   = RepositoryError("delete failed")
	ErrClassFull      = RepositoryError("class is fully booked")
	ErrDuplicateEmail = RepositoryError("email already registered")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
}

// ClassRepository defines the interface for interacting with the class
// template catalog.
type ClassRepository interface {
	Create(ctx context.Context, class *domain.ClassTemplate) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ClassTemplate, error)
	List(ctx context.Context) ([]domain.ClassTemplate, error)
	Update(ctx context.Context, class *domain.ClassTemplate) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ScheduleRepository defines the interface for interacting with scheduled
// class instances. ListByDateRange is the snapshot source for conflict
// checking; dates are ISO 8601 strings and the range is inclusive.
type ScheduleRepository interface {
	Create(ctx context.Context, schedule *domain.ScheduledClass) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ScheduledClass, error)
	ListByDateRange(ctx context.Context, from, to string) ([]domain.ScheduledClass, error)
	Update(ctx context.Context, schedule *domain.ScheduledClass) error
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.ScheduleStatus) error
	// IncrementBookings bumps currentBookings by delta, refusing to exceed
	// maxBookings (the booking invariant is enforced here, atomically).
	IncrementBookings(ctx context.Context, id primitive.ObjectID, delta int) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}
