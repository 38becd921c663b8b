package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shivamvijaywargi/mernative/internal/domain/entity"
)

// ErrNotFound is returned by lookups when no matching user exists.
var ErrNotFound = errors.New("user not found")

// UserRepository defines the persistence operations for the User aggregate.
// Default reads exclude the password hash; the *WithPassword variants include
// it for credential checks.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByIDWithPassword(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByEmailWithPassword(ctx context.Context, email string) (*entity.User, error)
	// FindByResetOTP returns the user whose reset OTP equals otp and whose
	// expiry is after now.
	FindByResetOTP(ctx context.Context, otp int32, now time.Time) (*entity.User, error)
	// Save persists the whole aggregate, tasks included. The password hash
	// is only written when set on the user, so callers holding a user loaded
	// without it cannot erase it.
	Save(ctx context.Context, u *entity.User) error
}
