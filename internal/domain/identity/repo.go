package identity

import (
	"context"
	"errors"

	"github.com/claimease/claimease/pkg/civil"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrPolicyNotFound = errors.New("policy not found")
)

type UserRepository interface {
	// Create inserts u with the given hash and fills UserID and CreatedAt.
	// A taken email yields ErrDuplicateEmail.
	Create(ctx context.Context, u *User, passwordHash string) error
	// FindCredentials looks a user up by normalized email and returns the
	// stored hash for verification. ErrUserNotFound when absent.
	FindCredentials(ctx context.Context, email string) (*User, string, error)
	// FindWithPolicy returns the user left-joined to policy and company.
	FindWithPolicy(ctx context.Context, userID int64) (*Profile, error)
	// AssignPolicy points the user at an active policy for [start, end].
	AssignPolicy(ctx context.Context, userID, policyID int64, start, end civil.Date) error
}
