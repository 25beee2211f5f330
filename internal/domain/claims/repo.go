package claims

import (
	"context"
	"errors"

	"github.com/claimease/claimease/pkg/civil"
)

var (
	ErrClaimNotFound        = errors.New("claim not found")
	ErrDocumentNotFound     = errors.New("document not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrHospitalNotFound     = errors.New("hospital not found")
	ErrDuplicateClaimNumber = errors.New("claim number already taken")
)

// PolicySnapshot is the claimant's current policy as seen at submission.
type PolicySnapshot struct {
	PolicyID int64
	IsActive bool
	EndDate  *civil.Date
}

type Repository interface {
	// UserPolicy returns the user's policy, or nil when the user has none.
	UserPolicy(ctx context.Context, userID int64) (*PolicySnapshot, error)
	// HospitalActive reports whether the hospital accepts claims.
	HospitalActive(ctx context.Context, hospitalID int64) (bool, error)
	// LatestClaimNumber returns the highest claim number issued, or "".
	LatestClaimNumber(ctx context.Context) (string, error)
	// InsertClaim appends c and fills ClaimID and UpdatedAt. A taken
	// claim_number yields ErrDuplicateClaimNumber.
	InsertClaim(ctx context.Context, c *Claim) error

	// ClaimOwnedBy is the ownership predicate shared by every claim-scoped
	// read and write.
	ClaimOwnedBy(ctx context.Context, claimID, userID int64) (bool, error)
	// FindClaimForUser returns ErrClaimNotFound for missing claims and for
	// claims owned by someone else.
	FindClaimForUser(ctx context.Context, claimID, userID int64) (*ClaimDetail, error)
	// ListClaimsForUser returns the user's claims, newest claim_date first.
	ListClaimsForUser(ctx context.Context, userID int64) ([]*ClaimSummary, error)

	InsertDocument(ctx context.Context, d *Document) error
	ListDocuments(ctx context.Context, claimID int64) ([]*Document, error)
	VerifyDocument(ctx context.Context, documentID int64) (*Document, error)

	// LockClaim loads a claim with its policy coverage and holds a row lock
	// until the surrounding transaction ends.
	LockClaim(ctx context.Context, claimID int64) (*Claim, float64, error)
	UpdateStatus(ctx context.Context, c *Claim) error
}
