package stats

import (
	"context"
)

// Repository reads the counts behind the dashboard. Every method is a single
// read-committed query; callers combine them without a shared snapshot.
type Repository interface {
	CountActiveHospitals(ctx context.Context) (int64, error)
	CountInsuranceCompanies(ctx context.Context) (int64, error)
	CountActivePolicies(ctx context.Context) (int64, error)
	CountVerifiedUsers(ctx context.Context) (int64, error)
	ClaimsByStatus(ctx context.Context) ([]StatusCount, error)
	// HospitalStates returns rows ordered by total hospitals descending.
	// A limit of zero or less returns every state.
	HospitalStates(ctx context.Context, limit int) ([]*StateStat, error)
}
