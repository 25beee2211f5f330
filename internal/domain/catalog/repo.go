package catalog

import (
	"context"
	"errors"
)

var ErrHospitalNotFound = errors.New("hospital not found")

type Repository interface {
	// ListHospitals returns active hospitals matching f, ordered by name.
	ListHospitals(ctx context.Context, f HospitalFilter) ([]*Hospital, error)
	// GetHospital returns a hospital whether or not it is active.
	GetHospital(ctx context.Context, id int64) (*Hospital, error)
	ListInsuranceCompanies(ctx context.Context) ([]*InsuranceCompany, error)
	// ListPolicies returns active policies, optionally for one company.
	ListPolicies(ctx context.Context, companyID *int64) ([]*Policy, error)
}
