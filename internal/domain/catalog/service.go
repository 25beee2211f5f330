package catalog

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/claimease/claimease/internal/platform/apperr"
	"github.com/claimease/claimease/internal/platform/db"
	"github.com/claimease/claimease/internal/platform/metrics"
)

// Service serves public reference data. Hospital and insurer listings fall
// back to a built-in snapshot while the store is unreachable.
type Service struct {
	repo    Repository
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger.With().Str("component", "catalog").Logger()}
}

func (s *Service) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

func (s *Service) servedFallback(dataset string, err error) {
	s.logger.Warn().Err(err).Str("dataset", dataset).Msg("store unavailable, serving fallback data")
	if s.metrics != nil {
		s.metrics.FallbackServed.WithLabelValues(dataset).Inc()
	}
}

func (s *Service) ListHospitals(ctx context.Context, f HospitalFilter) ([]*Hospital, error) {
	hospitals, err := s.repo.ListHospitals(ctx, f)
	if err != nil {
		if db.IsUnavailable(err) {
			s.servedFallback("hospitals", err)
			return FallbackHospitals(f), nil
		}
		return nil, db.Translate(err, "could not list hospitals")
	}
	if hospitals == nil {
		hospitals = []*Hospital{}
	}
	return hospitals, nil
}

func (s *Service) GetHospital(ctx context.Context, id int64) (*Hospital, error) {
	if id <= 0 {
		return nil, apperr.Validation("id", "hospital id must be a positive integer")
	}
	h, err := s.repo.GetHospital(ctx, id)
	if errors.Is(err, ErrHospitalNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "hospital not found")
	}
	if err != nil {
		return nil, db.Translate(err, "could not load hospital")
	}
	return h, nil
}

func (s *Service) ListInsuranceCompanies(ctx context.Context) ([]*InsuranceCompany, error) {
	companies, err := s.repo.ListInsuranceCompanies(ctx)
	if err != nil {
		if db.IsUnavailable(err) {
			s.servedFallback("insurance_companies", err)
			return FallbackInsuranceCompanies(), nil
		}
		return nil, db.Translate(err, "could not list insurance companies")
	}
	if companies == nil {
		companies = []*InsuranceCompany{}
	}
	return companies, nil
}

func (s *Service) ListPolicies(ctx context.Context, companyID *int64) ([]*Policy, error) {
	policies, err := s.repo.ListPolicies(ctx, companyID)
	if err != nil {
		return nil, db.Translate(err, "could not list policies")
	}
	if policies == nil {
		policies = []*Policy{}
	}
	return policies, nil
}
