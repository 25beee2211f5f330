package stats

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/claimease/claimease/internal/platform/db"
	"github.com/claimease/claimease/internal/platform/metrics"
)

const defaultTopN = 10

// Aggregator computes read-only rollups at request time. The individual
// counts run concurrently and are not taken from a single snapshot.
type Aggregator struct {
	repo    Repository
	topN    int
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewAggregator returns an Aggregator whose dashboard lists the topN states.
// A non-positive topN selects the default of 10.
func NewAggregator(repo Repository, topN int, logger zerolog.Logger) *Aggregator {
	if topN <= 0 {
		topN = defaultTopN
	}
	return &Aggregator{repo: repo, topN: topN, logger: logger.With().Str("component", "stats").Logger()}
}

func (a *Aggregator) SetMetrics(m *metrics.Metrics) {
	a.metrics = m
}

func (a *Aggregator) servedFallback(dataset string, err error) {
	a.logger.Warn().Err(err).Str("dataset", dataset).Msg("store unavailable, serving fallback data")
	if a.metrics != nil {
		a.metrics.FallbackServed.WithLabelValues(dataset).Inc()
	}
}

func (a *Aggregator) Dashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)

	counts := []struct {
		dst *int64
		fn  func(context.Context) (int64, error)
	}{
		{&d.TotalHospitals, a.repo.CountActiveHospitals},
		{&d.TotalInsuranceCompanies, a.repo.CountInsuranceCompanies},
		{&d.TotalPolicies, a.repo.CountActivePolicies},
		{&d.TotalUsers, a.repo.CountVerifiedUsers},
	}
	for _, c := range counts {
		c := c
		g.Go(func() error {
			n, err := c.fn(gctx)
			if err != nil {
				return err
			}
			*c.dst = n
			return nil
		})
	}
	g.Go(func() error {
		byStatus, err := a.repo.ClaimsByStatus(gctx)
		d.ClaimsByStatus = byStatus
		return err
	})
	g.Go(func() error {
		top, err := a.repo.HospitalStates(gctx, a.topN)
		d.TopStatesByHospitals = top
		return err
	})

	if err := g.Wait(); err != nil {
		if db.IsUnavailable(err) {
			a.servedFallback("dashboard", err)
			return FallbackDashboard(a.topN), nil
		}
		return nil, db.Translate(err, "could not compute dashboard statistics")
	}
	if d.ClaimsByStatus == nil {
		d.ClaimsByStatus = []StatusCount{}
	}
	if d.TopStatesByHospitals == nil {
		d.TopStatesByHospitals = []*StateStat{}
	}
	return &d, nil
}

// HospitalStates lists every state ordered by total hospitals.
func (a *Aggregator) HospitalStates(ctx context.Context) ([]*StateStat, error) {
	states, err := a.repo.HospitalStates(ctx, 0)
	if err != nil {
		if db.IsUnavailable(err) {
			a.servedFallback("hospital_states", err)
			return FallbackHospitalStates(0), nil
		}
		return nil, db.Translate(err, "could not list hospital statistics")
	}
	if states == nil {
		states = []*StateStat{}
	}
	return states, nil
}
