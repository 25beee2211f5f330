package stats

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/claimease/claimease/internal/domain/claims"
	"github.com/claimease/claimease/internal/platform/apperr"
	"github.com/claimease/claimease/internal/platform/metrics"
)

type mockRepo struct {
	mu        sync.Mutex
	states    []*StateStat
	byStatus  []StatusCount
	countErr  error
	statesErr error
	limits    []int
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		states: []*StateStat{
			{StateName: "Kerala", PublicHospitalsCount: 85627, PrivateHospitalsCount: 78834, TotalHospitals: 164461},
			{StateName: "Karnataka", PublicHospitalsCount: 903417, PrivateHospitalsCount: 22361, TotalHospitals: 925778},
			{StateName: "Goa", PublicHospitalsCount: 10, PrivateHospitalsCount: 5, TotalHospitals: 15},
		},
		byStatus: []StatusCount{
			{Status: claims.StatusApproved, Count: 2},
			{Status: claims.StatusPending, Count: 5},
		},
	}
}

func (m *mockRepo) CountActiveHospitals(context.Context) (int64, error) { return 5, m.countErr }
func (m *mockRepo) CountInsuranceCompanies(context.Context) (int64, error) { return 4, nil }
func (m *mockRepo) CountActivePolicies(context.Context) (int64, error) { return 3, nil }
func (m *mockRepo) CountVerifiedUsers(context.Context) (int64, error) { return 7, nil }

func (m *mockRepo) ClaimsByStatus(context.Context) ([]StatusCount, error) {
	return m.byStatus, nil
}

func (m *mockRepo) HospitalStates(_ context.Context, limit int) ([]*StateStat, error) {
	m.mu.Lock()
	m.limits = append(m.limits, limit)
	m.mu.Unlock()
	if m.statesErr != nil {
		return nil, m.statesErr
	}
	out := append([]*StateStat(nil), m.states...)
	sort.Slice(out, func(i, j int) bool { return out[i].TotalHospitals > out[j].TotalHospitals })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

var errConnRefused = &pgconn.PgError{Code: "08006", Message: "connection refused"}

func TestDashboard(t *testing.T) {
	repo := newMockRepo()
	agg := NewAggregator(repo, 2, zerolog.Nop())

	d, err := agg.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if d.TotalHospitals != 5 || d.TotalInsuranceCompanies != 4 || d.TotalPolicies != 3 || d.TotalUsers != 7 {
		t.Errorf("unexpected counts: %+v", d)
	}
	if len(d.ClaimsByStatus) != 2 {
		t.Errorf("expected 2 status rows, got %d", len(d.ClaimsByStatus))
	}
	if len(d.TopStatesByHospitals) != 2 || d.TopStatesByHospitals[0].StateName != "Karnataka" {
		t.Errorf("unexpected top states: %+v", d.TopStatesByHospitals)
	}
	if d.Source != "" {
		t.Errorf("live data must not be tagged, got %q", d.Source)
	}
	if len(repo.limits) != 1 || repo.limits[0] != 2 {
		t.Errorf("expected limit 2, got %v", repo.limits)
	}
}

func TestNewAggregator_DefaultTopN(t *testing.T) {
	if agg := NewAggregator(newMockRepo(), 0, zerolog.Nop()); agg.topN != 10 {
		t.Errorf("expected default top 10, got %d", agg.topN)
	}
}

func TestDashboard_EmptyListsNotNull(t *testing.T) {
	repo := newMockRepo()
	repo.states = nil
	repo.byStatus = nil

	d, err := NewAggregator(repo, 10, zerolog.Nop()).Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if d.ClaimsByStatus == nil || d.TopStatesByHospitals == nil {
		t.Error("empty rollups must be empty lists")
	}
}

func TestDashboard_FallbackWhenUnavailable(t *testing.T) {
	repo := newMockRepo()
	repo.countErr = errConnRefused
	m := metrics.New()
	agg := NewAggregator(repo, 3, zerolog.Nop())
	agg.SetMetrics(m)

	d, err := agg.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("expected fallback, got %v", err)
	}
	if d.Source != SourceFallback {
		t.Errorf("expected fallback tag, got %q", d.Source)
	}
	if len(d.TopStatesByHospitals) != 3 || d.TopStatesByHospitals[0].StateName != "Andhra Pradesh" {
		t.Errorf("unexpected fallback states: %+v", d.TopStatesByHospitals)
	}
	if d.TotalHospitals != 5 || d.TotalInsuranceCompanies != 2 {
		t.Errorf("unexpected fallback counts: %+v", d)
	}
	if v := testutil.ToFloat64(m.FallbackServed.WithLabelValues("dashboard")); v != 1 {
		t.Errorf("expected fallback counter 1, got %v", v)
	}
}

func TestDashboard_OtherErrorsAreInternal(t *testing.T) {
	repo := newMockRepo()
	repo.statesErr = errors.New(`relation "hospital_states" does not exist`)

	_, err := NewAggregator(repo, 10, zerolog.Nop()).Dashboard(context.Background())
	if !apperr.HasKind(err, apperr.KindInternal) {
		t.Fatalf("expected Internal, got %v", err)
	}
	_, body := apperr.Render(err)
	if body.Error.Message == `relation "hospital_states" does not exist` {
		t.Error("driver error text leaked")
	}
}

func TestHospitalStates_Unbounded(t *testing.T) {
	repo := newMockRepo()
	states, err := NewAggregator(repo, 1, zerolog.Nop()).HospitalStates(context.Background())
	if err != nil {
		t.Fatalf("HospitalStates: %v", err)
	}
	if len(states) != 3 {
		t.Errorf("expected all 3 states, got %d", len(states))
	}
	if repo.limits[0] != 0 {
		t.Errorf("full listing must not be limited, got %d", repo.limits[0])
	}
}

func TestHospitalStates_Fallback(t *testing.T) {
	repo := newMockRepo()
	repo.statesErr = errConnRefused

	states, err := NewAggregator(repo, 10, zerolog.Nop()).HospitalStates(context.Background())
	if err != nil {
		t.Fatalf("expected fallback, got %v", err)
	}
	if len(states) != 32 {
		t.Fatalf("expected 32 fallback states, got %d", len(states))
	}
	for i, s := range states {
		if s.Source != SourceFallback {
			t.Errorf("state %s not tagged", s.StateName)
		}
		if s.TotalHospitals != s.PublicHospitalsCount+s.PrivateHospitalsCount {
			t.Errorf("state %s: total mismatch", s.StateName)
		}
		if i > 0 && states[i-1].TotalHospitals < s.TotalHospitals {
			t.Errorf("fallback not ordered at %s", s.StateName)
		}
	}
}

func TestFallbackHospitalStates_Totals(t *testing.T) {
	top := FallbackHospitalStates(1)
	if len(top) != 1 {
		t.Fatalf("expected 1 state, got %d", len(top))
	}
	ap := top[0]
	if ap.StateName != "Andhra Pradesh" || ap.TotalHospitals != 965934 {
		t.Errorf("unexpected top state: %+v", ap)
	}
	if ap.TotalAmount != 1097.74 {
		t.Errorf("expected total amount 1097.74, got %v", ap.TotalAmount)
	}
}
