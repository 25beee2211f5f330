package stats

import (
	"context"

	"github.com/claimease/claimease/internal/platform/db"
)

type repoPG struct{ q db.Queryable }

func NewRepoPG(q db.Queryable) Repository { return &repoPG{q: q} }

func (r *repoPG) count(ctx context.Context, query string) (int64, error) {
	var n int64
	err := db.Conn(ctx, r.q).QueryRow(ctx, query).Scan(&n)
	return n, err
}

func (r *repoPG) CountActiveHospitals(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM hospitals WHERE is_active = TRUE`)
}

func (r *repoPG) CountInsuranceCompanies(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM insurance_companies`)
}

func (r *repoPG) CountActivePolicies(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM policies WHERE is_active = TRUE`)
}

func (r *repoPG) CountVerifiedUsers(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM users WHERE is_verified = TRUE`)
}

func (r *repoPG) ClaimsByStatus(ctx context.Context) ([]StatusCount, error) {
	rows, err := db.Conn(ctx, r.q).Query(ctx,
		`SELECT claim_status, COUNT(*) FROM claims GROUP BY claim_status ORDER BY claim_status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StatusCount
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (r *repoPG) HospitalStates(ctx context.Context, limit int) ([]*StateStat, error) {
	query := `SELECT state_name, public_hospitals_count, private_hospitals_count,
		public_hospitals_amount, private_hospitals_amount,
		public_hospitals_count + private_hospitals_count AS total_hospitals,
		public_hospitals_amount + private_hospitals_amount AS total_amount
		FROM hospital_states
		ORDER BY total_hospitals DESC, state_name ASC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := db.Conn(ctx, r.q).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*StateStat
	for rows.Next() {
		var s StateStat
		if err := rows.Scan(&s.StateName, &s.PublicHospitalsCount, &s.PrivateHospitalsCount,
			&s.PublicHospitalsAmount, &s.PrivateHospitalsAmount, &s.TotalHospitals, &s.TotalAmount); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}
