package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/claimease/claimease/internal/platform/db"
)

type repoPG struct{ q db.Queryable }

func NewRepoPG(q db.Queryable) Repository { return &repoPG{q: q} }

func (r *repoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.q)
}

const hospitalCols = `hospital_id, hospital_name, hospital_type, registration_number, address,
	city, state, pincode, contact_number, email, website, specializations,
	bed_capacity, accreditation, is_active, created_at`

func scanHospital(row pgx.Row) (*Hospital, error) {
	var h Hospital
	err := row.Scan(&h.HospitalID, &h.HospitalName, &h.HospitalType, &h.RegistrationNumber, &h.Address,
		&h.City, &h.State, &h.Pincode, &h.ContactNumber, &h.Email, &h.Website, &h.Specializations,
		&h.BedCapacity, &h.Accreditation, &h.IsActive, &h.CreatedAt)
	return &h, err
}

// likeEscaper keeps user input from acting as LIKE wildcards.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *repoPG) ListHospitals(ctx context.Context, f HospitalFilter) ([]*Hospital, error) {
	query := `SELECT ` + hospitalCols + ` FROM hospitals WHERE is_active = TRUE`
	var args []interface{}
	idx := 1

	if f.City != "" {
		query += fmt.Sprintf(` AND city ILIKE '%%' || $%d || '%%'`, idx)
		args = append(args, likeEscaper.Replace(f.City))
		idx++
	}
	if f.State != "" {
		query += fmt.Sprintf(` AND state ILIKE '%%' || $%d || '%%'`, idx)
		args = append(args, likeEscaper.Replace(f.State))
		idx++
	}
	if f.Type != "" {
		query += fmt.Sprintf(` AND hospital_type = $%d`, idx)
		args = append(args, f.Type)
	}
	query += ` ORDER BY hospital_name ASC, hospital_id ASC`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Hospital
	for rows.Next() {
		h, err := scanHospital(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *repoPG) GetHospital(ctx context.Context, id int64) (*Hospital, error) {
	h, err := scanHospital(r.conn(ctx).QueryRow(ctx, `SELECT `+hospitalCols+` FROM hospitals WHERE hospital_id = $1`, id))
	if db.IsNoRows(err) {
		return nil, ErrHospitalNotFound
	}
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (r *repoPG) ListInsuranceCompanies(ctx context.Context) ([]*InsuranceCompany, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT company_id, company_name, company_code, contact_number, helpline, email, website, is_active
		FROM insurance_companies
		ORDER BY company_name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*InsuranceCompany
	for rows.Next() {
		var c InsuranceCompany
		if err := rows.Scan(&c.CompanyID, &c.CompanyName, &c.CompanyCode, &c.ContactNumber,
			&c.Helpline, &c.Email, &c.Website, &c.IsActive); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (r *repoPG) ListPolicies(ctx context.Context, companyID *int64) ([]*Policy, error) {
	query := `
		SELECT p.policy_id, p.company_id, ic.company_name, p.policy_name, p.policy_type,
			p.coverage_amount, p.premium_amount, p.waiting_period_months, p.is_active
		FROM policies p
		JOIN insurance_companies ic ON p.company_id = ic.company_id
		WHERE p.is_active = TRUE`
	var args []interface{}
	if companyID != nil {
		query += ` AND p.company_id = $1`
		args = append(args, *companyID)
	}
	query += ` ORDER BY p.policy_name ASC, p.policy_id ASC`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Policy
	for rows.Next() {
		var p Policy
		if err := rows.Scan(&p.PolicyID, &p.CompanyID, &p.CompanyName, &p.PolicyName, &p.PolicyType,
			&p.CoverageAmount, &p.PremiumAmount, &p.WaitingPeriodMonths, &p.IsActive); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
