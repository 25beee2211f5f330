package identity

import (
	"context"

	"github.com/claimease/claimease/internal/platform/db"
	"github.com/claimease/claimease/pkg/civil"
)

type userRepoPG struct{ q db.Queryable }

func NewUserRepoPG(q db.Queryable) UserRepository { return &userRepoPG{q: q} }

func (r *userRepoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.q)
}

const userCols = `u.user_id, u.first_name, u.last_name, u.email, u.phone,
	u.address, u.city, u.state, u.pincode, u.gender, u.date_of_birth,
	u.policy_id, u.policy_start_date, u.policy_end_date, u.is_verified, u.created_at`

func userDest(u *User) []interface{} {
	return []interface{}{&u.UserID, &u.FirstName, &u.LastName, &u.Email, &u.Phone,
		&u.Address, &u.City, &u.State, &u.Pincode, &u.Gender, &u.DateOfBirth,
		&u.PolicyID, &u.PolicyStartDate, &u.PolicyEndDate, &u.IsVerified, &u.CreatedAt}
}

func (r *userRepoPG) Create(ctx context.Context, u *User, passwordHash string) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO users (first_name, last_name, email, phone, address, city, state,
			pincode, gender, date_of_birth, password_hash)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING user_id, created_at`,
		u.FirstName, u.LastName, u.Email, u.Phone, u.Address, u.City, u.State,
		u.Pincode, u.Gender, u.DateOfBirth, passwordHash,
	).Scan(&u.UserID, &u.CreatedAt)
	if db.IsUniqueViolation(err, "users_email_key") {
		return ErrDuplicateEmail
	}
	return err
}

func (r *userRepoPG) FindCredentials(ctx context.Context, email string) (*User, string, error) {
	var u User
	var hash string
	dest := append(userDest(&u), &hash)
	err := r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+`, u.password_hash FROM users u WHERE u.email = $1`, email).Scan(dest...)
	if db.IsNoRows(err) {
		return nil, "", ErrUserNotFound
	}
	if err != nil {
		return nil, "", err
	}
	return &u, hash, nil
}

func (r *userRepoPG) FindWithPolicy(ctx context.Context, userID int64) (*Profile, error) {
	var p Profile
	dest := append(userDest(&p.User), &p.PolicyName, &p.PolicyType, &p.CoverageAmount, &p.CompanyName, &p.Helpline)
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT `+userCols+`, p.policy_name, p.policy_type, p.coverage_amount, ic.company_name, ic.helpline
		FROM users u
		LEFT JOIN policies p ON u.policy_id = p.policy_id
		LEFT JOIN insurance_companies ic ON p.company_id = ic.company_id
		WHERE u.user_id = $1`, userID).Scan(dest...)
	if db.IsNoRows(err) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *userRepoPG) AssignPolicy(ctx context.Context, userID, policyID int64, start, end civil.Date) error {
	var active bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT is_active FROM policies WHERE policy_id = $1`, policyID).Scan(&active)
	if db.IsNoRows(err) || (err == nil && !active) {
		return ErrPolicyNotFound
	}
	if err != nil {
		return err
	}

	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE users SET policy_id = $2, policy_start_date = $3, policy_end_date = $4, updated_at = NOW()
		WHERE user_id = $1`, userID, policyID, start, end)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
