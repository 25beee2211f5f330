package identity

import (
	"net/mail"
	"strings"
	"time"

	"github.com/claimease/claimease/internal/platform/apperr"
	"github.com/claimease/claimease/pkg/civil"
)

// User is a registered portal account. The password hash never leaves the
// repository layer on this type.
type User struct {
	UserID          int64       `json:"user_id"`
	FirstName       string      `json:"first_name"`
	LastName        string      `json:"last_name"`
	Email           string      `json:"email"`
	Phone           string      `json:"phone"`
	Address         *string     `json:"address,omitempty"`
	City            *string     `json:"city,omitempty"`
	State           *string     `json:"state,omitempty"`
	Pincode         *string     `json:"pincode,omitempty"`
	Gender          *string     `json:"gender,omitempty"`
	DateOfBirth     civil.Date  `json:"date_of_birth"`
	PolicyID        *int64      `json:"policy_id"`
	PolicyStartDate *civil.Date `json:"policy_start_date,omitempty"`
	PolicyEndDate   *civil.Date `json:"policy_end_date,omitempty"`
	IsVerified      bool        `json:"is_verified"`
	CreatedAt       time.Time   `json:"created_at"`
}

func (u *User) HasPolicy() bool {
	return u.PolicyID != nil && *u.PolicyID > 0
}

// Profile is a user joined to their policy and its issuer.
type Profile struct {
	User
	PolicyName     *string  `json:"policy_name"`
	PolicyType     *string  `json:"policy_type"`
	CoverageAmount *float64 `json:"coverage_amount"`
	CompanyName    *string  `json:"company_name"`
	Helpline       *string  `json:"helpline"`
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Password    string `json:"password"`
	DateOfBirth string `json:"date_of_birth"`
	Address     string `json:"address"`
	City        string `json:"city"`
	State       string `json:"state"`
	Pincode     string `json:"pincode"`
	Gender      string `json:"gender"`
}

var validGenders = map[string]bool{"Male": true, "Female": true, "Other": true}

// NormalizeEmail lower-cases and trims an address so lookups and the unique
// constraint agree.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ToUser validates the request and builds the user to persist. Required
// fields are checked in a fixed order and the first missing one is named.
func (r *RegisterRequest) ToUser(today civil.Date) (*User, error) {
	required := []struct {
		field string
		value string
	}{
		{"first_name", r.FirstName},
		{"last_name", r.LastName},
		{"email", r.Email},
		{"phone", r.Phone},
		{"password", r.Password},
		{"date_of_birth", r.DateOfBirth},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return nil, apperr.Required(f.field)
		}
	}

	email := NormalizeEmail(r.Email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, apperr.Validation("email", "email is not a valid address")
	}
	dob, err := civil.Parse(strings.TrimSpace(r.DateOfBirth))
	if err != nil {
		return nil, apperr.Validation("date_of_birth", err.Error())
	}
	if dob.After(today) {
		return nil, apperr.Validation("date_of_birth", "date_of_birth cannot be in the future")
	}
	if r.Gender != "" && !validGenders[r.Gender] {
		return nil, apperr.Validation("gender", "gender must be one of Male, Female, Other")
	}

	return &User{
		FirstName:   strings.TrimSpace(r.FirstName),
		LastName:    strings.TrimSpace(r.LastName),
		Email:       email,
		Phone:       strings.TrimSpace(r.Phone),
		Address:     optional(r.Address),
		City:        optional(r.City),
		State:       optional(r.State),
		Pincode:     optional(r.Pincode),
		Gender:      optional(r.Gender),
		DateOfBirth: dob,
	}, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginUser is the user summary returned alongside a session token.
type LoginUser struct {
	UserID    int64  `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	PolicyID  *int64 `json:"policy_id"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      LoginUser `json:"user"`
}

type RegisterResponse struct {
	Message   string    `json:"message"`
	UserID    int64     `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
