package identity

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/claimease/claimease/internal/platform/apperr"
	"github.com/claimease/claimease/internal/platform/auth"
	"github.com/claimease/claimease/internal/platform/db"
	"github.com/claimease/claimease/internal/platform/metrics"
	"github.com/claimease/claimease/pkg/civil"
)

// Service implements registration, login and profile lookup.
type Service struct {
	users   UserRepository
	hasher  *auth.Hasher
	tokens  *auth.TokenIssuer
	metrics *metrics.Metrics
	logger  zerolog.Logger
	now     func() time.Time
}

func NewService(users UserRepository, hasher *auth.Hasher, tokens *auth.TokenIssuer, logger zerolog.Logger) *Service {
	return &Service{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: logger.With().Str("component", "identity").Logger(),
		now:    time.Now,
	}
}

// SetMetrics attaches optional Prometheus collectors.
func (s *Service) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

var errInvalidCredentials = apperr.New(apperr.KindInvalidCredentials, "invalid email or password")

// Register creates the account and signs the new user in.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	u, err := req.ToUser(civil.DateOf(s.now()))
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, u, hash); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, apperr.New(apperr.KindDuplicateIdentity, "a user with this email already exists")
		}
		return nil, db.Translate(err, "could not register user")
	}

	tok, err := s.tokens.Issue(u.UserID)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.UsersRegistered.Inc()
	}
	s.logger.Info().Int64("user_id", u.UserID).Msg("user registered")

	return &RegisterResponse{
		Message:   "User registered successfully",
		UserID:    u.UserID,
		Token:     tok.Value,
		ExpiresAt: tok.ExpiresAt,
	}, nil
}

// Authenticate verifies the password and issues a session token. Unknown
// emails and wrong passwords produce the same error and comparable work.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*LoginResponse, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, apperr.Required("email")
	}
	if password == "" {
		return nil, apperr.Required("password")
	}

	u, hash, err := s.users.FindCredentials(ctx, email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, db.Translate(err, "could not sign in")
	}

	if verr := s.hasher.VerifyPassword(hash, password); verr != nil {
		s.recordLogin("invalid")
		if errors.Is(verr, auth.ErrPasswordMismatch) {
			return nil, errInvalidCredentials
		}
		// A corrupt stored hash is logged, the caller still sees the generic error.
		s.logger.Error().Err(verr).Msg("password verification failed")
		return nil, errInvalidCredentials
	}

	tok, err := s.tokens.Issue(u.UserID)
	if err != nil {
		return nil, err
	}
	s.recordLogin("success")
	s.logger.Info().Int64("user_id", u.UserID).Msg("user logged in")

	return &LoginResponse{
		Token:     tok.Value,
		ExpiresAt: tok.ExpiresAt,
		User: LoginUser{
			UserID:    u.UserID,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Email:     u.Email,
			PolicyID:  u.PolicyID,
		},
	}, nil
}

func (s *Service) recordLogin(result string) {
	if s.metrics != nil {
		s.metrics.LoginAttempts.WithLabelValues(result).Inc()
	}
}

// Profile returns the caller's user record with policy details.
func (s *Service) Profile(ctx context.Context, userID int64) (*Profile, error) {
	p, err := s.users.FindWithPolicy(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return nil, apperr.New(apperr.KindUnauthenticated, "account no longer exists")
	}
	if err != nil {
		return nil, db.Translate(err, "could not load profile")
	}
	return p, nil
}

// AssignPolicy links a user to an active policy. Zero dates default to a
// one-year term starting today.
func (s *Service) AssignPolicy(ctx context.Context, userID, policyID int64, start, end civil.Date) error {
	if userID <= 0 {
		return apperr.Required("user_id")
	}
	if policyID <= 0 {
		return apperr.Required("policy_id")
	}
	if start.IsZero() {
		start = civil.DateOf(s.now())
	}
	if end.IsZero() {
		end = civil.DateOf(start.In(time.UTC).AddDate(1, 0, 0))
	}
	if end.Before(start) {
		return apperr.Validation("policy_end_date", "policy_end_date cannot be before policy_start_date")
	}

	err := s.users.AssignPolicy(ctx, userID, policyID, start, end)
	switch {
	case errors.Is(err, ErrUserNotFound):
		return apperr.New(apperr.KindNotFound, "user not found")
	case errors.Is(err, ErrPolicyNotFound):
		return apperr.New(apperr.KindNotFound, "policy not found or inactive")
	case err != nil:
		return db.Translate(err, "could not assign policy")
	}
	s.logger.Info().Int64("user_id", userID).Int64("policy_id", policyID).Msg("policy assigned")
	return nil
}
