package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/claimease/claimease/internal/platform/apperr"
)

const issuer = "claimease"

// Claims is the JWT payload of a session token. ExpiresAtNano carries the
// exact expiry; the registered exp claim only has second resolution.
type Claims struct {
	jwt.RegisteredClaims
	UserID        int64 `json:"user_id"`
	ExpiresAtNano int64 `json:"exp_ns"`
}

// SessionToken is a signed bearer credential and its absolute expiry.
type SessionToken struct {
	Value     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenIssuer issues and verifies stateless HS256 session tokens.
type TokenIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewTokenIssuer(key []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{key: key, ttl: ttl, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (ti *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	ti.now = now
	return ti
}

// Issue signs a token for userID valid for [now, now+ttl).
func (ti *TokenIssuer) Issue(userID int64) (SessionToken, error) {
	iat := ti.now().UTC()
	exp := iat.Add(ti.ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		UserID:        userID,
		ExpiresAtNano: exp.UnixNano(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.key)
	if err != nil {
		return SessionToken{}, fmt.Errorf("sign session token: %w", err)
	}
	return SessionToken{Value: signed, ExpiresAt: exp}, nil
}

var errTokenExpired = errors.New("token expired")

// Verify returns the user id carried by token. Every failure is reported as
// Unauthenticated.
func (ti *TokenIssuer) Verify(token string) (int64, error) {
	if token == "" {
		return 0, apperr.New(apperr.KindUnauthenticated, "missing session token")
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return ti.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		// Registered claims are checked below against the injected clock.
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return 0, apperr.Wrap(err, apperr.KindUnauthenticated, "invalid session token")
	}

	if claims.ExpiresAtNano <= 0 || !ti.now().Before(time.Unix(0, claims.ExpiresAtNano)) {
		return 0, apperr.Wrap(errTokenExpired, apperr.KindUnauthenticated, "session token expired")
	}
	if claims.Issuer != issuer || claims.UserID <= 0 || claims.Subject != strconv.FormatInt(claims.UserID, 10) {
		return 0, apperr.New(apperr.KindUnauthenticated, "invalid session token")
	}
	return claims.UserID, nil
}
