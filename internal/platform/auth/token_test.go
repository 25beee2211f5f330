package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/claimease/claimease/internal/platform/apperr"
)

var testSigningKey = []byte("test-secret-key-for-unit-tests-only-32b")

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }

func newTestIssuer(clock *fakeClock) *TokenIssuer {
	return NewTokenIssuer(testSigningKey, 24*time.Hour).WithClock(clock.Now)
}

func TestTokenIssuer_ValidityWindow(t *testing.T) {
	issued := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: issued}
	ti := newTestIssuer(clock)

	tok, err := ti.Issue(42)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !tok.ExpiresAt.Equal(issued.Add(24 * time.Hour)) {
		t.Errorf("expected expiry %v, got %v", issued.Add(24*time.Hour), tok.ExpiresAt)
	}

	tests := []struct {
		name    string
		at      time.Time
		wantErr bool
	}{
		{"at issuance", issued, false},
		{"one hour later", issued.Add(time.Hour), false},
		{"last instant", issued.Add(24*time.Hour - time.Nanosecond), false},
		{"at expiry", issued.Add(24 * time.Hour), true},
		{"after expiry", issued.Add(25 * time.Hour), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock.t = tt.at
			uid, err := ti.Verify(tok.Value)
			if tt.wantErr {
				if !apperr.HasKind(err, apperr.KindUnauthenticated) {
					t.Errorf("expected Unauthenticated, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if uid != 42 {
				t.Errorf("expected user 42, got %d", uid)
			}
		})
	}
}

func TestTokenIssuer_FractionalSecondIssue(t *testing.T) {
	issued := time.Date(2026, 5, 10, 10, 0, 0, 700_000_000, time.UTC)
	clock := &fakeClock{t: issued}
	ti := newTestIssuer(clock)

	tok, err := ti.Issue(42)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !tok.ExpiresAt.Equal(issued.Add(24 * time.Hour)) {
		t.Errorf("expected expiry %v, got %v", issued.Add(24*time.Hour), tok.ExpiresAt)
	}

	tests := []struct {
		name    string
		at      time.Time
		wantErr bool
	}{
		{"300ms before expiry", issued.Add(24*time.Hour - 300*time.Millisecond), false},
		{"last instant", issued.Add(24*time.Hour - time.Nanosecond), false},
		{"at expiry", issued.Add(24 * time.Hour), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock.t = tt.at
			_, err := ti.Verify(tok.Value)
			if tt.wantErr != (err != nil) {
				t.Errorf("at %v: wantErr %v, got %v", tt.at, tt.wantErr, err)
			}
		})
	}
}

func TestTokenIssuer_MissingExactExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)}
	ti := newTestIssuer(clock)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   "7",
			ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour)),
		},
		UserID: 7,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSigningKey)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ti.Verify(signed); !apperr.HasKind(err, apperr.KindUnauthenticated) {
		t.Errorf("expected Unauthenticated, got %v", err)
	}
}

func TestTokenIssuer_Rejects(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)}
	ti := newTestIssuer(clock)
	good, err := ti.Issue(7)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	other := NewTokenIssuer([]byte("another-secret-key-of-sufficient-len"), 24*time.Hour).WithClock(clock.Now)
	forged, _ := other.Issue(7)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 7})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt"},
		{"truncated", good.Value[:len(good.Value)-4]},
		{"wrong key", forged.Value},
		{"alg none", unsigned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ti.Verify(tt.token); !apperr.HasKind(err, apperr.KindUnauthenticated) {
				t.Errorf("expected Unauthenticated, got %v", err)
			}
		})
	}
}

func TestTokenIssuer_MissingUserID(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)}
	ti := newTestIssuer(clock)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour)),
		},
		ExpiresAtNano: clock.t.Add(time.Hour).UnixNano(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSigningKey)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ti.Verify(signed); !apperr.HasKind(err, apperr.KindUnauthenticated) {
		t.Errorf("expected Unauthenticated, got %v", err)
	}
}
