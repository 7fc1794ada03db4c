package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestIssuer(now time.Time) *TokenIssuer {
	ti := NewTokenIssuer("test-secret", time.Hour)
	ti.now = func() time.Time { return now }
	return ti
}

func TestTokenIssuer_IssueAndVerify(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ti := newTestIssuer(now)

	token, expiresAt, err := ti.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if !expiresAt.Equal(now.Add(time.Hour)) {
		t.Errorf("expiresAt = %v, want %v", expiresAt, now.Add(time.Hour))
	}
	if strings.Count(token, ".") != 2 {
		t.Errorf("token should have 3 segments: %q", token)
	}

	userID, err := ti.Verify(token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if userID != "user-1" {
		t.Errorf("userID = %q, want %q", userID, "user-1")
	}
}

func TestTokenIssuer_Verify_Expired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ti := newTestIssuer(now)

	token, _, err := ti.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	ti.now = func() time.Time { return now.Add(2 * time.Hour) }
	_, err = ti.Verify(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestTokenIssuer_Verify_WrongSecret(t *testing.T) {
	now := time.Now()
	token, _, err := newTestIssuer(now).Issue("user-1")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	other := NewTokenIssuer("another-secret", time.Hour)
	if _, err := other.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for bad signature, got %v", err)
	}
}

func TestTokenIssuer_Verify_Malformed(t *testing.T) {
	ti := NewTokenIssuer("test-secret", time.Hour)

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := ti.Verify(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify(%q): expected ErrInvalidToken, got %v", token, err)
		}
	}
}

func TestTokenIssuer_Verify_RejectsOtherAlgorithms(t *testing.T) {
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    tokenIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}

	ti := NewTokenIssuer("test-secret", time.Hour)
	if _, err := ti.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for HS512 token, got %v", err)
	}
}

func TestTokenIssuer_Verify_MissingSubject(t *testing.T) {
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}

	ti := NewTokenIssuer("test-secret", time.Hour)
	if _, err := ti.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for token without subject, got %v", err)
	}
}
