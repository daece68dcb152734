package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/yigit/studentdesk/internal/app/models"
	"github.com/yigit/studentdesk/internal/pkg/apperrors"
)

func newTestService() *JWTService {
	return NewJWTService(JWTConfig{
		SecretKey:   "secret",
		TokenExp:    30 * 24 * time.Hour,
		TokenIssuer: "issuer",
	})
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTestService()

	token, expiresAt, err := svc.GenerateToken("user-1", models.RoleAdmin)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if time.Until(expiresAt) < 29*24*time.Hour {
		t.Fatalf("expected roughly 30 day expiry, got %s", expiresAt)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	id := claims.Identity()
	if id.UserID != "user-1" || id.Role != models.RoleAdmin {
		t.Fatalf("unexpected identity %+v", id)
	}
	if claims.ID == "" {
		t.Fatalf("expected a token id")
	}
}

func TestExpiredToken(t *testing.T) {
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := newTestService().WithClock(func() time.Time { return issued })

	token, _, err := svc.GenerateToken("user-1", models.RoleStudent)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	svc.WithClock(func() time.Time { return issued.Add(31 * 24 * time.Hour) })
	if _, err := svc.ValidateToken(token); !errors.Is(err, apperrors.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTamperedAndForeignTokens(t *testing.T) {
	svc := newTestService()
	token, _, err := svc.GenerateToken("user-1", models.RoleUser)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	other := NewJWTService(JWTConfig{SecretKey: "other", TokenExp: time.Hour, TokenIssuer: "issuer"})
	foreign, _, err := other.GenerateToken("user-1", models.RoleAdmin)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Role: "admin"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("none token error: %v", err)
	}

	for name, tok := range map[string]string{
		"tampered": token[:len(token)-2] + "xx",
		"foreign":  foreign,
		"garbage":  "not.a.token",
		"unsigned": unsigned,
		"empty":    "",
	} {
		if _, err := svc.ValidateToken(tok); !errors.Is(err, apperrors.ErrTokenInvalid) {
			t.Fatalf("%s: expected ErrTokenInvalid, got %v", name, err)
		}
	}
}

func TestExtractBearerToken(t *testing.T) {
	tok, err := ExtractBearerToken("Bearer a.b.c")
	if err != nil || tok != "a.b.c" {
		t.Fatalf("expected a.b.c, got %q (%v)", tok, err)
	}
	tok, err = ExtractBearerToken("a.b.c")
	if err != nil || tok != "a.b.c" {
		t.Fatalf("expected raw token accepted, got %q (%v)", tok, err)
	}
	for _, h := range []string{"", "Bearer ", "Basic dXNlcjpwYXNz"} {
		if _, err := ExtractBearerToken(h); !errors.Is(err, apperrors.ErrUnauthorized) {
			t.Fatalf("%q: expected ErrUnauthorized, got %v", h, err)
		}
	}
}

func TestPasswordHashing(t *testing.T) {
	h := NewPasswordHasher(4)
	hash, err := h.Hash("secret1")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if strings.Contains(hash, "secret1") {
		t.Fatalf("hash leaks the password")
	}
	if !h.Check(hash, "secret1") {
		t.Fatalf("expected password to match")
	}
	if h.Check(hash, "wrong") {
		t.Fatalf("expected password mismatch")
	}
	if h.Check("", "secret1") {
		t.Fatalf("empty hash must never match")
	}
}
