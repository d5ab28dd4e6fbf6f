package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 15)
	role := domain.StaffRoleAgent

	token, expiresAt, err := tm.GenerateToken("staff-1", domain.SubjectTypeStaff, &role)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if remaining := time.Until(expiresAt); remaining < 14*time.Minute {
		t.Errorf("expiry too close: %s remaining", remaining)
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.SubjectID != "staff-1" || claims.Subject != domain.SubjectTypeStaff {
		t.Errorf("claims = %+v", claims)
	}
	if claims.Role == nil || *claims.Role != domain.StaffRoleAgent {
		t.Errorf("role claim = %v, want AGENT", claims.Role)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, _, err := NewTokenManager("secret-a", 15).GenerateToken("user-1", domain.SubjectTypeUser, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := NewTokenManager("secret-b", 15).ParseToken(token); err == nil {
		t.Fatal("expected signature validation to fail")
	}
}

func TestParseTokenRejectsForeignIssuer(t *testing.T) {
	tm := NewTokenManager("test-secret", 15)
	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		SubjectID: "user-1",
		Subject:   domain.SubjectTypeUser,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "somewhere-else",
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := foreign.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := tm.ParseToken(signed); err == nil {
		t.Fatal("expected issuer validation to fail")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	tm := NewTokenManager("test-secret", 15)
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		SubjectID: "user-1",
		Subject:   domain.SubjectTypeUser,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := tm.ParseToken(signed); err == nil {
		t.Fatal("expected expiry validation to fail")
	}
}
