package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestJWTManager_GenerateAndParse(t *testing.T) {
	manager := NewJWTManager("secret", time.Hour)
	token, err := manager.GenerateToken("operator@example.com", "operator@example.com", RoleOperator)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := manager.ParseToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Subject != "operator@example.com" || claims.Role != RoleOperator || claims.Issuer != Issuer {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := manager.ParseToken(token + "tampered"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for tampered token, got %v", err)
	}
}

func TestJWTManager_EmptySecret(t *testing.T) {
	manager := NewJWTManager("", time.Hour)
	if _, err := manager.GenerateToken("op", "op@example.com", RoleOperator); err == nil {
		t.Fatalf("expected error when secret is empty")
	}
}

func TestJWTManager_Expired(t *testing.T) {
	manager := NewJWTManager("secret", time.Minute)
	issued := time.Now().Add(-2 * time.Hour)
	manager.now = func() time.Time { return issued }
	token, err := manager.GenerateToken("op", "op@example.com", RoleOperator)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	manager.now = time.Now
	if _, err := manager.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}

func TestJWTManager_RejectsForeignTokens(t *testing.T) {
	manager := NewJWTManager("secret", time.Hour)

	wrongIssuer, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: RoleOperator,
	}).SignedString([]byte("secret"))
	if _, err := manager.ParseToken(wrongIssuer); err == nil {
		t.Fatalf("expected issuer mismatch to fail")
	}

	noneAlg, _ := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: Issuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := manager.ParseToken(noneAlg); err == nil {
		t.Fatalf("expected none algorithm to be rejected")
	}
}

func TestPasswordHashing(t *testing.T) {
	if _, err := HashPassword(""); !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !CheckPassword(hash, "s3cret") || CheckPassword(hash, "wrong") || CheckPassword("not-a-hash", "s3cret") {
		t.Fatalf("unexpected password check results")
	}
}
