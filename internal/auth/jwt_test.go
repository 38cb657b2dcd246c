package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestJWTRoundTrip(t *testing.T) {
	userID := uuid.New()

	token, err := GenerateJWT("test-secret", userID, "reviewer", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT() error = %v", err)
	}

	claims, err := ParseJWT("test-secret", token)
	if err != nil {
		t.Fatalf("ParseJWT() error = %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("user id = %s, want %s", claims.UserID, userID)
	}
	if claims.Role != "reviewer" {
		t.Errorf("role = %q, want reviewer", claims.Role)
	}
}

func TestParseJWTRejectsWrongSecret(t *testing.T) {
	token, err := GenerateJWT("secret-a", uuid.New(), "operator", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT() error = %v", err)
	}
	if _, err := ParseJWT("secret-b", token); err == nil {
		t.Fatal("ParseJWT() accepted a token signed with another secret")
	}
}

func TestParseJWTRejectsExpired(t *testing.T) {
	// GenerateJWT falls back to 24h for non-positive lifetimes, so mint the
	// expired token by hand.
	claims := Claims{
		UserID: uuid.New(),
		Role:   "operator",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			Issuer:    "traffick-desk",
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing: %v", err)
	}
	if _, err := ParseJWT("test-secret", token); err == nil {
		t.Fatal("ParseJWT() accepted an expired token")
	}
}
