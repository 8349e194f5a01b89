package jwt

import (
	"errors"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/DRegan-dev/downward/config"
)

func newTestManager() *Manager {
	return NewManager(&config.AuthConfig{
		JWTSecret:               "test-secret-key-for-unit-testing",
		AccessTokenTTL:          15 * time.Minute,
		RefreshTokenTTLDefault:  24 * time.Hour,
		RefreshTokenTTLRemember: 7 * 24 * time.Hour,
	})
}

var testIdentity = Identity{UserID: "user-1", Username: "wanderer", IsSuperuser: true}

func TestGenerateAndParseAccessToken(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateAccessToken(testIdentity)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}

	if claims.UserID != "user-1" {
		t.Errorf("want UserID=user-1, got %s", claims.UserID)
	}
	if claims.Username != "wanderer" {
		t.Errorf("want Username=wanderer, got %s", claims.Username)
	}
	if !claims.IsSuperuser {
		t.Error("want IsSuperuser=true")
	}
	if claims.TokenType != TokenTypeAccess {
		t.Errorf("want TokenType=access, got %s", claims.TokenType)
	}
	if claims.Issuer != "downward" {
		t.Errorf("want Issuer=downward, got %s", claims.Issuer)
	}
	if claims.ID == "" {
		t.Error("JTI must not be empty")
	}
}

func TestGenerateRefreshToken_Default(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateRefreshToken(testIdentity, false)
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}

	if claims.TokenType != TokenTypeRefresh {
		t.Errorf("want TokenType=refresh, got %s", claims.TokenType)
	}
	if claims.RememberMe {
		t.Error("want RememberMe=false")
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl < 23*time.Hour || ttl > 25*time.Hour {
		t.Errorf("default refresh TTL should be ~24h, got %v", ttl)
	}
}

func TestGenerateRefreshToken_RememberMe(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateRefreshToken(testIdentity, true)
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}

	if !claims.RememberMe {
		t.Error("want RememberMe=true")
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl < 6*24*time.Hour || ttl > 8*24*time.Hour {
		t.Errorf("remember-me refresh TTL should be ~7d, got %v", ttl)
	}
}

func TestParseToken_Expired(t *testing.T) {
	m := NewManager(&config.AuthConfig{
		JWTSecret:      "test-secret-key-for-unit-testing",
		AccessTokenTTL: -time.Minute,
	})

	token, err := m.GenerateAccessToken(testIdentity)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	if _, err := m.ParseToken(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("want ErrTokenExpired, got %v", err)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := newTestManager().GenerateAccessToken(testIdentity)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	other := NewManager(&config.AuthConfig{JWTSecret: "a-completely-different-secret", AccessTokenTTL: time.Minute})
	if _, err := other.ParseToken(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("want ErrTokenInvalid, got %v", err)
	}
}

func TestParseToken_RejectsNoneAlgorithm(t *testing.T) {
	claims := Claims{
		UserID:    "user-1",
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    "downward",
			ExpiresAt: jwtv5.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwtv5.NewWithClaims(jwtv5.SigningMethodNone, claims).SignedString(jwtv5.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	if _, err := newTestManager().ParseToken(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("want ErrTokenInvalid, got %v", err)
	}
}

func TestParseToken_Garbage(t *testing.T) {
	if _, err := newTestManager().ParseToken("not-a-token"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("want ErrTokenInvalid, got %v", err)
	}
}
