package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTokenIssueAndVerify(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour, "auth-microservice")

	token, err := svc.Issue("user-123")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-123" {
		t.Errorf("expected userId user-123, got %s", claims.UserID)
	}
	if claims.Subject != "user-123" {
		t.Errorf("expected subject user-123, got %s", claims.Subject)
	}
	if claims.Issuer != "auth-microservice" {
		t.Errorf("expected issuer auth-microservice, got %s", claims.Issuer)
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		t.Fatal("expected exp and iat claims")
	}
	ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if ttl != time.Hour {
		t.Errorf("expected 1h lifetime, got %v", ttl)
	}
}

func TestTokenExpired(t *testing.T) {
	svc := NewTokenService("test-secret", time.Millisecond, "auth-microservice")

	token, err := svc.Issue("user-123")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	_, err = svc.Verify(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenTamperedSignature(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour, "auth-microservice")

	token, err := svc.Issue("user-123")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	tampered := token[:len(token)-1] + flipChar(token[len(token)-1])
	if _, err := svc.Verify(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for tampered signature, got %v", err)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	issuer := NewTokenService("secret-a", time.Hour, "auth-microservice")
	verifier := NewTokenService("secret-b", time.Hour, "auth-microservice")

	token, err := issuer.Issue("user-123")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := verifier.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken across secrets, got %v", err)
	}
}

func TestTokenMalformed(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour, "auth-microservice")

	for _, token := range []string{"", "garbage", "a.b.c", strings.Repeat("x", 200)} {
		if _, err := svc.Verify(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("token %q: expected ErrInvalidToken, got %v", token, err)
		}
	}
}

func TestTokenDefaultTTL(t *testing.T) {
	svc := NewTokenService("test-secret", 0, "auth-microservice")
	if svc.TTL() != 24*time.Hour {
		t.Fatalf("expected 24h default TTL, got %v", svc.TTL())
	}
}

func flipChar(b byte) string {
	if b == 'A' {
		return "B"
	}
	return "A"
}
