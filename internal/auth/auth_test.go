package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/shelterscout/shelterscout-server/internal/domain"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("unexpected hash format: %s", hash)
	}

	ok, err := VerifyPassword(hash, "correct horse battery staple")
	if err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if !ok {
		t.Error("correct password rejected")
	}

	ok, err = VerifyPassword(hash, "wrong password")
	if err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if ok {
		t.Error("wrong password accepted")
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := HashPassword(""); err == nil {
		t.Error("empty password should be rejected")
	}
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	ok, err := VerifyPassword("not a hash", "anything")
	if err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if ok {
		t.Error("malformed hash should not verify")
	}
}

func TestHashPasswordSaltsDiffer(t *testing.T) {
	h1, err := HashPassword("same password")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	h2, err := HashPassword("same password")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if h1 == h2 {
		t.Error("two hashes of the same password must not match")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	keyHex := strings.Repeat("ab", 32)
	svc, err := NewTokenService(keyHex, time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	op := &domain.Operator{
		Entity: domain.Entity{ID: "op-1"},
		Email:  "admin@example.org",
		IsRoot: true,
	}
	token, err := svc.GenerateAccessToken(op)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	claims, err := svc.VerifyAccessToken(token)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if claims.OperatorID != "op-1" {
		t.Errorf("OperatorID: got %q", claims.OperatorID)
	}
	if claims.Email != "admin@example.org" {
		t.Errorf("Email: got %q", claims.Email)
	}
	if !claims.IsRoot {
		t.Error("IsRoot lost in round trip")
	}
	if claims.Subject != "op-1" {
		t.Errorf("Subject: got %q", claims.Subject)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	keyHex := strings.Repeat("cd", 32)
	svc, err := NewTokenService(keyHex, -time.Minute)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	token, err := svc.GenerateAccessToken(&domain.Operator{
		Entity: domain.Entity{ID: "op-1"},
		Email:  "admin@example.org",
	})
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if _, err := svc.VerifyAccessToken(token); err == nil {
		t.Error("expired token accepted")
	}
}

func TestTokenWrongKeyRejected(t *testing.T) {
	issue, err := NewTokenService(strings.Repeat("ab", 32), time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	verify, err := NewTokenService(strings.Repeat("ef", 32), time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	token, err := issue.GenerateAccessToken(&domain.Operator{
		Entity: domain.Entity{ID: "op-1"},
		Email:  "admin@example.org",
	})
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if _, err := verify.VerifyAccessToken(token); err == nil {
		t.Error("token decrypted with the wrong key")
	}
}

func TestNewTokenServiceRejectsBadKey(t *testing.T) {
	if _, err := NewTokenService("tooshort", time.Hour); err == nil {
		t.Error("short key accepted")
	}
	if _, err := NewTokenService(strings.Repeat("zz", 32), time.Hour); err == nil {
		t.Error("non-hex key accepted")
	}
}

func TestLoadOrGenerateKey(t *testing.T) {
	dir := t.TempDir()

	first, err := LoadOrGenerateKey(dir)
	if err != nil {
		t.Fatalf("LoadOrGenerateKey: %v", err)
	}
	if len(first) != 64 {
		t.Errorf("key length: got %d", len(first))
	}

	// A second load returns the persisted key.
	second, err := LoadOrGenerateKey(dir)
	if err != nil {
		t.Fatalf("LoadOrGenerateKey: %v", err)
	}
	if first != second {
		t.Error("key not stable across loads")
	}
}
