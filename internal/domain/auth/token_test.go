package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	secret := "test-secret"
	token, err := GenerateToken(secret, Claims{UserID: "u1", Email: "emp@example.com", SessionID: "s1"}, time.Hour)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	claims, err := ParseToken(secret, token)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.UserID != "u1" || claims.Email != "emp@example.com" || claims.SessionID != "s1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret-a", Claims{Email: "emp@example.com"}, time.Hour)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if _, err := ParseToken("secret-b", token); err == nil {
		t.Fatal("expected parse to fail with wrong secret")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, err := GenerateToken("secret", Claims{Email: "emp@example.com"}, -time.Minute)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if _, err := ParseToken("secret", token); err == nil {
		t.Fatal("expected parse to fail for expired token")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("Secret123!")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if err := CheckPassword(hash, "Secret123!"); err != nil {
		t.Fatalf("expected password to verify: %v", err)
	}
	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Fatal("expected wrong password to fail")
	}
}

func TestHashTokenIsStable(t *testing.T) {
	if HashToken("abc") != HashToken("abc") {
		t.Fatal("expected stable digests")
	}
	if HashToken("abc") == HashToken("abd") {
		t.Fatal("expected distinct digests")
	}
}
