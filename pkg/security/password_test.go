package security

import (
	"testing"

	"github.com/ridegearhq/ridegear-backend/pkg/config"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("ride hard", config.PasswordConfig{BcryptCost: 4})
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if hash == "ride hard" {
		t.Fatalf("hash must not equal the plaintext")
	}

	ok, err := VerifyPassword("ride hard", hash)
	if err != nil || !ok {
		t.Fatalf("expected match, got ok=%v err=%v", ok, err)
	}

	ok, err = VerifyPassword("wrong password", hash)
	if err != nil {
		t.Fatalf("mismatch must not error: %v", err)
	}
	if ok {
		t.Fatalf("wrong password must not verify")
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := HashPassword("", config.PasswordConfig{}); err == nil {
		t.Fatalf("expected error for empty password")
	}
}

func TestHashPasswordFallsBackToDefaultCost(t *testing.T) {
	// Out-of-range cost must not fail; it silently uses the bcrypt default.
	if _, err := HashPassword("ride hard", config.PasswordConfig{BcryptCost: 99}); err != nil {
		t.Fatalf("expected fallback to default cost, got %v", err)
	}
}

func TestGenerateOTP(t *testing.T) {
	code, err := GenerateOTP(6)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("expected 6 digits, got %q", code)
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			t.Fatalf("expected numeric code, got %q", code)
		}
	}

	if _, err := GenerateOTP(0); err == nil {
		t.Fatalf("expected error for non-positive length")
	}
}
