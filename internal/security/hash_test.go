package security

import (
	"strings"
	"testing"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("Abc12345")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "Abc12345" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !ComparePassword(hash, "Abc12345") {
		t.Fatal("expected matching password to compare true")
	}
	if ComparePassword(hash, "WrongPass1") {
		t.Fatal("expected wrong password to compare false")
	}
}

func TestHashRefreshTokenPepperMatters(t *testing.T) {
	a := HashRefreshToken("token", "pepper-one")
	b := HashRefreshToken("token", "pepper-two")
	if a == b {
		t.Fatal("different peppers must produce different hashes")
	}
	if a != HashRefreshToken("token", "pepper-one") {
		t.Fatal("hash must be deterministic")
	}
}

func TestHashVerificationCodeDeterministic(t *testing.T) {
	if HashVerificationCode("123456") != HashVerificationCode("123456") {
		t.Fatal("hash must be deterministic")
	}
	if HashVerificationCode("123456") == HashVerificationCode("654321") {
		t.Fatal("different codes must hash differently")
	}
}

func TestNewNumericCodeShape(t *testing.T) {
	code, err := NewNumericCode(6)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("expected 6 digits, got %q", code)
	}
	if strings.Trim(code, "0123456789") != "" {
		t.Fatalf("expected only digits, got %q", code)
	}
}

func TestNewRandomStringUnique(t *testing.T) {
	a, err := NewRandomString(16)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b, err := NewRandomString(16)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if a == b {
		t.Fatal("two random strings should differ")
	}
}
