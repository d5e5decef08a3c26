package security

import (
	"errors"
	"strings"
	"testing"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Secret123!")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	if hash == "Secret123!" || strings.Contains(hash, "Secret123!") {
		t.Fatalf("hash must not contain the plaintext")
	}

	if err := CheckPassword(hash, "Secret123!"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}

	err = CheckPassword(hash, "wrong-password")
	if !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
}

func TestHashPassword_Salted(t *testing.T) {
	a, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	b, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	if a == b {
		t.Fatalf("expected different hashes for the same password")
	}
}
