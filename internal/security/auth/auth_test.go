package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestGenerateAndValidate(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("super-secret", "", time.Hour)
	tok, err := tm.GenerateToken("user-123")
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	got, err := tm.ValidateToken(tok)
	if err != nil {
		t.Fatalf("ValidateToken error: %v", err)
	}
	if got != "user-123" {
		t.Fatalf("user id mismatch: got %q want %q", got, "user-123")
	}
}

func TestGenerateRequiresUserID(t *testing.T) {
	t.Parallel()

	if _, err := NewTokenManager("k", "", time.Hour).GenerateToken(""); err == nil {
		t.Fatal("expected error for empty user id")
	}
}

func TestValidateExpired(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("secret", "", time.Hour)
	tok, err := tm.generate("u1", -time.Second)
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}

	_, err = tm.ValidateToken(tok)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestValidateWrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewTokenManager("right-secret", "", time.Hour).GenerateToken("u2")
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	_, err = NewTokenManager("wrong-secret", "", time.Hour).ValidateToken(tok)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateMalformed(t *testing.T) {
	t.Parallel()

	_, err := NewTokenManager("k", "", time.Hour).ValidateToken("not.a.jwt")
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestExtractToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"Bearer abc", "abc", false},
		{"Bearer", "", true},
		{"Basic abc", "", true},
		{"Bearer a b", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ExtractToken(tt.header)
		if (err != nil) != tt.wantErr {
			t.Errorf("ExtractToken(%q) err = %v, wantErr %v", tt.header, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ExtractToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("secret", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if hash == "secret" {
		t.Fatal("password stored in plaintext")
	}
	if !VerifyPassword("secret", hash) {
		t.Fatal("expected password to verify")
	}
	if VerifyPassword("Secret", hash) {
		t.Fatal("expected wrong password to fail")
	}

	other, err := HashPassword("secret", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if other == hash {
		t.Fatal("expected salted hashes to differ")
	}
}

func TestHashPasswordDefaultCost(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("pw", 0)
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("Cost error: %v", err)
	}
	if cost != DefaultCost {
		t.Fatalf("cost = %d, want %d", cost, DefaultCost)
	}
}

func TestHashPasswordTooLong(t *testing.T) {
	t.Parallel()

	_, err := HashPassword(strings.Repeat("a", MaxPasswordBytes+1), bcrypt.MinCost)
	if !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("err = %v, want ErrPasswordTooLong", err)
	}
	if _, err := HashPassword(strings.Repeat("a", MaxPasswordBytes), bcrypt.MinCost); err != nil {
		t.Fatalf("HashPassword at the limit: %v", err)
	}
}
