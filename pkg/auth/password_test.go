package auth

import (
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	password := "s3cret-passphrase"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$") {
		t.Errorf("unexpected hash format: %s", hash)
	}

	if !VerifyPassword(password, hash) {
		t.Error("correct password rejected")
	}
	if VerifyPassword("wrong", hash) {
		t.Error("wrong password accepted")
	}
}

func TestHashPassword_UniqueSalt(t *testing.T) {
	h1, err := HashPassword("same password")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	h2, err := HashPassword("same password")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if h1 == h2 {
		t.Error("two hashes of the same password are identical; salt is not random")
	}
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"not argon2", "$bcrypt$whatever"},
		{"truncated", "$argon2id$v=19$m=65536,t=1,p=4"},
		{"bad base64", "$argon2id$v=19$m=65536,t=1,p=4$!!!$!!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if VerifyPassword("anything", tt.hash) {
				t.Error("malformed hash verified")
			}
		})
	}
}

func TestArgon2Verifier(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	var v PasswordVerifier = Argon2Verifier{}
	if !v.Verify("hunter22", hash) {
		t.Error("verifier rejected correct password")
	}
	if v.Verify("hunter23", hash) {
		t.Error("verifier accepted wrong password")
	}
}
