package security

import (
	"encoding/hex"
	"testing"
)

func TestGenerateRefreshSecret(t *testing.T) {
	a, err := GenerateRefreshSecret()
	if err != nil {
		t.Fatalf("GenerateRefreshSecret: %v", err)
	}
	if len(a) != 64 {
		t.Errorf("len = %d, want 64", len(a))
	}
	if _, err := hex.DecodeString(a); err != nil {
		t.Errorf("secret is not hex: %v", err)
	}
	b, _ := GenerateRefreshSecret()
	if a == b {
		t.Error("two secrets should differ")
	}
}

func TestHashRefreshSecret(t *testing.T) {
	h1 := HashRefreshSecret("secret")
	h2 := HashRefreshSecret("secret")
	if h1 != h2 {
		t.Error("hash should be deterministic")
	}
	if len(h1) != 64 {
		t.Errorf("hash len = %d, want 64", len(h1))
	}
	if h1 == "secret" {
		t.Error("hash must not equal the secret")
	}
	if HashRefreshSecret("other") == h1 {
		t.Error("different secrets should hash differently")
	}
}

func TestRefreshSecretHashEqual(t *testing.T) {
	stored := HashRefreshSecret("abc")
	if !RefreshSecretHashEqual("abc", stored) {
		t.Error("matching secret rejected")
	}
	if RefreshSecretHashEqual("abd", stored) {
		t.Error("wrong secret accepted")
	}
	if RefreshSecretHashEqual("", stored) {
		t.Error("empty secret accepted")
	}
	if RefreshSecretHashEqual("abc", "") {
		t.Error("empty stored hash matched")
	}
}
