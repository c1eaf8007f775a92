package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// RefreshSecretBytes is the entropy of a refresh secret; hex encoding doubles it to 64 characters.
const RefreshSecretBytes = 32

// GenerateRefreshSecret returns a new 64-character hex refresh secret from crypto/rand.
func GenerateRefreshSecret() (string, error) {
	b := make([]byte, RefreshSecretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// HashRefreshSecret returns the hex SHA-256 digest of a refresh secret. Only the digest is stored.
func HashRefreshSecret(secret string) string {
	h := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(h[:])
}

// RefreshSecretHashEqual hashes the presented secret and compares it with storedHash in constant time.
func RefreshSecretHashEqual(presented, storedHash string) bool {
	return subtle.ConstantTimeCompare([]byte(HashRefreshSecret(presented)), []byte(storedHash)) == 1
}
