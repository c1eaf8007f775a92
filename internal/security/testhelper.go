package security

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"time"
)

// Issuer and audience stamped by NewTestTokenProvider.
const (
	TestIssuer   = "riskauth-test"
	TestAudience = "riskauth-api-test"
)

// NewTestTokenProvider returns an ES256 TokenProvider with a fresh P-256 key and a 15m access
// TTL. For unit tests only.
func NewTestTokenProvider() (*TokenProvider, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return NewTokenProvider(key, &key.PublicKey, TestIssuer, TestAudience, 15*time.Minute), nil
}
