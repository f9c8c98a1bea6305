package ports

import "time"

// AccessClaims binds an address to a previously verified score and tier for
// the token's lifetime.
type AccessClaims struct {
	Address   string
	Score     int
	Tier      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenSigner mints and validates the short-lived access credential.
// Verification is stateless: signature integrity and expiry only, no
// revocation store.
type TokenSigner interface {
	Issue(claims AccessClaims) (string, error)
	Verify(raw string) (AccessClaims, error)
}

// SignatureRecoverer recovers the signing address from a signature over the
// exact challenge bytes. The returned address is lower-cased.
type SignatureRecoverer interface {
	Recover(message []byte, signature string) (string, error)
}
