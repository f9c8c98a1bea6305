// Package security holds the credential signer and the on-chain signature
// recovery adapter. Crypto libraries stay at this layer so the application
// service remains library-agnostic.
package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ethosgate/reputation-gate/internal/domain"
	"github.com/ethosgate/reputation-gate/internal/ports"
)

type accessTokenClaims struct {
	Address string `json:"address"`
	Score   int    `json:"score"`
	Tier    string `json:"tier"`
	jwt.RegisteredClaims
}

// HMACSigner mints and validates the HS256 access credential. Verification is
// stateless: signature integrity and expiry only.
type HMACSigner struct {
	secret []byte
	ttl    time.Duration
	nowFn  func() time.Time
}

// NewHMACSigner builds a signer. An empty secret is a configuration error;
// there is no silent default key.
func NewHMACSigner(secret string, ttl time.Duration) (*HMACSigner, error) {
	if secret == "" {
		return nil, errors.New("token signing secret is required")
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &HMACSigner{
		secret: []byte(secret),
		ttl:    ttl,
		nowFn:  time.Now,
	}, nil
}

func (s *HMACSigner) Issue(claims ports.AccessClaims) (string, error) {
	now := s.nowFn().UTC()
	expiresAt := now.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, accessTokenClaims{
		Address: claims.Address,
		Score:   claims.Score,
		Tier:    claims.Tier,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	return token.SignedString(s.secret)
}

func (s *HMACSigner) Verify(raw string) (ports.AccessClaims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &accessTokenClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.nowFn))
	if err != nil {
		return ports.AccessClaims{}, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*accessTokenClaims)
	if !ok || !parsed.Valid {
		return ports.AccessClaims{}, domain.ErrInvalidToken
	}

	out := ports.AccessClaims{
		Address: claims.Address,
		Score:   claims.Score,
		Tier:    claims.Tier,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	return out, nil
}
