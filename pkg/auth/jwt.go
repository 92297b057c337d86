// Package auth issues and parses the signed access tokens, hashes passwords
// and keeps the token revocation denylist.
//
// Parsing a token only proves it was signed by us and has not expired or been
// revoked. Resolving the subject to a live user is the caller's job.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/apperr"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/metrics"
)

// DefaultTTL is the lifetime of an access token.
const DefaultTTL = time.Hour

// Claims is the typed JWT payload.
type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// Subject is the user data embedded in a token.
type Subject struct {
	ID       uint
	Username string
	Email    string
	IsAdmin  bool
}

// Issuer signs and verifies HS256 tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	deny   *Denylist
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// WithDenylist enables revocation checks.
func WithDenylist(d *Denylist) Option {
	return func(i *Issuer) { i.deny = d }
}

// NewIssuer returns an Issuer. A zero ttl falls back to DefaultTTL.
func NewIssuer(secret string, ttl time.Duration, opts ...Option) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	i := &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, o := range opts {
		o(i)
	}
	return i
}

// TTL returns the configured token lifetime.
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue signs a token for sub.
func (i *Issuer) Issue(sub Subject) (string, *Claims, error) {
	now := i.now()
	claims := &Claims{
		UserID:   sub.ID,
		Username: sub.Username,
		Email:    sub.Email,
		IsAdmin:  sub.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", nil, apperr.Wrap(apperr.Internal, "sign token", err)
	}
	metrics.TokensIssued.Inc()
	return signed, claims, nil
}

// Parse validates signature, algorithm, expiry and revocation.
// Every failure is reported as apperr.Unauthorized.
func (i *Issuer) Parse(ctx context.Context, raw string) (*Claims, error) {
	if raw == "" {
		return nil, apperr.New(apperr.Unauthorized, "missing token")
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Wrap(apperr.Unauthorized, "token expired", err)
		}
		return nil, apperr.Wrap(apperr.Unauthorized, "invalid token", err)
	}

	if i.deny != nil && claims.ID != "" {
		revoked, err := i.deny.Revoked(ctx, claims.ID)
		if err != nil {
			return nil, apperr.Wrap(apperr.Internal, "check revocation", err)
		}
		if revoked {
			return nil, apperr.New(apperr.Unauthorized, "token revoked")
		}
	}
	return claims, nil
}

// Revoke puts the token's jti on the denylist until it would have expired.
func (i *Issuer) Revoke(ctx context.Context, claims *Claims) error {
	if i.deny == nil || claims == nil || claims.ID == "" {
		return nil
	}
	remaining := time.Minute
	if claims.ExpiresAt != nil {
		remaining = claims.ExpiresAt.Time.Sub(i.now())
	}
	if remaining <= 0 {
		return nil
	}
	return i.deny.Add(ctx, claims.ID, remaining)
}
