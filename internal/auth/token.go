package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/flight-auth/internal/config"
	"github.com/spec-kit/flight-auth/internal/domain"
)

var (
	// ErrTokenInvalid covers bad signatures, malformed tokens and algorithm mismatches.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenExpired is returned by callers that reject a decoded token past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// Claims describes the JWT payload shared by access and refresh tokens.
// Refresh tokens never carry a role.
type Claims struct {
	Role domain.Role          `json:"role,omitempty"`
	Kind domain.PrincipalKind `json:"knd,omitempty"`
	jwt.RegisteredClaims
}

// Principal returns the subject the token was issued for. Tokens minted
// without a kind claim fall back to shape inference on the subject string.
func (c *Claims) Principal() domain.Subject {
	if c.Kind.Valid() {
		return domain.Subject{Kind: c.Kind, Key: c.Subject}
	}
	return domain.InferSubject(c.Subject)
}

// Expiry returns the absolute expiry, or the zero time when absent.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Expired reports whether the token is unusable at now. A token without an
// expiry is treated as expired.
func (c *Claims) Expired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return true
	}
	return !now.Before(c.ExpiresAt.Time)
}

// Codec signs and verifies claim sets with a single HMAC algorithm.
type Codec struct {
	method *jwt.SigningMethodHMAC
	now    func() time.Time
}

// NewCodec builds a codec for one of HS256, HS384 or HS512.
func NewCodec(algorithm string) (*Codec, error) {
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	return &Codec{method: method, now: time.Now}, nil
}

// Algorithm returns the JWT alg identifier in use.
func (c *Codec) Algorithm() string {
	return c.method.Alg()
}

// Issue builds and signs {sub, knd, role?, exp=now+ttl}. An empty role is omitted.
func (c *Codec) Issue(subject domain.Subject, role domain.Role, secret []byte, ttl time.Duration) (string, time.Time, error) {
	if len(secret) == 0 {
		return "", time.Time{}, errors.New("signing secret is empty")
	}
	now := c.now()
	expiresAt := jwt.NewNumericDate(now.Add(ttl))
	claims := &Claims{
		Role: role,
		Kind: subject.Kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.Key,
			ExpiresAt: expiresAt,
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(c.method, claims)
	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return tokenString, expiresAt.Time, nil
}

// Decode verifies signature and algorithm and returns the claims. It does not
// judge expiry; callers must check Claims.Expired themselves.
func (c *Codec) Decode(tokenStr string, secret []byte) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Role != "" && !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrTokenInvalid, claims.Role)
	}
	if claims.Kind != "" && !claims.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown principal kind %q", ErrTokenInvalid, claims.Kind)
	}
	return claims, nil
}

type tokenClass struct {
	secret []byte
	ttl    time.Duration
}

// TokenManager handles issuing and validating access and refresh tokens.
// The two classes are separated only by their signing secrets.
type TokenManager struct {
	codec   *Codec
	access  tokenClass
	refresh tokenClass
}

// TokenOption customizes a TokenManager.
type TokenOption func(*TokenManager)

// WithClock overrides the time source used for issuance and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(tm *TokenManager) {
		tm.codec.now = now
	}
}

// NewTokenManager builds a manager from validated auth configuration.
func NewTokenManager(cfg config.AuthConfig, opts ...TokenOption) (*TokenManager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	codec, err := NewCodec(cfg.Algorithm)
	if err != nil {
		return nil, err
	}
	tm := &TokenManager{
		codec:   codec,
		access:  tokenClass{secret: cfg.AccessSecret, ttl: cfg.AccessTTL()},
		refresh: tokenClass{secret: cfg.RefreshSecret, ttl: cfg.RefreshTTL()},
	}
	for _, opt := range opts {
		opt(tm)
	}
	return tm, nil
}

// Now returns the manager's current time.
func (tm *TokenManager) Now() time.Time {
	return tm.codec.now()
}

// Algorithm returns the JWT alg identifier tokens are signed with.
func (tm *TokenManager) Algorithm() string {
	return tm.codec.Algorithm()
}

// AccessTTL returns the access token lifetime.
func (tm *TokenManager) AccessTTL() time.Duration {
	return tm.access.ttl
}

// RefreshTTL returns the refresh token lifetime.
func (tm *TokenManager) RefreshTTL() time.Duration {
	return tm.refresh.ttl
}

// IssueAccess signs a role-bearing access token.
func (tm *TokenManager) IssueAccess(subject domain.Subject, role domain.Role) (string, time.Time, error) {
	if role == "" {
		return "", time.Time{}, errors.New("access token requires a role")
	}
	return tm.codec.Issue(subject, role, tm.access.secret, tm.access.ttl)
}

// IssueRefresh signs a role-less refresh token.
func (tm *TokenManager) IssueRefresh(subject domain.Subject) (string, time.Time, error) {
	return tm.codec.Issue(subject, "", tm.refresh.secret, tm.refresh.ttl)
}

// DecodeAccess verifies a token against the access secret.
func (tm *TokenManager) DecodeAccess(tokenStr string) (*Claims, error) {
	return tm.codec.Decode(tokenStr, tm.access.secret)
}

// DecodeRefresh verifies a token against the refresh secret. A refresh token
// carrying a role was not minted by IssueRefresh and is rejected.
func (tm *TokenManager) DecodeRefresh(tokenStr string) (*Claims, error) {
	claims, err := tm.codec.Decode(tokenStr, tm.refresh.secret)
	if err != nil {
		return nil, err
	}
	if claims.Role != "" {
		return nil, fmt.Errorf("%w: refresh token carries a role", ErrTokenInvalid)
	}
	return claims, nil
}
