package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Identity is the verified subject of an ID token.
type Identity struct {
	Subject string
	Email   string
}

// Claims are the ID token claims the service reads.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// KeyResolver returns the key that verifies a token signed with key id kid.
type KeyResolver func(ctx context.Context, kid string) (interface{}, error)

// Verifier validates identity tokens issued by the identity provider.
type Verifier struct {
	resolveKey KeyResolver
	methods    []string
	issuers    []string
	audience   string
}

type VerifierOption func(*Verifier)

// WithIssuers restricts accepted tokens to the given iss values.
func WithIssuers(issuers ...string) VerifierOption {
	return func(v *Verifier) {
		v.issuers = issuers
	}
}

// WithAudience requires aud to contain audience (the OAuth client id).
func WithAudience(audience string) VerifierOption {
	return func(v *Verifier) {
		v.audience = audience
	}
}

// NewHMACVerifier verifies HS256 tokens signed with a shared secret.
func NewHMACVerifier(secret string, opts ...VerifierOption) *Verifier {
	key := []byte(secret)
	return newVerifier(func(context.Context, string) (interface{}, error) {
		return key, nil
	}, []string{jwt.SigningMethodHS256.Alg()}, opts)
}

// NewJWKSVerifier verifies RS256 tokens against the provider's published keys.
func NewJWKSVerifier(keys *KeySet, opts ...VerifierOption) *Verifier {
	return newVerifier(func(ctx context.Context, kid string) (interface{}, error) {
		return keys.Key(ctx, kid)
	}, []string{jwt.SigningMethodRS256.Alg()}, opts)
}

func newVerifier(resolve KeyResolver, methods []string, opts []VerifierOption) *Verifier {
	v := &Verifier{
		resolveKey: resolve,
		methods:    methods,
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Verify parses tokenString, checks signature, expiry, issuer and audience
// and returns the identity it carries.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (Identity, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods(v.methods),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(v.audience))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		kid, _ := token.Header["kid"].(string)
		return v.resolveKey(ctx, kid)
	}, parserOpts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrExpiredToken
		}
		return Identity{}, ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return Identity{}, ErrInvalidToken
	}

	if len(v.issuers) > 0 && !slices.Contains(v.issuers, claims.Issuer) {
		return Identity{}, ErrInvalidToken
	}

	return Identity{
		Subject: claims.Subject,
		Email:   claims.Email,
	}, nil
}

// SignHS256 issues a token that NewHMACVerifier(secret) accepts. It serves local
// development and tests where no identity provider is available.
func SignHS256(secret, subject, email, issuer string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("%w: subject is required", ErrInvalidToken)
	}

	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
