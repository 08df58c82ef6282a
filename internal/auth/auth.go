package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the verified caller identity extracted from a JWT.
type Claims struct {
	UserID string
}

// ErrMissingToken is returned when the Authorization header is absent.
var ErrMissingToken = errors.New("missing bearer token")

// ErrInvalidToken wraps parsing/validation errors, including unknown key ids.
var ErrInvalidToken = errors.New("invalid bearer token")

// ErrKeySetUnavailable indicates the JWKS document could not be fetched.
// This is an infrastructure failure, not an authentication failure.
var ErrKeySetUnavailable = errors.New("key set unavailable")

// Verifier validates RS256 bearer tokens against a cached key set.
type Verifier struct {
	keys *KeySet
}

// NewVerifier constructs a Verifier.
func NewVerifier(keys *KeySet) *Verifier {
	return &Verifier{keys: keys}
}

// Verify validates a JWT and returns normalized claims.
func (v *Verifier) Verify(ctx context.Context, token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingToken
	}

	if err := v.keys.ensure(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeySetUnavailable, err)
	}

	parsed, err := jwt.Parse(token, v.keyfunc, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Name}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	subject, err := parsed.Claims.GetSubject()
	if err != nil || subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return &Claims{UserID: subject}, nil
}

func (v *Verifier) keyfunc(t *jwt.Token) (interface{}, error) {
	kid, _ := t.Header["kid"].(string)
	if kid == "" {
		return nil, errors.New("token missing key id")
	}
	key, ok := v.keys.Key(kid)
	if !ok {
		return nil, fmt.Errorf("unknown key id: %s", kid)
	}
	return key, nil
}

type contextKey string

const claimsKey contextKey = "workout-auth-claims"

// WithClaims stores claims on the context.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// FromContext retrieves claims stored by WithClaims.
func FromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}
