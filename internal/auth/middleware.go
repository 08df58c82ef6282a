package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// Skipper allows callers to bypass authentication for specific requests.
type Skipper func(r *http.Request) bool

// Middleware provides HTTP middleware for bearer-token validation.
type Middleware struct {
	verifier *Verifier
	skipper  Skipper
}

// NewMiddleware constructs a middleware with optional skipper.
func NewMiddleware(verifier *Verifier, skipper Skipper) Middleware {
	return Middleware{verifier: verifier, skipper: skipper}
}

// Wrap wraps an http.Handler with authentication. JWKS fetch failures map to
// 502 rather than 401 so callers do not discard valid credentials.
func (m Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skipper != nil && m.skipper(r) {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.parseRequest(r)
		if err != nil {
			if errors.Is(err, ErrKeySetUnavailable) {
				writeAuthError(w, http.StatusBadGateway, "upstream_error", "identity provider unavailable")
				return
			}
			writeAuthError(w, http.StatusUnauthorized, "unauthorized", err.Error())
			return
		}
		ctx := WithClaims(r.Context(), claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m Middleware) parseRequest(r *http.Request) (*Claims, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, ErrMissingToken
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return nil, ErrInvalidToken
	}
	token := strings.TrimSpace(header[len("Bearer "):])
	return m.verifier.Verify(r.Context(), token)
}

func writeAuthError(w http.ResponseWriter, status int, code, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"type":   code,
		"detail": detail,
	})
}
