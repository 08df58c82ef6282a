package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func okHandler(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddlewarePassesClaimsToHandler(t *testing.T) {
	key := generateKey(t)
	server := newJWKSServer(t)
	server.publish(key, "kid-1")

	mw := NewMiddleware(NewVerifier(NewKeySet(server.srv.URL)), nil)

	var gotUser string
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := FromContext(r.Context())
		require.True(t, ok)
		gotUser = claims.UserID
	}))

	req := httptest.NewRequest(http.MethodGet, "/routines", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, key, "kid-1", "user-7"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "user-7", gotUser)
}

func TestMiddlewareRejectsMissingHeader(t *testing.T) {
	key := generateKey(t)
	server := newJWKSServer(t)
	server.publish(key, "kid-1")

	mw := NewMiddleware(NewVerifier(NewKeySet(server.srv.URL)), nil)
	handler := mw.Wrap(okHandler(t))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/routines", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "unauthorized")
}

func TestMiddlewareMapsKeySetFailureToBadGateway(t *testing.T) {
	key := generateKey(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	mw := NewMiddleware(NewVerifier(NewKeySet(srv.URL)), nil)
	handler := mw.Wrap(okHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/routines", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, key, "kid-1", "user-7"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Contains(t, rec.Body.String(), "upstream_error")
}

func TestMiddlewareSkipperBypassesAuth(t *testing.T) {
	mw := NewMiddleware(NewVerifier(NewKeySet("http://unused.invalid")), func(r *http.Request) bool {
		return strings.HasPrefix(r.URL.Path, "/health")
	})
	handler := mw.Wrap(okHandler(t))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
}
