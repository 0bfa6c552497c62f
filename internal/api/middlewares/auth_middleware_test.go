package middlewares

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devmarkh/converso/internal/apperr"
	"github.com/devmarkh/converso/internal/auth"
	"github.com/devmarkh/converso/internal/core"
	"github.com/devmarkh/converso/internal/models"
)

// gateStore stubs just the lookup the gate performs; the embedded interface
// covers the rest of the contract.
type gateStore struct {
	core.DbClient
	users map[string]*models.User
}

func (s *gateStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := s.users[email]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("user %s: %w", email, apperr.ErrNotFound)
}

func newGate(t *testing.T, users ...*models.User) (*auth.TokenIssuer, func(http.Handler) http.Handler) {
	t.Helper()
	issuer := auth.NewTokenIssuer([]byte("gate-test-secret"), time.Hour)
	store := &gateStore{users: map[string]*models.User{}}
	for _, u := range users {
		store.users[u.Email] = u
	}
	return issuer, SessionGate(issuer, store)
}

func echoUser(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := CurrentUser(r.Context())
		require.True(t, ok, "handler reached without a user in context")
		fmt.Fprint(w, u.Email)
	})
}

func TestSessionGate_MissingToken(t *testing.T) {
	_, gate := newGate(t)

	rec := httptest.NewRecorder()
	gate(echoUser(t)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionGate_GarbageToken(t *testing.T) {
	_, gate := newGate(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not.a.jwt")
	rec := httptest.NewRecorder()
	gate(echoUser(t)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionGate_UserDeletedAfterIssuance(t *testing.T) {
	issuer, gate := newGate(t) // empty store

	token, err := issuer.Issue("ghost@x.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	gate(echoUser(t)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionGate_ValidToken(t *testing.T) {
	user := &models.User{ID: 1, Email: "a@x.com", Role: models.RoleRegular}
	issuer, gate := newGate(t, user)

	token, err := issuer.Issue(user.Email)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	gate(echoUser(t)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@x.com", rec.Body.String())
}

func TestRequireAdmin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name string
		user *models.User
		want int
	}{
		{"regular user", &models.User{ID: 1, Email: "a@x.com", Role: models.RoleRegular}, http.StatusForbidden},
		{"admin user", &models.User{ID: 2, Email: "root@x.com", Role: models.RoleAdmin}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(WithUser(req.Context(), tt.user))
			rec := httptest.NewRecorder()
			RequireAdmin(next).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRequireAdmin_NoSession(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	RequireAdmin(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
