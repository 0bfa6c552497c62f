package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/devmarkh/converso/internal/auth"
	"github.com/devmarkh/converso/internal/core"
	"github.com/devmarkh/converso/internal/models"
)

type contextKey struct{}

var userKey contextKey

// CurrentUser returns the user the session gate resolved for this request.
// It is the only way a handler obtains an identity; nothing else constructs
// one.
func CurrentUser(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok
}

// WithUser is exported for handler tests that bypass the gate.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// SessionGate validates the bearer token and resolves it to a live user
// record. The role is re-read from the store on every request, so a stale
// token can never carry an old role forward.
func SessionGate(issuer *auth.TokenIssuer, dbclient core.DbClient) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				http.Error(w, "missing or invalid token", http.StatusUnauthorized)
				return
			}

			email, err := issuer.Validate(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				logrus.WithError(err).Debug("token rejected")
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			// The subject may have been deleted after the token was issued.
			user, err := dbclient.GetUserByEmail(r.Context(), email)
			if err != nil || user == nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireAdmin guards every administrative route. It must run after
// SessionGate.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := CurrentUser(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !user.IsAdmin() {
			http.Error(w, "admin privileges required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
