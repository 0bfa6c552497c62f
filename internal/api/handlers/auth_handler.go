package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/devmarkh/converso/internal/apperr"
	"github.com/devmarkh/converso/internal/auth"
	"github.com/devmarkh/converso/internal/api/middlewares"
	"github.com/devmarkh/converso/internal/core"
	"github.com/devmarkh/converso/internal/models"
)

const stateCookie = "oauth_state"

// Federator is the slice of the federated identity adapter the handler
// needs. Satisfied by auth.GoogleFederation.
type Federator interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (email string, err error)
}

type AuthHandler struct {
	dbclient core.DbClient
	hasher   *auth.PasswordHasher
	issuer   *auth.TokenIssuer
	fed      Federator
}

func NewAuthHandler(dbclient core.DbClient, hasher *auth.PasswordHasher, issuer *auth.TokenIssuer, fed Federator) *AuthHandler {
	return &AuthHandler{dbclient: dbclient, hasher: hasher, issuer: issuer, fed: fed}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		http.Error(w, "email and password are required", http.StatusBadRequest)
		return
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: hash,
		Role:         models.RoleRegular,
	}
	// The unique constraint decides; no pre-check, so a duplicate signup
	// leaves no partial row behind.
	if err := h.dbclient.CreateUser(r.Context(), user); err != nil {
		writeError(w, err)
		return
	}

	h.respondWithToken(w, user.Email)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	// Unknown email and wrong password get the same answer, so the endpoint
	// can't be used to enumerate accounts. Verify also fails closed on the
	// empty hash of a federated-only account.
	user, err := h.dbclient.GetUserByEmail(r.Context(), req.Email)
	if err != nil || user == nil || !h.hasher.Verify(req.Password, user.PasswordHash) {
		writeError(w, apperr.ErrInvalidCredentials)
		return
	}

	h.respondWithToken(w, user.Email)
}

type meResponse struct {
	ID    int64       `json:"id"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middlewares.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperr.ErrUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, meResponse{ID: user.ID, Email: user.Email, Role: user.Role})
}

// GoogleLogin starts the federated flow: a random state, a short-lived state
// cookie, and a redirect to the provider.
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.fed.AuthURL(state), http.StatusFound)
}

// GoogleCallback finishes the flow: state check, code exchange, first-sight
// provisioning, token issuance.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		writeError(w, fmt.Errorf("state mismatch: %w", apperr.ErrUnauthorized))
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, fmt.Errorf("missing authorization code: %w", apperr.ErrUnauthorized))
		return
	}

	email, err := h.fed.Exchange(r.Context(), code)
	if err != nil {
		writeError(w, fmt.Errorf("%v: %w", err, apperr.ErrUnauthorized))
		return
	}

	user, err := h.dbclient.GetUserByEmail(r.Context(), email)
	if errors.Is(err, apperr.ErrNotFound) {
		// First sight of this identity: provision a federated-only account.
		// The empty hash keeps password login permanently closed for it.
		user = &models.User{Email: email, PasswordHash: "", Role: models.RoleRegular}
		err = h.dbclient.CreateUser(r.Context(), user)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	h.respondWithToken(w, user.Email)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, email string) {
	token, err := h.issuer.Issue(email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}
