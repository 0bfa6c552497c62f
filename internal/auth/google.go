package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// ErrProviderAuthFailed means the identity provider did not hand back a
// usable, verified identity.
var ErrProviderAuthFailed = errors.New("identity provider authentication failed")

// GoogleFederation drives the OpenID Connect authorization-code flow against
// Google. The only thing the rest of the system needs from it is a verified
// email address.
type GoogleFederation struct {
	verifier     *oidc.IDTokenVerifier
	oauth2Config *oauth2.Config
}

// NewGoogleFederation discovers the provider endpoints from the issuer URL
// and prepares the code-exchange config.
func NewGoogleFederation(ctx context.Context, issuerURL, clientID, clientSecret, redirectURL string) (*GoogleFederation, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("discover oidc provider: %w", err)
	}

	verifier := provider.Verifier(&oidc.Config{ClientID: clientID})

	oauth2Config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     provider.Endpoint(),
		RedirectURL:  redirectURL,
		Scopes:       []string{oidc.ScopeOpenID, "email"},
	}

	return &GoogleFederation{verifier: verifier, oauth2Config: oauth2Config}, nil
}

// AuthURL returns the provider authorization URL the client should be
// redirected to. No local state is mutated; the caller owns the state nonce.
func (g *GoogleFederation) AuthURL(state string) string {
	return g.oauth2Config.AuthCodeURL(state)
}

// Exchange trades the callback authorization code for a verified email
// claim. Every failure mode collapses into ErrProviderAuthFailed so the
// handler has a single rejection to map.
func (g *GoogleFederation) Exchange(ctx context.Context, code string) (string, error) {
	oauth2Token, err := g.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("%w: code exchange: %v", ErrProviderAuthFailed, err)
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return "", fmt.Errorf("%w: missing id_token in response", ErrProviderAuthFailed)
	}

	idToken, err := g.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return "", fmt.Errorf("%w: id token verification: %v", ErrProviderAuthFailed, err)
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return "", fmt.Errorf("%w: parse claims: %v", ErrProviderAuthFailed, err)
	}
	if claims.Email == "" || !claims.EmailVerified {
		return "", fmt.Errorf("%w: no verified email claim", ErrProviderAuthFailed)
	}

	return claims.Email, nil
}
