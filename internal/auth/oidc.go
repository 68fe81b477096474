// Package auth signs users in against an external OpenID Connect provider.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/File-Sharing-BondBridg/Photo-Service/internal/models"
	"github.com/coreos/go-oidc"
	"golang.org/x/oauth2"
)

var ErrMissingIDToken = errors.New("token response carried no id_token")

// IdentityProvider is the part of an OAuth login flow the handlers depend on.
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (models.User, error)
	Verify(ctx context.Context, rawIDToken string) (models.User, error)
}

type Config struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type OIDCProvider struct {
	oauth2   *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

func NewOIDCProvider(ctx context.Context, cfg Config) (*OIDCProvider, error) {
	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover issuer %s: %w", cfg.Issuer, err)
	}

	return &OIDCProvider{
		oauth2: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

func (p *OIDCProvider) AuthCodeURL(state string) string {
	return p.oauth2.AuthCodeURL(state)
}

func (p *OIDCProvider) Exchange(ctx context.Context, code string) (models.User, error) {
	tok, err := p.oauth2.Exchange(ctx, code)
	if err != nil {
		return models.User{}, fmt.Errorf("code exchange failed: %w", err)
	}

	raw, ok := tok.Extra("id_token").(string)
	if !ok || raw == "" {
		return models.User{}, ErrMissingIDToken
	}
	return p.Verify(ctx, raw)
}

// Verify checks signature, issuer, audience and expiry of an ID token.
func (p *OIDCProvider) Verify(ctx context.Context, rawIDToken string) (models.User, error) {
	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return models.User{}, fmt.Errorf("id token verification failed: %w", err)
	}

	var claims struct {
		Sub     string `json:"sub"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return models.User{}, fmt.Errorf("claim parse failed: %w", err)
	}

	name := claims.Name
	if name == "" {
		name = claims.Email
	}
	if name == "" {
		name = claims.Sub
	}
	return models.User{Name: name, Email: claims.Email, PictureURL: claims.Picture}, nil
}
