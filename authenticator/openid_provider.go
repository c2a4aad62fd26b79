package authenticator

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// DefaultScopes are requested when Config.Scopes is empty
var DefaultScopes = []string{oidc.ScopeOpenID, "profile", "email"}

// ErrNoIDToken is returned when the issuer answers without an id_token
var ErrNoIDToken = errors.New("no id_token in token response")

var _ Provider = (*OpenIDProvider)(nil)

// OpenIDProvider signs depot staff in against any OpenID Connect issuer
type OpenIDProvider struct {
	oauth    oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// NewOpenIDProvider discovers the issuer's endpoints and keys
func NewOpenIDProvider(ctx context.Context, cfg Config) (*OpenIDProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	issuer, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OpenID issuer %s: %w", cfg.IssuerURL, err)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	return &OpenIDProvider{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     issuer.Endpoint(),
			Scopes:       scopes,
		},
		verifier: issuer.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

// GetAuthURL returns the issuer's login page for state
func (p *OpenIDProvider) GetAuthURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// ExchangeCode trades the callback code for tokens
func (p *OpenIDProvider) ExchangeCode(ctx context.Context, code string) (*Token, error) {
	tok, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	rawID, _ := tok.Extra("id_token").(string)
	return &Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		IDToken:      rawID,
		Expiry:       tok.Expiry.Unix(),
	}, nil
}

// GetClaims verifies the ID token signature and audience
func (p *OpenIDProvider) GetClaims(ctx context.Context, token *Token) (Claims, error) {
	if token == nil || token.IDToken == "" {
		return nil, ErrNoIDToken
	}

	idToken, err := p.verifier.Verify(ctx, token.IDToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify id_token: %w", err)
	}

	claims := Claims{}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to decode claims: %w", err)
	}
	return claims, nil
}
