// Package google performs the authorization-code half of the interactive
// Google sign-in. The transport layer sends the browser to LoginURL; the
// callback's code comes back through IDToken, which hands the resulting
// Google ID token to the identity provider for exchange.
package google

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

type Exchanger struct {
	config *oauth2.Config
}

func New(clientID, clientSecret, redirectURL string) *Exchanger {
	return &Exchanger{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
	}
}

// LoginURL builds the consent-screen URL carrying the anti-forgery state.
func (e *Exchanger) LoginURL(state string) string {
	return e.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// IDToken exchanges the callback's authorization code for the ID token
// embedded in the token response.
func (e *Exchanger) IDToken(ctx context.Context, credential string) (string, error) {
	token, err := e.config.Exchange(ctx, credential)
	if err != nil {
		return "", fmt.Errorf("exchange authorization code: %w", err)
	}
	idToken, ok := token.Extra("id_token").(string)
	if !ok || idToken == "" {
		return "", fmt.Errorf("token response carried no id_token")
	}
	return idToken, nil
}
