package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/MikhailRaia/secure-shortener/internal/generator"
	"github.com/MikhailRaia/secure-shortener/internal/model"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const (
	stateCookieName = "oauth_state"
	// IDTokenCookieName carries the verified ID token after a server-side sign-in.
	IDTokenCookieName = "id_token"

	stateLength = 24
	stateMaxAge = 10 * 60
)

// TokenVerifier verifies raw ID tokens.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// OAuth runs the authorization code flow against the identity provider and
// hands the verified ID token back to the browser.
type OAuth struct {
	config   *oauth2.Config
	verifier TokenVerifier
}

func NewOAuth(config *oauth2.Config, verifier TokenVerifier) *OAuth {
	return &OAuth{
		config:   config,
		verifier: verifier,
	}
}

// NewGoogleOAuth configures the flow for Google sign-in.
func NewGoogleOAuth(clientID, clientSecret, redirectURL string, verifier TokenVerifier) *OAuth {
	return NewOAuth(&oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     endpoints.Google,
	}, verifier)
}

// Login redirects to the provider's consent page with a fresh state value.
func (o *OAuth) Login(w http.ResponseWriter, r *http.Request) {
	state, err := generator.GenerateID(stateLength)
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate OAuth state")
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{Error: "Internal server error"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/auth",
		MaxAge:   stateMaxAge,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	w.Header().Del("Content-Type")
	http.Redirect(w, r, o.config.AuthCodeURL(state), http.StatusFound)
}

// Callback validates state, exchanges the code and verifies the returned ID token.
func (o *OAuth) Callback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "Invalid state parameter"})
		return
	}

	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Path: "/auth", MaxAge: -1})

	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "Authorization code is required"})
		return
	}

	token, err := o.config.Exchange(r.Context(), code)
	if err != nil {
		log.Warn().Err(err).Msg("OAuth code exchange failed")
		writeJSON(w, http.StatusBadGateway, model.ErrorResponse{Error: "Sign-in failed"})
		return
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		writeJSON(w, http.StatusBadGateway, model.ErrorResponse{Error: "Provider returned no ID token"})
		return
	}

	identity, err := o.verifier.Verify(r.Context(), rawIDToken)
	if err != nil {
		log.Warn().Err(err).Msg("Provider ID token rejected")
		writeJSON(w, http.StatusBadGateway, model.ErrorResponse{Error: "Sign-in failed"})
		return
	}

	cookie := &http.Cookie{
		Name:     IDTokenCookieName,
		Value:    rawIDToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	}
	if !token.Expiry.IsZero() {
		cookie.Expires = token.Expiry
		cookie.MaxAge = int(time.Until(token.Expiry).Seconds())
	}
	http.SetCookie(w, cookie)

	log.Info().Str("userID", identity.Subject).Msg("User signed in")

	writeJSON(w, http.StatusOK, model.SignInResponse{
		IDToken: rawIDToken,
		UserID:  identity.Subject,
		Email:   identity.Email,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}
