package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/MikhailRaia/secure-shortener/internal/auth"
	"github.com/MikhailRaia/secure-shortener/internal/model"
	"github.com/rs/zerolog/log"
)

type contextKey string

// IdentityKey is the context key used to store the verified identity.
const IdentityKey contextKey = "identity"

// ErrOwnerMismatch is returned when a client-supplied owner differs from the
// verified subject.
var ErrOwnerMismatch = errors.New("owner does not match authenticated identity")

// AuthMiddleware verifies identity tokens sent as a Bearer header or the
// id_token cookie.
type AuthMiddleware struct {
	verifier auth.TokenVerifier
	required bool
}

// NewAuthMiddleware creates an AuthMiddleware. A nil verifier leaves every
// request unauthenticated, so owners supplied by clients are trusted.
func NewAuthMiddleware(verifier auth.TokenVerifier, required bool) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		required: required,
	}
}

// Authenticate puts the verified identity into the request context.
// An invalid Bearer token is always rejected; an invalid cookie only when
// authentication is required.
func (a *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.verifier == nil {
			next.ServeHTTP(w, r)
			return
		}

		token, fromHeader := bearerToken(r)
		if token == "" {
			if cookie, err := r.Cookie(auth.IDTokenCookieName); err == nil {
				token = cookie.Value
			}
		}

		if token == "" {
			if a.required {
				writeError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		identity, err := a.verifier.Verify(r.Context(), token)
		if err != nil {
			log.Debug().Err(err).Bool("bearer", fromHeader).Msg("Identity token rejected")
			if fromHeader || a.required {
				writeError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", true
	}

	return strings.TrimSpace(token), true
}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity auth.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// IdentityFromContext extracts the verified identity from context.
func IdentityFromContext(ctx context.Context) (auth.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(auth.Identity)
	return identity, ok
}

// ResolveOwner picks the owner a request acts for. A verified subject wins
// over claimed; without one, claimed is trusted as is.
func ResolveOwner(ctx context.Context, claimed string) (string, error) {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return claimed, nil
	}

	if claimed != "" && claimed != identity.Subject {
		return "", ErrOwnerMismatch
	}

	return identity.Subject, nil
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(model.ErrorResponse{Error: message}); err != nil {
		log.Error().Err(err).Msg("Failed to write error response")
	}
}
