package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MikhailRaia/secure-shortener/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "middleware-test-secret"

func signToken(t *testing.T, subject string) string {
	t.Helper()

	token, err := auth.SignHS256(testSecret, subject, subject+"@example.com", "", time.Hour)
	require.NoError(t, err)

	return token
}

func identityProbe(got *auth.Identity, seen *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got, *seen = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	verifier := auth.NewHMACVerifier(testSecret)
	valid := signToken(t, "user-1")

	tests := []struct {
		name         string
		verifier     auth.TokenVerifier
		required     bool
		header       string
		cookie       string
		wantStatus   int
		wantIdentity bool
	}{
		{
			name:       "trusted mode ignores tokens",
			header:     "Bearer " + valid,
			wantStatus: http.StatusOK,
		},
		{
			name:       "anonymous request passes when optional",
			verifier:   verifier,
			wantStatus: http.StatusOK,
		},
		{
			name:       "anonymous request rejected when required",
			verifier:   verifier,
			required:   true,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:         "valid bearer token",
			verifier:     verifier,
			header:       "Bearer " + valid,
			wantStatus:   http.StatusOK,
			wantIdentity: true,
		},
		{
			name:       "invalid bearer token",
			verifier:   verifier,
			header:     "Bearer garbage",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "non bearer scheme",
			verifier:   verifier,
			header:     "Basic dXNlcjpwYXNz",
			wantStatus: http.StatusOK,
		},
		{
			name:         "valid cookie",
			verifier:     verifier,
			cookie:       valid,
			wantStatus:   http.StatusOK,
			wantIdentity: true,
		},
		{
			name:       "stale cookie ignored when optional",
			verifier:   verifier,
			cookie:     "garbage",
			wantStatus: http.StatusOK,
		},
		{
			name:       "stale cookie rejected when required",
			verifier:   verifier,
			required:   true,
			cookie:     "garbage",
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got auth.Identity
			var seen bool

			m := NewAuthMiddleware(tt.verifier, tt.required)
			handler := m.Authenticate(identityProbe(&got, &seen))

			req := httptest.NewRequest(http.MethodGet, "/urls?userId=user-1", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: auth.IDTokenCookieName, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantIdentity, seen)
			if tt.wantIdentity {
				assert.Equal(t, "user-1", got.Subject)
				assert.Equal(t, "user-1@example.com", got.Email)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}
}

func TestResolveOwner(t *testing.T) {
	verified := WithIdentity(context.Background(), auth.Identity{Subject: "sub-1"})

	tests := []struct {
		name    string
		ctx     context.Context
		claimed string
		want    string
		wantErr error
	}{
		{
			name:    "trusted claim without identity",
			ctx:     context.Background(),
			claimed: "u1",
			want:    "u1",
		},
		{
			name: "empty claim without identity",
			ctx:  context.Background(),
			want: "",
		},
		{
			name: "verified subject fills missing claim",
			ctx:  verified,
			want: "sub-1",
		},
		{
			name:    "matching claim",
			ctx:     verified,
			claimed: "sub-1",
			want:    "sub-1",
		},
		{
			name:    "mismatching claim",
			ctx:     verified,
			claimed: "someone-else",
			wantErr: ErrOwnerMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, err := ResolveOwner(tt.ctx, tt.claimed)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, owner)
		})
	}
}
