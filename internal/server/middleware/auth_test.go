package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/itemsync/internal/server/handlers"
	"github.com/iudanet/itemsync/internal/server/jwt"
)

// setupTestLogger creates a logger for testing
func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ownerHandler проверяет владельца в контексте
func ownerHandler(t *testing.T, expectedOwner string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := handlers.GetOwner(r.Context())
		require.True(t, ok, "owner should be in context")
		assert.Equal(t, expectedOwner, owner)

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

func TestAuth_Success(t *testing.T) {
	issuer := jwt.NewIssuer("0123456789abcdef0123456789abcdef", 15*time.Minute)
	token, _, err := issuer.Issue("alice")
	require.NoError(t, err)

	handler := Auth(setupTestLogger(), issuer)(ownerHandler(t, "alice"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/items", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestAuth_Rejects(t *testing.T) {
	tests := []struct {
		name        string
		header      string
		wantMessage string
		validates   int
	}{
		{name: "missing header", header: "", wantMessage: "missing token"},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz", wantMessage: "invalid token format"},
		{name: "bearer without token", header: "Bearer ", wantMessage: "invalid token format"},
		{name: "no space", header: "Bearertoken", wantMessage: "invalid token format"},
		{name: "invalid token", header: "Bearer forged", wantMessage: "invalid token", validates: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := &TokenValidatorMock{
				ValidateFunc: func(token string) (*jwt.Claims, error) {
					return nil, jwt.ErrInvalidToken
				},
			}
			handler := Auth(setupTestLogger(), tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler must not be called")
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/items", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.Contains(t, w.Body.String(), tt.wantMessage)
			assert.Len(t, tokens.ValidateCalls(), tt.validates)
		})
	}
}

func TestAuth_CaseInsensitiveScheme(t *testing.T) {
	tokens := &TokenValidatorMock{
		ValidateFunc: func(token string) (*jwt.Claims, error) {
			return &jwt.Claims{RegisteredClaims: gojwt.RegisteredClaims{Subject: "bob"}}, nil
		},
	}
	handler := Auth(setupTestLogger(), tokens)(ownerHandler(t, "bob"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer abc")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, tokens.ValidateCalls(), 1)
	assert.Equal(t, "abc", tokens.ValidateCalls()[0].Token)
}
