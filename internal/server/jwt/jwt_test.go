package jwt

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestIssuer_IssueAndValidate(t *testing.T) {
	issuer := NewIssuer(testSecret, time.Hour)

	token, expiresIn, err := issuer.Issue("alice")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, int64(3600), expiresIn)

	claims, err := issuer.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Owner())
	assert.Equal(t, issuerName, claims.Issuer)
}

func TestIssuer_EmptySubject(t *testing.T) {
	issuer := NewIssuer(testSecret, time.Hour)
	_, _, err := issuer.Issue("")
	assert.ErrorIs(t, err, ErrEmptySubject)
}

func TestIssuer_Validate_Rejects(t *testing.T) {
	issuer := NewIssuer(testSecret, time.Hour)
	valid, _, err := issuer.Issue("alice")
	require.NoError(t, err)

	expired := NewIssuer(testSecret, time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, _, err := expired.Issue("alice")
	require.NoError(t, err)

	otherKey, _, err := NewIssuer("another-secret-another-secret", time.Hour).Issue("alice")
	require.NoError(t, err)

	// Токен с чужим алгоритмом подписи
	none, err := gojwt.NewWithClaims(gojwt.SigningMethodNone, Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   "alice",
			Issuer:    issuerName,
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(gojwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "tampered", token: valid + "x"},
		{name: "expired", token: expiredToken},
		{name: "wrong key", token: otherKey},
		{name: "alg none", token: none},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.Validate(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
