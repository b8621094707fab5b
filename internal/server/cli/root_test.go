package cli

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/itemsync/internal/config"
	"github.com/iudanet/itemsync/internal/server/jwt"
	"github.com/iudanet/itemsync/pkg/api"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTokenCommand(t *testing.T) {
	t.Setenv(config.EnvJWTSecret, testSecret)

	out, err := runRoot(t, "token", "--user", "alice", "--ttl", "1h")
	require.NoError(t, err)

	var resp api.TokenResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	claims, err := jwt.NewIssuer(testSecret, time.Hour).Validate(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Owner())
}

func TestTokenCommand_Errors(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		args   []string
	}{
		{name: "missing user", secret: testSecret, args: []string{"token"}},
		{name: "invalid user", secret: testSecret, args: []string{"token", "--user", "a b"}},
		{name: "missing secret", secret: "", args: []string{"token", "--user", "alice"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(config.EnvJWTSecret, tt.secret)
			_, err := runRoot(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestServeCommand_RequiresSecret(t *testing.T) {
	t.Setenv(config.EnvJWTSecret, "")

	_, err := runRoot(t, "serve", "--db", t.TempDir()+"/server.db")
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}
