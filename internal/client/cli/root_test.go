package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/itemsync/internal/client/data"
	"github.com/iudanet/itemsync/internal/client/iocli"
	"github.com/iudanet/itemsync/internal/client/storage"
	"github.com/iudanet/itemsync/internal/models"
)

type openerStub struct {
	session *Session
	opts    *RootOptions
	closed  int
	runs    int
}

func (o *openerStub) open(ctx context.Context, opts *RootOptions) (*Session, error) {
	o.opts = opts
	s := *o.session
	s.Close = func() error {
		o.closed++
		return nil
	}
	s.Run = func(ctx context.Context) error {
		o.runs++
		return nil
	}
	return &s, nil
}

func newStubRoot(t *testing.T, items Items, authn Authenticator, token string) (*openerStub, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	stub := &openerStub{session: &Session{
		Cli:       New(iocli.NewStream(strings.NewReader(""), &out), items, authn, nil),
		ServerURL: "http://localhost:8080",
		Token:     token,
	}}
	return stub, &out
}

func execute(t *testing.T, stub *openerStub, args ...string) error {
	t.Helper()
	cmd := NewRootCommand(stub.open, "test")
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	return cmd.ExecuteContext(context.Background())
}

func TestRootCommand_GlobalFlags(t *testing.T) {
	items := &ItemsMock{
		ListItemsFunc: func(ctx context.Context) ([]*models.Item, error) { return nil, nil },
	}
	stub, _ := newStubRoot(t, items, nil, "")

	require.NoError(t, execute(t, stub, "--db", "/tmp/x.db", "--server", "http://other", "-v", "list"))
	assert.Equal(t, "/tmp/x.db", stub.opts.DBPath)
	assert.Equal(t, "http://other", stub.opts.ServerURL)
	assert.True(t, stub.opts.Verbose)
	assert.Equal(t, 1, stub.closed)
}

func TestRootCommand_EditPassesOnlyChangedFields(t *testing.T) {
	items := &ItemsMock{
		UpdateItemFunc: func(ctx context.Context, id string, patch data.Patch) (*models.Item, error) {
			return &models.Item{ID: id}, nil
		},
	}
	stub, _ := newStubRoot(t, items, nil, "")

	require.NoError(t, execute(t, stub, "edit", "srv-1", "--content", ""))

	calls := items.UpdateItemCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "srv-1", calls[0].ID)
	assert.Nil(t, calls[0].Patch.Title)
	require.NotNil(t, calls[0].Patch.Content)
	assert.Empty(t, *calls[0].Patch.Content)
}

func TestRootCommand_AddRequiresTitle(t *testing.T) {
	stub, _ := newStubRoot(t, &ItemsMock{}, nil, "")
	assert.Error(t, execute(t, stub, "add"))
	assert.Zero(t, stub.closed)
}

func TestRootCommand_LoginTokenPriority(t *testing.T) {
	tests := []struct {
		name      string
		envToken  string
		args      []string
		wantToken string
	}{
		{name: "flag wins", envToken: "env", args: []string{"login", "--token", "flag"}, wantToken: "flag"},
		{name: "env fallback", envToken: "env", args: []string{"login"}, wantToken: "env"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authn := &AuthenticatorMock{
				LoginFunc: func(ctx context.Context, token, serverURL string) (*storage.AuthData, error) {
					return &storage.AuthData{Token: token, ServerURL: serverURL}, nil
				},
			}
			stub, _ := newStubRoot(t, nil, authn, tt.envToken)

			require.NoError(t, execute(t, stub, tt.args...))
			calls := authn.LoginCalls()
			require.Len(t, calls, 1)
			assert.Equal(t, tt.wantToken, calls[0].Token)
			assert.Equal(t, "http://localhost:8080", calls[0].ServerURL)
		})
	}
}

func TestRootCommand_Run(t *testing.T) {
	stub, _ := newStubRoot(t, nil, nil, "")
	require.NoError(t, execute(t, stub, "run"))
	assert.Equal(t, 1, stub.runs)
	assert.Equal(t, 1, stub.closed)
}
