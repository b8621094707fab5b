package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/itemsync/internal/client/api"
	"github.com/iudanet/itemsync/internal/client/auth"
	"github.com/iudanet/itemsync/internal/client/connection"
	"github.com/iudanet/itemsync/internal/config"
	"github.com/iudanet/itemsync/internal/models"
	"github.com/iudanet/itemsync/internal/protocol"
	"github.com/iudanet/itemsync/internal/server/jwt"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var t0 = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

type testServer struct {
	server *Server
	http   *httptest.Server
	issuer *jwt.Issuer
	logger *slog.Logger
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := config.Default().Server
	cfg.DBPath = filepath.Join(t.TempDir(), "server.db")
	cfg.JWTSecret = testSecret
	cfg.RateLimit = 0

	s, err := New(context.Background(), cfg, logger, "test")
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = s.Close()
	})

	return &testServer{server: s, http: ts, issuer: jwt.NewIssuer(testSecret, time.Hour), logger: logger}
}

func (ts *testServer) client(t *testing.T, owner string) *api.Client {
	t.Helper()
	token, _, err := ts.issuer.Issue(owner)
	require.NoError(t, err)
	return api.NewClient(ts.http.URL, auth.StaticToken(token), ts.logger)
}

func (ts *testServer) dialWS(t *testing.T, owner, peer string) connection.Transport {
	t.Helper()
	token, _, err := ts.issuer.Issue(owner)
	require.NoError(t, err)

	dialer := &connection.WebSocketDialer{
		URL:  "ws" + strings.TrimPrefix(ts.http.URL, "http") + "/api/v1/ws",
		Peer: peer,
	}
	transport, err := dialer.Dial(context.Background(), token)
	require.NoError(t, err)
	t.Cleanup(func() { _ = transport.Close("test done") })
	return transport
}

func TestServer_ItemLifecycle(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t)
	client := ts.client(t, "alice")

	require.NoError(t, client.Health(ctx))

	created, err := client.CreateItem(ctx, &models.Item{ID: "local-1", Title: "Groceries", UpdatedAt: t0})
	require.NoError(t, err)
	assert.False(t, models.IsLocalID(created.ID))
	assert.Equal(t, int64(1), created.Version)

	// Повтор create после потерянного ответа не плодит дубликаты
	again, err := client.CreateItem(ctx, &models.Item{ID: "local-1", Title: "Groceries", UpdatedAt: t0})
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	updated, err := client.UpdateItem(ctx, &models.Item{ID: created.ID, Title: "Groceries v2", UpdatedAt: t0.Add(time.Second)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)

	_, err = client.UpdateItem(ctx, &models.Item{ID: created.ID, Title: "stale", UpdatedAt: t0})
	assert.ErrorIs(t, err, api.ErrConflict)

	items, next, err := client.ListItems(ctx, "", 10)
	require.NoError(t, err)
	assert.Empty(t, next)
	require.Len(t, items, 1)
	assert.Equal(t, "Groceries v2", items[0].Title)

	require.NoError(t, client.DeleteItem(ctx, created.ID))
	assert.ErrorIs(t, client.DeleteItem(ctx, created.ID), api.ErrNotFound)

	// Коллекции владельцев изолированы
	_, err = ts.client(t, "bob").UpdateItem(ctx, &models.Item{ID: again.ID, UpdatedAt: t0.Add(time.Hour)})
	assert.ErrorIs(t, err, api.ErrNotFound)
}

func TestServer_RejectsInvalidToken(t *testing.T) {
	ts := newTestServer(t)
	client := api.NewClient(ts.http.URL, auth.StaticToken("forged"), ts.logger)

	_, _, err := client.ListItems(context.Background(), "", 10)
	assert.ErrorIs(t, err, api.ErrUnauthorized)

	dialer := &connection.WebSocketDialer{URL: "ws" + strings.TrimPrefix(ts.http.URL, "http") + "/api/v1/ws", Peer: "peer-a"}
	_, err = dialer.Dial(context.Background(), "forged")
	assert.ErrorIs(t, err, connection.ErrUnauthorized)
}

func TestServer_BroadcastsRESTChangesOverWebSocket(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t)
	transport := ts.dialWS(t, "alice", "peer-b")
	require.Eventually(t, func() bool { return ts.server.hub.Sessions("alice") == 1 }, 2*time.Second, 10*time.Millisecond)

	created, err := ts.client(t, "alice").CreateItem(ctx, &models.Item{ID: "local-1", Title: "shared", UpdatedAt: t0})
	require.NoError(t, err)

	frame, err := transport.ReadMessage()
	require.NoError(t, err)
	env, err := protocol.NewCodec().Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, protocol.TypeItemCreated, env.Type)
	assert.Equal(t, created.ID, env.Payload.(protocol.ItemPayload).ID)
}

func TestServer_Metrics(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.client(t, "alice").Health(context.Background()))

	resp, err := http.Get(ts.http.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "itemsync_http_requests_total")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	cfg := config.Default().Server
	cfg.Listen = "127.0.0.1:0"
	cfg.DBPath = filepath.Join(t.TempDir(), "server.db")
	cfg.JWTSecret = testSecret

	s, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), "test")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
