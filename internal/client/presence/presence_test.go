package presence

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/itemsync/internal/protocol"
)

func newTestCoordinator(self string) (*Coordinator, *SenderMock) {
	sender := &SenderMock{
		SendFunc: func(msgType string, payload protocol.Payload) error { return nil },
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(self, sender, logger), sender
}

func strPtr(s string) *string { return &s }

func TestCoordinator_Viewing(t *testing.T) {
	c, sender := newTestCoordinator("me")

	var changes []Change
	c.OnPresenceChanged(func(ch Change) { changes = append(changes, ch) })

	c.StartViewing("srv-1", "me")
	c.StartViewing("srv-1", "bob")
	c.StartViewing("srv-1", "me")

	snap := c.Snapshot("srv-1")
	assert.Equal(t, []string{"bob", "me"}, snap.Viewers)
	assert.Empty(t, snap.Editor)

	c.StopViewing("srv-1", "bob")
	assert.Equal(t, []string{"me"}, c.Snapshot("srv-1").Viewers)

	// Чужие намерения не отправляются на сервер
	calls := sender.SendCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, protocol.TypePresenceJoin, calls[0].MsgType)
	assert.Equal(t, protocol.PresenceIntent{ItemID: "srv-1", Peer: "me"}, calls[0].Payload)

	require.Len(t, changes, 4)
	assert.Equal(t, []string{"me"}, changes[3].Viewers)
}

func TestCoordinator_EditLock(t *testing.T) {
	c, sender := newTestCoordinator("me")

	res := c.RequestEditLock("srv-1", "me")
	assert.True(t, res.Granted)
	assert.Equal(t, "me", res.Editor)
	assert.True(t, c.IsEditing("srv-1"))

	// Повторный запрос держателем идемпотентен
	assert.True(t, c.RequestEditLock("srv-1", "me").Granted)

	res = c.RequestEditLock("srv-1", "bob")
	assert.False(t, res.Granted)
	assert.Equal(t, "me", res.Editor)

	// Освобождение не держателем ничего не меняет
	c.ReleaseEditLock("srv-1", "bob")
	assert.Equal(t, "me", c.Snapshot("srv-1").Editor)

	c.ReleaseEditLock("srv-1", "me")
	assert.Empty(t, c.Snapshot("srv-1").Editor)
	assert.False(t, c.IsEditing("srv-1"))

	assert.True(t, c.RequestEditLock("srv-1", "bob").Granted)

	var types []string
	for _, call := range sender.SendCalls() {
		types = append(types, call.MsgType)
	}
	assert.Equal(t, []string{
		protocol.TypeEditingRequest,
		protocol.TypeEditingRequest,
		protocol.TypeEditingRelease,
	}, types)
}

func TestCoordinator_EditLockExclusiveUnderContention(t *testing.T) {
	c, _ := newTestCoordinator("me")

	var granted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(peer string) {
			defer wg.Done()
			if c.RequestEditLock("srv-1", peer).Granted {
				granted.Add(1)
			}
		}(fmt.Sprintf("peer-%d", i))
	}
	wg.Wait()

	assert.Equal(t, int32(1), granted.Load())
	assert.NotEmpty(t, c.Snapshot("srv-1").Editor)
}

func TestCoordinator_ApplyPresenceUpdateReplacesViewers(t *testing.T) {
	c, _ := newTestCoordinator("me")
	c.StartViewing("srv-1", "ghost")

	c.ApplyPresenceUpdate(protocol.PresenceUpdate{ItemID: "srv-1", Viewers: []string{"carol", "alice"}})
	assert.Equal(t, []string{"alice", "carol"}, c.Snapshot("srv-1").Viewers)

	c.ApplyPresenceUpdate(protocol.PresenceUpdate{ItemID: "srv-1"})
	assert.Empty(t, c.Snapshot("srv-1").Viewers)
}

func TestCoordinator_ApplyEditingUpdate(t *testing.T) {
	tests := []struct {
		editor     *string
		name       string
		wantEditor string
		localFirst bool
		wantLost   bool
	}{
		{name: "server grants other peer while local holds", localFirst: true, editor: strPtr("bob"), wantEditor: "bob", wantLost: true},
		{name: "server frees lock held locally", localFirst: true, editor: nil, wantEditor: ""},
		{name: "server confirms local peer", localFirst: true, editor: strPtr("me"), wantEditor: "me"},
		{name: "remote peer takes free lock", editor: strPtr("bob"), wantEditor: "bob"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCoordinator("me")
			var lost []LockLost
			c.OnLockLost(func(ev LockLost) { lost = append(lost, ev) })

			if tt.localFirst {
				require.True(t, c.RequestEditLock("srv-1", "me").Granted)
			}

			c.ApplyEditingUpdate(protocol.EditingUpdate{ItemID: "srv-1", Editor: tt.editor})
			assert.Equal(t, tt.wantEditor, c.Snapshot("srv-1").Editor)
			assert.Equal(t, tt.wantEditor == "me", c.IsEditing("srv-1"))

			if tt.wantLost {
				require.Len(t, lost, 1)
				assert.Equal(t, LockLost{ItemID: "srv-1", Peer: "me", Editor: "bob"}, lost[0])
			} else {
				assert.Empty(t, lost)
			}
		})
	}
}

func TestCoordinator_AuthorizeOperation(t *testing.T) {
	c, _ := newTestCoordinator("me")

	assert.False(t, c.AuthorizeOperation("srv-1", "bob"))

	c.ApplyEditingUpdate(protocol.EditingUpdate{ItemID: "srv-1", Editor: strPtr("bob")})
	assert.True(t, c.AuthorizeOperation("srv-1", "bob"))
	assert.False(t, c.AuthorizeOperation("srv-1", "carol"))
	assert.False(t, c.AuthorizeOperation("srv-1", ""))
}

func TestCoordinator_ResetAndResubscribe(t *testing.T) {
	c, sender := newTestCoordinator("me")

	c.StartViewing("srv-1", "me")
	c.RequestEditLock("srv-2", "me")
	c.ApplyPresenceUpdate(protocol.PresenceUpdate{ItemID: "srv-1", Viewers: []string{"me", "bob"}})
	c.ApplyEditingUpdate(protocol.EditingUpdate{ItemID: "srv-3", Editor: strPtr("bob")})

	c.Reset()

	// Зеркало сервера очищено, локальные намерения остались
	assert.Equal(t, []string{"me"}, c.Snapshot("srv-1").Viewers)
	assert.Equal(t, "me", c.Snapshot("srv-2").Editor)
	assert.Empty(t, c.Snapshot("srv-3").Editor)

	before := len(sender.SendCalls())
	c.Resubscribe()
	calls := sender.SendCalls()[before:]
	require.Len(t, calls, 2)
	assert.Equal(t, protocol.TypePresenceJoin, calls[0].MsgType)
	assert.Equal(t, protocol.PresenceIntent{ItemID: "srv-1", Peer: "me"}, calls[0].Payload)
	assert.Equal(t, protocol.TypeEditingRequest, calls[1].MsgType)
	assert.Equal(t, protocol.PresenceIntent{ItemID: "srv-2", Peer: "me"}, calls[1].Payload)
}

func TestCoordinator_SendFailureIsNotFatal(t *testing.T) {
	sender := &SenderMock{
		SendFunc: func(msgType string, payload protocol.Payload) error { return errors.New("not connected") },
	}
	c := New("me", sender, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.NotPanics(t, func() {
		c.StartViewing("srv-1", "me")
		c.RequestEditLock("srv-1", "me")
	})
	assert.True(t, c.IsEditing("srv-1"))
}
