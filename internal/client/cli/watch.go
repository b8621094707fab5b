package cli

import (
	"strings"

	"github.com/iudanet/itemsync/internal/client/presence"
	"github.com/iudanet/itemsync/internal/client/sync"
	"github.com/iudanet/itemsync/internal/models"
)

// Watch печатает события движка построчно, пока он работает
func (c *Cli) Watch(events Events) {
	events.OnItemChanged(func(item *models.Item) {
		c.io.Printf("item changed  %s %q\n", item.ID, item.Title)
	})
	events.OnItemRemoved(func(id string) {
		c.io.Printf("item removed  %s\n", id)
	})
	events.OnPresenceChanged(func(ch presence.Change) {
		editor := ch.Editor
		if editor == "" {
			editor = "-"
		}
		c.io.Printf("presence      %s viewers=[%s] editor=%s\n", ch.ItemID, strings.Join(ch.Viewers, ","), editor)
	})
	events.OnLockLost(func(ev presence.LockLost) {
		c.io.Printf("lock lost     %s now edited by %s\n", ev.ItemID, ev.Editor)
	})
	events.OnSyncStateChanged(func(st sync.Status) {
		if st.Err != nil {
			c.io.Printf("sync          %s (connection %s): %v\n", st.State, st.Connection, st.Err)
			return
		}
		c.io.Printf("sync          %s (connection %s)\n", st.State, st.Connection)
	})
}
