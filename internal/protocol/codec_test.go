package protocol

import (
	"errors"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/itemsync/internal/models"
)

func strPtr(s string) *string { return &s }

func TestCodec_EncodeGolden(t *testing.T) {
	codec := NewCodec()
	ts := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		payload Payload
		name    string
		msgType string
	}{
		{
			name:    "ping",
			msgType: TypePing,
			payload: Heartbeat{Timestamp: 1700000000},
		},
		{
			name:    "item_created",
			msgType: TypeItemCreated,
			payload: ItemPayload{ID: "srv-99", Title: "Groceries", Content: "milk", CreatedAt: ts, UpdatedAt: ts, Version: 1},
		},
		{
			name:    "item_deleted",
			msgType: TypeItemDeleted,
			payload: ItemDeleted{ID: "srv-9"},
		},
		{
			name:    "presence_update",
			msgType: TypePresenceUpdate,
			payload: PresenceUpdate{ItemID: "srv-1", Viewers: []string{"alice", "bob"}},
		},
		{
			name:    "editing_update_free",
			msgType: TypeEditingUpdate,
			payload: EditingUpdate{ItemID: "srv-1"},
		},
		{
			name:    "editing_operation",
			msgType: TypeEditingOperation,
			payload: EditingOperation{
				ItemID:    "srv-1",
				Peer:      "alice",
				Operation: models.EditOperation{Type: models.EditInsert, Position: 3, Text: "abc"},
			},
		},
		{
			name:    "presence_join",
			msgType: TypePresenceJoin,
			payload: PresenceIntent{ItemID: "srv-1", Peer: "alice"},
		},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := codec.Encode(tt.msgType, tt.payload)
			require.NoError(t, err)
			g.Assert(t, tt.name, frame)

			// Закодированный кадр должен декодироваться обратно в ту же нагрузку
			env, err := codec.Decode(frame)
			require.NoError(t, err)
			assert.Equal(t, tt.msgType, env.Type)
			assert.Equal(t, tt.payload, env.Payload)
		})
	}
}

func TestCodec_Decode(t *testing.T) {
	codec := NewCodec()

	env, err := codec.Decode([]byte(`{"type":"item.editing.update","payload":{"item_id":"srv-1","editor":"bob"}}`))
	require.NoError(t, err)
	upd, ok := env.Payload.(EditingUpdate)
	require.True(t, ok)
	assert.Equal(t, "bob", upd.EditorOrEmpty())

	// Неизвестные поля допустимы
	env, err = codec.Decode([]byte(`{"type":"pong","payload":{"timestamp":5,"extra":true},"id":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, Heartbeat{Timestamp: 5}, env.Payload)
}

func TestCodec_DecodeRejects(t *testing.T) {
	codec := NewCodec()

	tests := []struct {
		reason error
		name   string
		frame  string
	}{
		{name: "not json", frame: `hello`, reason: ErrMalformedFrame},
		{name: "json array", frame: `[1,2]`, reason: ErrMalformedFrame},
		{name: "path traversal type", frame: `{"type":"../etc","payload":{}}`, reason: ErrInvalidType},
		{name: "empty type", frame: `{"payload":{}}`, reason: ErrInvalidType},
		{name: "trailing dot", frame: `{"type":"item.","payload":{}}`, reason: ErrInvalidType},
		{name: "missing payload", frame: `{"type":"item.deleted"}`, reason: ErrMissingPayload},
		{name: "null payload", frame: `{"type":"item.deleted","payload":null}`, reason: ErrMissingPayload},
		{name: "unknown type", frame: `{"type":"item.archived","payload":{"id":"1"}}`, reason: ErrUnknownType},
		{name: "payload wrong shape", frame: `{"type":"item.deleted","payload":"srv-1"}`, reason: ErrInvalidPayload},
		{name: "missing id", frame: `{"type":"item.deleted","payload":{}}`, reason: ErrInvalidPayload},
		{name: "bad item id", frame: `{"type":"item.deleted","payload":{"id":"a/b"}}`, reason: ErrInvalidPayload},
		{name: "item without updated_at", frame: `{"type":"item.updated","payload":{"id":"srv-1","title":"x"}}`, reason: ErrInvalidPayload},
		{
			name:   "unknown operation type",
			frame:  `{"type":"item.editing.operation","payload":{"item_id":"srv-1","peer":"alice","operation":{"type":"move","position":0}}}`,
			reason: ErrInvalidPayload,
		},
		{
			name:   "negative position",
			frame:  `{"type":"item.editing.operation","payload":{"item_id":"srv-1","peer":"alice","operation":{"type":"insert","position":-1,"text":"a"}}}`,
			reason: ErrInvalidPayload,
		},
		{
			name:   "delete without length",
			frame:  `{"type":"item.editing.operation","payload":{"item_id":"srv-1","peer":"alice","operation":{"type":"delete","position":0}}}`,
			reason: ErrInvalidPayload,
		},
		{
			name:   "bad viewer id",
			frame:  `{"type":"presence.update","payload":{"item_id":"srv-1","viewers":["ok","not ok"]}}`,
			reason: ErrInvalidPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Decode([]byte(tt.frame))
			require.Error(t, err)

			var decodeErr *DecodeError
			require.True(t, errors.As(err, &decodeErr))
			assert.ErrorIs(t, err, tt.reason)
			assert.NotEmpty(t, decodeErr.Error())
		})
	}
}

func TestCodec_EncodeRejects(t *testing.T) {
	codec := NewCodec()

	_, err := codec.Encode("../etc", Heartbeat{})
	assert.ErrorIs(t, err, ErrInvalidType)

	_, err = codec.Encode(TypePing, nil)
	assert.ErrorIs(t, err, ErrMissingPayload)

	// Нагрузка не соответствует типу сообщения
	_, err = codec.Encode(TypeItemDeleted, Heartbeat{})
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = codec.Encode(TypeItemDeleted, ItemDeleted{})
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = codec.Encode(TypeEditingOperation, EditingOperation{
		ItemID:    "srv-1",
		Peer:      "alice",
		Operation: models.EditOperation{Type: models.EditReplace, Position: 0},
	})
	assert.ErrorIs(t, err, ErrInvalidPayload)

	frame, err := codec.Encode(TypeEditingUpdate, EditingUpdate{ItemID: "srv-1", Editor: strPtr("alice")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"item.editing.update","payload":{"editor":"alice","item_id":"srv-1"}}`, string(frame))
}

func TestReasonLabel(t *testing.T) {
	assert.Equal(t, "malformed", ReasonLabel(&DecodeError{Reason: ErrMalformedFrame}))
	assert.Equal(t, "unknown_type", ReasonLabel(&DecodeError{Reason: ErrUnknownType, Type: "x"}))
	assert.Equal(t, "other", ReasonLabel(errors.New("boom")))
}
