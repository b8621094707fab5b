package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditOperation_Apply(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		op      EditOperation
		wantErr bool
	}{
		{
			name:    "insert at start",
			content: "world",
			op:      EditOperation{Type: EditInsert, Position: 0, Text: "hello "},
			want:    "hello world",
		},
		{
			name:    "insert at end",
			content: "hello",
			op:      EditOperation{Type: EditInsert, Position: 5, Text: "!"},
			want:    "hello!",
		},
		{
			name:    "delete middle",
			content: "hello cruel world",
			op:      EditOperation{Type: EditDelete, Position: 5, Length: 6},
			want:    "hello world",
		},
		{
			name:    "replace",
			content: "buy milk",
			op:      EditOperation{Type: EditReplace, Position: 4, Length: 4, Text: "eggs"},
			want:    "buy eggs",
		},
		{
			name:    "positions count runes",
			content: "привет мир",
			op:      EditOperation{Type: EditReplace, Position: 7, Length: 3, Text: "всем"},
			want:    "привет всем",
		},
		{
			name:    "insert past end",
			content: "abc",
			op:      EditOperation{Type: EditInsert, Position: 4, Text: "x"},
			wantErr: true,
		},
		{
			name:    "delete past end",
			content: "abc",
			op:      EditOperation{Type: EditDelete, Position: 2, Length: 5},
			wantErr: true,
		},
		{
			name:    "negative position",
			content: "abc",
			op:      EditOperation{Type: EditInsert, Position: -1, Text: "x"},
			wantErr: true,
		},
		{
			name:    "unknown type",
			content: "abc",
			op:      EditOperation{Type: "move"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.op.Apply(tt.content)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEditOperation_ApplyOutOfRangeSentinel(t *testing.T) {
	_, err := EditOperation{Type: EditDelete, Position: 1, Length: 10}.Apply("ab")
	assert.ErrorIs(t, err, ErrOperationOutOfRange)
}
