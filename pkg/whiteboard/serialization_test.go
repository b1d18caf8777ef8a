package whiteboard

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentToHash(t *testing.T) {
	doc := &Document{
		ID:          "board",
		Content:     Set{NewStickyNote(uuid.New().String(), 1, 2)},
		UpdatedAtMs: 1234,
	}

	hash, err := DocumentToHash(doc)
	require.NoError(t, err)
	assert.Equal(t, "board", hash["id"])
	assert.Equal(t, int64(1234), hash["updated_at_ms"])
	assert.Contains(t, hash["content"], `"type":"sticky_note"`)
}

func TestHashToDocument(t *testing.T) {
	t.Run("empty content decodes to empty set", func(t *testing.T) {
		doc, err := HashToDocument(map[string]string{"id": "board", "updated_at_ms": "99"})
		require.NoError(t, err)
		assert.NotNil(t, doc.Content)
		assert.Empty(t, doc.Content)
		assert.Equal(t, int64(99), doc.UpdatedAtMs)
	})

	t.Run("corrupt content is an error", func(t *testing.T) {
		_, err := HashToDocument(map[string]string{"id": "board", "content": "{"})
		assert.Error(t, err)
	})
}
