package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemory_StoreAndSearch(t *testing.T) {
	m := NewInMemory()
	ctx := context.Background()

	require.NoError(t, m.Store(ctx, "LESSON LEARNED: curl timed out against a slow host", map[string]string{"type": "lesson"}))
	require.NoError(t, m.Store(ctx, "unrelated note about disk cleanup", map[string]string{"type": "note"}))

	results, err := m.Search(ctx, "lesson learned about curl timeout", 3, map[string]string{"type": "lesson"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Content, "curl")
}

func TestInMemory_DeleteAndCount(t *testing.T) {
	m := NewInMemory()
	ctx := context.Background()
	require.NoError(t, m.Store(ctx, "a", nil))
	require.NoError(t, m.Store(ctx, "b", nil))

	n, err := m.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, m.Delete(ctx, "a"))
	n, err = m.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
