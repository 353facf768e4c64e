package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	in := map[string]int{"king_sheets": 2}
	require.NoError(t, store.SetObject(ctx, "k", in))
	in["king_sheets"] = 99

	var out map[string]int
	found, err := store.GetObject(ctx, "k", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 2, out["king_sheets"], "stored value must not alias the caller's map")

	raw, found := store.Raw("k")
	require.True(t, found)
	assert.JSONEq(t, `{"king_sheets":2}`, string(raw))

	store.SetRaw("bad", []byte("[1,"))
	found, err = store.GetObject(ctx, "bad", &out)
	assert.False(t, found)
	assert.ErrorIs(t, err, ErrDecode)

	require.NoError(t, store.Clear(ctx))
	found, err = store.GetObject(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, found)
}
