package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "tuifit.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestOpenCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	st, err := Open(filepath.Join(dir, "sub", "tuifit.db"))
	require.NoError(t, err)
	defer func() {
		_ = st.Close()
	}()

	_, err = os.Stat(filepath.Join(dir, "sub"))
	assert.NoError(t, err)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuifit.db")
	ctx := context.Background()

	st, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Set(ctx, "k", "v"))
	require.NoError(t, st.Close())

	st, err = Open(path)
	require.NoError(t, err)
	defer func() {
		_ = st.Close()
	}()
	v, ok, err := st.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestGetSetRemove(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, ok, err := st.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, st.Set(ctx, "a", "1"))
	require.NoError(t, st.Set(ctx, "a", "2"))
	require.NoError(t, st.Set(ctx, "b", ""))

	v, ok, err := st.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2", v, "last write wins")

	v, ok, err = st.Get(ctx, "b")
	require.NoError(t, err)
	assert.True(t, ok, "empty values are stored")
	assert.Empty(t, v)

	require.NoError(t, st.Remove(ctx, "a"))
	require.NoError(t, st.Remove(ctx, "a"))
	_, ok, err = st.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadJSONToleratesMalformed(t *testing.T) {
	ctx := context.Background()
	for name, kv := range map[string]KV{"sqlite": newTestStore(t), "memory": NewMemory()} {
		t.Run(name, func(t *testing.T) {
			var list []string
			ok, err := LoadJSON(ctx, kv, "list", &list)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, kv.Set(ctx, "list", "{not json"))
			ok, err = LoadJSON(ctx, kv, "list", &list)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, SaveJSON(ctx, kv, "list", []string{"x", "y"}))
			list = nil
			ok, err = LoadJSON(ctx, kv, "list", &list)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, []string{"x", "y"}, list)
		})
	}
}
