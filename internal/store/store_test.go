package store_test

import (
	"path/filepath"
	"testing"

	"github.com/clambin/homeshift/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "homeshift.db")
	s, err := store.Open(t.Context(), path)
	require.NoError(t, err)

	_, err = s.LoadOverrideDuration(t.Context(), "maison")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.SaveOverrideDuration(t.Context(), "maison", 60))
	require.NoError(t, s.SaveOverrideDuration(t.Context(), "chalet", 15))
	require.NoError(t, s.SaveOverrideDuration(t.Context(), "maison", 90))

	minutes, err := s.LoadOverrideDuration(t.Context(), "maison")
	require.NoError(t, err)
	assert.Equal(t, 90, minutes)
	require.NoError(t, s.Close())

	// survives a restart
	s, err = store.Open(t.Context(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	minutes, err = s.LoadOverrideDuration(t.Context(), "chalet")
	require.NoError(t, err)
	assert.Equal(t, 15, minutes)
}

func TestStore_Memory(t *testing.T) {
	s, err := store.Open(t.Context(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.SaveOverrideDuration(t.Context(), "maison", 0))
	minutes, err := s.LoadOverrideDuration(t.Context(), "maison")
	require.NoError(t, err)
	assert.Zero(t, minutes)
}
