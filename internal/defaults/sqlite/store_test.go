package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront/internal/defaults"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "defaults.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	_, err := s.Get(ctx, defaults.KeyNotes)
	assert.ErrorIs(t, err, defaults.ErrNotFound)

	require.NoError(t, s.Set(ctx, defaults.KeyNotes, "ring the bell"))
	require.NoError(t, s.Set(ctx, defaults.KeyNotes, "knock"))

	v, err := s.Get(ctx, defaults.KeyNotes)
	require.NoError(t, err)
	assert.Equal(t, "knock", v)

	require.NoError(t, s.Delete(ctx, defaults.KeyNotes))
	_, err = s.Get(ctx, defaults.KeyNotes)
	assert.ErrorIs(t, err, defaults.ErrNotFound)
}

func TestStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "defaults.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, defaults.KeyCustomerID, "cus_123"))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	repo := defaults.NewRepository(defaults.Scoped(s, "unused"))
	_, ok := repo.Get(ctx, defaults.KeyCustomerID)
	assert.False(t, ok)

	v, err := s.Get(ctx, defaults.KeyCustomerID)
	require.NoError(t, err)
	assert.Equal(t, "cus_123", v)
}
