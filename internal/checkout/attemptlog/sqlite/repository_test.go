package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront/internal/checkout/attemptlog"
)

func TestRepository_SaveAndGetLatest(t *testing.T) {
	ctx := context.Background()
	repo, err := Open(filepath.Join(t.TempDir(), "attempts.db"))
	require.NoError(t, err)
	defer repo.Close()

	first := attemptlog.NewEntry(ctx, "att-1", "VALIDATING_DETAILS", "cash", `{"items":[]}`, nil)
	require.NoError(t, repo.Save(ctx, first))

	last := attemptlog.NewEntry(ctx, "att-1", "FAILED", "cash", "", []string{"submit: 500"})
	last.UpdatedAt = first.UpdatedAt.Add(time.Millisecond)
	require.NoError(t, repo.Save(ctx, last))

	got, err := repo.GetLatest(ctx, "att-1")
	require.NoError(t, err)
	assert.Equal(t, "FAILED", got.State)
	assert.Equal(t, `["submit: 500"]`, got.ErrorMessages)
	assert.Empty(t, got.Payload)
	assert.Empty(t, got.TraceID)
	assert.True(t, last.UpdatedAt.Equal(got.UpdatedAt))

	_, err = repo.GetLatest(ctx, "missing")
	assert.ErrorIs(t, err, attemptlog.ErrNotFound)
}

func TestRepository_UnreadableUpdatedAt(t *testing.T) {
	ctx := context.Background()
	repo, err := Open(filepath.Join(t.TempDir(), "attempts.db"))
	require.NoError(t, err)
	defer repo.Close()

	_, err = repo.db.ExecContext(ctx,
		`INSERT INTO checkout_attempts (attempt_id, state, updated_at) VALUES (?, ?, ?)`,
		"att-bad", "SUBMITTING", "yesterday")
	require.NoError(t, err)

	_, err = repo.GetLatest(ctx, "att-bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, attemptlog.ErrNotFound)
	assert.Contains(t, err.Error(), "att-bad")
}
