package attemptlog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestNewEntry_CarriesTraceIDs(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "checkout")
	defer span.End()

	e := NewEntry(ctx, "att-1", "IDLE", "online", "", nil)
	assert.Equal(t, span.SpanContext().TraceID().String(), e.TraceID)
	assert.Equal(t, span.SpanContext().SpanID().String(), e.SpanID)
	assert.Equal(t, "[]", e.ErrorMessages)
}

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	require.NoError(t, repo.Save(ctx, NewEntry(ctx, "a", "VALIDATING_DETAILS", "cash", "", nil)))
	require.NoError(t, repo.Save(ctx, NewEntry(ctx, "b", "VALIDATING_DETAILS", "cash", "", nil)))
	require.NoError(t, repo.Save(ctx, NewEntry(ctx, "a", "SUCCEEDED", "cash", "", nil)))

	got, err := repo.GetLatest(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "SUCCEEDED", got.State)
	assert.Len(t, repo.History("a"), 2)

	_, err = repo.GetLatest(ctx, "c")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepository_ForgetsOldestAttempts(t *testing.T) {
	ctx := context.Background()
	repo := NewBoundedMemoryRepository(2)

	for _, id := range []string{"a", "b", "a", "c"} {
		require.NoError(t, repo.Save(ctx, NewEntry(ctx, id, "VALIDATING_DETAILS", "cash", "", nil)))
	}

	assert.Equal(t, 2, repo.Len())
	_, err := repo.GetLatest(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, repo.History("a"))

	for _, id := range []string{"b", "c"} {
		_, err := repo.GetLatest(ctx, id)
		assert.NoError(t, err, id)
	}
}
