package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msomdec/recipe-api/internal/domain"
)

func TestFileStore(t *testing.T) {
	db := newTestDB(t)
	store := db.FileStore()
	ctx := context.Background()
	key := "uploads/recipe/test.jpg"

	require.NoError(t, store.Save(ctx, key, []byte("first")))
	require.NoError(t, store.Save(ctx, key, []byte("second")))

	data, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.NoError(t, store.Delete(ctx, key))
}
