package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msomdec/recipe-api/internal/domain"
	"github.com/msomdec/recipe-api/internal/repository/sqlite"
	"github.com/msomdec/recipe-api/internal/service"
)

func createTestUser(t *testing.T, db *sqlite.DB, email string) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, PasswordHash: "hash", IsActive: true}
	require.NoError(t, db.Users().Create(context.Background(), u))
	return u
}

func TestAttributeService_Create(t *testing.T) {
	db := newTestDB(t)
	tags := service.NewAttributeService(db.Tags())
	user := createTestUser(t, db, "tags@example.com")
	ctx := context.Background()

	tag, err := tags.Create(ctx, user.ID, "  Vegan ")
	require.NoError(t, err)
	assert.Equal(t, "Vegan", tag.Name)
	assert.Equal(t, user.ID, tag.UserID)
	assert.Equal(t, domain.KindTag, tags.Kind())

	_, err = tags.Create(ctx, user.ID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = tags.Create(ctx, user.ID, strings.Repeat("x", 256))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = tags.Create(ctx, user.ID, "Vegan")
	assert.ErrorIs(t, err, domain.ErrDuplicateName)
}

func TestAttributeService_ListIsolatedPerUser(t *testing.T) {
	db := newTestDB(t)
	ingredients := service.NewAttributeService(db.Ingredients())
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	ctx := context.Background()

	_, err := ingredients.Create(ctx, bob.ID, "Vinegar")
	require.NoError(t, err)
	_, err = ingredients.Create(ctx, alice.ID, "Tumeric")
	require.NoError(t, err)

	list, err := ingredients.List(ctx, alice.ID, false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Tumeric", list[0].Name)
}

func TestAttributeService_Delete(t *testing.T) {
	db := newTestDB(t)
	tags := service.NewAttributeService(db.Tags())
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	ctx := context.Background()

	tag, err := tags.Create(ctx, alice.ID, "Lunch")
	require.NoError(t, err)

	assert.ErrorIs(t, tags.Delete(ctx, bob.ID, tag.ID), domain.ErrNotFound)
	require.NoError(t, tags.Delete(ctx, alice.ID, tag.ID))
	assert.ErrorIs(t, tags.Delete(ctx, alice.ID, tag.ID), domain.ErrNotFound)
}
