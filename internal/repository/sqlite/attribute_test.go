package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msomdec/recipe-api/internal/domain"
)

func createAttr(t *testing.T, repo domain.AttributeRepository, userID int64, name string) *domain.Attribute {
	t.Helper()
	a := &domain.Attribute{UserID: userID, Name: name}
	require.NoError(t, repo.Create(context.Background(), a))
	return a
}

func names(attrs []domain.Attribute) []string {
	out := make([]string, len(attrs))
	for i, a := range attrs {
		out[i] = a.Name
	}
	return out
}

func TestAttributeRepository_Kinds(t *testing.T) {
	db := newTestDB(t)
	assert.Equal(t, domain.KindTag, db.Tags().Kind())
	assert.Equal(t, domain.KindIngredient, db.Ingredients().Kind())
}

func TestAttributeRepository_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "attr@example.com")
	ctx := context.Background()

	tag := createAttr(t, db.Tags(), user.ID, "Vegan")
	assert.NotZero(t, tag.ID)
	assert.Equal(t, domain.KindTag, tag.Kind)

	found, err := db.Tags().GetByID(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, "Vegan", found.Name)
	assert.Equal(t, user.ID, found.UserID)

	// Tags and ingredients live in separate tables.
	_, err = db.Ingredients().GetByID(ctx, tag.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAttributeRepository_DuplicateNamePerUser(t *testing.T) {
	db := newTestDB(t)
	alice := createUser(t, db, "alice@example.com")
	bob := createUser(t, db, "bob@example.com")
	ctx := context.Background()

	createAttr(t, db.Ingredients(), alice.ID, "Salt")

	err := db.Ingredients().Create(ctx, &domain.Attribute{UserID: alice.ID, Name: "Salt"})
	assert.ErrorIs(t, err, domain.ErrDuplicateName)

	// Another user may reuse the name.
	createAttr(t, db.Ingredients(), bob.ID, "Salt")
}

func TestAttributeRepository_ListByUser_OrderedAndScoped(t *testing.T) {
	db := newTestDB(t)
	alice := createUser(t, db, "alice@example.com")
	bob := createUser(t, db, "bob@example.com")
	ctx := context.Background()

	createAttr(t, db.Tags(), alice.ID, "Dessert")
	createAttr(t, db.Tags(), alice.ID, "Vegan")
	createAttr(t, db.Tags(), alice.ID, "Breakfast")
	createAttr(t, db.Tags(), bob.ID, "Fruity")

	tags, err := db.Tags().ListByUser(ctx, alice.ID, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Vegan", "Dessert", "Breakfast"}, names(tags))

	empty, err := db.Tags().ListByUser(ctx, 9999, false)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestAttributeRepository_ListByUser_AssignedOnly(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "assigned@example.com")
	ctx := context.Background()

	eggs := createAttr(t, db.Ingredients(), user.ID, "Eggs")
	createAttr(t, db.Ingredients(), user.ID, "Cheese")

	for _, title := range []string{"Eggs benedict", "Coriander eggs on toast"} {
		require.NoError(t, db.Recipes().Create(ctx, &domain.Recipe{
			UserID: user.ID, Title: title, PreparationTime: 3, Price: 5,
			IngredientIDs: []int64{eggs.ID},
		}))
	}

	assigned, err := db.Ingredients().ListByUser(ctx, user.ID, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Eggs"}, names(assigned))
}

func TestAttributeRepository_CountOwned(t *testing.T) {
	db := newTestDB(t)
	alice := createUser(t, db, "alice@example.com")
	bob := createUser(t, db, "bob@example.com")
	ctx := context.Background()

	a1 := createAttr(t, db.Tags(), alice.ID, "One")
	a2 := createAttr(t, db.Tags(), alice.ID, "Two")
	b1 := createAttr(t, db.Tags(), bob.ID, "Three")

	n, err := db.Tags().CountOwned(ctx, alice.ID, []int64{a1.ID, a2.ID, a2.ID, b1.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = db.Tags().CountOwned(ctx, alice.ID, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAttributeRepository_Delete(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "delete@example.com")
	ctx := context.Background()

	tag := createAttr(t, db.Tags(), user.ID, "Spicy")
	recipe := &domain.Recipe{UserID: user.ID, Title: "Chili", PreparationTime: 30, Price: 8, TagIDs: []int64{tag.ID}}
	require.NoError(t, db.Recipes().Create(ctx, recipe))

	require.NoError(t, db.Tags().Delete(ctx, tag.ID))
	assert.ErrorIs(t, db.Tags().Delete(ctx, tag.ID), domain.ErrNotFound)

	got, err := db.Recipes().GetByID(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Tags)
}
