package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msomdec/recipe-api/internal/domain"
	"github.com/msomdec/recipe-api/internal/repository/sqlite"
	"github.com/msomdec/recipe-api/internal/service"
)

func newTestRecipeService(t *testing.T) (*service.RecipeService, *sqlite.DB) {
	t.Helper()
	db := newTestDB(t)
	return service.NewRecipeService(db.Recipes(), db.Tags(), db.Ingredients(), db.FileStore()), db
}

func mockRecipe() service.RecipeInput {
	return service.RecipeInput{Title: "Mock Recipe", PreparationTime: 5, Price: 10.5}
}

func ptr[T any](v T) *T { return &v }

func TestRecipeService_CreateAndGet(t *testing.T) {
	recipes, db := newTestRecipeService(t)
	user := createTestUser(t, db, "test@example.com")
	ctx := context.Background()

	created, err := recipes.Create(ctx, user.ID, mockRecipe())
	require.NoError(t, err)
	assert.Equal(t, user.ID, created.UserID)

	got, err := recipes.Get(ctx, user.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mock Recipe", got.Title)
	assert.Empty(t, got.Tags)
	assert.Empty(t, got.Ingredients)
}

func TestRecipeService_Get_OtherUserIsNotFound(t *testing.T) {
	recipes, db := newTestRecipeService(t)
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	ctx := context.Background()

	created, err := recipes.Create(ctx, alice.ID, mockRecipe())
	require.NoError(t, err)

	_, err = recipes.Get(ctx, bob.ID, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = recipes.Patch(ctx, bob.ID, created.ID, service.RecipePatch{Title: ptr("Stolen")})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, recipes.Delete(ctx, bob.ID, created.ID), domain.ErrNotFound)
}

func TestRecipeService_Create_Validation(t *testing.T) {
	recipes, db := newTestRecipeService(t)
	user := createTestUser(t, db, "valid@example.com")
	ctx := context.Background()

	cases := map[string]service.RecipeInput{
		"title":            {PreparationTime: 5, Price: 1},
		"preparation_time": {Title: "x", PreparationTime: -1, Price: 1},
		"price":            {Title: "x", PreparationTime: 1, Price: 1000},
		"link":             {Title: "x", PreparationTime: 1, Price: 1, Link: "not a url"},
	}
	for field, in := range cases {
		_, err := recipes.Create(ctx, user.ID, in)
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr, field)
		assert.Contains(t, verr.Fields, field)
	}

	_, err := recipes.Create(ctx, user.ID, service.RecipeInput{Title: "x", PreparationTime: 1, Price: 1.234})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRecipeService_Create_RejectsForeignLabels(t *testing.T) {
	recipes, db := newTestRecipeService(t)
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	ctx := context.Background()

	bobTag := &domain.Attribute{UserID: bob.ID, Name: "Bob's"}
	require.NoError(t, db.Tags().Create(ctx, bobTag))

	in := mockRecipe()
	in.TagIDs = []int64{bobTag.ID}
	_, err := recipes.Create(ctx, alice.ID, in)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "tags")

	in.TagIDs = nil
	in.IngredientIDs = []int64{424242}
	_, err = recipes.Create(ctx, alice.ID, in)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "ingredients")
}

func TestRecipeService_PatchAndUpdate(t *testing.T) {
	recipes, db := newTestRecipeService(t)
	user := createTestUser(t, db, "patch@example.com")
	ctx := context.Background()

	tag := &domain.Attribute{UserID: user.ID, Name: "Curry"}
	require.NoError(t, db.Tags().Create(ctx, tag))
	newTag := &domain.Attribute{UserID: user.ID, Name: "Spicy"}
	require.NoError(t, db.Tags().Create(ctx, newTag))

	in := mockRecipe()
	in.TagIDs = []int64{tag.ID}
	created, err := recipes.Create(ctx, user.ID, in)
	require.NoError(t, err)

	patched, err := recipes.Patch(ctx, user.ID, created.ID, service.RecipePatch{
		Title:  ptr("Chicken tikka"),
		TagIDs: &[]int64{newTag.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "Chicken tikka", patched.Title)
	assert.Equal(t, 5, patched.PreparationTime)
	require.Len(t, patched.Tags, 1)
	assert.Equal(t, "Spicy", patched.Tags[0].Name)

	updated, err := recipes.Update(ctx, user.ID, created.ID, service.RecipeInput{
		Title: "Spaghetti carbonara", PreparationTime: 25, Price: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, "Spaghetti carbonara", updated.Title)
	assert.Equal(t, 25, updated.PreparationTime)
	assert.InDelta(t, 5.0, updated.Price, 0.001)
	assert.Empty(t, updated.Tags)
	assert.Equal(t, user.ID, updated.UserID)
}

func TestRecipeService_ListFilters(t *testing.T) {
	recipes, db := newTestRecipeService(t)
	user := createTestUser(t, db, "filters@example.com")
	ctx := context.Background()

	vegan := &domain.Attribute{UserID: user.ID, Name: "Vegan"}
	require.NoError(t, db.Tags().Create(ctx, vegan))

	in := mockRecipe()
	in.TagIDs = []int64{vegan.ID}
	tagged, err := recipes.Create(ctx, user.ID, in)
	require.NoError(t, err)
	_, err = recipes.Create(ctx, user.ID, mockRecipe())
	require.NoError(t, err)

	all, err := recipes.List(ctx, user.ID, nil, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := recipes.List(ctx, user.ID, []int64{vegan.ID}, nil)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, tagged.ID, filtered[0].ID)
}

func TestRecipeService_DeleteRemovesImage(t *testing.T) {
	recipes, db := newTestRecipeService(t)
	user := createTestUser(t, db, "delete@example.com")
	ctx := context.Background()

	created, err := recipes.Create(ctx, user.ID, mockRecipe())
	require.NoError(t, err)

	key := "uploads/recipe/old.jpg"
	require.NoError(t, db.FileStore().Save(ctx, key, []byte("img")))
	require.NoError(t, db.Recipes().UpdateImage(ctx, created.ID, key))

	require.NoError(t, recipes.Delete(ctx, user.ID, created.ID))

	_, err = recipes.Get(ctx, user.ID, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = db.FileStore().Get(ctx, key)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
