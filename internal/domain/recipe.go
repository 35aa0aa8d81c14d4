package domain

import (
	"context"
	"time"
)

// Recipe is owned by exactly one user and links to that user's tags and
// ingredients.
type Recipe struct {
	ID              int64
	UserID          int64
	Title           string
	PreparationTime int // minutes
	Price           float64
	Link            string
	Image           string // FileStore key, empty when no image is set

	// TagIDs and IngredientIDs are written on Create/Update.
	TagIDs        []int64
	IngredientIDs []int64

	// Tags and Ingredients are populated on reads, ordered by ID.
	Tags        []Attribute
	Ingredients []Attribute

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RecipeFilter narrows a recipe listing. Within TagIDs or IngredientIDs a
// recipe matches if it has any of the IDs; both dimensions must match
// when both are set.
type RecipeFilter struct {
	UserID        int64
	TagIDs        []int64
	IngredientIDs []int64
}

// RecipeRepository defines persistence operations for recipes.
type RecipeRepository interface {
	Create(ctx context.Context, recipe *Recipe) error
	GetByID(ctx context.Context, id int64) (*Recipe, error)
	List(ctx context.Context, filter RecipeFilter) ([]Recipe, error)
	// Update replaces the core fields and the tag and ingredient links.
	Update(ctx context.Context, recipe *Recipe) error
	UpdateImage(ctx context.Context, id int64, image string) error
	Delete(ctx context.Context, id int64) error
}
