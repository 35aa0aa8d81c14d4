package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/msomdec/recipe-api/internal/domain"
	"github.com/msomdec/recipe-api/internal/validation"
)

const (
	maxTitleLength = 255
	maxLinkLength  = 255
	maxPrice       = 999.99
)

// RecipeInput carries every writable recipe field. Nil tag or ingredient
// lists clear the links.
type RecipeInput struct {
	Title           string
	PreparationTime int
	Price           float64
	Link            string
	TagIDs          []int64
	IngredientIDs   []int64
}

// RecipePatch carries the fields of a partial update. Nil fields are left
// unchanged.
type RecipePatch struct {
	Title           *string
	PreparationTime *int
	Price           *float64
	Link            *string
	TagIDs          *[]int64
	IngredientIDs   *[]int64
}

// RecipeService implements owner-scoped recipe operations.
type RecipeService struct {
	recipes     domain.RecipeRepository
	tags        domain.AttributeRepository
	ingredients domain.AttributeRepository
	files       domain.FileStore
	validate    *validation.Validator
}

// NewRecipeService creates a new RecipeService.
func NewRecipeService(recipes domain.RecipeRepository, tags, ingredients domain.AttributeRepository, files domain.FileStore) *RecipeService {
	return &RecipeService{
		recipes:     recipes,
		tags:        tags,
		ingredients: ingredients,
		files:       files,
		validate:    validation.New(),
	}
}

// List returns the user's recipes. Filter IDs are matched with OR inside
// a dimension and AND across dimensions.
func (s *RecipeService) List(ctx context.Context, userID int64, tagIDs, ingredientIDs []int64) ([]domain.Recipe, error) {
	return s.recipes.List(ctx, domain.RecipeFilter{
		UserID:        userID,
		TagIDs:        tagIDs,
		IngredientIDs: ingredientIDs,
	})
}

// Get returns a recipe owned by userID. Other users' recipes are reported
// as not found.
func (s *RecipeService) Get(ctx context.Context, userID, id int64) (*domain.Recipe, error) {
	recipe, err := s.recipes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if recipe.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return recipe, nil
}

// Create stores a new recipe for userID.
func (s *RecipeService) Create(ctx context.Context, userID int64, in RecipeInput) (*domain.Recipe, error) {
	recipe := &domain.Recipe{UserID: userID}
	applyInput(recipe, in)

	if err := s.check(ctx, recipe); err != nil {
		return nil, err
	}
	if err := s.recipes.Create(ctx, recipe); err != nil {
		return nil, fmt.Errorf("create recipe: %w", err)
	}
	return s.recipes.GetByID(ctx, recipe.ID)
}

// Update replaces every writable field of the user's recipe.
func (s *RecipeService) Update(ctx context.Context, userID, id int64, in RecipeInput) (*domain.Recipe, error) {
	recipe, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	applyInput(recipe, in)
	return s.save(ctx, recipe)
}

// Patch changes only the fields set in p.
func (s *RecipeService) Patch(ctx context.Context, userID, id int64, p RecipePatch) (*domain.Recipe, error) {
	recipe, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if p.Title != nil {
		recipe.Title = strings.TrimSpace(*p.Title)
	}
	if p.PreparationTime != nil {
		recipe.PreparationTime = *p.PreparationTime
	}
	if p.Price != nil {
		recipe.Price = *p.Price
	}
	if p.Link != nil {
		recipe.Link = strings.TrimSpace(*p.Link)
	}
	if p.TagIDs != nil {
		recipe.TagIDs = *p.TagIDs
	}
	if p.IngredientIDs != nil {
		recipe.IngredientIDs = *p.IngredientIDs
	}
	return s.save(ctx, recipe)
}

// Delete removes the user's recipe and its stored image.
func (s *RecipeService) Delete(ctx context.Context, userID, id int64) error {
	recipe, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.recipes.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	if recipe.Image != "" {
		if err := s.files.Delete(ctx, recipe.Image); err != nil {
			slog.Warn("delete recipe image", "recipe_id", id, "key", recipe.Image, "error", err)
		}
	}
	return nil
}

// SetImage points a recipe at a stored image key. Callers check ownership.
func (s *RecipeService) SetImage(ctx context.Context, id int64, key string) error {
	return s.recipes.UpdateImage(ctx, id, key)
}

func (s *RecipeService) save(ctx context.Context, recipe *domain.Recipe) (*domain.Recipe, error) {
	if err := s.check(ctx, recipe); err != nil {
		return nil, err
	}
	if err := s.recipes.Update(ctx, recipe); err != nil {
		return nil, fmt.Errorf("update recipe: %w", err)
	}
	return s.recipes.GetByID(ctx, recipe.ID)
}

func applyInput(recipe *domain.Recipe, in RecipeInput) {
	recipe.Title = strings.TrimSpace(in.Title)
	recipe.PreparationTime = in.PreparationTime
	recipe.Price = in.Price
	recipe.Link = strings.TrimSpace(in.Link)
	recipe.TagIDs = in.TagIDs
	recipe.IngredientIDs = in.IngredientIDs
}

// check validates field values and that every linked tag and ingredient
// belongs to the recipe's owner.
func (s *RecipeService) check(ctx context.Context, recipe *domain.Recipe) error {
	fields := map[string]string{}

	switch {
	case recipe.Title == "":
		fields["title"] = "may not be blank"
	case utf8.RuneCountInString(recipe.Title) > maxTitleLength:
		fields["title"] = fmt.Sprintf("must not exceed %d characters", maxTitleLength)
	}

	if recipe.PreparationTime < 0 {
		fields["preparation_time"] = "must be greater than or equal to 0"
	}

	if msg := checkPrice(recipe.Price); msg != "" {
		fields["price"] = msg
	}

	if recipe.Link != "" {
		if len(recipe.Link) > maxLinkLength {
			fields["link"] = fmt.Sprintf("must not exceed %d characters", maxLinkLength)
		} else if err := s.validate.Var("link", recipe.Link, "http_url"); err != nil {
			fields["link"] = "must be a valid URL"
		}
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Message: "validation failed", Fields: fields}
	}

	if err := checkOwned(ctx, s.tags, "tags", recipe.UserID, recipe.TagIDs); err != nil {
		return err
	}
	return checkOwned(ctx, s.ingredients, "ingredients", recipe.UserID, recipe.IngredientIDs)
}

// checkPrice accepts 0 to 999.99 with at most two decimal places.
func checkPrice(price float64) string {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return "must be a number"
	}
	if price < 0 {
		return "must be greater than or equal to 0"
	}
	if price > maxPrice {
		return fmt.Sprintf("must be less than or equal to %.2f", maxPrice)
	}
	if cents := price * 100; math.Abs(cents-math.Round(cents)) > 1e-6 {
		return "must have no more than 2 decimal places"
	}
	return ""
}
