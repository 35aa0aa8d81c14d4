package handler

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/msomdec/recipe-api/internal/domain"
	"github.com/msomdec/recipe-api/internal/service"
)

// UserDTO is the public JSON representation of a user.
type UserDTO struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{Email: u.Email, Name: u.Name}
}

// AttributeDTO is the JSON representation of a tag or ingredient.
type AttributeDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func toAttributeDTO(a domain.Attribute) AttributeDTO {
	return AttributeDTO{ID: a.ID, Name: a.Name}
}

func toAttributeDTOs(attrs []domain.Attribute) []AttributeDTO {
	dtos := make([]AttributeDTO, len(attrs))
	for i, a := range attrs {
		dtos[i] = toAttributeDTO(a)
	}
	return dtos
}

// RecipeDTO is the list representation of a recipe. Tags and ingredients
// are given by ID.
type RecipeDTO struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	PreparationTime int     `json:"preparation_time"`
	Price           string  `json:"price"`
	Link            string  `json:"link"`
	Image           *string `json:"image"`
	Tags            []int64 `json:"tags"`
	Ingredients     []int64 `json:"ingredients"`
}

// RecipeDetailDTO is the single-recipe representation with tags and
// ingredients expanded.
type RecipeDetailDTO struct {
	ID              int64          `json:"id"`
	Title           string         `json:"title"`
	PreparationTime int            `json:"preparation_time"`
	Price           string         `json:"price"`
	Link            string         `json:"link"`
	Image           *string        `json:"image"`
	Tags            []AttributeDTO `json:"tags"`
	Ingredients     []AttributeDTO `json:"ingredients"`
}

// RecipeImageDTO is returned by an image upload.
type RecipeImageDTO struct {
	ID    int64   `json:"id"`
	Image *string `json:"image"`
}

// formatPrice renders a price with exactly two decimals.
func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64)
}

// imageURL turns a stored key into a public reference under mediaURL.
func imageURL(mediaURL, key string) *string {
	if key == "" {
		return nil
	}
	u := mediaURL + key
	return &u
}

func toRecipeDTO(r domain.Recipe, mediaURL string) RecipeDTO {
	return RecipeDTO{
		ID:              r.ID,
		Title:           r.Title,
		PreparationTime: r.PreparationTime,
		Price:           formatPrice(r.Price),
		Link:            r.Link,
		Image:           imageURL(mediaURL, r.Image),
		Tags:            nonNilIDs(r.TagIDs),
		Ingredients:     nonNilIDs(r.IngredientIDs),
	}
}

func toRecipeDTOs(recipes []domain.Recipe, mediaURL string) []RecipeDTO {
	dtos := make([]RecipeDTO, len(recipes))
	for i, r := range recipes {
		dtos[i] = toRecipeDTO(r, mediaURL)
	}
	return dtos
}

func toRecipeDetailDTO(r *domain.Recipe, mediaURL string) RecipeDetailDTO {
	return RecipeDetailDTO{
		ID:              r.ID,
		Title:           r.Title,
		PreparationTime: r.PreparationTime,
		Price:           formatPrice(r.Price),
		Link:            r.Link,
		Image:           imageURL(mediaURL, r.Image),
		Tags:            toAttributeDTOs(r.Tags),
		Ingredients:     toAttributeDTOs(r.Ingredients),
	}
}

func nonNilIDs(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

// createUserRequest is the body of POST /user/create.
type createUserRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"max=255"`
}

// tokenRequest is the body of POST /user/token.
type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// updateProfileRequest is the body of PATCH /user/me. Email cannot be
// changed and is ignored if sent.
type updateProfileRequest struct {
	Name     *string `json:"name" validate:"omitnil,max=255"`
	Password *string `json:"password"`
}

// attributeRequest is the body of a tag or ingredient create.
type attributeRequest struct {
	Name string `json:"name" validate:"required"`
}

// priceValue accepts a JSON number or a numeric string such as "10.50".
type priceValue float64

func (p *priceValue) UnmarshalJSON(data []byte) error {
	raw := string(bytes.TrimSpace(data))
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return domain.NewValidationError("price", "must be a valid number")
	}
	*p = priceValue(v)
	return nil
}

// recipeRequest is the body of recipe create, update and partial update.
// Absent fields stay nil so a partial update can tell them apart from
// zero values.
type recipeRequest struct {
	Title           *string     `json:"title" validate:"required"`
	PreparationTime *int        `json:"preparation_time" validate:"required"`
	LegacyPrepTime  *int        `json:"preperation_time" validate:"-"`
	Price           *priceValue `json:"price" validate:"required"`
	Link            *string     `json:"link"`
	Tags            *[]int64    `json:"tags"`
	Ingredients     *[]int64    `json:"ingredients"`
}

// normalize folds the legacy preparation time spelling into the current one.
func (req *recipeRequest) normalize() {
	if req.PreparationTime == nil {
		req.PreparationTime = req.LegacyPrepTime
	}
}

// input converts a validated full request into service input.
func (req *recipeRequest) input() service.RecipeInput {
	in := service.RecipeInput{
		Title:           *req.Title,
		PreparationTime: *req.PreparationTime,
		Price:           float64(*req.Price),
	}
	if req.Link != nil {
		in.Link = *req.Link
	}
	if req.Tags != nil {
		in.TagIDs = *req.Tags
	}
	if req.Ingredients != nil {
		in.IngredientIDs = *req.Ingredients
	}
	return in
}

// patch converts a request into a partial update.
func (req *recipeRequest) patch() service.RecipePatch {
	p := service.RecipePatch{
		Title:           req.Title,
		PreparationTime: req.PreparationTime,
		Link:            req.Link,
		TagIDs:          req.Tags,
		IngredientIDs:   req.Ingredients,
	}
	if req.Price != nil {
		price := float64(*req.Price)
		p.Price = &price
	}
	return p
}
