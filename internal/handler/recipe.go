package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/msomdec/recipe-api/internal/domain"
	"github.com/msomdec/recipe-api/internal/service"
	"github.com/msomdec/recipe-api/internal/validation"
)

// RecipeHandler handles the user's recipes.
type RecipeHandler struct {
	recipes  *service.RecipeService
	validate *validation.Validator
	mediaURL string
}

// NewRecipeHandler creates a new RecipeHandler. Image keys are rendered
// under mediaURL.
func NewRecipeHandler(recipes *service.RecipeService, mediaURL string) *RecipeHandler {
	return &RecipeHandler{recipes: recipes, validate: validation.New(), mediaURL: mediaURL}
}

// HandleList returns the user's recipes, optionally filtered.
// GET /recipe/recipes?tags=1,2&ingredients=3
// A recipe matches a dimension if it has any of the listed IDs; both
// dimensions must match when both are given.
func (h *RecipeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	tagIDs, err := parseIDList(r, "tags")
	if err != nil {
		writeServiceError(w, "parse tags", err)
		return
	}
	ingredientIDs, err := parseIDList(r, "ingredients")
	if err != nil {
		writeServiceError(w, "parse ingredients", err)
		return
	}

	recipes, err := h.recipes.List(r.Context(), user.ID, tagIDs, ingredientIDs)
	if err != nil {
		writeServiceError(w, "list recipes", err)
		return
	}

	writeJSON(w, http.StatusOK, toRecipeDTOs(recipes, h.mediaURL))
}

// HandleGet returns one recipe with its tags and ingredients expanded.
// GET /recipe/recipes/{id}
func (h *RecipeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, "parse id", err)
		return
	}

	recipe, err := h.recipes.Get(r.Context(), user.ID, id)
	if err != nil {
		writeServiceError(w, "get recipe", err)
		return
	}

	writeJSON(w, http.StatusOK, toRecipeDetailDTO(recipe, h.mediaURL))
}

// HandleCreate creates a recipe owned by the user.
// POST /recipe/recipes
// Request:  {"title":"...","preparation_time":5,"price":"10.50","link":"...","tags":[1],"ingredients":[2]}
// Response: 201 recipe detail
func (h *RecipeHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	req, err := h.decodeFull(r)
	if err != nil {
		writeServiceError(w, "decode recipe", err)
		return
	}

	recipe, err := h.recipes.Create(r.Context(), user.ID, req.input())
	if err != nil {
		writeServiceError(w, "create recipe", err)
		return
	}

	writeJSON(w, http.StatusCreated, toRecipeDetailDTO(recipe, h.mediaURL))
}

// HandleUpdate replaces every writable field of a recipe. Omitted tags or
// ingredients are cleared.
// PUT /recipe/recipes/{id}
func (h *RecipeHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, "parse id", err)
		return
	}

	req, err := h.decodeFull(r)
	if err != nil {
		writeServiceError(w, "decode recipe", err)
		return
	}

	recipe, err := h.recipes.Update(r.Context(), user.ID, id, req.input())
	if err != nil {
		writeServiceError(w, "update recipe", err)
		return
	}

	writeJSON(w, http.StatusOK, toRecipeDetailDTO(recipe, h.mediaURL))
}

// HandlePatch changes only the fields present in the body.
// PATCH /recipe/recipes/{id}
func (h *RecipeHandler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, "parse id", err)
		return
	}

	var req recipeRequest
	if err := readJSON(r, &req); err != nil {
		writeServiceError(w, "decode recipe", err)
		return
	}
	req.normalize()

	recipe, err := h.recipes.Patch(r.Context(), user.ID, id, req.patch())
	if err != nil {
		writeServiceError(w, "patch recipe", err)
		return
	}

	writeJSON(w, http.StatusOK, toRecipeDetailDTO(recipe, h.mediaURL))
}

// HandleDelete removes a recipe and its stored image.
// DELETE /recipe/recipes/{id}
func (h *RecipeHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, "parse id", err)
		return
	}

	if err := h.recipes.Delete(r.Context(), user.ID, id); err != nil {
		writeServiceError(w, "delete recipe", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// decodeFull reads a request that must carry every required field.
func (h *RecipeHandler) decodeFull(r *http.Request) (*recipeRequest, error) {
	var req recipeRequest
	if err := readJSON(r, &req); err != nil {
		return nil, err
	}
	req.normalize()
	if err := h.validate.Validate(req); err != nil {
		return nil, err
	}
	return &req, nil
}

// parseIDList reads a comma-separated list of IDs such as ?tags=1,2.
// Empty items are skipped.
func parseIDList(r *http.Request, name string) ([]int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}

	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, domain.NewValidationError(name, "must be a comma-separated list of IDs")
		}
		ids = append(ids, id)
	}
	return ids, nil
}
