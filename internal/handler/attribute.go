package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/msomdec/recipe-api/internal/domain"
	"github.com/msomdec/recipe-api/internal/service"
	"github.com/msomdec/recipe-api/internal/validation"
)

// AttributeHandler serves one attribute kind (tags or ingredients). Both
// kinds share the same contract.
type AttributeHandler struct {
	attrs    *service.AttributeService
	validate *validation.Validator
}

// NewAttributeHandler creates a new AttributeHandler.
func NewAttributeHandler(attrs *service.AttributeService) *AttributeHandler {
	return &AttributeHandler{attrs: attrs, validate: validation.New()}
}

// HandleList returns the user's attributes ordered by name descending.
// GET /recipe/tags?assigned_only=1
func (h *AttributeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	assignedOnly, err := parseFlag(r, "assigned_only")
	if err != nil {
		writeServiceError(w, "parse assigned_only", err)
		return
	}

	attrs, err := h.attrs.List(r.Context(), user.ID, assignedOnly)
	if err != nil {
		writeServiceError(w, "list "+string(h.attrs.Kind())+"s", err)
		return
	}

	writeJSON(w, http.StatusOK, toAttributeDTOs(attrs))
}

// HandleCreate adds an attribute owned by the user.
// POST /recipe/tags
// Request:  {"name":"..."}
// Response: 201 {"id":1,"name":"..."}
func (h *AttributeHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	var req attributeRequest
	if err := readJSON(r, &req); err != nil {
		writeServiceError(w, "decode "+string(h.attrs.Kind()), err)
		return
	}
	if err := h.validate.Validate(req); err != nil {
		writeServiceError(w, "validate "+string(h.attrs.Kind()), err)
		return
	}

	attr, err := h.attrs.Create(r.Context(), user.ID, req.Name)
	if err != nil {
		writeServiceError(w, "create "+string(h.attrs.Kind()), err)
		return
	}

	writeJSON(w, http.StatusCreated, toAttributeDTO(*attr))
}

// HandleDelete removes one of the user's attributes and its recipe links.
// DELETE /recipe/tags/{id}
func (h *AttributeHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, "parse id", err)
		return
	}

	if err := h.attrs.Delete(r.Context(), user.ID, id); err != nil {
		writeServiceError(w, "delete "+string(h.attrs.Kind()), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// pathID parses the {id} URL parameter. Non-numeric IDs cannot match any
// record, so they report not found.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrNotFound
	}
	return id, nil
}

// parseFlag reads a boolean query parameter such as ?assigned_only=1.
// A missing parameter is false.
func parseFlag(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, domain.NewValidationError(name, "must be 0 or 1")
	}
	return v, nil
}
