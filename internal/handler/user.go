package handler

import (
	"net/http"

	"github.com/msomdec/recipe-api/internal/service"
	"github.com/msomdec/recipe-api/internal/validation"
)

// UserHandler handles account creation, token issuance and the profile
// of the authenticated user.
type UserHandler struct {
	auth     *service.AuthService
	validate *validation.Validator
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(auth *service.AuthService) *UserHandler {
	return &UserHandler{auth: auth, validate: validation.New()}
}

// HandleCreate registers a new account.
// POST /user/create
// Request:  {"email":"...","password":"...","name":"..."}
// Response: 201 {"email":"...","name":"..."}
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := readJSON(r, &req); err != nil {
		writeServiceError(w, "decode create user", err)
		return
	}
	if err := h.validate.Validate(req); err != nil {
		writeServiceError(w, "validate create user", err)
		return
	}

	user, err := h.auth.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeServiceError(w, "register user", err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserDTO(user))
}

// HandleToken exchanges credentials for a bearer token.
// POST /user/token
// Request:  {"email":"...","password":"..."}
// Response: {"token":"..."}
func (h *UserHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := readJSON(r, &req); err != nil {
		writeServiceError(w, "decode token request", err)
		return
	}

	token, err := h.auth.IssueToken(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, "issue token", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// HandleMe returns the authenticated user's profile.
// GET /user/me
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toUserDTO(UserFromContext(r.Context())))
}

// HandleUpdateMe changes the authenticated user's name or password.
// PATCH /user/me
// Request:  {"name":"...","password":"..."}
func (h *UserHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	var req updateProfileRequest
	if err := readJSON(r, &req); err != nil {
		writeServiceError(w, "decode profile update", err)
		return
	}
	if err := h.validate.Validate(req); err != nil {
		writeServiceError(w, "validate profile update", err)
		return
	}

	updated, err := h.auth.UpdateProfile(r.Context(), user.ID, service.ProfileUpdate{
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, "update profile", err)
		return
	}

	writeJSON(w, http.StatusOK, toUserDTO(updated))
}
