package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/msomdec/recipe-api/internal/domain"
	"github.com/msomdec/recipe-api/internal/service"
)

// multipartOverhead is allowed on top of the image size for form framing.
const multipartOverhead = 1 << 20

// ImageHandler handles recipe image upload and media serving.
type ImageHandler struct {
	images   *service.ImageService
	mediaURL string
}

// NewImageHandler creates a new ImageHandler.
func NewImageHandler(images *service.ImageService, mediaURL string) *ImageHandler {
	return &ImageHandler{images: images, mediaURL: mediaURL}
}

// HandleUpload stores a multipart "image" file for the user's recipe.
// POST /recipe/recipes/{id}/upload-image
// Response: {"id":1,"image":"/media/uploads/recipe/<uuid>.jpg"}
func (h *ImageHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, "parse id", err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, int64(h.images.MaxSize())+multipartOverhead)
	if err := r.ParseMultipartForm(int64(h.images.MaxSize())); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeServiceError(w, "parse upload", domain.NewValidationError("image",
				fmt.Sprintf("must not exceed %d bytes", h.images.MaxSize())))
			return
		}
		writeServiceError(w, "parse upload", domain.NewValidationError("image", "must be sent as multipart form data"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		writeServiceError(w, "read upload", domain.NewValidationError("image",
			"the submitted data was not a file. Check the encoding type on the form"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeServiceError(w, "read upload", fmt.Errorf("read image: %w", err))
		return
	}

	recipe, err := h.images.Upload(r.Context(), user.ID, id, header.Filename, data)
	if err != nil {
		writeServiceError(w, "upload image", err)
		return
	}

	writeJSON(w, http.StatusOK, RecipeImageDTO{ID: recipe.ID, Image: imageURL(h.mediaURL, recipe.Image)})
}

// HandleServe writes stored image bytes. Media is public, as image
// references are meant to be embedded by clients.
// GET /media/*
func (h *ImageHandler) HandleServe(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := h.images.Open(r.Context(), chi.URLParam(r, "*"))
	if err != nil {
		writeServiceError(w, "serve image", err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
