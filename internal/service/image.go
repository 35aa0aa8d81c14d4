package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	// Registered decoders define which uploads count as images.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/msomdec/recipe-api/internal/domain"
)

// RecipeImageDir is the storage namespace for recipe images.
const RecipeImageDir = "uploads/recipe"

// DefaultMaxImageSize caps a single upload at 10MB.
const DefaultMaxImageSize = 10 << 20

// RecipeImagePath builds the storage key for an upload: a fresh unique
// name that keeps the original file extension, reduced to lower-case
// letters and digits.
func RecipeImagePath(id uuid.UUID, filename string) string {
	name := id.String()
	if ext := imageExtension(filename); ext != "" {
		name += "." + ext
	}
	return path.Join(RecipeImageDir, name)
}

func imageExtension(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	return strings.Map(func(r rune) rune {
		if ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') {
			return r
		}
		return -1
	}, ext)
}

// ImageService stores recipe images and serves them back.
type ImageService struct {
	recipes *RecipeService
	files   domain.FileStore
	maxSize int
	newID   func() uuid.UUID
}

// NewImageService creates a new ImageService.
func NewImageService(recipes *RecipeService, files domain.FileStore, maxSize int) *ImageService {
	if maxSize <= 0 {
		maxSize = DefaultMaxImageSize
	}
	return &ImageService{recipes: recipes, files: files, maxSize: maxSize, newID: uuid.New}
}

// MaxSize returns the upload size limit in bytes.
func (s *ImageService) MaxSize() int {
	return s.maxSize
}

// Upload validates data as an image, stores it under a new key and points
// the user's recipe at it. Any previous image is removed.
func (s *ImageService) Upload(ctx context.Context, userID, recipeID int64, filename string, data []byte) (*domain.Recipe, error) {
	recipe, err := s.recipes.Get(ctx, userID, recipeID)
	if err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return nil, domain.NewValidationError("image", "no file was submitted")
	}
	if len(data) > s.maxSize {
		return nil, domain.NewValidationError("image", fmt.Sprintf("must not exceed %d bytes", s.maxSize))
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, domain.NewValidationError("image",
			"upload a valid image. The file you uploaded was either not an image or a corrupted image")
	}

	if imageExtension(filename) == "" {
		filename = "image." + format
	}
	key := RecipeImagePath(s.newID(), filename)

	if err := s.files.Save(ctx, key, data); err != nil {
		return nil, fmt.Errorf("save image: %w", err)
	}

	if err := s.recipes.SetImage(ctx, recipe.ID, key); err != nil {
		if delErr := s.files.Delete(ctx, key); delErr != nil {
			slog.Warn("clean up orphaned image", "key", key, "error", delErr)
		}
		return nil, fmt.Errorf("update recipe image: %w", err)
	}

	if recipe.Image != "" && recipe.Image != key {
		if err := s.files.Delete(ctx, recipe.Image); err != nil {
			slog.Warn("delete replaced image", "key", recipe.Image, "error", err)
		}
	}

	recipe.Image = key
	return recipe, nil
}

// Open returns stored image bytes and their detected content type. Only
// keys under the recipe image namespace are served.
func (s *ImageService) Open(ctx context.Context, key string) ([]byte, string, error) {
	clean := path.Clean(key)
	if !strings.HasPrefix(clean, RecipeImageDir+"/") || clean != key {
		return nil, "", domain.ErrNotFound
	}

	data, err := s.files.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.ErrNotFound
		}
		return nil, "", fmt.Errorf("get image: %w", err)
	}
	return data, http.DetectContentType(data), nil
}
