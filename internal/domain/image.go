package domain

import "context"

// FileStore abstracts raw file byte storage. Keys are slash separated
// relative paths such as "uploads/recipe/<uuid>.jpg".
type FileStore interface {
	Save(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
