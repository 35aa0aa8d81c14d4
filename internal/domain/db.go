package domain

import "context"

// Database is the lifecycle of a storage backend: it applies its own
// schema migrations and releases its resources on Close.
type Database interface {
	Migrate(ctx context.Context) error
	Close() error
}
