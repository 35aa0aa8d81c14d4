package domain

import (
	"context"
	"time"
)

// AttributeKind distinguishes the label categories a recipe can carry.
type AttributeKind string

const (
	KindTag        AttributeKind = "tag"
	KindIngredient AttributeKind = "ingredient"
)

// Attribute is a user-owned named label: a tag or an ingredient.
type Attribute struct {
	ID        int64
	UserID    int64
	Kind      AttributeKind
	Name      string
	CreatedAt time.Time
}

// AttributeRepository handles persistence for one attribute kind.
type AttributeRepository interface {
	Kind() AttributeKind
	Create(ctx context.Context, attr *Attribute) error
	GetByID(ctx context.Context, id int64) (*Attribute, error)
	// ListByUser returns the user's attributes ordered by name descending.
	// When assignedOnly is set only attributes linked to at least one of
	// the user's recipes are returned, each once.
	ListByUser(ctx context.Context, userID int64, assignedOnly bool) ([]Attribute, error)
	// CountOwned returns how many of the distinct ids belong to userID.
	CountOwned(ctx context.Context, userID int64, ids []int64) (int, error)
	Delete(ctx context.Context, id int64) error
}
