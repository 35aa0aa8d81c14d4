package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/msomdec/recipe-api/internal/domain"
)

const maxAttributeNameLength = 255

// AttributeService manages one kind of user-owned recipe label.
type AttributeService struct {
	attrs domain.AttributeRepository
}

// NewAttributeService creates an AttributeService over the given repository.
func NewAttributeService(attrs domain.AttributeRepository) *AttributeService {
	return &AttributeService{attrs: attrs}
}

// Kind reports which label category the service manages.
func (s *AttributeService) Kind() domain.AttributeKind {
	return s.attrs.Kind()
}

// List returns the user's labels, name descending. With assignedOnly only
// labels used by at least one of the user's recipes are returned.
func (s *AttributeService) List(ctx context.Context, userID int64, assignedOnly bool) ([]domain.Attribute, error) {
	return s.attrs.ListByUser(ctx, userID, assignedOnly)
}

// Create adds a label owned by userID.
func (s *AttributeService) Create(ctx context.Context, userID int64, name string) (*domain.Attribute, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("name", "may not be blank")
	}
	if utf8.RuneCountInString(name) > maxAttributeNameLength {
		return nil, domain.NewValidationError("name",
			fmt.Sprintf("must not exceed %d characters", maxAttributeNameLength))
	}

	attr := &domain.Attribute{UserID: userID, Name: name}
	if err := s.attrs.Create(ctx, attr); err != nil {
		if errors.Is(err, domain.ErrDuplicateName) {
			return nil, fmt.Errorf("%w: %s %q already exists", domain.ErrDuplicateName, s.attrs.Kind(), name)
		}
		return nil, fmt.Errorf("create %s: %w", s.attrs.Kind(), err)
	}
	return attr, nil
}

// Delete removes a label owned by userID. Recipes keep existing and lose
// the link. Labels owned by someone else are reported as not found.
func (s *AttributeService) Delete(ctx context.Context, userID, id int64) error {
	attr, err := s.attrs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if attr.UserID != userID {
		return domain.ErrNotFound
	}
	return s.attrs.Delete(ctx, id)
}

// checkOwned fails with a validation error on the given field unless every
// id belongs to userID.
func checkOwned(ctx context.Context, attrs domain.AttributeRepository, field string, userID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	want := len(uniqueInt64s(ids))
	got, err := attrs.CountOwned(ctx, userID, ids)
	if err != nil {
		return fmt.Errorf("check %s ownership: %w", field, err)
	}
	if got != want {
		return domain.NewValidationError(field, "contains an invalid or unknown id")
	}
	return nil
}

func uniqueInt64s(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
