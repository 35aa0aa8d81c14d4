package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/msomdec/recipe-api/internal/domain"
)

// attributeTable describes where one attribute kind is stored and how
// recipes link to it.
type attributeTable struct {
	kind       domain.AttributeKind
	table      string
	linkTable  string
	linkColumn string
}

var (
	tagTable = attributeTable{
		kind:       domain.KindTag,
		table:      "tags",
		linkTable:  "recipe_tags",
		linkColumn: "tag_id",
	}
	ingredientTable = attributeTable{
		kind:       domain.KindIngredient,
		table:      "ingredients",
		linkTable:  "recipe_ingredients",
		linkColumn: "ingredient_id",
	}
)

// attributeRepo implements domain.AttributeRepository for a single kind.
type attributeRepo struct {
	db *sql.DB
	t  attributeTable
}

func newAttributeRepo(db *sql.DB, t attributeTable) *attributeRepo {
	return &attributeRepo{db: db, t: t}
}

func (r *attributeRepo) Kind() domain.AttributeKind {
	return r.t.kind
}

func (r *attributeRepo) Create(ctx context.Context, attr *domain.Attribute) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO `+r.t.table+` (user_id, name, created_at) VALUES (?, ?, ?)`,
		attr.UserID, attr.Name, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrDuplicateName
		}
		return fmt.Errorf("insert %s: %w", r.t.kind, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	attr.ID = id
	attr.Kind = r.t.kind
	attr.CreatedAt = now
	return nil
}

func (r *attributeRepo) GetByID(ctx context.Context, id int64) (*domain.Attribute, error) {
	a := &domain.Attribute{Kind: r.t.kind}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, created_at FROM `+r.t.table+` WHERE id = ?`, id,
	).Scan(&a.ID, &a.UserID, &a.Name, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get %s by id: %w", r.t.kind, err)
	}
	return a, nil
}

func (r *attributeRepo) ListByUser(ctx context.Context, userID int64, assignedOnly bool) ([]domain.Attribute, error) {
	query := `SELECT a.id, a.user_id, a.name, a.created_at FROM ` + r.t.table + ` a WHERE a.user_id = ?`
	args := []any{userID}
	if assignedOnly {
		query += ` AND EXISTS (
			SELECT 1 FROM ` + r.t.linkTable + ` l
			JOIN recipes rc ON rc.id = l.recipe_id
			WHERE l.` + r.t.linkColumn + ` = a.id AND rc.user_id = ?)`
		args = append(args, userID)
	}
	query += ` ORDER BY a.name DESC, a.id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.t.table, err)
	}
	defer rows.Close()
	return scanAttributes(rows, r.t.kind)
}

func (r *attributeRepo) CountOwned(ctx context.Context, userID int64, ids []int64) (int, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}

	args := append([]any{userID}, int64Args(ids)...)
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM `+r.t.table+` WHERE user_id = ? AND id IN (`+placeholders(len(ids))+`)`,
		args...,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count owned %s: %w", r.t.table, err)
	}
	return count, nil
}

func (r *attributeRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM `+r.t.table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.t.kind, err)
	}
	return expectAffected(result)
}

// linkedTo loads the attributes linked to each of the given recipes, keyed
// by recipe ID and ordered by attribute ID.
func (t attributeTable) linkedTo(ctx context.Context, q querier, recipeIDs []int64) (map[int64][]domain.Attribute, error) {
	out := make(map[int64][]domain.Attribute)
	if len(recipeIDs) == 0 {
		return out, nil
	}

	rows, err := q.QueryContext(ctx,
		`SELECT l.recipe_id, a.id, a.user_id, a.name, a.created_at
		 FROM `+t.linkTable+` l JOIN `+t.table+` a ON a.id = l.`+t.linkColumn+`
		 WHERE l.recipe_id IN (`+placeholders(len(recipeIDs))+`)
		 ORDER BY l.recipe_id, a.id`,
		int64Args(recipeIDs)...,
	)
	if err != nil {
		return nil, fmt.Errorf("load %s links: %w", t.table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var recipeID int64
		a := domain.Attribute{Kind: t.kind}
		if err := rows.Scan(&recipeID, &a.ID, &a.UserID, &a.Name, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan %s link: %w", t.kind, err)
		}
		out[recipeID] = append(out[recipeID], a)
	}
	return out, rows.Err()
}

// replaceLinks overwrites the recipe's links for this kind.
func (t attributeTable) replaceLinks(ctx context.Context, tx *sql.Tx, recipeID int64, ids []int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM `+t.linkTable+` WHERE recipe_id = ?`, recipeID); err != nil {
		return fmt.Errorf("clear %s: %w", t.linkTable, err)
	}
	for _, id := range uniqueIDs(ids) {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO `+t.linkTable+` (recipe_id, `+t.linkColumn+`) VALUES (?, ?)`,
			recipeID, id,
		); err != nil {
			return fmt.Errorf("insert %s: %w", t.linkTable, err)
		}
	}
	return nil
}

func scanAttributes(rows *sql.Rows, kind domain.AttributeKind) ([]domain.Attribute, error) {
	attrs := []domain.Attribute{}
	for rows.Next() {
		a := domain.Attribute{Kind: kind}
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		attrs = append(attrs, a)
	}
	return attrs, rows.Err()
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func uniqueIDs(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}
