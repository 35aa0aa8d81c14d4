package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/msomdec/recipe-api/internal/domain"
)

const recipeColumns = `id, user_id, title, preparation_time, price, link, image, created_at, updated_at`

// recipeRepo implements domain.RecipeRepository using SQLite.
type recipeRepo struct {
	db *sql.DB
}

func (r *recipeRepo) Create(ctx context.Context, recipe *domain.Recipe) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO recipes (user_id, title, preparation_time, price, link, image, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		recipe.UserID, recipe.Title, recipe.PreparationTime, recipe.Price,
		recipe.Link, recipe.Image, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert recipe: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get recipe id: %w", err)
	}

	if err := writeLinks(ctx, tx, id, recipe); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	recipe.ID = id
	recipe.CreatedAt = now
	recipe.UpdatedAt = now
	return nil
}

func (r *recipeRepo) GetByID(ctx context.Context, id int64) (*domain.Recipe, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+recipeColumns+` FROM recipes WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	recipes, err := r.scanWithLinks(ctx, rows)
	if err != nil {
		return nil, err
	}
	if len(recipes) == 0 {
		return nil, domain.ErrNotFound
	}
	return &recipes[0], nil
}

func (r *recipeRepo) List(ctx context.Context, filter domain.RecipeFilter) ([]domain.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes WHERE user_id = ?`
	args := []any{filter.UserID}

	if ids := uniqueIDs(filter.TagIDs); len(ids) > 0 {
		query += ` AND id IN (SELECT recipe_id FROM recipe_tags WHERE tag_id IN (` + placeholders(len(ids)) + `))`
		args = append(args, int64Args(ids)...)
	}
	if ids := uniqueIDs(filter.IngredientIDs); len(ids) > 0 {
		query += ` AND id IN (SELECT recipe_id FROM recipe_ingredients WHERE ingredient_id IN (` + placeholders(len(ids)) + `))`
		args = append(args, int64Args(ids)...)
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return r.scanWithLinks(ctx, rows)
}

func (r *recipeRepo) Update(ctx context.Context, recipe *domain.Recipe) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx,
		`UPDATE recipes SET title = ?, preparation_time = ?, price = ?, link = ?, updated_at = ?
		 WHERE id = ?`,
		recipe.Title, recipe.PreparationTime, recipe.Price, recipe.Link, now, recipe.ID,
	)
	if err != nil {
		return fmt.Errorf("update recipe: %w", err)
	}
	if err := expectAffected(result); err != nil {
		return err
	}

	if err := writeLinks(ctx, tx, recipe.ID, recipe); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	recipe.UpdatedAt = now
	return nil
}

func (r *recipeRepo) UpdateImage(ctx context.Context, id int64, image string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE recipes SET image = ?, updated_at = ? WHERE id = ?`,
		image, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update recipe image: %w", err)
	}
	return expectAffected(result)
}

func (r *recipeRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM recipes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	return expectAffected(result)
}

func writeLinks(ctx context.Context, tx *sql.Tx, recipeID int64, recipe *domain.Recipe) error {
	if err := tagTable.replaceLinks(ctx, tx, recipeID, recipe.TagIDs); err != nil {
		return err
	}
	return ingredientTable.replaceLinks(ctx, tx, recipeID, recipe.IngredientIDs)
}

// scanWithLinks drains rows into recipes and attaches their tags and
// ingredients. rows is closed before the link queries run, since the pool
// holds a single connection.
func (r *recipeRepo) scanWithLinks(ctx context.Context, rows *sql.Rows) ([]domain.Recipe, error) {
	recipes, err := scanRecipes(rows)
	if err != nil {
		return nil, err
	}
	if len(recipes) == 0 {
		return recipes, nil
	}

	ids := make([]int64, len(recipes))
	for i, rc := range recipes {
		ids[i] = rc.ID
	}

	tags, err := tagTable.linkedTo(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	ingredients, err := ingredientTable.linkedTo(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}

	for i := range recipes {
		rc := &recipes[i]
		rc.Tags = nonNil(tags[rc.ID])
		rc.Ingredients = nonNil(ingredients[rc.ID])
		rc.TagIDs = attributeIDs(rc.Tags)
		rc.IngredientIDs = attributeIDs(rc.Ingredients)
	}
	return recipes, nil
}

func scanRecipes(rows *sql.Rows) ([]domain.Recipe, error) {
	defer rows.Close()

	recipes := []domain.Recipe{}
	for rows.Next() {
		var rc domain.Recipe
		if err := rows.Scan(&rc.ID, &rc.UserID, &rc.Title, &rc.PreparationTime, &rc.Price,
			&rc.Link, &rc.Image, &rc.CreatedAt, &rc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		recipes = append(recipes, rc)
	}
	return recipes, rows.Err()
}

func nonNil(attrs []domain.Attribute) []domain.Attribute {
	if attrs == nil {
		return []domain.Attribute{}
	}
	return attrs
}

func attributeIDs(attrs []domain.Attribute) []int64 {
	ids := make([]int64, len(attrs))
	for i, a := range attrs {
		ids[i] = a.ID
	}
	return ids
}
