// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Recipe
// aggregate: the recipe row, its tag set (recipe_tags) and its ordered
// ingredient lines (recipe_ingredients).
//
// Write functions take the *gorm.DB they should run on so callers can pass a
// transaction handle and keep the whole aggregate write atomic.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/foodgram-backend/internal/domain"
)

// RecipeFilter narrows recipe listings. Zero values mean "no constraint".
type RecipeFilter struct {
	TagSlugs    []string // any-of
	AuthorID    string
	FavoritedBy string
	InCartOf    string
}

func (f RecipeFilter) apply(q *gorm.DB) *gorm.DB {
	if len(f.TagSlugs) > 0 {
		q = q.Where(`recipes.id IN (
			SELECT rt.recipe_id FROM recipe_tags rt
			JOIN tags t ON t.id = rt.tag_id
			WHERE t.slug IN ?)`, f.TagSlugs)
	}
	if f.AuthorID != "" {
		q = q.Where("recipes.author_id = ?", f.AuthorID)
	}
	if f.FavoritedBy != "" {
		q = q.Where("recipes.id IN (SELECT recipe_id FROM favorites WHERE user_id = ?)", f.FavoritedBy)
	}
	if f.InCartOf != "" {
		q = q.Where("recipes.id IN (SELECT recipe_id FROM cart_entries WHERE user_id = ?)", f.InCartOf)
	}
	return q
}

func withRecipeGraph(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name ASC") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Ingredients.Ingredient")
}

// GetRecipe loads a recipe with author, tags and ingredient lines.
func GetRecipe(ctx context.Context, db *gorm.DB, id string) (*domain.Recipe, error) {
	var r domain.Recipe
	if err := withRecipeGraph(db.WithContext(ctx)).Where("recipes.id = ?", id).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// GetRecipeRow loads only the recipe row (no associations).
func GetRecipeRow(ctx context.Context, db *gorm.DB, id string) (*domain.Recipe, error) {
	var r domain.Recipe
	if err := db.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// CountRecipes returns the number of recipes matching f.
func CountRecipes(ctx context.Context, db *gorm.DB, f RecipeFilter) (int64, error) {
	var total int64
	err := f.apply(db.WithContext(ctx).Model(&domain.Recipe{})).Count(&total).Error
	return total, err
}

// ListRecipesPage returns one page of recipes matching f, newest first, with
// the full recipe graph preloaded.
func ListRecipesPage(ctx context.Context, db *gorm.DB, f RecipeFilter, offset, limit int) ([]domain.Recipe, error) {
	var out []domain.Recipe
	q := withRecipeGraph(db.WithContext(ctx).Model(&domain.Recipe{}))
	err := f.apply(q).
		Order("recipes.created_at DESC, recipes.id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListAuthorRecipes returns up to limit recipe rows of an author, newest
// first. limit <= 0 returns all of them.
func ListAuthorRecipes(ctx context.Context, db *gorm.DB, authorID string, limit int) ([]domain.Recipe, error) {
	var out []domain.Recipe
	q := db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at DESC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// CreateRecipe inserts the recipe row only; children are written with
// ReplaceRecipeTags and ReplaceRecipeIngredients.
func CreateRecipe(ctx context.Context, db *gorm.DB, r *domain.Recipe) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	return db.WithContext(ctx).Omit(clause.Associations).Create(r).Error
}

// UpdateRecipeFields updates scalar columns of a recipe and bumps updated_at.
func UpdateRecipeFields(ctx context.Context, db *gorm.DB, id string, fields map[string]any) error {
	fields["updated_at"] = time.Now().UTC()
	res := db.WithContext(ctx).
		Model(&domain.Recipe{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceRecipeTags discards the recipe's tag set and writes tagIDs.
func ReplaceRecipeTags(ctx context.Context, db *gorm.DB, recipeID string, tagIDs []string) error {
	tx := db.WithContext(ctx)
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&domain.RecipeTag{}).Error; err != nil {
		return err
	}
	if len(tagIDs) == 0 {
		return nil
	}
	rows := make([]domain.RecipeTag, 0, len(tagIDs))
	for _, id := range tagIDs {
		rows = append(rows, domain.RecipeTag{RecipeID: recipeID, TagID: id})
	}
	if err := tx.Create(&rows).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// ReplaceRecipeIngredients discards the recipe's ingredient lines and writes
// lines in the given order. IDs and positions are assigned here.
func ReplaceRecipeIngredients(ctx context.Context, db *gorm.DB, recipeID string, lines []domain.RecipeIngredient) error {
	tx := db.WithContext(ctx)
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&domain.RecipeIngredient{}).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	rows := make([]domain.RecipeIngredient, len(lines))
	for i, l := range lines {
		rows[i] = domain.RecipeIngredient{
			ID:           uuid.NewString(),
			RecipeID:     recipeID,
			IngredientID: l.IngredientID,
			Amount:       l.Amount,
			Position:     i,
		}
	}
	if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// DeleteRecipe removes a recipe. Lines, favorites and cart entries go with it
// through ON DELETE CASCADE; the tag join rows are removed explicitly.
func DeleteRecipe(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&domain.RecipeTag{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&domain.Recipe{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
