// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides read access to the reference catalog:
// tags and ingredients.
package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/foodgram-backend/internal/domain"
)

// ListTags returns all tags ordered by name.
func ListTags(ctx context.Context, db *gorm.DB) ([]domain.Tag, error) {
	var out []domain.Tag
	err := db.WithContext(ctx).Order("name ASC").Find(&out).Error
	return out, err
}

// GetTag fetches a tag by id.
func GetTag(ctx context.Context, db *gorm.DB, id string) (*domain.Tag, error) {
	var t domain.Tag
	if err := db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// ListIngredients returns ingredients whose name starts with prefix
// (case-insensitive, Unicode-folded), ordered by name. An empty prefix lists
// everything.
func ListIngredients(ctx context.Context, db *gorm.DB, prefix string) ([]domain.Ingredient, error) {
	var out []domain.Ingredient
	q := db.WithContext(ctx).Order("name ASC")
	if p := domain.FoldName(prefix); p != "" {
		q = q.Where(`search_name LIKE ? ESCAPE '\'`, escapeLike(p)+"%")
	}
	err := q.Find(&out).Error
	return out, err
}

// GetIngredient fetches an ingredient by id.
func GetIngredient(ctx context.Context, db *gorm.DB, id string) (*domain.Ingredient, error) {
	var i domain.Ingredient
	if err := db.WithContext(ctx).Where("id = ?", id).First(&i).Error; err != nil {
		return nil, err
	}
	return &i, nil
}

// ExistingIDs returns the subset of ids that exist in model's table.
func ExistingIDs(ctx context.Context, db *gorm.DB, model any, ids []string) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var found []string
	if err := db.WithContext(ctx).Model(model).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, err
	}
	for _, id := range found {
		out[id] = struct{}{}
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
