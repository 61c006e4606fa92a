// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// for conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/foodgram-backend/internal/domain"
)

// TableStats is a row count plus the latest timestamp seen in a table slice.
type TableStats struct {
	Count  int64
	Latest *time.Time
}

// RecipeListStats summarizes everything a recipe listing for a viewer
// depends on: the recipes themselves and the viewer's favorites, cart and
// follows.
type RecipeListStats struct {
	Recipes   TableStats
	Favorites TableStats
	Cart      TableStats
	Follows   TableStats
}

// RecipesStats returns aggregate metadata used to derive a listing ETag.
// viewerID may be empty for anonymous listings.
func RecipesStats(ctx context.Context, db *gorm.DB, viewerID string) (RecipeListStats, error) {
	var out RecipeListStats
	var err error

	base := db.WithContext(ctx)
	if out.Recipes, err = tableStats(base.Model(&domain.Recipe{}), "updated_at"); err != nil {
		return RecipeListStats{}, err
	}
	if viewerID == "" {
		return out, nil
	}
	if out.Favorites, err = tableStats(base.Model(&domain.Favorite{}).Where("user_id = ?", viewerID), "created_at"); err != nil {
		return RecipeListStats{}, err
	}
	if out.Cart, err = tableStats(base.Model(&domain.CartEntry{}).Where("user_id = ?", viewerID), "created_at"); err != nil {
		return RecipeListStats{}, err
	}
	if out.Follows, err = tableStats(base.Model(&domain.Follow{}).Where("user_id = ?", viewerID), "created_at"); err != nil {
		return RecipeListStats{}, err
	}
	return out, nil
}

func tableStats(q *gorm.DB, column string) (TableStats, error) {
	var s TableStats
	if err := q.Session(&gorm.Session{}).Count(&s.Count).Error; err != nil {
		return TableStats{}, err
	}
	if s.Count == 0 {
		return s, nil
	}

	// Get latest timestamp (avoid MAX() -> TEXT in SQLite)
	var latest []time.Time
	err := q.Session(&gorm.Session{}).
		Order(column + " DESC").
		Limit(1).
		Pluck(column, &latest).Error
	if err != nil {
		return TableStats{}, err
	}
	if len(latest) > 0 {
		s.Latest = &latest[0]
	}
	return s, nil
}
