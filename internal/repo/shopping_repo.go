// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file resolves the ingredient lines that feed a user's
// shopping list.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/foodgram-backend/internal/shopping"
)

// CartLines returns the ingredient lines of every recipe in userID's cart.
// Rows are ordered by cart entry creation, then by line position, so the
// first occurrence of an ingredient name is deterministic.
func CartLines(ctx context.Context, db *gorm.DB, userID string) ([]shopping.Line, error) {
	var out []shopping.Line
	err := db.WithContext(ctx).
		Table("cart_entries AS c").
		Select("i.name AS name, i.measurement_unit AS unit, ri.amount AS amount").
		Joins("JOIN recipe_ingredients ri ON ri.recipe_id = c.recipe_id").
		Joins("JOIN ingredients i ON i.id = ri.ingredient_id").
		Where("c.user_id = ?", userID).
		Order("c.created_at ASC, c.id ASC, ri.position ASC").
		Scan(&out).Error
	return out, err
}
