// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the user→target pair relations
// (favorites, shopping cart, follows). All three share the same shape: a row
// per (user_id, target) pair guarded by a unique index.
package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/foodgram-backend/internal/domain"
)

// Relation describes one pair table.
type Relation struct {
	// Name is a short label used in logs and metrics ("favorite", "cart", "follow").
	Name string
	// TargetColumn is the column holding the target id.
	TargetColumn string

	model  func() any
	newRow func(id, userID, targetID string) any
}

// Favorites is the user→recipe favorites relation.
var Favorites = Relation{
	Name:         "favorite",
	TargetColumn: "recipe_id",
	model:        func() any { return &domain.Favorite{} },
	newRow: func(id, userID, targetID string) any {
		return &domain.Favorite{ID: id, UserID: userID, RecipeID: targetID}
	},
}

// Cart is the user→recipe shopping cart relation.
var Cart = Relation{
	Name:         "cart",
	TargetColumn: "recipe_id",
	model:        func() any { return &domain.CartEntry{} },
	newRow: func(id, userID, targetID string) any {
		return &domain.CartEntry{ID: id, UserID: userID, RecipeID: targetID}
	},
}

// Follows is the user→author subscription relation.
var Follows = Relation{
	Name:         "follow",
	TargetColumn: "author_id",
	model:        func() any { return &domain.Follow{} },
	newRow: func(id, userID, targetID string) any {
		return &domain.Follow{ID: id, UserID: userID, AuthorID: targetID}
	},
}

func (r Relation) pair(db *gorm.DB, userID, targetID string) *gorm.DB {
	return db.Where("user_id = ? AND "+r.TargetColumn+" = ?", userID, targetID)
}

// Exists reports whether the (userID, targetID) pair is present.
func (r Relation) Exists(ctx context.Context, db *gorm.DB, userID, targetID string) (bool, error) {
	var n int64
	err := r.pair(db.WithContext(ctx).Model(r.model()), userID, targetID).Count(&n).Error
	return n > 0, err
}

// Insert adds the pair. A concurrent insert of the same pair surfaces as
// ErrDuplicate through the unique index.
func (r Relation) Insert(ctx context.Context, db *gorm.DB, userID, targetID string) error {
	row := r.newRow(uuid.NewString(), userID, targetID)
	if err := db.WithContext(ctx).Omit(clause.Associations).Create(row).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// Delete removes the pair and returns the number of rows deleted.
func (r Relation) Delete(ctx context.Context, db *gorm.DB, userID, targetID string) (int64, error) {
	res := r.pair(db.WithContext(ctx), userID, targetID).Delete(r.model())
	return res.RowsAffected, res.Error
}

// TargetsAmong returns which of targetIDs are paired with userID.
func (r Relation) TargetsAmong(ctx context.Context, db *gorm.DB, userID string, targetIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(targetIDs))
	if userID == "" || len(targetIDs) == 0 {
		return out, nil
	}
	var found []string
	err := db.WithContext(ctx).
		Model(r.model()).
		Where("user_id = ? AND "+r.TargetColumn+" IN ?", userID, targetIDs).
		Pluck(r.TargetColumn, &found).Error
	if err != nil {
		return nil, err
	}
	for _, id := range found {
		out[id] = true
	}
	return out, nil
}
