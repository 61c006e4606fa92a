// Package services – Toggle
//
// This file implements the membership toggles: favorites, shopping cart and
// follows. Each is a (user, target) pair with a unique index. Add pre-checks
// the pair so the usual duplicate is reported as a clean conflict; the unique
// index stays the final arbiter when two adds race past the check.
package services

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/foodgram-backend/internal/domain"
	"github.com/tbourn/foodgram-backend/internal/repo"
)

// Toggle adds and removes one kind of (user, target) pair.
type Toggle struct {
	DB *gorm.DB

	rel         repo.Relation
	targetModel any
	errTarget   error // target does not exist
	errExists   error // pair already present
	errMissing  error // pair absent
	noSelf      bool  // reject userID == targetID
}

// NewFavorites returns the favorites toggle (target: recipe).
func NewFavorites(db *gorm.DB) *Toggle {
	return &Toggle{
		DB: db, rel: repo.Favorites, targetModel: &domain.Recipe{},
		errTarget: ErrRecipeNotFound, errExists: ErrAlreadyFavorited, errMissing: ErrNotFavorited,
	}
}

// NewCart returns the shopping cart toggle (target: recipe).
func NewCart(db *gorm.DB) *Toggle {
	return &Toggle{
		DB: db, rel: repo.Cart, targetModel: &domain.Recipe{},
		errTarget: ErrRecipeNotFound, errExists: ErrAlreadyInCart, errMissing: ErrNotInCart,
	}
}

// NewFollows returns the subscription toggle (target: author).
func NewFollows(db *gorm.DB) *Toggle {
	return &Toggle{
		DB: db, rel: repo.Follows, targetModel: &domain.User{},
		errTarget: ErrUserNotFound, errExists: ErrAlreadyFollowing, errMissing: ErrNotFollowing,
		noSelf: true,
	}
}

func (t *Toggle) span(ctx context.Context, op, userID, targetID string) (context.Context, trace.Span) {
	return otel.Tracer("services/Toggle").Start(ctx, op,
		trace.WithAttributes(
			attribute.String("relation", t.rel.Name),
			attribute.String("user.id", userID),
			attribute.String("target.id", targetID),
		),
	)
}

func (t *Toggle) ensureTarget(ctx context.Context, targetID string) error {
	found, err := repo.ExistingIDs(ctx, t.DB, t.targetModel, []string{targetID})
	if err != nil {
		return err
	}
	if _, ok := found[targetID]; !ok {
		return t.errTarget
	}
	return nil
}

// Add creates the (userID, targetID) pair.
func (t *Toggle) Add(ctx context.Context, userID, targetID string) error {
	ctx, span := t.span(ctx, "Add", userID, targetID)
	defer span.End()

	if t.noSelf && userID == targetID {
		return ErrSelfFollow
	}
	if err := t.ensureTarget(ctx, targetID); err != nil {
		return err
	}
	exists, err := t.rel.Exists(ctx, t.DB, userID, targetID)
	if err != nil {
		return err
	}
	if exists {
		return t.errExists
	}
	if err := t.rel.Insert(ctx, t.DB, userID, targetID); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return t.errExists
		}
		span.RecordError(err)
		return err
	}
	return nil
}

// Remove deletes the (userID, targetID) pair. Removing an absent pair fails,
// so a second remove never silently succeeds.
func (t *Toggle) Remove(ctx context.Context, userID, targetID string) error {
	ctx, span := t.span(ctx, "Remove", userID, targetID)
	defer span.End()

	if err := t.ensureTarget(ctx, targetID); err != nil {
		return err
	}
	n, err := t.rel.Delete(ctx, t.DB, userID, targetID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if n == 0 {
		return t.errMissing
	}
	return nil
}

// Has reports whether the pair exists.
func (t *Toggle) Has(ctx context.Context, userID, targetID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	return t.rel.Exists(ctx, t.DB, userID, targetID)
}
