// Package services – CatalogService
//
// This file implements read access to the reference catalog (tags and
// ingredients). Tag listings and ingredient searches go through the Redis
// cache when one is configured.
package services

import (
	"context"
	"errors"
	"io"

	"gorm.io/gorm"

	"github.com/tbourn/foodgram-backend/internal/cache"
	"github.com/tbourn/foodgram-backend/internal/domain"
	"github.com/tbourn/foodgram-backend/internal/repo"
)

const tagsCacheKey = "tags"

// CatalogService serves tags and ingredients.
type CatalogService struct {
	DB *gorm.DB
	// Cache may be nil (no caching).
	Cache *cache.Cache
}

// Tags lists every tag ordered by name.
func (s *CatalogService) Tags(ctx context.Context) ([]domain.Tag, error) {
	return cache.Aside(ctx, s.Cache, tagsCacheKey, func(ctx context.Context) ([]domain.Tag, error) {
		return repo.ListTags(ctx, s.DB)
	})
}

// Tag returns one tag.
func (s *CatalogService) Tag(ctx context.Context, id string) (*domain.Tag, error) {
	t, err := repo.GetTag(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrTagNotFound
	}
	return t, err
}

// Ingredients lists ingredients whose name starts with prefix, ignoring case.
func (s *CatalogService) Ingredients(ctx context.Context, prefix string) ([]domain.Ingredient, error) {
	key := "ingredients:" + domain.FoldName(prefix)
	return cache.Aside(ctx, s.Cache, key, func(ctx context.Context) ([]domain.Ingredient, error) {
		return repo.ListIngredients(ctx, s.DB, prefix)
	})
}

// Ingredient returns one ingredient.
func (s *CatalogService) Ingredient(ctx context.Context, id string) (*domain.Ingredient, error) {
	i, err := repo.GetIngredient(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrIngredientNotFound
	}
	return i, err
}

// Seed loads a catalog document and drops the cached tag list.
func (s *CatalogService) Seed(ctx context.Context, r io.Reader) (repo.SeedResult, error) {
	res, err := repo.SeedCatalog(ctx, s.DB, r)
	if err != nil {
		return res, err
	}
	if res.Tags > 0 {
		s.Cache.Invalidate(ctx, tagsCacheKey)
	}
	return res, nil
}
