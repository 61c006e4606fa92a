// Package services – RecipeService
//
// This file implements RecipeService, the recipe composer. It validates a
// recipe together with its tag set and ingredient lines and persists the whole
// aggregate atomically: on create the recipe row and both child sets are
// written in one transaction; on update the scalar fields are replaced and
// both child sets are discarded and rewritten in one transaction, so a failed
// update never leaves a mix of old and new lines.
//
// Observability: public methods are OpenTelemetry-instrumented.
package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/foodgram-backend/internal/domain"
	"github.com/tbourn/foodgram-backend/internal/repo"
)

const (
	minCookingTime = 1
	maxCookingTime = 200
	maxNameRunes   = 200

	// maxAmount matches the storage check on recipe_ingredients.amount.
	maxAmount = math.MaxInt32
)

// IngredientAmount is one requested ingredient line.
type IngredientAmount struct {
	IngredientID string
	Amount       int
}

// RecipeInput carries every user-editable field of a recipe.
type RecipeInput struct {
	Name        string
	Text        string
	Image       string
	CookingTime int
	TagIDs      []string
	Ingredients []IngredientAmount
}

// RecipeView is a recipe as seen by a particular viewer.
type RecipeView struct {
	Recipe         domain.Recipe
	IsFavorited    bool
	IsInCart       bool
	AuthorFollowed bool
}

// RecipeService implements recipe authoring and reading.
type RecipeService struct {
	DB *gorm.DB
	// PageSize is used when List is called with a non-positive size.
	PageSize int
}

// NewRecipeService constructs a RecipeService with the default page size.
func NewRecipeService(db *gorm.DB) *RecipeService {
	return &RecipeService{DB: db, PageSize: 6}
}

// Validate checks the structural rules of a recipe input without touching
// storage. Every fault is reported; the first one detected comes first.
func (in RecipeInput) Validate() error {
	var c collector

	if len(in.TagIDs) == 0 {
		c.add(ErrTagsEmpty)
	} else {
		seen := make(map[string]struct{}, len(in.TagIDs))
		for _, id := range in.TagIDs {
			if _, dup := seen[id]; dup {
				c.add(ErrTagsDuplicate)
			}
			seen[id] = struct{}{}
		}
	}

	if len(in.Ingredients) == 0 {
		c.add(ErrIngredientsEmpty)
	} else {
		seen := make(map[string]struct{}, len(in.Ingredients))
		for _, l := range in.Ingredients {
			if _, dup := seen[l.IngredientID]; dup {
				c.add(ErrIngredientsDuplicate)
			}
			seen[l.IngredientID] = struct{}{}
			if l.Amount <= 0 || l.Amount > maxAmount {
				c.add(ErrIngredientsAmount)
			}
		}
	}

	if in.CookingTime < minCookingTime || in.CookingTime > maxCookingTime {
		c.add(ErrCookingTimeRange)
	}

	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		c.add(ErrNameRequired)
	case utf8.RuneCountInString(name) > maxNameRunes:
		c.add(ErrNameTooLong)
	}
	if strings.TrimSpace(in.Text) == "" {
		c.add(ErrTextRequired)
	}

	return c.err()
}

// Create validates in and persists a new recipe authored by authorID. The
// returned recipe has its author, tags and lines loaded.
func (s *RecipeService) Create(ctx context.Context, authorID string, in RecipeInput) (*domain.Recipe, error) {
	ctx, span := otel.Tracer("services/RecipeService").Start(ctx, "Create",
		trace.WithAttributes(
			attribute.String("user.id", authorID),
			attribute.Int("recipe.tags", len(in.TagIDs)),
			attribute.Int("recipe.ingredients", len(in.Ingredients)),
		),
	)
	defer span.End()

	if err := in.Validate(); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}

	r := &domain.Recipe{
		AuthorID:    authorID,
		Name:        strings.TrimSpace(in.Name),
		Text:        strings.TrimSpace(in.Text),
		Image:       in.Image,
		CookingTime: in.CookingTime,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkReferences(ctx, tx, in); err != nil {
			return err
		}
		if err := repo.CreateRecipe(ctx, tx, r); err != nil {
			return err
		}
		return writeChildren(ctx, tx, r.ID, in)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("recipe.id", r.ID))
	return repo.GetRecipe(ctx, s.DB, r.ID)
}

// Update validates in and replaces every field, the tag set and the line set
// of recipeID. Only the author may update a recipe.
func (s *RecipeService) Update(ctx context.Context, userID, recipeID string, in RecipeInput) (*domain.Recipe, error) {
	ctx, span := otel.Tracer("services/RecipeService").Start(ctx, "Update",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("recipe.id", recipeID),
		),
	)
	defer span.End()

	if err := in.Validate(); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.authorize(ctx, tx, userID, recipeID); err != nil {
			return err
		}
		if err := checkReferences(ctx, tx, in); err != nil {
			return err
		}
		fields := map[string]any{
			"name":         strings.TrimSpace(in.Name),
			"text":         strings.TrimSpace(in.Text),
			"image":        in.Image,
			"cooking_time": in.CookingTime,
		}
		if err := repo.UpdateRecipeFields(ctx, tx, recipeID, fields); err != nil {
			return err
		}
		return writeChildren(ctx, tx, recipeID, in)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return repo.GetRecipe(ctx, s.DB, recipeID)
}

// Delete removes a recipe owned by userID.
func (s *RecipeService) Delete(ctx context.Context, userID, recipeID string) error {
	ctx, span := otel.Tracer("services/RecipeService").Start(ctx, "Delete",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("recipe.id", recipeID),
		),
	)
	defer span.End()

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.authorize(ctx, tx, userID, recipeID); err != nil {
			return err
		}
		return repo.DeleteRecipe(ctx, tx, recipeID)
	})
}

// Get returns one recipe decorated for viewerID (may be empty).
func (s *RecipeService) Get(ctx context.Context, viewerID, recipeID string) (*RecipeView, error) {
	ctx, span := otel.Tracer("services/RecipeService").Start(ctx, "Get",
		trace.WithAttributes(attribute.String("recipe.id", recipeID)),
	)
	defer span.End()

	r, err := repo.GetRecipe(ctx, s.DB, recipeID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	views, err := s.Decorate(ctx, viewerID, *r)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// List returns a page of recipes matching f, newest first, decorated for
// viewerID, together with the total number of matches.
func (s *RecipeService) List(ctx context.Context, viewerID string, f repo.RecipeFilter, page, pageSize int) ([]RecipeView, int64, error) {
	ctx, span := otel.Tracer("services/RecipeService").Start(ctx, "List",
		trace.WithAttributes(
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = s.PageSize
		if pageSize <= 0 {
			pageSize = 6
		}
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountRecipes(ctx, s.DB, f)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []RecipeView{}, 0, nil
	}

	items, err := repo.ListRecipesPage(ctx, s.DB, f, offset, pageSize)
	if err != nil {
		return nil, 0, err
	}
	views, err := s.Decorate(ctx, viewerID, items...)
	return views, total, err
}

// Stats returns the aggregate metadata a listing for viewerID depends on.
func (s *RecipeService) Stats(ctx context.Context, viewerID string) (repo.RecipeListStats, error) {
	return repo.RecipesStats(ctx, s.DB, viewerID)
}

// Decorate attaches viewer-specific flags to recipes using one query per
// relation.
func (s *RecipeService) Decorate(ctx context.Context, viewerID string, recipes ...domain.Recipe) ([]RecipeView, error) {
	out := make([]RecipeView, len(recipes))
	if len(recipes) == 0 {
		return out, nil
	}
	recipeIDs := make([]string, len(recipes))
	authorIDs := make([]string, 0, len(recipes))
	for i, r := range recipes {
		recipeIDs[i] = r.ID
		authorIDs = append(authorIDs, r.AuthorID)
	}

	fav, err := repo.Favorites.TargetsAmong(ctx, s.DB, viewerID, recipeIDs)
	if err != nil {
		return nil, err
	}
	cart, err := repo.Cart.TargetsAmong(ctx, s.DB, viewerID, recipeIDs)
	if err != nil {
		return nil, err
	}
	follows, err := repo.Follows.TargetsAmong(ctx, s.DB, viewerID, authorIDs)
	if err != nil {
		return nil, err
	}

	for i, r := range recipes {
		out[i] = RecipeView{
			Recipe:         r,
			IsFavorited:    fav[r.ID],
			IsInCart:       cart[r.ID],
			AuthorFollowed: follows[r.AuthorID],
		}
	}
	return out, nil
}

func (s *RecipeService) authorize(ctx context.Context, tx *gorm.DB, userID, recipeID string) error {
	row, err := repo.GetRecipeRow(ctx, tx, recipeID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrRecipeNotFound
		}
		return err
	}
	if row.AuthorID != userID {
		return ErrForbidden
	}
	return nil
}

// checkReferences verifies that every tag and ingredient id exists.
func checkReferences(ctx context.Context, tx *gorm.DB, in RecipeInput) error {
	var c collector

	tags, err := repo.ExistingIDs(ctx, tx, &domain.Tag{}, in.TagIDs)
	if err != nil {
		return err
	}
	for _, id := range in.TagIDs {
		if _, ok := tags[id]; !ok {
			c.add(ErrTagsUnknown)
			break
		}
	}

	ids := make([]string, len(in.Ingredients))
	for i, l := range in.Ingredients {
		ids[i] = l.IngredientID
	}
	ings, err := repo.ExistingIDs(ctx, tx, &domain.Ingredient{}, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := ings[id]; !ok {
			c.add(ErrIngredientsUnknown)
			break
		}
	}
	return c.err()
}

func writeChildren(ctx context.Context, tx *gorm.DB, recipeID string, in RecipeInput) error {
	if err := repo.ReplaceRecipeTags(ctx, tx, recipeID, in.TagIDs); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return ValidationErrors{ErrTagsDuplicate}
		}
		return err
	}
	lines := make([]domain.RecipeIngredient, len(in.Ingredients))
	for i, l := range in.Ingredients {
		lines[i] = domain.RecipeIngredient{IngredientID: l.IngredientID, Amount: l.Amount}
	}
	if err := repo.ReplaceRecipeIngredients(ctx, tx, recipeID, lines); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return ValidationErrors{ErrIngredientsDuplicate}
		}
		return err
	}
	return nil
}
