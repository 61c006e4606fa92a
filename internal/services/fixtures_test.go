package services

import (
	"context"
	"fmt"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/foodgram-backend/internal/domain"
	"github.com/tbourn/foodgram-backend/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// world is a small catalog shared by most service tests.
type world struct {
	db                 *gorm.DB
	alice, bob         *domain.User
	salt, sugar, flour *domain.Ingredient
	milk, a, b, c      *domain.Ingredient
	breakfast, lunch   *domain.Tag
}

func newWorld(t *testing.T) *world {
	t.Helper()
	db := newTestDB(t)
	w := &world{db: db}
	ctx := context.Background()

	mkUser := func(name string) *domain.User {
		u := &domain.User{Email: name + "@example.com", Username: name, FirstName: "F", LastName: "L", PasswordHash: "x"}
		if err := repo.CreateUser(ctx, db, u); err != nil {
			t.Fatalf("user %s: %v", name, err)
		}
		return u
	}
	mkIng := func(name, unit string) *domain.Ingredient {
		i := &domain.Ingredient{ID: uuid.NewString(), Name: name, MeasurementUnit: unit}
		if err := db.Create(i).Error; err != nil {
			t.Fatalf("ingredient %s: %v", name, err)
		}
		return i
	}
	mkTag := func(slug string) *domain.Tag {
		tg := &domain.Tag{ID: uuid.NewString(), Name: slug, Color: "#123456", Slug: slug}
		if err := db.Create(tg).Error; err != nil {
			t.Fatalf("tag %s: %v", slug, err)
		}
		return tg
	}

	w.alice = mkUser("alice")
	w.bob = mkUser("bob")
	w.salt = mkIng("Salt", "g")
	w.sugar = mkIng("Sugar", "g")
	w.flour = mkIng("Flour", "kg")
	w.milk = mkIng("Milk", "ml")
	w.a = mkIng("A", "pcs")
	w.b = mkIng("B", "pcs")
	w.c = mkIng("C", "pcs")
	w.breakfast = mkTag("breakfast")
	w.lunch = mkTag("lunch")
	return w
}

func (w *world) input(tagIDs []string, lines ...IngredientAmount) RecipeInput {
	return RecipeInput{
		Name:        "Recipe",
		Text:        "Mix and cook.",
		Image:       "data:image/png;base64,AAAA",
		CookingTime: 15,
		TagIDs:      tagIDs,
		Ingredients: lines,
	}
}

func (w *world) mustCreate(t *testing.T, authorID string, in RecipeInput) *domain.Recipe {
	t.Helper()
	r, err := NewRecipeService(w.db).Create(context.Background(), authorID, in)
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}
	return r
}
