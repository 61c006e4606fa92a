package repo

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/foodgram-backend/internal/domain"
)

// newTestDB opens a unique in-memory database per test. With migrate=true the
// full schema is created.
func newTestDB(t *testing.T, migrate bool) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := withPragmas(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
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
	if migrate {
		if err := AutoMigrate(db); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func mkUser(t *testing.T, db *gorm.DB, username string) *domain.User {
	t.Helper()
	u := &domain.User{
		Email: username + "@example.com", Username: username,
		FirstName: "F", LastName: "L", PasswordHash: "x",
	}
	if err := CreateUser(context.Background(), db, u); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func mkIngredient(t *testing.T, db *gorm.DB, name, unit string) *domain.Ingredient {
	t.Helper()
	i := &domain.Ingredient{ID: "ing-" + name, Name: name, MeasurementUnit: unit}
	if err := db.Create(i).Error; err != nil {
		t.Fatalf("create ingredient %s: %v", name, err)
	}
	return i
}

func mkTag(t *testing.T, db *gorm.DB, slug string) *domain.Tag {
	t.Helper()
	tag := &domain.Tag{ID: "tag-" + slug, Name: strings.ToUpper(slug), Color: "#00FF00", Slug: slug}
	if err := db.Create(tag).Error; err != nil {
		t.Fatalf("create tag %s: %v", slug, err)
	}
	return tag
}

type lineSpec struct {
	ingredientID string
	amount       int
}

// mkRecipe writes a recipe with its tags and lines. created fixes CreatedAt so
// ordering is deterministic.
func mkRecipe(t *testing.T, db *gorm.DB, authorID, name string, created time.Time, tagIDs []string, lines ...lineSpec) *domain.Recipe {
	t.Helper()
	ctx := context.Background()
	r := &domain.Recipe{AuthorID: authorID, Name: name, Text: "text", CookingTime: 10}
	if err := CreateRecipe(ctx, db, r); err != nil {
		t.Fatalf("create recipe %s: %v", name, err)
	}
	if !created.IsZero() {
		if err := db.Model(&domain.Recipe{}).Where("id = ?", r.ID).
			Updates(map[string]any{"created_at": created, "updated_at": created}).Error; err != nil {
			t.Fatalf("set created_at: %v", err)
		}
	}
	if err := ReplaceRecipeTags(ctx, db, r.ID, tagIDs); err != nil {
		t.Fatalf("tags: %v", err)
	}
	rows := make([]domain.RecipeIngredient, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, domain.RecipeIngredient{IngredientID: l.ingredientID, Amount: l.amount})
	}
	if err := ReplaceRecipeIngredients(ctx, db, r.ID, rows); err != nil {
		t.Fatalf("lines: %v", err)
	}
	return r
}
