package domain

import (
	"testing"

	"gorm.io/gorm"
)

func migrateAll(t *testing.T) *gorm.DB {
	t.Helper()
	db := newTestDB(t)
	if err := db.SetupJoinTable(&Recipe{}, "Tags", &RecipeTag{}); err != nil {
		t.Fatalf("setup join table: %v", err)
	}
	if err := db.AutoMigrate(
		&User{}, &Ingredient{}, &Tag{}, &Recipe{}, &RecipeTag{},
		&RecipeIngredient{}, &Favorite{}, &CartEntry{}, &Follow{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestTableNames(t *testing.T) {
	cases := map[string]string{
		User{}.TableName():             "users",
		Ingredient{}.TableName():       "ingredients",
		Tag{}.TableName():              "tags",
		Recipe{}.TableName():           "recipes",
		RecipeTag{}.TableName():        "recipe_tags",
		RecipeIngredient{}.TableName(): "recipe_ingredients",
		Favorite{}.TableName():         "favorites",
		CartEntry{}.TableName():        "cart_entries",
		Follow{}.TableName():           "follows",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("table name: got %q want %q", got, want)
		}
	}
}

func TestFoldName(t *testing.T) {
	if got := FoldName("  Соль "); got != FoldName("соль") {
		t.Fatalf("FoldName should fold Cyrillic case: %q", got)
	}
	if got := FoldName("Flour"); got != "flour" {
		t.Fatalf("FoldName(Flour) = %q", got)
	}
}

func TestIngredient_BeforeSave_SetsSearchName(t *testing.T) {
	tdb := migrateAll(t)

	ing := &Ingredient{ID: "i1", Name: "Сахар", MeasurementUnit: "г"}
	if err := tdb.Create(ing).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	var got Ingredient
	if err := tdb.First(&got, "id = ?", "i1").Error; err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.SearchName != FoldName("сахар") {
		t.Fatalf("SearchName = %q", got.SearchName)
	}
}

func TestRecipe_Constraints(t *testing.T) {
	tdb := migrateAll(t)

	u := &User{ID: "u1", Email: "a@b.c", Username: "a", FirstName: "A", LastName: "B", PasswordHash: "x"}
	if err := tdb.Create(u).Error; err != nil {
		t.Fatalf("user: %v", err)
	}
	ing := &Ingredient{ID: "i1", Name: "Salt", MeasurementUnit: "g"}
	if err := tdb.Create(ing).Error; err != nil {
		t.Fatalf("ingredient: %v", err)
	}

	// cooking_time outside [1,200] is rejected by the CHECK constraint
	for _, ct := range []int{0, 201} {
		r := &Recipe{ID: "bad", AuthorID: "u1", Name: "n", Text: "t", CookingTime: ct}
		if err := tdb.Omit("Author", "Tags", "Ingredients").Create(r).Error; err == nil {
			t.Fatalf("expected check violation for cooking_time=%d", ct)
		}
	}

	r := &Recipe{ID: "r1", AuthorID: "u1", Name: "n", Text: "t", CookingTime: 10}
	if err := tdb.Omit("Author", "Tags", "Ingredients").Create(r).Error; err != nil {
		t.Fatalf("recipe: %v", err)
	}

	// amount must be positive
	bad := &RecipeIngredient{ID: "l0", RecipeID: "r1", IngredientID: "i1", Amount: 0}
	if err := tdb.Omit("Ingredient").Create(bad).Error; err == nil {
		t.Fatalf("expected check violation for amount=0")
	}

	line := &RecipeIngredient{ID: "l1", RecipeID: "r1", IngredientID: "i1", Amount: 5}
	if err := tdb.Omit("Ingredient").Create(line).Error; err != nil {
		t.Fatalf("line: %v", err)
	}
	// (recipe, ingredient) unique
	dup := &RecipeIngredient{ID: "l2", RecipeID: "r1", IngredientID: "i1", Amount: 3}
	if err := tdb.Omit("Ingredient").Create(dup).Error; err == nil {
		t.Fatalf("expected unique violation on (recipe_id, ingredient_id)")
	}

	// ingredient in use cannot be deleted
	if err := tdb.Delete(&Ingredient{}, "id = ?", "i1").Error; err == nil {
		t.Fatalf("expected RESTRICT when deleting a referenced ingredient")
	}
}

func TestRelations_UniquePairs(t *testing.T) {
	tdb := migrateAll(t)

	for _, id := range []string{"u1", "u2"} {
		u := &User{ID: id, Email: id + "@x.y", Username: id, FirstName: "f", LastName: "l", PasswordHash: "x"}
		if err := tdb.Create(u).Error; err != nil {
			t.Fatalf("user: %v", err)
		}
	}
	r := &Recipe{ID: "r1", AuthorID: "u1", Name: "n", Text: "t", CookingTime: 5}
	if err := tdb.Omit("Author", "Tags", "Ingredients").Create(r).Error; err != nil {
		t.Fatalf("recipe: %v", err)
	}

	if err := tdb.Omit("User", "Recipe").Create(&Favorite{ID: "f1", UserID: "u2", RecipeID: "r1"}).Error; err != nil {
		t.Fatalf("favorite: %v", err)
	}
	if err := tdb.Omit("User", "Recipe").Create(&Favorite{ID: "f2", UserID: "u2", RecipeID: "r1"}).Error; err == nil {
		t.Fatalf("expected unique violation on favorites")
	}

	if err := tdb.Omit("User", "Recipe").Create(&CartEntry{ID: "c1", UserID: "u2", RecipeID: "r1"}).Error; err != nil {
		t.Fatalf("cart: %v", err)
	}
	if err := tdb.Omit("User", "Recipe").Create(&CartEntry{ID: "c2", UserID: "u2", RecipeID: "r1"}).Error; err == nil {
		t.Fatalf("expected unique violation on cart_entries")
	}

	if err := tdb.Omit("User", "Author").Create(&Follow{ID: "fo1", UserID: "u2", AuthorID: "u1"}).Error; err != nil {
		t.Fatalf("follow: %v", err)
	}
	if err := tdb.Omit("User", "Author").Create(&Follow{ID: "fo2", UserID: "u2", AuthorID: "u1"}).Error; err == nil {
		t.Fatalf("expected unique violation on follows")
	}
}
