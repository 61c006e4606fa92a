package repo

import (
	"context"
	"testing"
	"time"
)

func TestRecipesStats_Empty(t *testing.T) {
	db := newTestDB(t, true)

	st, err := RecipesStats(context.Background(), db, "")
	if err != nil {
		t.Fatalf("RecipesStats: %v", err)
	}
	if st.Recipes.Count != 0 || st.Recipes.Latest != nil {
		t.Fatalf("expected zero stats, got %+v", st.Recipes)
	}
}

func TestRecipesStats_CountsAndLatest(t *testing.T) {
	db := newTestDB(t, true)
	ctx := context.Background()

	author := mkUser(t, db, "author")
	viewer := mkUser(t, db, "viewer")
	salt := mkIngredient(t, db, "Salt", "g")
	tag := mkTag(t, db, "lunch")

	t1 := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	mkRecipe(t, db, author.ID, "a", t1, []string{tag.ID}, lineSpec{salt.ID, 1})
	r2 := mkRecipe(t, db, author.ID, "b", t2, []string{tag.ID}, lineSpec{salt.ID, 1})

	st, err := RecipesStats(ctx, db, viewer.ID)
	if err != nil {
		t.Fatalf("RecipesStats: %v", err)
	}
	if st.Recipes.Count != 2 || st.Recipes.Latest == nil || !st.Recipes.Latest.Equal(t2) {
		t.Fatalf("unexpected recipe stats: %+v", st.Recipes)
	}
	if st.Favorites.Count != 0 || st.Cart.Count != 0 {
		t.Fatalf("expected no viewer relations, got %+v", st)
	}

	if err := Favorites.Insert(ctx, db, viewer.ID, r2.ID); err != nil {
		t.Fatalf("favorite: %v", err)
	}
	st, err = RecipesStats(ctx, db, viewer.ID)
	if err != nil {
		t.Fatalf("RecipesStats: %v", err)
	}
	if st.Favorites.Count != 1 || st.Favorites.Latest == nil {
		t.Fatalf("favorite not reflected: %+v", st.Favorites)
	}

	if err := Follows.Insert(ctx, db, viewer.ID, author.ID); err != nil {
		t.Fatalf("follow: %v", err)
	}
	st, err = RecipesStats(ctx, db, viewer.ID)
	if err != nil || st.Follows.Count != 1 {
		t.Fatalf("follow not reflected: %+v err=%v", st.Follows, err)
	}
}
