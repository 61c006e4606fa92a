package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/tbourn/foodgram-backend/internal/domain"
)

func TestToggles_AddConflictRemoveNotFound(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	r := w.mustCreate(t, w.alice.ID, w.input([]string{w.lunch.ID}, IngredientAmount{w.a.ID, 1}))

	cases := []struct {
		name       string
		toggle     *Toggle
		target     string
		errExists  error
		errMissing error
	}{
		{"favorites", NewFavorites(w.db), r.ID, ErrAlreadyFavorited, ErrNotFavorited},
		{"cart", NewCart(w.db), r.ID, ErrAlreadyInCart, ErrNotInCart},
		{"follows", NewFollows(w.db), w.alice.ID, ErrAlreadyFollowing, ErrNotFollowing},
	}
	for _, c := range cases {
		if err := c.toggle.Add(ctx, w.bob.ID, c.target); err != nil {
			t.Fatalf("%s add: %v", c.name, err)
		}
		if has, _ := c.toggle.Has(ctx, w.bob.ID, c.target); !has {
			t.Fatalf("%s: pair should exist", c.name)
		}
		err := c.toggle.Add(ctx, w.bob.ID, c.target)
		if !errors.Is(err, c.errExists) || !errors.Is(err, ErrConflict) {
			t.Fatalf("%s second add: expected conflict, got %v", c.name, err)
		}

		if err := c.toggle.Remove(ctx, w.bob.ID, c.target); err != nil {
			t.Fatalf("%s remove: %v", c.name, err)
		}
		err = c.toggle.Remove(ctx, w.bob.ID, c.target)
		if !errors.Is(err, c.errMissing) || !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s second remove: expected not found, got %v", c.name, err)
		}
	}
}

func TestToggles_UnknownTarget(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	if err := NewFavorites(w.db).Add(ctx, w.bob.ID, "ghost"); !errors.Is(err, ErrRecipeNotFound) {
		t.Fatalf("favorites: expected ErrRecipeNotFound, got %v", err)
	}
	if err := NewCart(w.db).Remove(ctx, w.bob.ID, "ghost"); !errors.Is(err, ErrRecipeNotFound) {
		t.Fatalf("cart: expected ErrRecipeNotFound, got %v", err)
	}
	if err := NewFollows(w.db).Add(ctx, w.bob.ID, "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("follows: expected ErrUserNotFound, got %v", err)
	}
}

func TestFollow_SelfAlwaysRejected(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	f := NewFollows(w.db)

	if err := f.Add(ctx, w.alice.ID, w.alice.ID); !errors.Is(err, ErrSelfFollow) {
		t.Fatalf("expected ErrSelfFollow, got %v", err)
	}
	// even if a self pair was somehow stored
	if err := w.db.Omit("User", "Author").Create(&domain.Follow{ID: "self", UserID: w.alice.ID, AuthorID: w.alice.ID}).Error; err != nil {
		t.Fatalf("seed self pair: %v", err)
	}
	err := f.Add(ctx, w.alice.ID, w.alice.ID)
	var ve ValidationError
	if !errors.As(err, &ve) || ve.Field != "self_follow" {
		t.Fatalf("expected self_follow validation error regardless of state, got %v", err)
	}
	// unknown user id equal to itself is still a self follow
	if err := f.Add(ctx, "ghost", "ghost"); !errors.Is(err, ErrSelfFollow) {
		t.Fatalf("expected ErrSelfFollow, got %v", err)
	}
}

func TestToggle_ConcurrentAddsOneWins(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	r := w.mustCreate(t, w.alice.ID, w.input([]string{w.lunch.ID}, IngredientAmount{w.a.ID, 1}))
	fav := NewFavorites(w.db)
	if sqlDB, err := w.db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = fav.Add(ctx, w.bob.ID, r.ID)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrAlreadyFavorited):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("exactly one add must succeed, got %d", ok)
	}
	var rows int64
	w.db.Model(&domain.Favorite{}).Where("user_id = ? AND recipe_id = ?", w.bob.ID, r.ID).Count(&rows)
	if rows != 1 {
		t.Fatalf("expected one stored pair, got %d", rows)
	}
}
