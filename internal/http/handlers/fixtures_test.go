package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/foodgram-backend/internal/auth"
	"github.com/tbourn/foodgram-backend/internal/domain"
	"github.com/tbourn/foodgram-backend/internal/http/middleware"
	"github.com/tbourn/foodgram-backend/internal/repo"
	"github.com/tbourn/foodgram-backend/internal/services"
)

// ---------- test DB + full handler stack ----------

func newHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Unique DSN per call to avoid cross-test contamination
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())

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
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// env is a router backed by real services over an in-memory database.
type env struct {
	db     *gorm.DB
	issuer *auth.Issuer
	r      *gin.Engine

	alice, bob  *domain.User
	salt, sugar *domain.Ingredient
	breakfast   *domain.Tag
	recipes     *services.RecipeService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newHandlerDB(t)
	issuer, err := auth.NewIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	e := &env{db: db, issuer: issuer, recipes: services.NewRecipeService(db)}

	h := New(Services{
		Recipes:   e.recipes,
		Shopping:  services.NewShoppingService(db),
		Favorites: services.NewFavorites(db),
		Cart:      services.NewCart(db),
		Follows:   services.NewFollows(db),
		Users:     services.NewUserService(db, issuer),
		Catalog:   &services.CatalogService{DB: db},
		PageSize:  2,
	})

	idem := middleware.IdempotencyValidator(middleware.IdempotencyOptions{},
		func(ctx context.Context, userID, scope, key string, now time.Time) (string, bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
			if err != nil {
				return "", false, nil
			}
			return rec.ResourceID, true, nil
		},
		func(ctx context.Context, userID, scope, key, resourceID string, status int) error {
			_, err := repo.CreateIdempotency(ctx, db, userID, scope, key, resourceID, status, time.Hour)
			return err
		},
	)

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Authenticate(issuer), idem)
	authed := middleware.RequireAuth()

	r.POST("/users/", h.Register)
	r.POST("/auth/token/login/", h.Login)
	r.GET("/users/me/", authed, h.Me)
	r.GET("/users/subscriptions/", authed, h.Subscriptions)
	r.GET("/users/:id/", h.GetUser)
	r.POST("/users/:id/subscribe/", authed, h.Subscribe)
	r.DELETE("/users/:id/subscribe/", authed, h.Unsubscribe)

	r.GET("/tags/", h.ListTags)
	r.GET("/tags/:id/", h.GetTag)
	r.GET("/ingredients/", h.ListIngredients)
	r.GET("/ingredients/:id/", h.GetIngredient)

	r.GET("/recipes/", h.ListRecipes)
	r.POST("/recipes/", authed, h.CreateRecipe)
	r.GET("/recipes/download_shopping_cart/", authed, h.DownloadShoppingCart)
	r.GET("/recipes/:id/", h.GetRecipe)
	r.PATCH("/recipes/:id/", authed, h.UpdateRecipe)
	r.DELETE("/recipes/:id/", authed, h.DeleteRecipe)
	r.POST("/recipes/:id/favorite/", authed, h.AddFavorite)
	r.DELETE("/recipes/:id/favorite/", authed, h.RemoveFavorite)
	r.POST("/recipes/:id/shopping_cart/", authed, h.AddToCart)
	r.DELETE("/recipes/:id/shopping_cart/", authed, h.RemoveFromCart)
	e.r = r

	ctx := context.Background()
	mkUser := func(name string) *domain.User {
		hash, err := auth.HashPassword("password-" + name)
		if err != nil {
			t.Fatalf("hash: %v", err)
		}
		u := &domain.User{Email: name + "@example.com", Username: name, FirstName: "F", LastName: "L", PasswordHash: hash}
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

	e.alice = mkUser("alice")
	e.bob = mkUser("bob")
	e.salt = mkIng("Salt", "g")
	e.sugar = mkIng("Sugar", "g")
	e.breakfast = &domain.Tag{ID: uuid.NewString(), Name: "Breakfast", Color: "#FFAA00", Slug: "breakfast"}
	if err := db.Create(e.breakfast).Error; err != nil {
		t.Fatalf("tag: %v", err)
	}
	return e
}

// token issues an access token for u.
func (e *env) token(t *testing.T, u *domain.User) string {
	t.Helper()
	tok, err := e.issuer.Issue(u.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return tok
}

// do serves one request. as may be nil for anonymous calls; body is JSON
// encoded unless nil.
func (e *env) do(t *testing.T, method, path string, as *domain.User, body any, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&rd).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if as != nil {
		req.Header.Set("Authorization", "Token "+e.token(t, as))
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

// recipeBody is a valid create payload using the env's catalog.
func (e *env) recipeBody(name string, amount int) RecipeRequest {
	return RecipeRequest{
		Ingredients: []IngredientAmountRequest{{ID: e.salt.ID, Amount: amount}, {ID: e.sugar.ID, Amount: 2}},
		Tags:        []string{e.breakfast.ID},
		Image:       "data:image/png;base64,AAAA",
		Name:        name,
		Text:        "Mix and cook.",
		CookingTime: 10,
	}
}

// mustRecipe creates a recipe through the service layer.
func (e *env) mustRecipe(t *testing.T, author *domain.User, name string) *domain.Recipe {
	t.Helper()
	r, err := e.recipes.Create(context.Background(), author.ID, e.recipeBody(name, 5).input())
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}
	return r
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("json: %v (body=%s)", err, w.Body.String())
	}
	return v
}

func wantStatus(t *testing.T, w *httptest.ResponseRecorder, code int) {
	t.Helper()
	if w.Code != code {
		t.Fatalf("status=%d want %d body=%s", w.Code, code, w.Body.String())
	}
}
