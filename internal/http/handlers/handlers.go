// Package handlers provides HTTP handler implementations for the public API.
//
// Handlers are transport-thin: they decode input, call application services
// through the interfaces below and translate results into HTTP responses.
package handlers

import (
	"context"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/foodgram-backend/internal/domain"
	"github.com/tbourn/foodgram-backend/internal/http/middleware"
	"github.com/tbourn/foodgram-backend/internal/repo"
	"github.com/tbourn/foodgram-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// RecipeService composes, reads and deletes recipes.
type RecipeService interface {
	Create(ctx context.Context, authorID string, in services.RecipeInput) (*domain.Recipe, error)
	Update(ctx context.Context, userID, recipeID string, in services.RecipeInput) (*domain.Recipe, error)
	Delete(ctx context.Context, userID, recipeID string) error
	Get(ctx context.Context, viewerID, recipeID string) (*services.RecipeView, error)
	List(ctx context.Context, viewerID string, f repo.RecipeFilter, page, pageSize int) ([]services.RecipeView, int64, error)
	// Stats feeds the listing ETag.
	Stats(ctx context.Context, viewerID string) (repo.RecipeListStats, error)
}

// ShoppingService renders a user's shopping list.
type ShoppingService interface {
	WriteReport(ctx context.Context, userID string, w io.Writer) error
}

// Toggle adds and removes one kind of (user, target) membership.
type Toggle interface {
	Add(ctx context.Context, userID, targetID string) error
	Remove(ctx context.Context, userID, targetID string) error
}

// UserService covers accounts, login and subscriptions.
type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (string, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	IsFollowing(ctx context.Context, viewerID, authorID string) (bool, error)
	Subscription(ctx context.Context, authorID string, recipesLimit int) (*services.Subscription, error)
	Subscriptions(ctx context.Context, userID string, page, pageSize, recipesLimit int) ([]services.Subscription, int64, error)
}

// CatalogService serves the read-only tag and ingredient catalog.
type CatalogService interface {
	Tags(ctx context.Context) ([]domain.Tag, error)
	Tag(ctx context.Context, id string) (*domain.Tag, error)
	Ingredients(ctx context.Context, prefix string) ([]domain.Ingredient, error)
	Ingredient(ctx context.Context, id string) (*domain.Ingredient, error)
}

//
// Handler wiring
//

// Services bundles the dependencies of Handlers.
type Services struct {
	Recipes   RecipeService
	Shopping  ShoppingService
	Favorites Toggle
	Cart      Toggle
	Follows   Toggle
	Users     UserService
	Catalog   CatalogService
	// PageSize is the default page size of paginated listings.
	PageSize int
}

// Handlers groups every HTTP endpoint of the API.
type Handlers struct {
	recipes   RecipeService
	shopping  ShoppingService
	favorites Toggle
	cart      Toggle
	follows   Toggle
	users     UserService
	catalog   CatalogService
	pageSize  int
}

// New constructs Handlers bound to the given services.
func New(s Services) *Handlers {
	if s.PageSize <= 0 {
		s.PageSize = 6
	}
	return &Handlers{
		recipes:   s.Recipes,
		shopping:  s.Shopping,
		favorites: s.Favorites,
		cart:      s.Cart,
		follows:   s.Follows,
		users:     s.Users,
		catalog:   s.Catalog,
		pageSize:  s.PageSize,
	}
}

// userID returns the authenticated user id, or "" for anonymous requests.
func userID(c *gin.Context) string {
	return middleware.UserID(c)
}
