// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, authentication, idempotency, and rate limiting.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/foodgram-backend/internal/auth"
	"github.com/tbourn/foodgram-backend/internal/cache"
	"github.com/tbourn/foodgram-backend/internal/config"
	"github.com/tbourn/foodgram-backend/internal/http/handlers"
	"github.com/tbourn/foodgram-backend/internal/http/middleware"
	"github.com/tbourn/foodgram-backend/internal/repo"
	"github.com/tbourn/foodgram-backend/internal/services"
)

// Deps are the process-wide resources the routes are built on.
type Deps struct {
	DB     *gorm.DB
	Tokens *auth.Issuer
	// Cache may be nil (no caching).
	Cache *cache.Cache
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. CORS and Security headers (so 401s still carry them)
//  8. Authenticate: resolve the bearer token, if any
//  9. Idempotency validator (before rate limiter to allow bypass on replay)
//  10. Rate limiter (per user/IP, bypass on replay)
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	db := deps.DB

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskParams: []string{"email"},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) CORS posture (safe defaults: allow all if none configured)
	useCORS(r, cfg.CORS.AllowedOrigins)

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// 8) Bearer tokens; anonymous requests pass through
	r.Use(middleware.Authenticate(deps.Tokens))

	// 9) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, userID, scope, key string, now time.Time) (string, bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
			if errors.Is(err, repo.ErrNotFound) {
				return "", false, nil
			}
			if err != nil {
				return "", false, err
			}
			return rec.ResourceID, true, nil
		},
		func(ctx context.Context, userID, scope, key, resourceID string, status int) error {
			_, err := repo.CreateIdempotency(ctx, db, userID, scope, key, resourceID, status, cfg.IdempotencyTTL)
			return err
		},
	))

	// 10) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/cache
	recipes := services.NewRecipeService(db)
	recipes.PageSize = cfg.PageSize
	users := services.NewUserService(db, deps.Tokens)
	users.PageSize = cfg.PageSize

	h := handlers.New(handlers.Services{
		Recipes:   recipes,
		Shopping:  services.NewShoppingService(db),
		Favorites: services.NewFavorites(db),
		Cart:      services.NewCart(db),
		Follows:   services.NewFollows(db),
		Users:     users,
		Catalog:   &services.CatalogService{DB: db, Cache: deps.Cache},
		PageSize:  cfg.PageSize,
	})
	authed := middleware.RequireAuth()

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Users and auth
		api.POST("/users/", h.Register)
		api.POST("/auth/token/login/", h.Login)
		api.GET("/users/me/", authed, h.Me)
		api.GET("/users/subscriptions/", authed, h.Subscriptions)
		api.GET("/users/:id/", h.GetUser)
		api.POST("/users/:id/subscribe/", authed, h.Subscribe)
		api.DELETE("/users/:id/subscribe/", authed, h.Unsubscribe)

		// Catalog
		api.GET("/tags/", h.ListTags)
		api.GET("/tags/:id/", h.GetTag)
		api.GET("/ingredients/", h.ListIngredients)
		api.GET("/ingredients/:id/", h.GetIngredient)

		// Recipes
		api.GET("/recipes/", h.ListRecipes)
		api.POST("/recipes/", authed, h.CreateRecipe)
		api.GET("/recipes/download_shopping_cart/", authed, h.DownloadShoppingCart)
		api.GET("/recipes/:id/", h.GetRecipe)
		api.PATCH("/recipes/:id/", authed, h.UpdateRecipe)
		api.DELETE("/recipes/:id/", authed, h.DeleteRecipe)

		// Favorites and shopping cart
		api.POST("/recipes/:id/favorite/", authed, h.AddFavorite)
		api.DELETE("/recipes/:id/favorite/", authed, h.RemoveFavorite)
		api.POST("/recipes/:id/shopping_cart/", authed, h.AddToCart)
		api.DELETE("/recipes/:id/shopping_cart/", authed, h.RemoveFromCart)
	}
}

// useCORS installs gin-contrib/cors. With no allowlist every origin is
// accepted; otherwise allowed origins are echoed back.
func useCORS(r *gin.Engine, origins []string) {
	base := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match", middleware.HeaderIdempotencyKey},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "Content-Disposition", "ETag"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}

	if len(origins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		base.AllowAllOrigins = true // AllowCredentials must stay false
		r.Use(cors.New(base))
		return
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	r.Use(func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			if _, ok := allowed[origin]; ok {
				h := c.Writer.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
		}
		c.Next()
	})
	base.AllowOrigins = origins
	r.Use(cors.New(base))
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
