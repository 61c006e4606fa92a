// Recipe HTTP handlers.
//
// This file exposes REST endpoints for recipes:
//   - GET    /recipes/                          (list, paginated, ETag support)
//   - POST   /recipes/                          (create, Idempotency-Key aware)
//   - GET    /recipes/{id}/                     (read)
//   - PATCH  /recipes/{id}/                     (full replace)
//   - DELETE /recipes/{id}/                     (delete)
//   - GET    /recipes/download_shopping_cart/   (plain-text shopping list)
package handlers

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/foodgram-backend/internal/http/middleware"
	"github.com/tbourn/foodgram-backend/internal/repo"
	"github.com/tbourn/foodgram-backend/internal/shopping"
	"github.com/tbourn/foodgram-backend/internal/utils"
)

// queryFlag reports whether a boolean query parameter is set ("1"/"true").
func queryFlag(c *gin.Context, name string) bool {
	v, err := strconv.ParseBool(c.Query(name))
	return err == nil && v
}

// recipeFilter builds a listing filter from the query string. ok is false
// when the filter can only match nothing (viewer flags without a viewer).
func recipeFilter(c *gin.Context, viewer string) (f repo.RecipeFilter, ok bool) {
	for _, raw := range c.QueryArray("tags") {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				f.TagSlugs = append(f.TagSlugs, s)
			}
		}
	}
	f.AuthorID = strings.TrimSpace(c.Query("author"))

	wantFav, wantCart := queryFlag(c, "is_favorited"), queryFlag(c, "is_in_shopping_cart")
	if (wantFav || wantCart) && viewer == "" {
		return f, false
	}
	if wantFav {
		f.FavoritedBy = viewer
	}
	if wantCart {
		f.InCartOf = viewer
	}
	return f, true
}

// listETag derives a weak validator from the listing's inputs: table stats,
// viewer and query string.
func listETag(viewer, rawQuery string, s repo.RecipeListStats) string {
	h := fnv.New64a()
	_, _ = fmt.Fprintf(h, "%s|%s", viewer, rawQuery)
	ts := func(t repo.TableStats) string {
		if t.Latest == nil {
			return fmt.Sprintf("%d.0", t.Count)
		}
		return fmt.Sprintf("%d.%d", t.Count, t.Latest.UnixNano())
	}
	return fmt.Sprintf(`W/"recipes:%x:%s:%s:%s:%s"`, h.Sum64(),
		ts(s.Recipes), ts(s.Favorites), ts(s.Cart), ts(s.Follows))
}

// ListRecipes godoc
// @ID          listRecipes
// @Summary     List recipes (paginated)
// @Description Returns a page of recipes, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Recipes
// @Produce     json
//
// @Param       Authorization        header  string    false "Token <jwt>"
// @Param       If-None-Match        header  string    false "Return 304 if ETag matches"
// @Param       tags                 query   []string  false "Tag slugs (any of)"  collectionFormat(multi)
// @Param       author               query   string    false "Author id"
// @Param       is_favorited         query   int       false "Only the viewer's favorites"          enums(0,1)
// @Param       is_in_shopping_cart  query   int       false "Only recipes in the viewer's cart"    enums(0,1)
// @Param       page                 query   int       false "Page number"     minimum(1) default(1)
// @Param       limit                query   int       false "Items per page"  minimum(1) maximum(100) default(6)
//
// @Success     200  {object} handlers.Page[handlers.RecipeResponse]
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /recipes/ [get]
func (h *Handlers) ListRecipes(c *gin.Context) {
	ctx := c.Request.Context()
	viewer := userID(c)
	page, pageSize := utils.PageParams(c.Query("page"), c.Query("limit"), h.pageSize)

	// ETag pre-check (best effort).
	if stats, err := h.recipes.Stats(ctx, viewer); err == nil {
		etag := listETag(viewer, c.Request.URL.RawQuery, stats)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	} else {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("recipe stats unavailable; skipping etag")
	}

	f, matchable := recipeFilter(c, viewer)
	if !matchable {
		ok(c, http.StatusOK, newPage[RecipeResponse](c.Request.URL, nil, 0, page, pageSize))
		return
	}

	views, total, err := h.recipes.List(ctx, viewer, f, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	out := make([]RecipeResponse, len(views))
	for i, v := range views {
		out[i] = toRecipe(v)
	}
	ok(c, http.StatusOK, newPage(c.Request.URL, out, total, page, pageSize))
}

// GetRecipe godoc
// @ID          getRecipe
// @Summary     Get a recipe
// @Tags        Recipes
// @Produce     json
//
// @Param       Authorization  header  string  false "Token <jwt>"
// @Param       id             path    string  true  "Recipe ID (UUID)"  format(uuid)
//
// @Success     200  {object} handlers.RecipeResponse
// @Failure     404  {object} handlers.ErrorResponse "Recipe not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /recipes/{id}/ [get]
func (h *Handlers) GetRecipe(c *gin.Context) {
	v, err := h.recipes.Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, toRecipe(*v))
}

// CreateRecipe godoc
// @ID          createRecipe
// @Summary     Create a recipe
// @Description Creates a recipe authored by the current user. With Idempotency-Key, a repeated request returns the recipe created first and sets Idempotency-Replayed.
// @Tags        Recipes
// @Accept      json
// @Produce     json
//
// @Param       Authorization    header  string  true  "Token <jwt>"
// @Param       Idempotency-Key  header  string  false "Client-chosen key for safe retries"
// @Param       body             body    handlers.RecipeRequest  true  "Recipe payload"
//
// @Success     201  {object} handlers.RecipeResponse
// @Header      201  {string} Idempotency-Replayed "true when served from a previous request"
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /recipes/ [post]
func (h *Handlers) CreateRecipe(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	if id, replay := middleware.ReplayResource(c); replay {
		key, _ := middleware.GetIdempotencyKey(c)
		middleware.LoggerFrom(c).Info().
			Str("idempotency_key", key).
			Str("recipe_id", id).
			Msg("replayed recipe create")
		v, err := h.recipes.Get(ctx, uid, id)
		if err != nil {
			failErr(c, err)
			return
		}
		ok(c, http.StatusCreated, toRecipe(*v))
		return
	}

	var req RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBind(c, err)
		return
	}

	r, err := h.recipes.Create(ctx, uid, req.input())
	if err != nil {
		failErr(c, err)
		return
	}
	middleware.SetCreatedResource(c, r.ID)

	v, err := h.recipes.Get(ctx, uid, r.ID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, toRecipe(*v))
}

// UpdateRecipe godoc
// @ID          updateRecipe
// @Summary     Replace a recipe
// @Description Replaces every field, the tag set and the ingredient lines of a recipe owned by the current user.
// @Tags        Recipes
// @Accept      json
// @Produce     json
//
// @Param       Authorization  header  string  true  "Token <jwt>"
// @Param       id             path    string  true  "Recipe ID (UUID)"  format(uuid)
// @Param       body           body    handlers.RecipeRequest  true  "Recipe payload"
//
// @Success     200  {object} handlers.RecipeResponse
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     403  {object} handlers.ErrorResponse "Not the author"
// @Failure     404  {object} handlers.ErrorResponse "Recipe not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /recipes/{id}/ [patch]
func (h *Handlers) UpdateRecipe(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	var req RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBind(c, err)
		return
	}

	r, err := h.recipes.Update(ctx, uid, c.Param("id"), req.input())
	if err != nil {
		failErr(c, err)
		return
	}
	v, err := h.recipes.Get(ctx, uid, r.ID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, toRecipe(*v))
}

// DeleteRecipe godoc
// @ID          deleteRecipe
// @Summary     Delete a recipe
// @Tags        Recipes
//
// @Param       Authorization  header  string  true  "Token <jwt>"
// @Param       id             path    string  true  "Recipe ID (UUID)"  format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     403  {object} handlers.ErrorResponse "Not the author"
// @Failure     404  {object} handlers.ErrorResponse "Recipe not found"
// @Router      /recipes/{id}/ [delete]
func (h *Handlers) DeleteRecipe(c *gin.Context) {
	if err := h.recipes.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// DownloadShoppingCart godoc
// @ID          downloadShoppingCart
// @Summary     Download the shopping list
// @Description Aggregates the ingredients of every recipe in the current user's cart into a plain-text list.
// @Tags        Recipes
// @Produce     plain
//
// @Param       Authorization  header  string  true  "Token <jwt>"
//
// @Success     200  {string} string "Shopping list"
// @Header      200  {string} Content-Disposition "attachment; filename=\"BuyList.txt\""
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /recipes/download_shopping_cart/ [get]
func (h *Handlers) DownloadShoppingCart(c *gin.Context) {
	// Buffer so a failure mid-report still yields a clean error envelope.
	var buf bytes.Buffer
	if err := h.shopping.WriteReport(c.Request.Context(), userID(c), &buf); err != nil {
		failErr(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", shopping.Filename))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
}
