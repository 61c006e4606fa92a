// Membership HTTP handlers.
//
// This file exposes the toggle endpoints for favorites, the shopping cart and
// author subscriptions:
//   - POST/DELETE /recipes/{id}/favorite/
//   - POST/DELETE /recipes/{id}/shopping_cart/
//   - POST/DELETE /users/{id}/subscribe/
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/foodgram-backend/internal/services"
	"github.com/tbourn/foodgram-backend/internal/utils"
)

// addRecipeMember adds the recipe to a toggle and answers with its short form.
func (h *Handlers) addRecipeMember(c *gin.Context, t Toggle) {
	ctx := c.Request.Context()
	uid, recipeID := userID(c), c.Param("id")

	if err := t.Add(ctx, uid, recipeID); err != nil {
		failErr(c, err)
		return
	}
	v, err := h.recipes.Get(ctx, uid, recipeID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, toShortRecipe(v.Recipe))
}

// AddFavorite godoc
// @ID          addFavorite
// @Summary     Add a recipe to favorites
// @Tags        Favorites
// @Produce     json
//
// @Param       Authorization  header  string  true  "Token <jwt>"
// @Param       id             path    string  true  "Recipe ID (UUID)"  format(uuid)
//
// @Success     201  {object} handlers.ShortRecipeResponse
// @Failure     400  {object} handlers.ErrorResponse "Already in favorites"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object} handlers.ErrorResponse "Recipe not found"
// @Router      /recipes/{id}/favorite/ [post]
func (h *Handlers) AddFavorite(c *gin.Context) { h.addRecipeMember(c, h.favorites) }

// RemoveFavorite godoc
// @ID          removeFavorite
// @Summary     Remove a recipe from favorites
// @Tags        Favorites
//
// @Param       Authorization  header  string  true  "Token <jwt>"
// @Param       id             path    string  true  "Recipe ID (UUID)"  format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object} handlers.ErrorResponse "Recipe not found or not in favorites"
// @Router      /recipes/{id}/favorite/ [delete]
func (h *Handlers) RemoveFavorite(c *gin.Context) {
	if err := h.favorites.Remove(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// AddToCart godoc
// @ID          addToCart
// @Summary     Add a recipe to the shopping cart
// @Tags        Shopping cart
// @Produce     json
//
// @Param       Authorization  header  string  true  "Token <jwt>"
// @Param       id             path    string  true  "Recipe ID (UUID)"  format(uuid)
//
// @Success     201  {object} handlers.ShortRecipeResponse
// @Failure     400  {object} handlers.ErrorResponse "Already in the cart"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object} handlers.ErrorResponse "Recipe not found"
// @Router      /recipes/{id}/shopping_cart/ [post]
func (h *Handlers) AddToCart(c *gin.Context) { h.addRecipeMember(c, h.cart) }

// RemoveFromCart godoc
// @ID          removeFromCart
// @Summary     Remove a recipe from the shopping cart
// @Description Removing a recipe that is not in the cart succeeds.
// @Tags        Shopping cart
//
// @Param       Authorization  header  string  true  "Token <jwt>"
// @Param       id             path    string  true  "Recipe ID (UUID)"  format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object} handlers.ErrorResponse "Recipe not found"
// @Router      /recipes/{id}/shopping_cart/ [delete]
func (h *Handlers) RemoveFromCart(c *gin.Context) {
	err := h.cart.Remove(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil && !errors.Is(err, services.ErrNotInCart) {
		failErr(c, err)
		return
	}
	noContent(c)
}

// Subscribe godoc
// @ID          subscribe
// @Summary     Subscribe to an author
// @Tags        Users
// @Produce     json
//
// @Param       Authorization  header  string  true  "Token <jwt>"
// @Param       id             path    string  true  "Author ID (UUID)"  format(uuid)
// @Param       recipes_limit  query   int     false "Max recipes in the preview"  minimum(1)
//
// @Success     201  {object} handlers.SubscriptionResponse
// @Failure     400  {object} handlers.ErrorResponse "Self-subscription or already subscribed"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object} handlers.ErrorResponse "User not found"
// @Router      /users/{id}/subscribe/ [post]
func (h *Handlers) Subscribe(c *gin.Context) {
	ctx := c.Request.Context()
	authorID := c.Param("id")

	if err := h.follows.Add(ctx, userID(c), authorID); err != nil {
		failErr(c, err)
		return
	}
	sub, err := h.users.Subscription(ctx, authorID, utils.AtoiDefault(c.Query("recipes_limit"), 0))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, toSubscription(*sub))
}

// Unsubscribe godoc
// @ID          unsubscribe
// @Summary     Unsubscribe from an author
// @Tags        Users
//
// @Param       Authorization  header  string  true  "Token <jwt>"
// @Param       id             path    string  true  "Author ID (UUID)"  format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Not subscribed"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object} handlers.ErrorResponse "User not found"
// @Router      /users/{id}/subscribe/ [delete]
func (h *Handlers) Unsubscribe(c *gin.Context) {
	err := h.follows.Remove(c.Request.Context(), userID(c), c.Param("id"))
	switch {
	case err == nil:
		noContent(c)
	case errors.Is(err, services.ErrNotFollowing):
		fail(c, http.StatusBadRequest, ErrCodeNotSubscribed, err.Error())
	default:
		failErr(c, err)
	}
}
