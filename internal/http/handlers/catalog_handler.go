// Catalog HTTP handlers: read-only tags and ingredients.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListTags godoc
// @ID          listTags
// @Summary     List tags
// @Tags        Tags
// @Produce     json
// @Success     200  {array}  domain.Tag
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /tags/ [get]
func (h *Handlers) ListTags(c *gin.Context) {
	tags, err := h.catalog.Tags(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, tags)
}

// GetTag godoc
// @ID          getTag
// @Summary     Get a tag
// @Tags        Tags
// @Produce     json
// @Param       id  path  string  true  "Tag ID (UUID)"  format(uuid)
// @Success     200  {object} domain.Tag
// @Failure     404  {object} handlers.ErrorResponse "Tag not found"
// @Router      /tags/{id}/ [get]
func (h *Handlers) GetTag(c *gin.Context) {
	t, err := h.catalog.Tag(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, t)
}

// ListIngredients godoc
// @ID          listIngredients
// @Summary     Search ingredients
// @Description Lists ingredients whose name starts with the given prefix, case-insensitively.
// @Tags        Ingredients
// @Produce     json
// @Param       name  query  string  false  "Name prefix"
// @Success     200  {array}  domain.Ingredient
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /ingredients/ [get]
func (h *Handlers) ListIngredients(c *gin.Context) {
	items, err := h.catalog.Ingredients(c.Request.Context(), c.Query("name"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// GetIngredient godoc
// @ID          getIngredient
// @Summary     Get an ingredient
// @Tags        Ingredients
// @Produce     json
// @Param       id  path  string  true  "Ingredient ID (UUID)"  format(uuid)
// @Success     200  {object} domain.Ingredient
// @Failure     404  {object} handlers.ErrorResponse "Ingredient not found"
// @Router      /ingredients/{id}/ [get]
func (h *Handlers) GetIngredient(c *gin.Context) {
	i, err := h.catalog.Ingredient(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, i)
}
