// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the request and response bodies and the mappers from
// service results to them. Response field names follow the public API of the
// recipe site (snake_case, "is_*" viewer flags).
package handlers

import (
	"net/url"
	"strconv"

	"github.com/tbourn/foodgram-backend/internal/domain"
	"github.com/tbourn/foodgram-backend/internal/services"
	"github.com/tbourn/foodgram-backend/internal/utils"
)

//
// Requests
//

// IngredientAmountRequest is one ingredient line of a recipe payload.
type IngredientAmountRequest struct {
	ID     string `json:"id"     example:"4b1c3f0e-0a8e-4c6b-9a59-8a2d0c5f4b11"`
	Amount int    `json:"amount" example:"200"`
}

// RecipeRequest is the payload of POST /recipes/ and PATCH /recipes/{id}/.
// Updates replace every field, the tag set and the ingredient lines.
type RecipeRequest struct {
	Ingredients []IngredientAmountRequest `json:"ingredients"`
	Tags        []string                  `json:"tags"         example:"b0d6f6a1-3c1e-4c1e-8f0a-5a3f4d2c1b10"`
	Image       string                    `json:"image"        example:"data:image/png;base64,iVBORw0KGgo="`
	Name        string                    `json:"name"         example:"Борщ"`
	Text        string                    `json:"text"         example:"Сварить бульон..."`
	CookingTime int                       `json:"cooking_time" example:"90"`
}

func (r RecipeRequest) input() services.RecipeInput {
	lines := make([]services.IngredientAmount, len(r.Ingredients))
	for i, l := range r.Ingredients {
		lines[i] = services.IngredientAmount{IngredientID: l.ID, Amount: l.Amount}
	}
	return services.RecipeInput{
		Name:        r.Name,
		Text:        r.Text,
		Image:       r.Image,
		CookingTime: r.CookingTime,
		TagIDs:      r.Tags,
		Ingredients: lines,
	}
}

// RegisterRequest is the payload of POST /users/.
type RegisterRequest struct {
	Email     string `json:"email"      example:"cook@example.com"`
	Username  string `json:"username"   example:"cook"`
	FirstName string `json:"first_name" example:"Ivan"`
	LastName  string `json:"last_name"  example:"Petrov"`
	Password  string `json:"password"   example:"s3cret-pass"`
}

// LoginRequest is the payload of POST /auth/token/login/.
type LoginRequest struct {
	Email    string `json:"email"    example:"cook@example.com"`
	Password string `json:"password" example:"s3cret-pass"`
}

// TokenResponse carries an issued access token.
type TokenResponse struct {
	AuthToken string `json:"auth_token"`
}

//
// Responses
//

// UserResponse is a public user profile.
type UserResponse struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

// CreatedUserResponse is returned by registration.
type CreatedUserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// RecipeIngredientResponse is one ingredient line with its reference data.
type RecipeIngredientResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// RecipeResponse is the full recipe representation.
type RecipeResponse struct {
	ID          string                     `json:"id"`
	Tags        []domain.Tag               `json:"tags"`
	Author      UserResponse               `json:"author"`
	Ingredients []RecipeIngredientResponse `json:"ingredients"`
	IsFavorited bool                       `json:"is_favorited"`
	IsInCart    bool                       `json:"is_in_shopping_cart"`
	Name        string                     `json:"name"`
	Image       string                     `json:"image"`
	Text        string                     `json:"text"`
	CookingTime int                        `json:"cooking_time"`
}

// ShortRecipeResponse is the compact form used by membership endpoints and
// subscription previews.
type ShortRecipeResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// SubscriptionResponse is a followed author with a preview of their recipes.
type SubscriptionResponse struct {
	UserResponse
	Recipes      []ShortRecipeResponse `json:"recipes"`
	RecipesCount int64                 `json:"recipes_count"`
}

// Page is a page of results with links to the neighbouring pages.
type Page[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

//
// Mappers
//

func toUser(u domain.User, subscribed bool) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

func toRecipe(v services.RecipeView) RecipeResponse {
	r := v.Recipe
	tags := r.Tags
	if tags == nil {
		tags = []domain.Tag{}
	}
	lines := make([]RecipeIngredientResponse, len(r.Ingredients))
	for i, l := range r.Ingredients {
		lines[i] = RecipeIngredientResponse{
			ID:              l.IngredientID,
			Name:            l.Ingredient.Name,
			MeasurementUnit: l.Ingredient.MeasurementUnit,
			Amount:          l.Amount,
		}
	}
	return RecipeResponse{
		ID:          r.ID,
		Tags:        tags,
		Author:      toUser(r.Author, v.AuthorFollowed),
		Ingredients: lines,
		IsFavorited: v.IsFavorited,
		IsInCart:    v.IsInCart,
		Name:        r.Name,
		Image:       r.Image,
		Text:        r.Text,
		CookingTime: r.CookingTime,
	}
}

func toShortRecipe(r domain.Recipe) ShortRecipeResponse {
	return ShortRecipeResponse{ID: r.ID, Name: r.Name, Image: r.Image, CookingTime: r.CookingTime}
}

func toSubscription(s services.Subscription) SubscriptionResponse {
	recipes := make([]ShortRecipeResponse, len(s.Recipes))
	for i, r := range s.Recipes {
		recipes[i] = toShortRecipe(r)
	}
	return SubscriptionResponse{
		UserResponse: toUser(s.Author, true),
		Recipes:      recipes,
		RecipesCount: s.RecipesCount,
	}
}

// newPage builds a Page for results of page (1-based) out of total, linking
// the neighbours by rewriting the "page" parameter of the request URL.
func newPage[T any](u *url.URL, results []T, total int64, page, pageSize int) Page[T] {
	if results == nil {
		results = []T{}
	}
	p := Page[T]{Count: total, Results: results}
	link := func(n int) *string {
		q := u.Query()
		if n == 1 {
			q.Del("page")
		} else {
			q.Set("page", strconv.Itoa(n))
		}
		v := url.URL{Path: u.Path, RawQuery: q.Encode()}
		s := v.String()
		return &s
	}
	if page < utils.TotalPages(total, pageSize) {
		p.Next = link(page + 1)
	}
	if page > 1 {
		p.Previous = link(page - 1)
	}
	return p
}
