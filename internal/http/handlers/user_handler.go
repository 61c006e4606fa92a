// User HTTP handlers: registration, login, profiles and subscriptions.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/foodgram-backend/internal/services"
	"github.com/tbourn/foodgram-backend/internal/utils"
)

// Register godoc
// @ID          register
// @Summary     Register a new user
// @Tags        Users
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.RegisterRequest  true  "Sign-up payload"
//
// @Success     201  {object} handlers.CreatedUserResponse
// @Failure     400  {object} handlers.ErrorResponse "Validation failed or email/username taken"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /users/ [post]
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBind(c, err)
		return
	}
	u, err := h.users.Register(c.Request.Context(), services.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, CreatedUserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	})
}

// Login godoc
// @ID          login
// @Summary     Obtain an access token
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.LoginRequest  true  "Credentials"
//
// @Success     200  {object} handlers.TokenResponse
// @Failure     400  {object} handlers.ErrorResponse "Invalid credentials"
// @Router      /auth/token/login/ [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email and password required")
		return
	}
	token, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, TokenResponse{AuthToken: token})
}

// Me godoc
// @ID          me
// @Summary     Current user profile
// @Tags        Users
// @Produce     json
//
// @Param       Authorization  header  string  true  "Token <jwt>"
//
// @Success     200  {object} handlers.UserResponse
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Router      /users/me/ [get]
func (h *Handlers) Me(c *gin.Context) {
	u, err := h.users.Get(c.Request.Context(), userID(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, toUser(*u, false))
}

// GetUser godoc
// @ID          getUser
// @Summary     User profile
// @Tags        Users
// @Produce     json
//
// @Param       Authorization  header  string  false "Token <jwt>"
// @Param       id             path    string  true  "User ID (UUID)"  format(uuid)
//
// @Success     200  {object} handlers.UserResponse
// @Failure     404  {object} handlers.ErrorResponse "User not found"
// @Router      /users/{id}/ [get]
func (h *Handlers) GetUser(c *gin.Context) {
	ctx := c.Request.Context()
	u, err := h.users.Get(ctx, c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	following, err := h.users.IsFollowing(ctx, userID(c), u.ID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, toUser(*u, following))
}

// Subscriptions godoc
// @ID          subscriptions
// @Summary     Followed authors (paginated)
// @Description Returns the authors the current user follows, each with a recipe preview and recipe count.
// @Tags        Users
// @Produce     json
//
// @Param       Authorization  header  string  true  "Token <jwt>"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       limit          query   int     false "Items per page"  minimum(1) maximum(100) default(6)
// @Param       recipes_limit  query   int     false "Max recipes per author"  minimum(1)
//
// @Success     200  {object} handlers.Page[handlers.SubscriptionResponse]
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Router      /users/subscriptions/ [get]
func (h *Handlers) Subscriptions(c *gin.Context) {
	page, pageSize := utils.PageParams(c.Query("page"), c.Query("limit"), h.pageSize)
	recipesLimit := utils.AtoiDefault(c.Query("recipes_limit"), 0)

	subs, total, err := h.users.Subscriptions(c.Request.Context(), userID(c), page, pageSize, recipesLimit)
	if err != nil {
		failErr(c, err)
		return
	}
	out := make([]SubscriptionResponse, len(subs))
	for i, s := range subs {
		out[i] = toSubscription(s)
	}
	ok(c, http.StatusOK, newPage(c.Request.URL, out, total, page, pageSize))
}
