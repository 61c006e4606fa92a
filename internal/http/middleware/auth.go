// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the caller's identity from the Authorization header.
// Authenticate is installed globally and only sets the identity; RequireAuth
// guards the routes that need one.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const userIDKey = "userID"

// TokenParser validates an access token and returns the user id it was
// issued for. *auth.Issuer satisfies it.
type TokenParser interface {
	Parse(token string) (string, error)
}

// Authenticate reads "Authorization: Token <t>" (or "Bearer <t>"). A valid
// token stores the user id under "userID". A malformed or invalid token is
// rejected with 401; a missing header leaves the request anonymous.
func Authenticate(p TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := strings.TrimSpace(c.GetHeader("Authorization"))
		if h == "" {
			c.Next()
			return
		}
		scheme, token, ok := strings.Cut(h, " ")
		token = strings.TrimSpace(token)
		if !ok || token == "" || !(strings.EqualFold(scheme, "Token") || strings.EqualFold(scheme, "Bearer")) {
			unauthorized(c, "invalid authorization header")
			return
		}
		uid, err := p.Parse(token)
		if err != nil {
			LoggerFrom(c).Debug().Err(err).Msg("token rejected")
			unauthorized(c, "invalid token")
			return
		}
		c.Set(userIDKey, uid)
		c.Next()
	}
}

// RequireAuth aborts with 401 unless Authenticate resolved a user.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserID(c) == "" {
			unauthorized(c, "authentication credentials were not provided")
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(c *gin.Context) string {
	v, _ := c.Get(userIDKey)
	return asString(v)
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Token realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": GetRequestID(c),
		"code":       "unauthorized",
		"message":    msg,
	})
}
