package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

type stubParser map[string]string

func (s stubParser) Parse(token string) (string, error) {
	if uid, ok := s[token]; ok {
		return uid, nil
	}
	return "", errors.New("bad token")
}

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Authenticate(stubParser{"good": "u1"}))
	r.GET("/open", func(c *gin.Context) { c.String(http.StatusOK, "user=%s", UserID(c)) })
	r.GET("/closed", RequireAuth(), func(c *gin.Context) { c.String(http.StatusOK, "user=%s", UserID(c)) })
	return r
}

func TestAuthenticate(t *testing.T) {
	r := newAuthRouter()
	cases := []struct {
		name, path, header string
		code               int
		body               string
	}{
		{"anonymous open", "/open", "", http.StatusOK, "user="},
		{"anonymous closed", "/closed", "", http.StatusUnauthorized, ""},
		{"token scheme", "/closed", "Token good", http.StatusOK, "user=u1"},
		{"bearer scheme", "/closed", "bearer good", http.StatusOK, "user=u1"},
		{"unknown scheme", "/open", "Basic good", http.StatusUnauthorized, ""},
		{"missing token", "/open", "Token", http.StatusUnauthorized, ""},
		{"invalid token", "/open", "Token nope", http.StatusUnauthorized, ""},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tc.code {
			t.Fatalf("%s: got %d want %d", tc.name, w.Code, tc.code)
		}
		if tc.body != "" && w.Body.String() != tc.body {
			t.Fatalf("%s: body %q", tc.name, w.Body.String())
		}
		if tc.code == http.StatusUnauthorized && w.Header().Get("WWW-Authenticate") == "" {
			t.Fatalf("%s: missing WWW-Authenticate", tc.name)
		}
	}
}
