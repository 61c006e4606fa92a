// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements RedactingLogger, the access logger used in production.
// It never logs bodies and scrubs credentials and obvious PII from the query
// string and request headers before they reach the log:
//
//   - Authorization, Cookie, Set-Cookie and any configured header are
//     replaced with "[REDACTED]".
//   - Signed tokens (JWT-shaped values, "Token <x>" / "Bearer <x>") are
//     replaced with "[REDACTED:token]".
//   - Email addresses become "[REDACTED:email]".
//   - Values of sensitive query parameters (password, token, ...) become
//     "[REDACTED]".
//
// Like Logger, it attaches a request-scoped logger to the Gin context and to
// the request context.
package middleware

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RedactOptions configures additional scrub behavior for RedactingLogger.
type RedactOptions struct {
	// MaskHeaders lists extra header names (case-insensitive) whose values are
	// fully masked.
	MaskHeaders []string
	// MaskParams lists extra query parameter names (case-insensitive) whose
	// values are fully masked.
	MaskParams []string
}

var (
	jwtRE    = regexp.MustCompile(`\beyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`)
	schemeRE = regexp.MustCompile(`(?i)\b(bearer|token)\s+[A-Za-z0-9._~+/=-]+`)
	emailRE  = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)
)

// redact scrubs tokens first so an email-shaped fragment inside a token is
// never partially kept.
func redact(s string) string {
	if s == "" {
		return s
	}
	s = jwtRE.ReplaceAllString(s, "[REDACTED:token]")
	s = schemeRE.ReplaceAllString(s, "$1 [REDACTED:token]")
	return emailRE.ReplaceAllString(s, "[REDACTED:email]")
}

func lowerSet(base []string, extra []string) map[string]struct{} {
	out := make(map[string]struct{}, len(base)+len(extra))
	for _, s := range append(base, extra...) {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out[s] = struct{}{}
		}
	}
	return out
}

// redactQuery masks sensitive parameters and scrubs the rest. Unparseable
// queries are scrubbed as plain text.
func redactQuery(raw string, mask map[string]struct{}) string {
	if raw == "" {
		return ""
	}
	vals, err := url.ParseQuery(raw)
	if err != nil {
		return redact(raw)
	}
	for k, vv := range vals {
		_, masked := mask[strings.ToLower(k)]
		for i := range vv {
			if masked {
				vv[i] = "[REDACTED]"
			} else {
				vv[i] = redact(vv[i])
			}
		}
	}
	return vals.Encode()
}

// RedactingLogger returns a Gin middleware that logs requests with sensitive
// values scrubbed.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	maskHeaders := lowerSet([]string{"authorization", "cookie", "set-cookie"}, opts.MaskHeaders)
	maskParams := lowerSet([]string{"password", "current_password", "new_password", "token", "auth_token"}, opts.MaskParams)

	return func(c *gin.Context) {
		start := time.Now()
		query := truncate(redactQuery(c.Request.URL.RawQuery, maskParams), maxQueryLogLength)

		headers := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := maskHeaders[strings.ToLower(k)]; ok {
				headers[k] = "[REDACTED]"
				continue
			}
			headers[k] = redact(strings.Join(vv, ", "))
		}

		l := log.With().
			Str("request_id", GetRequestID(c)).
			Str("method", c.Request.Method).
			Str("path", routeOf(c)).
			Logger()
		attachLogger(c, &l)

		c.Next()

		ev := l.With().
			Str("user_id", UserID(c)).
			Str("query", query).
			Int("status", c.Writer.Status()).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", headers).
			Logger()
		emit(&ev, c, "http_request")
	}
}
