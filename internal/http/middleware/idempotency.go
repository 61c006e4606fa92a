// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotent creates. A client that sends an
// Idempotency-Key header with an authenticated POST gets exactly one resource
// per (user, route, key): the first request runs normally and, when the
// handler reports the created resource through SetCreatedResource, the id is
// recorded. A retry with the same key is marked as a replay; the handler reads
// ReplayResource, returns the original resource and the middleware adds
// "Idempotency-Replayed: true".
//
// Persistence is injected through IdempotencyLookup and IdempotencyRecord so
// the middleware stays free of storage concerns.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	// HeaderIdempotencyKey carries the client-chosen key.
	HeaderIdempotencyKey = "Idempotency-Key"
	// HeaderIdempotencyReplayed is set on responses served from a prior request.
	HeaderIdempotencyReplayed = "Idempotency-Replayed"
)

const (
	ctxKeyIdemKey     = "idem.key"
	ctxKeyIdemReplay  = "idem.replay"  // string: resource id of the original response
	ctxKeyIdemCreated = "idem.created" // string: resource id produced by this request
	ctxKeyRateBypass  = "rate.bypass"  // bool: skip rate limiting
)

var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// IdempotencyLookup returns the resource id recorded for (userID, scope, key)
// and whether a live record exists.
type IdempotencyLookup func(ctx context.Context, userID, scope, key string, now time.Time) (resourceID string, found bool, err error)

// IdempotencyRecord stores the outcome of a first request.
type IdempotencyRecord func(ctx context.Context, userID, scope, key, resourceID string, status int) error

// IdempotencyOptions configures IdempotencyValidator.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. Nil uses ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
}

// GetIdempotencyKey returns the validated key, if any.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, _ := c.Get(ctxKeyIdemKey)
	s := asString(v)
	return s, s != ""
}

// ReplayResource returns the resource id of the original request when this
// request is a replay.
func ReplayResource(c *gin.Context) (string, bool) {
	v, _ := c.Get(ctxKeyIdemReplay)
	s := asString(v)
	return s, s != ""
}

// IsReplay reports whether this request replays an earlier one.
func IsReplay(c *gin.Context) bool {
	_, ok := ReplayResource(c)
	return ok
}

// SetCreatedResource lets a handler report the id of the resource it created.
func SetCreatedResource(c *gin.Context, id string) {
	c.Set(ctxKeyIdemCreated, id)
}

// IdempotencyValidator validates the Idempotency-Key header on POST requests
// of authenticated users, detects replays through lookup and records first
// outcomes through record. Either function may be nil.
//
// Lookup and record failures are logged and never fail the request.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup, record IdempotencyRecord) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultKeyPattern
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		uid := UserID(c)
		if key == "" || c.Request.Method != http.MethodPost || uid == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": GetRequestID(c),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)
		scope := c.FullPath()
		ctx := c.Request.Context()

		if lookup != nil {
			id, found, err := lookup(ctx, uid, scope, key, time.Now().UTC())
			switch {
			case err != nil:
				LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed")
			case found:
				c.Set(ctxKeyIdemReplay, id)
				c.Set(ctxKeyRateBypass, true)
				c.Header(HeaderIdempotencyReplayed, "true")
			}
		}

		c.Next()

		if record == nil || IsReplay(c) {
			return
		}
		v, _ := c.Get(ctxKeyIdemCreated)
		created := asString(v)
		status := c.Writer.Status()
		if created == "" || status >= 300 {
			return
		}
		if err := record(ctx, uid, scope, key, created, status); err != nil {
			LoggerFrom(c).Warn().Err(err).Msg("idempotency record failed")
		}
	}
}
