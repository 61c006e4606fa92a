// Package services defines the business logic for recipes, the shopping list,
// membership toggles, users and the reference catalog. This file centralizes
// the service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// Three families are used:
//   - ValidationError / ValidationErrors: malformed or semantically invalid
//     input, addressable by field.
//   - Conflict sentinels (wrap ErrConflict): the requested state already holds.
//   - Not-found sentinels (wrap ErrNotFound): a referenced entity or pair is
//     absent.
//
// Translation into HTTP status codes is performed at the handler layer.
package services

import (
	"errors"
	"fmt"
	"strings"
)

// Base classes. Every specific sentinel below wraps exactly one of them.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")

	// ErrForbidden is returned when a user attempts to modify a resource they
	// do not own.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidCredentials is returned by Authenticate for an unknown email
	// or a wrong password. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Not-found errors.
var (
	ErrRecipeNotFound     = fmt.Errorf("recipe %w", ErrNotFound)
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrTagNotFound        = fmt.Errorf("tag %w", ErrNotFound)
	ErrIngredientNotFound = fmt.Errorf("ingredient %w", ErrNotFound)

	ErrNotFavorited = fmt.Errorf("recipe is not in favorites: %w", ErrNotFound)
	ErrNotInCart    = fmt.Errorf("recipe is not in the shopping cart: %w", ErrNotFound)
	ErrNotFollowing = fmt.Errorf("not subscribed to this author: %w", ErrNotFound)
)

// Conflict errors.
var (
	ErrAlreadyFavorited = fmt.Errorf("recipe is already in favorites: %w", ErrConflict)
	ErrAlreadyInCart    = fmt.Errorf("recipe is already in the shopping cart: %w", ErrConflict)
	ErrAlreadyFollowing = fmt.Errorf("already subscribed to this author: %w", ErrConflict)

	ErrEmailTaken    = fmt.Errorf("email is already registered: %w", ErrConflict)
	ErrUsernameTaken = fmt.Errorf("username is already taken: %w", ErrConflict)
)

// ValidationError points at one input field and the reason it was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string { return e.Field + ": " + e.Reason }

// Well-known validation faults.
var (
	ErrTagsEmpty     = ValidationError{Field: "tags", Reason: "empty"}
	ErrTagsDuplicate = ValidationError{Field: "tags", Reason: "duplicate"}
	ErrTagsUnknown   = ValidationError{Field: "tags", Reason: "unknown"}

	ErrIngredientsEmpty     = ValidationError{Field: "ingredients", Reason: "empty"}
	ErrIngredientsDuplicate = ValidationError{Field: "ingredients", Reason: "duplicate"}
	ErrIngredientsAmount    = ValidationError{Field: "ingredients", Reason: "amount"}
	ErrIngredientsUnknown   = ValidationError{Field: "ingredients", Reason: "unknown"}

	ErrCookingTimeRange = ValidationError{Field: "cooking_time", Reason: "range"}

	ErrNameRequired = ValidationError{Field: "name", Reason: "required"}
	ErrNameTooLong  = ValidationError{Field: "name", Reason: "too_long"}
	ErrTextRequired = ValidationError{Field: "text", Reason: "required"}

	// ErrSelfFollow is returned when a user tries to subscribe to themselves.
	ErrSelfFollow error = ValidationError{Field: "self_follow", Reason: "invalid"}
)

// ValidationErrors collects every fault found in one input, in the order
// they were detected. errors.Is matches each contained ValidationError.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes the individual faults to errors.Is / errors.As.
func (v ValidationErrors) Unwrap() []error {
	out := make([]error, len(v))
	for i, e := range v {
		out[i] = e
	}
	return out
}

// Fields maps each field to the reason of its first fault.
func (v ValidationErrors) Fields() map[string]string {
	out := make(map[string]string, len(v))
	for _, e := range v {
		if _, ok := out[e.Field]; !ok {
			out[e.Field] = e.Reason
		}
	}
	return out
}

// collector accumulates faults, recording each distinct fault once.
type collector struct {
	errs ValidationErrors
}

func (c *collector) add(e ValidationError) {
	for _, have := range c.errs {
		if have == e {
			return
		}
	}
	c.errs = append(c.errs, e)
}

func (c *collector) err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return c.errs
}
