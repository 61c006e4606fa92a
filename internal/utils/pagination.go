// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import "strconv"

// MaxPageSize bounds any client-chosen page size.
const MaxPageSize = 100

// AtoiDefault converts s to an int, returning def when s is empty or not a
// valid integer.
//
//	n := utils.AtoiDefault("42", 0) // 42
//	n = utils.AtoiDefault("x", 5)   // 5
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// PageParams parses 1-based page and page-size query values. Missing or
// invalid values fall back to page 1 and defSize; sizes are capped at
// MaxPageSize.
func PageParams(pageStr, sizeStr string, defSize int) (page, size int) {
	page = AtoiDefault(pageStr, 1)
	if page < 1 {
		page = 1
	}
	size = AtoiDefault(sizeStr, defSize)
	if size < 1 {
		size = defSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

// TotalPages returns the number of pages of size needed for total items.
func TotalPages(total int64, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}
