package util

import (
	"math"
	"strconv"
	"strings"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

func ParseIntDefault(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

// Calculate turns a 1-based page number and a page size into offset and limit.
// Pages past the largest representable offset are clamped to it.
func Calculate(page, size int) (offset int, limit int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	if maxPage := math.MaxInt/size + 1; page > maxPage {
		page = maxPage
	}

	offset = (page - 1) * size
	limit = size
	return offset, limit
}

// PageOf returns the 1-based page number that starts at offset.
func PageOf(offset, limit int) int {
	if limit < 1 || offset < 0 {
		return 1
	}
	return offset/limit + 1
}
