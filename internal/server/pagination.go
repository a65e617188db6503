package server

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	defaultPerPage = 50
	maxPerPage     = 200
)

type pageInfo struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasPrev    bool `json:"has_prev"`
	HasNext    bool `json:"has_next"`
}

// parsePagination reads page and per_page, ignoring values that are not
// positive integers.
func parsePagination(c *gin.Context, defaultSize, maxSize int) (int, int) {
	page := 1
	perPage := defaultSize
	if raw := strings.TrimSpace(c.Query("page")); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			page = value
		}
	}
	if raw := strings.TrimSpace(c.Query("per_page")); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			perPage = value
		}
	}
	if maxSize > 0 && perPage > maxSize {
		perPage = maxSize
	}
	return page, perPage
}

// paginate returns the requested page of items. Pages past the end are
// clamped to the last page.
func paginate[T any](items []T, page, perPage int) ([]T, pageInfo) {
	if perPage <= 0 {
		perPage = 1
	}
	total := len(items)
	totalPages := (total + perPage - 1) / perPage
	if totalPages == 0 {
		totalPages = 1
	}
	if page <= 0 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	info := pageInfo{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	}
	start := min((page-1)*perPage, total)
	end := min(start+perPage, total)
	return items[start:end], info
}
