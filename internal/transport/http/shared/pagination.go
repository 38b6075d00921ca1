package shared

import (
	"net/http"
	"strconv"
)

type Pagination struct {
	Page  int
	Limit int
}

type PageMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// ParsePagination reads page/limit query params; page is 1-based.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) Pagination {
	page := 1
	limit := defaultLimit
	if raw := r.URL.Query().Get("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			page = v
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return Pagination{Page: page, Limit: limit}
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

func (p Pagination) Meta(total int) PageMeta {
	totalPages := 0
	if p.Limit > 0 {
		totalPages = (total + p.Limit - 1) / p.Limit
	}
	return PageMeta{Page: p.Page, Limit: p.Limit, Total: total, TotalPages: totalPages}
}
