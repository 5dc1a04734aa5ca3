package api

import (
	"net/http"
	"strconv"
)

// PaginationParams is a parsed page request for record and suppression
// tables. The list table paginates inside the search engine instead.
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// PaginatedResponse is the envelope for table endpoints.
type PaginatedResponse struct {
	Data       any            `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

type PaginationMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasMore    bool  `json:"has_more"`
}

// ParsePagination reads page and limit (or page_size) from the query.
// Missing or non-positive values fall back to page 1 and defaultLimit;
// limit is capped at maxLimit.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) PaginationParams {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit == 0 {
		limit, _ = strconv.Atoi(q.Get("page_size"))
	}

	page = max(page, 1)
	if limit < 1 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)

	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// NewPaginatedResponse wraps one page of data. An empty result still
// reports one page.
func NewPaginatedResponse(data any, p PaginationParams, total int64) PaginatedResponse {
	pages := 1
	if p.Limit > 0 && total > 0 {
		pages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}

	return PaginatedResponse{
		Data: data,
		Pagination: PaginationMeta{
			Page:       p.Page,
			Limit:      p.Limit,
			Total:      total,
			TotalPages: pages,
			HasMore:    p.Page < pages,
		},
	}
}
