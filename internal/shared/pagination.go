package shared

import (
	"math"
	"net/http"
	"strconv"
)

const (
	// DefaultPageSize applies when the client omits the size parameter.
	DefaultPageSize = 20
	// MaxPageSize caps the page size accepted from clients.
	MaxPageSize = 100
)

// PageRequest addresses one slice of a listing. Page is zero-based.
type PageRequest struct {
	Page int
	Size int
}

// NewPageRequest normalises raw page/size values.
func NewPageRequest(page, size int) PageRequest {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return PageRequest{Page: page, Size: size}
}

// PageRequestFromQuery reads page and size query parameters.
func PageRequestFromQuery(r *http.Request) PageRequest {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	return NewPageRequest(page, size)
}

// Limit returns the row limit for the request.
func (p PageRequest) Limit() int { return p.Size }

// Offset returns the row offset for the request.
func (p PageRequest) Offset() int { return p.Page * p.Size }

// Page is a bounded slice of a larger result set plus total-count metadata.
type Page[T any] struct {
	Content       []T `json:"content"`
	Page          int `json:"page"`
	Size          int `json:"size"`
	TotalElements int `json:"totalElements"`
	TotalPages    int `json:"totalPages"`
}

// NewPage assembles page metadata around the fetched content.
func NewPage[T any](content []T, req PageRequest, total int) Page[T] {
	if content == nil {
		content = []T{}
	}
	totalPages := 0
	if req.Size > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(req.Size)))
	}
	return Page[T]{
		Content:       content,
		Page:          req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    totalPages,
	}
}
