package models

import "strings"

// Paging bounds.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// SortField is the ordering column of a search.
type SortField string

const (
	SortByCreateTime SortField = "createTime"
	SortByLikeCnt    SortField = "likeCnt"
)

// SortOrder is asc or desc.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// PageRequest carries zero-based offset/limit paging and ordering.
type PageRequest struct {
	Page  int       `json:"page"`
	Size  int       `json:"size"`
	Sort  SortField `json:"sort"`
	Order SortOrder `json:"order"`
}

// Normalize fills defaults for unset fields.
func (p PageRequest) Normalize() PageRequest {
	if p.Size == 0 {
		p.Size = DefaultPageSize
	}
	if p.Sort == "" {
		p.Sort = SortByCreateTime
	}
	p.Order = SortOrder(strings.ToLower(string(p.Order)))
	if p.Order == "" {
		p.Order = SortDesc
	}
	return p
}

// Validate rejects out-of-range paging. allowed lists the sortable fields.
func (p PageRequest) Validate(allowed ...SortField) error {
	if p.Page < 0 {
		return NewValidationError("page must be zero or greater")
	}
	if p.Size < 1 || p.Size > MaxPageSize {
		return NewValidationError("size must be between 1 and 100")
	}
	if p.Order != SortAsc && p.Order != SortDesc {
		return NewValidationError("order must be asc or desc")
	}
	for _, f := range allowed {
		if p.Sort == f {
			return nil
		}
	}
	return NewValidationError("unsupported sort field " + string(p.Sort))
}

// Offset returns the row offset of the page.
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// Page is one page of search results.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	TotalPages int   `json:"total_pages"`
}

// NewPage builds a page and derives TotalPages from total.
func NewPage[T any](items []T, total int64, req PageRequest) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if req.Size > 0 {
		pages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return Page[T]{
		Items:      items,
		Total:      total,
		Page:       req.Page,
		Size:       req.Size,
		TotalPages: pages,
	}
}
