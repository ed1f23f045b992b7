package pagination

import (
	"math"
	"strings"
)

const (
	// DefaultLimit is the standard page size when a size is not provided.
	DefaultLimit = 10
	// MaxLimit caps how many rows any page can request.
	MaxLimit = 100
)

const (
	DirectionAsc  = "asc"
	DirectionDesc = "desc"
)

// Request holds offset pagination inputs parsed from a list query string.
// Page is zero-based.
type Request struct {
	Page   int
	Size   int
	SortBy string
	Order  string
	Filter string
}

// Normalize clamps the page and size and canonicalizes the sort direction.
func (r Request) Normalize() Request {
	if r.Page < 0 {
		r.Page = 0
	}
	r.Size = NormalizeLimit(r.Size)
	r.Order = NormalizeDirection(r.Order)
	r.Filter = strings.TrimSpace(r.Filter)
	r.SortBy = strings.TrimSpace(r.SortBy)
	return r
}

// Offset returns the number of rows to skip. Pages too large to address
// saturate at math.MaxInt, which is always past the last row.
func (r Request) Offset() int {
	if r.Page <= 0 || r.Size <= 0 {
		return 0
	}
	if r.Page > math.MaxInt/r.Size {
		return math.MaxInt
	}
	return r.Page * r.Size
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// NormalizeDirection returns "desc" only when asked for explicitly.
func NormalizeDirection(order string) string {
	if strings.EqualFold(strings.TrimSpace(order), DirectionDesc) {
		return DirectionDesc
	}
	return DirectionAsc
}

// Page is one slice of a sorted, filtered result set.
type Page[T any] struct {
	Items      []T
	Page       int
	Size       int
	TotalCount int64
	TotalPages int
	SortBy     string
	Order      string
	Filter     string
}

// NewPage computes total pages from the count and echoes the request back.
func NewPage[T any](items []T, req Request, total int64) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		Items:      items,
		Page:       req.Page,
		Size:       req.Size,
		TotalCount: total,
		TotalPages: TotalPages(total, req.Size),
		SortBy:     req.SortBy,
		Order:      req.Order,
		Filter:     req.Filter,
	}
}

// TotalPages is ceil(total/size).
func TotalPages(total int64, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}

func (p *Page[T]) HasPrevious() bool { return p.Page > 0 }

func (p *Page[T]) HasNext() bool { return p.Page+1 < p.TotalPages }

// Pages lists the page indexes for a pager.
func (p *Page[T]) Pages() []int {
	out := make([]int, p.TotalPages)
	for i := range out {
		out[i] = i
	}
	return out
}

// Sort maps request sort keys onto SQL columns.
type Sort struct {
	Allowed map[string]string
	Default string
	// DefaultOrder applies when the request falls back to Default.
	DefaultOrder string
}

// Resolve returns the ORDER BY column and direction for req. Unknown keys
// fall back to the default column and its direction, so request values never
// reach SQL unchecked.
func (s Sort) Resolve(req Request) (column, direction, key string) {
	key = strings.TrimSpace(req.SortBy)
	if col, ok := s.Allowed[key]; ok && key != "" {
		return col, NormalizeDirection(req.Order), key
	}
	for k, col := range s.Allowed {
		if col == s.Default {
			key = k
			break
		}
	}
	return s.Default, NormalizeDirection(s.DefaultOrder), key
}
