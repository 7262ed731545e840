package service

import (
	"strconv"
	"strings"

	"github.com/aryan0dhankhar/bloggingapi/internal/domain"
)

// ListParams are the raw query-string values of a blog listing
type ListParams struct {
	Page   string
	Limit  string
	Q      string
	Tags   string
	Author string
	Sort   string
	State  string
}

// Pagination is a resolved page window
type Pagination struct {
	Page  int
	Limit int
}

// Skip returns the number of documents before this page
func (p Pagination) Skip() int64 {
	return int64(p.Page-1) * int64(p.Limit)
}

// ParsePagination resolves page (default 1) and limit (default def, capped at max).
// Values that are not positive integers fall back to the defaults.
func ParsePagination(page, limit string, def, max int) Pagination {
	p := Pagination{Page: 1, Limit: def}
	if n, err := strconv.Atoi(strings.TrimSpace(page)); err == nil && n >= 1 {
		p.Page = n
	}
	if n, err := strconv.Atoi(strings.TrimSpace(limit)); err == nil && n >= 1 {
		p.Limit = n
	}
	if max > 0 && p.Limit > max {
		p.Limit = max
	}
	return p
}

var sortKeys = map[string]string{
	"read_count":   domain.FieldReadCount,
	"reading_time": domain.FieldReadingTime,
	"timestamp":    domain.FieldCreatedAt,
}

// ParseSort maps a comma-separated sort expression such as "-read_count,timestamp" to sort
// fields. Unknown keys are dropped and a repeated key keeps its first position with
// the last direction given. An empty result means newest first.
func ParseSort(expr string) []domain.SortField {
	fields := []domain.SortField{}
	pos := map[string]int{}
	for _, tok := range strings.Split(expr, ",") {
		tok = strings.TrimSpace(tok)
		desc := strings.HasPrefix(tok, "-")
		field, ok := sortKeys[strings.TrimPrefix(tok, "-")]
		if !ok {
			continue
		}
		if i, seen := pos[field]; seen {
			fields[i].Desc = desc
			continue
		}
		pos[field] = len(fields)
		fields = append(fields, domain.SortField{Field: field, Desc: desc})
	}
	if len(fields) == 0 {
		return []domain.SortField{{Field: domain.FieldCreatedAt, Desc: true}}
	}
	return fields
}
