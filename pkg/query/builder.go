// Package query assembles filtered, sorted and paginated SELECT statements
// from untrusted request parameters. Clause ordering and bind-parameter
// ordering are guaranteed by construction: conditions are collected in
// insertion order and every placeholder is numbered when its argument is
// appended.
package query

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Filter declares a single request-parameter to database-column mapping.
// Only declared parameters are filterable; everything else in the query
// string is ignored.
type Filter struct {
	Param  string
	Column string
}

// FilterSpec is an ordered list of filter declarations. Slice order defines
// WHERE-clause order, so generated SQL is reproducible.
type FilterSpec []Filter

var sortColumnSanitizer = regexp.MustCompile(`[^A-Za-z0-9_.]+`)

// Builder accumulates WHERE conditions, sorting and pagination for one
// statement. The zero value is not usable; construct with New.
type Builder struct {
	selectList string
	from       string
	conds      []string
	args       []interface{}
	orderBy    string
	limit      int
	offset     int
	paginated  bool
}

// New creates a builder from a select list and a FROM fragment (joins
// included, no WHERE/ORDER BY/LIMIT).
func New(selectList, from string) *Builder {
	return &Builder{selectList: selectList, from: from}
}

// Condition appends a raw predicate whose format string contains exactly one
// %d verb for the placeholder number, e.g. "a.date >= $%d".
func (b *Builder) Condition(expr string, value interface{}) *Builder {
	b.conds = append(b.conds, fmt.Sprintf(expr, len(b.args)+1))
	b.args = append(b.args, value)
	return b
}

// Where appends an equality predicate for a column.
func (b *Builder) Where(column string, value interface{}) *Builder {
	return b.Condition(column+" = $%d", value)
}

// ApplyFilters adds an equality predicate for every declared filter whose
// parameter is present and non-empty. Clause order follows spec order.
func (b *Builder) ApplyFilters(params url.Values, spec FilterSpec) *Builder {
	for _, f := range spec {
		if v := params.Get(f.Param); v != "" {
			b.Where(f.Column, v)
		}
	}
	return b
}

// ApplySearch appends one OR-grouped LIKE predicate across the given fields
// when a search term is present, one %term% bind value per field in field
// order.
func (b *Builder) ApplySearch(params url.Values, fields []string) *Builder {
	term := params.Get("search")
	if term == "" || len(fields) == 0 {
		return b
	}
	like := "%" + strings.ToLower(term) + "%"
	parts := make([]string, len(fields))
	for i, field := range fields {
		parts[i] = fmt.Sprintf("LOWER(%s) LIKE $%d", field, len(b.args)+1)
		b.args = append(b.args, like)
	}
	b.conds = append(b.conds, "("+strings.Join(parts, " OR ")+")")
	return b
}

// ApplySort sets the ORDER BY expression. A caller-supplied sort_by column is
// sanitized to [A-Za-z0-9_.]; if sanitization leaves nothing, the default
// sort expression is used instead of emitting a bare direction.
func (b *Builder) ApplySort(params url.Values, defaultSort string) *Builder {
	sortBy := sortColumnSanitizer.ReplaceAllString(params.Get("sort_by"), "")
	if sortBy == "" {
		if defaultSort != "" {
			b.orderBy = "ORDER BY " + defaultSort
		}
		return b
	}
	dir := "ASC"
	if strings.EqualFold(params.Get("order"), "desc") {
		dir = "DESC"
	}
	b.orderBy = fmt.Sprintf("ORDER BY %s %s", sortBy, dir)
	return b
}

// ApplyPagination reads page and limit, falling back to page 1 and the given
// default limit. LIMIT/OFFSET are bound as parameters at build time.
func (b *Builder) ApplyPagination(params url.Values, defaultLimit int) *Builder {
	limit := intParam(params, "limit", defaultLimit)
	if limit < 1 {
		limit = defaultLimit
	}
	page := intParam(params, "page", 1)
	if page < 1 {
		page = 1
	}
	b.limit = limit
	b.offset = (page - 1) * limit
	b.paginated = true
	return b
}

// Page returns the effective page and limit after clamping, for pagination
// metadata. Valid only after ApplyPagination.
func (b *Builder) Page() (page, limit int) {
	if !b.paginated || b.limit == 0 {
		return 1, 0
	}
	return b.offset/b.limit + 1, b.limit
}

// Build assembles the final statement: WHERE (filters, then search), then
// ORDER BY, then LIMIT/OFFSET. No WHERE keyword is emitted when there are no
// conditions.
func (b *Builder) Build() (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString(b.selectList)
	sb.WriteString(" ")
	sb.WriteString(b.from)
	sb.WriteString(b.whereClause())
	if b.orderBy != "" {
		sb.WriteString(" ")
		sb.WriteString(b.orderBy)
	}
	args := make([]interface{}, len(b.args))
	copy(args, b.args)
	if b.paginated {
		sb.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2))
		args = append(args, b.limit, b.offset)
	}
	return sb.String(), args
}

// BuildCount returns the COUNT(*) twin over the same FROM and WHERE, without
// ordering or pagination, for total-count queries.
func (b *Builder) BuildCount() (string, []interface{}) {
	args := make([]interface{}, len(b.args))
	copy(args, b.args)
	return "SELECT COUNT(*) " + b.from + b.whereClause(), args
}

func (b *Builder) whereClause() string {
	if len(b.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conds, " AND ")
}

// PageParams clamps the page and limit parameters the same way
// ApplyPagination does, for callers that only need pagination metadata.
func PageParams(params url.Values, defaultLimit int) (page, limit int) {
	limit = intParam(params, "limit", defaultLimit)
	if limit < 1 {
		limit = defaultLimit
	}
	page = intParam(params, "page", 1)
	if page < 1 {
		page = 1
	}
	return page, limit
}

func intParam(params url.Values, key string, fallback int) int {
	raw := params.Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
