package query

import (
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyFiltersDeterministicOrder(t *testing.T) {
	spec := FilterSpec{
		{Param: "class_id", Column: "a.class_id"},
		{Param: "student_id", Column: "a.student_id"},
		{Param: "date", Column: "a.date"},
	}
	params := url.Values{}
	params.Set("date", "2024-05-01")
	params.Set("class_id", "c1")
	params.Set("student_id", "s1")

	for i := 0; i < 5; i++ {
		b := New("SELECT a.id", "FROM attendance a").ApplyFilters(params, spec)
		sql, args := b.Build()
		assert.Equal(t, "SELECT a.id FROM attendance a WHERE a.class_id = $1 AND a.student_id = $2 AND a.date = $3", sql)
		assert.Equal(t, []interface{}{"c1", "s1", "2024-05-01"}, args)
	}
}

func TestApplyFiltersSkipsUndeclaredAndEmpty(t *testing.T) {
	spec := FilterSpec{{Param: "class_id", Column: "a.class_id"}}
	params := url.Values{}
	params.Set("class_id", "")
	params.Set("school_id", "evil")

	sql, args := New("SELECT a.id", "FROM attendance a").ApplyFilters(params, spec).Build()
	assert.Equal(t, "SELECT a.id FROM attendance a", sql)
	assert.Empty(t, args)
}

func TestApplySearchGroupsFields(t *testing.T) {
	params := url.Values{}
	params.Set("search", "Dara")

	sql, args := New("SELECT u.id", "FROM users u").
		ApplySearch(params, []string{"u.first_name", "u.last_name"}).
		Build()
	assert.Equal(t, "SELECT u.id FROM users u WHERE (LOWER(u.first_name) LIKE $1 OR LOWER(u.last_name) LIKE $2)", sql)
	assert.Equal(t, []interface{}{"%dara%", "%dara%"}, args)
}

func TestApplySearchNoFieldsIsNoop(t *testing.T) {
	params := url.Values{}
	params.Set("search", "x")
	sql, args := New("SELECT 1", "FROM t").ApplySearch(params, nil).Build()
	assert.Equal(t, "SELECT 1 FROM t", sql)
	assert.Empty(t, args)
}

func TestApplySortSanitizesInjection(t *testing.T) {
	params := url.Values{}
	params.Set("sort_by", "id; DROP TABLE x")
	params.Set("order", "desc")

	sql, _ := New("SELECT id", "FROM scores").ApplySort(params, "date_recorded DESC").Build()
	assert.Equal(t, "SELECT id FROM scores ORDER BY idDROPTABLEx DESC", sql)
	assert.NotContains(t, sql, ";")
	assert.NotContains(t, sql, "'")
	after := sql[strings.Index(sql, "ORDER BY "):]
	assert.Equal(t, 2, strings.Count(after, " "), "sanitized column must contain no spaces")
}

func TestApplySortFallsBackWhenSanitizedEmpty(t *testing.T) {
	params := url.Values{}
	params.Set("sort_by", ";-- ")
	params.Set("order", "desc")

	sql, _ := New("SELECT id", "FROM scores").ApplySort(params, "date_recorded DESC").Build()
	assert.Equal(t, "SELECT id FROM scores ORDER BY date_recorded DESC", sql)
}

func TestApplySortDefaultDirectionIsAsc(t *testing.T) {
	params := url.Values{}
	params.Set("sort_by", "name")
	sql, _ := New("SELECT id", "FROM subjects").ApplySort(params, "id").Build()
	assert.Equal(t, "SELECT id FROM subjects ORDER BY name ASC", sql)
}

func TestApplyPaginationMath(t *testing.T) {
	params := url.Values{}
	params.Set("page", "3")
	params.Set("limit", "20")

	sql, args := New("SELECT id", "FROM events").ApplyPagination(params, 25).Build()
	assert.Equal(t, "SELECT id FROM events LIMIT $1 OFFSET $2", sql)
	assert.Equal(t, []interface{}{20, 40}, args)
}

func TestApplyPaginationDefaults(t *testing.T) {
	sql, args := New("SELECT id", "FROM events").ApplyPagination(url.Values{}, 25).Build()
	assert.Equal(t, "SELECT id FROM events LIMIT $1 OFFSET $2", sql)
	assert.Equal(t, []interface{}{25, 0}, args)

	params := url.Values{}
	params.Set("page", "0")
	params.Set("limit", "-5")
	_, args = New("SELECT id", "FROM events").ApplyPagination(params, 25).Build()
	assert.Equal(t, []interface{}{25, 0}, args)
}

func TestFullBuildOrdering(t *testing.T) {
	spec := FilterSpec{{Param: "school_id", Column: "c.school_id"}}
	params := url.Values{}
	params.Set("school_id", "sch-5")
	params.Set("search", "math")
	params.Set("page", "2")
	params.Set("limit", "10")

	b := New("SELECT c.id, c.name", "FROM classes c").
		ApplyFilters(params, spec).
		ApplySearch(params, []string{"c.name"}).
		ApplySort(params, "c.name ASC").
		ApplyPagination(params, 25)

	sql, args := b.Build()
	require.Equal(t,
		"SELECT c.id, c.name FROM classes c WHERE c.school_id = $1 AND (LOWER(c.name) LIKE $2) ORDER BY c.name ASC LIMIT $3 OFFSET $4",
		sql)
	assert.Equal(t, []interface{}{"sch-5", "%math%", 10, 10}, args)

	page, limit := b.Page()
	assert.Equal(t, 2, page)
	assert.Equal(t, 10, limit)
}

func TestBuildCountExcludesOrderAndLimit(t *testing.T) {
	params := url.Values{}
	params.Set("school_id", "sch-1")
	params.Set("page", "4")
	params.Set("limit", "50")

	b := New("SELECT c.id", "FROM classes c").
		ApplyFilters(params, FilterSpec{{Param: "school_id", Column: "c.school_id"}}).
		ApplySort(params, "c.name ASC").
		ApplyPagination(params, 25)

	countSQL, countArgs := b.BuildCount()
	assert.Equal(t, "SELECT COUNT(*) FROM classes c WHERE c.school_id = $1", countSQL)
	assert.Equal(t, []interface{}{"sch-1"}, countArgs)

	// Building the count must not disturb the main statement's args.
	sql, args := b.Build()
	assert.Contains(t, sql, "LIMIT $2 OFFSET $3")
	assert.Len(t, args, 3)
}

func TestNoDanglingWhere(t *testing.T) {
	sql, args := New("SELECT id", "FROM schools").Build()
	assert.Equal(t, "SELECT id FROM schools", sql)
	assert.Empty(t, args)
	assert.NotContains(t, sql, "WHERE")
}

func TestConditionPlaceholderNumbering(t *testing.T) {
	b := New("SELECT id", "FROM scores").
		Where("class_id", "c1").
		Condition("date_recorded >= $%d", "2024-01-01").
		Condition("date_recorded <= $%d", "2024-12-31")
	sql, args := b.Build()
	assert.Equal(t, "SELECT id FROM scores WHERE class_id = $1 AND date_recorded >= $2 AND date_recorded <= $3", sql)
	require.Len(t, args, 3)
	for i := 1; i <= 3; i++ {
		assert.Contains(t, sql, fmt.Sprintf("$%d", i))
	}
}
