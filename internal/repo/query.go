package repo

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// sortColumns is the fixed sort_by -> column map. Anything outside it never
// reaches SQL: validation rejects it first, and buildListQuery errors as a
// second line of checking.
var sortColumns = map[string]string{
	"id":         "id",
	"name":       "name",
	"priority":   "priority",
	"status":     "status",
	"due_date":   "due_date",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

// buildListQuery assembles the single list SELECT: conjunctive filters,
// ORDER BY, then LIMIT/OFFSET.
func buildListQuery(f ListFilter) (string, []any, error) {
	col, ok := sortColumns[f.SortBy]
	if !ok {
		return "", nil, fmt.Errorf("unknown sort_by %q", f.SortBy)
	}

	b := psql.Select(
		"id", "name", "description", "priority", "status",
		"due_date", "is_deleted", "created_at", "updated_at",
	).From("todos")

	if !f.IncludeDeleted {
		b = b.Where(sq.Eq{"is_deleted": false})
	}
	if f.Priority != nil {
		b = b.Where(sq.Eq{"priority": int(*f.Priority)})
	}
	if f.Status != nil {
		b = b.Where(sq.Eq{"status": string(*f.Status)})
	}
	if f.Query != "" {
		pattern := "%" + f.Query + "%"
		b = b.Where(sq.Or{
			sq.ILike{"name": pattern},
			sq.ILike{"description": pattern},
		})
	}
	if f.Overdue {
		b = b.Where("due_date IS NOT NULL AND due_date < NOW()")
	}

	dir := " ASC"
	if f.Desc {
		dir = " DESC"
	}
	b = b.OrderBy(col + dir).
		Limit(uint64(f.Limit)).
		Offset(uint64(f.Offset))

	return b.ToSql()
}

// buildStatsQuery produces all four counters in one statement so the
// numbers come from a single consistent read.
func buildStatsQuery(includeDeleted bool) (string, []any, error) {
	b := psql.Select(
		"COUNT(*) AS total",
		"COUNT(*) FILTER (WHERE priority = 1) AS high",
		"COUNT(*) FILTER (WHERE priority = 2) AS medium",
		"COUNT(*) FILTER (WHERE priority = 3) AS low",
	).From("todos")

	if !includeDeleted {
		b = b.Where(sq.Eq{"is_deleted": false})
	}
	return b.ToSql()
}
