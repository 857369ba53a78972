package repo

import (
	"context"

	dom "todoapi/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ListFilter carries the composable list parameters. All filters combine
// with AND; SortBy must be one of the keys of sortColumns.
type ListFilter struct {
	Limit          int
	Offset         int
	Priority       *dom.Priority
	Status         *dom.Status
	Query          string
	Overdue        bool
	IncludeDeleted bool
	SortBy         string
	Desc           bool
}

type TodoRepo interface {
	Create(ctx context.Context, t dom.Todo) (dom.Todo, error)
	// GetByID returns pgx.ErrNoRows for missing ids and, unless
	// includeDeleted, for soft-deleted ones.
	GetByID(ctx context.Context, id int64, includeDeleted bool) (dom.Todo, error)
	List(ctx context.Context, f ListFilter) ([]dom.Todo, error)
	// All returns the full set ordered by id ascending, for export.
	All(ctx context.Context, includeDeleted bool) ([]dom.Todo, error)
	// Replace overwrites the mutable fields of an active record.
	Replace(ctx context.Context, id int64, t dom.Todo) (dom.Todo, error)
	SetStatus(ctx context.Context, id int64, s dom.Status) (dom.Todo, error)
	// SetDeleted flips the soft-delete flag. Deleting requires an active
	// record; restoring addresses deleted records too.
	SetDeleted(ctx context.Context, id int64, deleted bool) (dom.Todo, error)
	Stats(ctx context.Context, includeDeleted bool) (dom.Stats, error)
	CountActive(ctx context.Context) (int64, error)
}

type PGTodoRepo struct {
	db *pgxpool.Pool
}

func NewPGTodoRepo(db *pgxpool.Pool) *PGTodoRepo {
	return &PGTodoRepo{db: db}
}

const todoFields = `id, name, description, priority, status, due_date, is_deleted, created_at, updated_at`

func scanTodo(row pgx.Row) (dom.Todo, error) {
	var t dom.Todo
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Priority, &t.Status,
		&t.DueDate, &t.IsDeleted, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func collectTodos(rows pgx.Rows) ([]dom.Todo, error) {
	defer rows.Close()
	var list []dom.Todo
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *PGTodoRepo) Create(ctx context.Context, t dom.Todo) (dom.Todo, error) {
	query := `
		INSERT INTO todos (name, description, priority, status, due_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + todoFields
	return scanTodo(r.db.QueryRow(ctx, query, t.Name, t.Description, int(t.Priority), string(t.Status), t.DueDate))
}

func (r *PGTodoRepo) GetByID(ctx context.Context, id int64, includeDeleted bool) (dom.Todo, error) {
	query := `SELECT ` + todoFields + ` FROM todos WHERE id = $1`
	if !includeDeleted {
		query += ` AND NOT is_deleted`
	}
	return scanTodo(r.db.QueryRow(ctx, query, id))
}

func (r *PGTodoRepo) List(ctx context.Context, f ListFilter) ([]dom.Todo, error) {
	query, args, err := buildListQuery(f)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectTodos(rows)
}

func (r *PGTodoRepo) All(ctx context.Context, includeDeleted bool) ([]dom.Todo, error) {
	query := `SELECT ` + todoFields + ` FROM todos`
	if !includeDeleted {
		query += ` WHERE NOT is_deleted`
	}
	query += ` ORDER BY id ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return collectTodos(rows)
}

func (r *PGTodoRepo) Replace(ctx context.Context, id int64, t dom.Todo) (dom.Todo, error) {
	query := `
		UPDATE todos
		SET name = $2, description = $3, priority = $4, status = $5, due_date = $6, updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted
		RETURNING ` + todoFields
	return scanTodo(r.db.QueryRow(ctx, query, id, t.Name, t.Description, int(t.Priority), string(t.Status), t.DueDate))
}

func (r *PGTodoRepo) SetStatus(ctx context.Context, id int64, s dom.Status) (dom.Todo, error) {
	query := `
		UPDATE todos SET status = $2, updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted
		RETURNING ` + todoFields
	return scanTodo(r.db.QueryRow(ctx, query, id, string(s)))
}

func (r *PGTodoRepo) SetDeleted(ctx context.Context, id int64, deleted bool) (dom.Todo, error) {
	query := `UPDATE todos SET is_deleted = $2, updated_at = NOW() WHERE id = $1`
	if deleted {
		query += ` AND NOT is_deleted`
	}
	query += ` RETURNING ` + todoFields
	return scanTodo(r.db.QueryRow(ctx, query, id, deleted))
}

func (r *PGTodoRepo) Stats(ctx context.Context, includeDeleted bool) (dom.Stats, error) {
	query, args, err := buildStatsQuery(includeDeleted)
	if err != nil {
		return dom.Stats{}, err
	}
	var s dom.Stats
	err = r.db.QueryRow(ctx, query, args...).Scan(&s.Total, &s.High, &s.Medium, &s.Low)
	return s, err
}

func (r *PGTodoRepo) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM todos WHERE NOT is_deleted`).Scan(&n)
	return n, err
}
