package repo

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	dom "todoapi/internal/domain"

	"github.com/jackc/pgx/v5"
)

// MemTodoRepo is an in-memory TodoRepo with the same observable semantics
// as PGTodoRepo, including pgx.ErrNoRows on misses. It backs the tests and
// is handy for local runs without Postgres.
type MemTodoRepo struct {
	mu     sync.Mutex
	todos  map[int64]dom.Todo
	nextID int64
}

func NewMemTodoRepo() *MemTodoRepo {
	return &MemTodoRepo{todos: make(map[int64]dom.Todo), nextID: 1}
}

// sortCompare maps each accepted sort field to a comparator, mirroring the
// sortColumns map on the SQL side. Nil due dates sort last ascending (and
// first descending), as Postgres does.
var sortCompare = map[string]func(a, b dom.Todo) int{
	"id":       func(a, b dom.Todo) int { return cmpInt64(a.ID, b.ID) },
	"name":     func(a, b dom.Todo) int { return strings.Compare(a.Name, b.Name) },
	"priority": func(a, b dom.Todo) int { return cmpInt64(int64(a.Priority), int64(b.Priority)) },
	"status":   func(a, b dom.Todo) int { return strings.Compare(string(a.Status), string(b.Status)) },
	"due_date": func(a, b dom.Todo) int {
		switch {
		case a.DueDate == nil && b.DueDate == nil:
			return 0
		case a.DueDate == nil:
			return 1
		case b.DueDate == nil:
			return -1
		default:
			return a.DueDate.Compare(*b.DueDate)
		}
	},
	"created_at": func(a, b dom.Todo) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"updated_at": func(a, b dom.Todo) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (r *MemTodoRepo) Create(_ context.Context, t dom.Todo) (dom.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	t.ID = r.nextID
	r.nextID++
	t.IsDeleted = false
	t.CreatedAt = now
	t.UpdatedAt = now
	r.todos[t.ID] = t
	return t, nil
}

func (r *MemTodoRepo) GetByID(_ context.Context, id int64, includeDeleted bool) (dom.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.todos[id]
	if !ok || (t.IsDeleted && !includeDeleted) {
		return dom.Todo{}, pgx.ErrNoRows
	}
	return t, nil
}

func (r *MemTodoRepo) List(_ context.Context, f ListFilter) ([]dom.Todo, error) {
	cmp, ok := sortCompare[f.SortBy]
	if !ok {
		return nil, pgx.ErrNoRows
	}

	r.mu.Lock()
	matched := r.snapshot()
	r.mu.Unlock()

	now := time.Now().UTC()
	q := strings.ToLower(f.Query)
	filtered := matched[:0]
	for _, t := range matched {
		if t.IsDeleted && !f.IncludeDeleted {
			continue
		}
		if f.Priority != nil && t.Priority != *f.Priority {
			continue
		}
		if f.Status != nil && t.Status != *f.Status {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(t.Name), q) &&
			!strings.Contains(strings.ToLower(t.Description), q) {
			continue
		}
		if f.Overdue && (t.DueDate == nil || !t.DueDate.Before(now)) {
			continue
		}
		filtered = append(filtered, t)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		c := cmp(filtered[i], filtered[j])
		if f.Desc {
			return c > 0
		}
		return c < 0
	})

	if f.Offset >= len(filtered) {
		return nil, nil
	}
	filtered = filtered[f.Offset:]
	if f.Limit < len(filtered) {
		filtered = filtered[:f.Limit]
	}
	return filtered, nil
}

func (r *MemTodoRepo) All(_ context.Context, includeDeleted bool) ([]dom.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []dom.Todo
	for _, t := range r.snapshot() {
		if t.IsDeleted && !includeDeleted {
			continue
		}
		list = append(list, t)
	}
	return list, nil
}

func (r *MemTodoRepo) Replace(_ context.Context, id int64, patch dom.Todo) (dom.Todo, error) {
	return r.mutate(id, false, func(t *dom.Todo) {
		t.Name = patch.Name
		t.Description = patch.Description
		t.Priority = patch.Priority
		t.Status = patch.Status
		t.DueDate = patch.DueDate
	})
}

func (r *MemTodoRepo) SetStatus(_ context.Context, id int64, s dom.Status) (dom.Todo, error) {
	return r.mutate(id, false, func(t *dom.Todo) { t.Status = s })
}

func (r *MemTodoRepo) SetDeleted(_ context.Context, id int64, deleted bool) (dom.Todo, error) {
	return r.mutate(id, !deleted, func(t *dom.Todo) { t.IsDeleted = deleted })
}

func (r *MemTodoRepo) Stats(_ context.Context, includeDeleted bool) (dom.Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var s dom.Stats
	for _, t := range r.todos {
		if t.IsDeleted && !includeDeleted {
			continue
		}
		s.Total++
		switch t.Priority {
		case dom.PriorityHigh:
			s.High++
		case dom.PriorityMedium:
			s.Medium++
		case dom.PriorityLow:
			s.Low++
		}
	}
	return s, nil
}

func (r *MemTodoRepo) CountActive(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, t := range r.todos {
		if !t.IsDeleted {
			n++
		}
	}
	return n, nil
}

// snapshot returns all records sorted by id ascending. Callers own the slice.
func (r *MemTodoRepo) snapshot() []dom.Todo {
	list := make([]dom.Todo, 0, len(r.todos))
	for _, t := range r.todos {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

func (r *MemTodoRepo) mutate(id int64, includeDeleted bool, apply func(*dom.Todo)) (dom.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.todos[id]
	if !ok || (t.IsDeleted && !includeDeleted) {
		return dom.Todo{}, pgx.ErrNoRows
	}
	apply(&t)
	// updated_at must advance on every mutation, even within one clock tick.
	now := time.Now().UTC()
	if !now.After(t.UpdatedAt) {
		now = t.UpdatedAt.Add(time.Microsecond)
	}
	t.UpdatedAt = now
	r.todos[id] = t
	return t, nil
}
