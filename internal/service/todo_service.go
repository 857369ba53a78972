package service

import (
	"context"
	"errors"
	"strings"
	"time"

	dom "todoapi/internal/domain"
	"todoapi/internal/repo"

	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("todo not found")

// Input is the validated mutable part of a todo. Pointers carry the
// create/replace defaults: nil priority = LOW, nil status = NEW.
type Input struct {
	Name        string
	Description string
	Priority    *dom.Priority
	Status      *dom.Status
	DueDate     *time.Time
}

// Patch is a partial update. Nil = leave unchanged. DueDateSet marks the
// due_date key as present so explicit null clears the value.
type Patch struct {
	Name        *string
	Description *string
	Priority    *dom.Priority
	Status      *dom.Status
	DueDateSet  bool
	DueDate     *time.Time
}

type TodoService struct {
	repo repo.TodoRepo
}

func NewTodoService(r repo.TodoRepo) *TodoService {
	return &TodoService{repo: r}
}

func (s *TodoService) Create(ctx context.Context, in Input) (dom.Todo, error) {
	return s.repo.Create(ctx, materialize(in))
}

func (s *TodoService) GetByID(ctx context.Context, id int64) (dom.Todo, error) {
	t, err := s.repo.GetByID(ctx, id, false)
	return t, notFoundErr(err)
}

func (s *TodoService) List(ctx context.Context, f repo.ListFilter) ([]dom.Todo, error) {
	return s.repo.List(ctx, f)
}

// Export returns the full filtered set ordered by id ascending.
func (s *TodoService) Export(ctx context.Context, includeDeleted bool) ([]dom.Todo, error) {
	return s.repo.All(ctx, includeDeleted)
}

func (s *TodoService) Stats(ctx context.Context, includeDeleted bool) (dom.Stats, error) {
	return s.repo.Stats(ctx, includeDeleted)
}

func (s *TodoService) Replace(ctx context.Context, id int64, in Input) (dom.Todo, error) {
	t, err := s.repo.Replace(ctx, id, materialize(in))
	return t, notFoundErr(err)
}

func (s *TodoService) Update(ctx context.Context, id int64, p Patch) (dom.Todo, error) {
	existing, err := s.repo.GetByID(ctx, id, false)
	if err != nil {
		return dom.Todo{}, notFoundErr(err)
	}
	patch := existing
	if p.Name != nil {
		patch.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		patch.Description = strings.TrimSpace(*p.Description)
	}
	if p.Priority != nil {
		patch.Priority = *p.Priority
	}
	if p.Status != nil {
		patch.Status = *p.Status
	}
	if p.DueDateSet {
		patch.DueDate = p.DueDate
	}
	t, err := s.repo.Replace(ctx, id, patch)
	return t, notFoundErr(err)
}

func (s *TodoService) SetStatus(ctx context.Context, id int64, status dom.Status) (dom.Todo, error) {
	t, err := s.repo.SetStatus(ctx, id, status)
	return t, notFoundErr(err)
}

func (s *TodoService) Delete(ctx context.Context, id int64) error {
	_, err := s.repo.SetDeleted(ctx, id, true)
	return notFoundErr(err)
}

// Restore clears the soft-delete flag; unlike the other mutations it
// addresses deleted records.
func (s *TodoService) Restore(ctx context.Context, id int64) (dom.Todo, error) {
	t, err := s.repo.SetDeleted(ctx, id, false)
	return t, notFoundErr(err)
}

// Seed inserts the example records once, iff no active record exists.
func (s *TodoService) Seed(ctx context.Context) error {
	n, err := s.repo.CountActive(ctx)
	if err != nil || n > 0 {
		return err
	}
	now := time.Now().UTC()
	seeds := []dom.Todo{
		{Name: "Sports", Description: "Go to the Gym", Priority: dom.PriorityMedium, Status: dom.StatusInProgress},
		{Name: "Clean house", Description: "Cleaning the house thoroughly", Priority: dom.PriorityHigh, Status: dom.StatusNew},
		{Name: "Read", Description: "Read chapter 5 of the book", Priority: dom.PriorityLow, Status: dom.StatusDone},
		{Name: "Work", Description: "Complete project documentation", Priority: dom.PriorityMedium, Status: dom.StatusNew, DueDate: &now},
		{Name: "Study", Description: "Prepare for upcoming exam", Priority: dom.PriorityLow, Status: dom.StatusNew},
	}
	for _, t := range seeds {
		if _, err := s.repo.Create(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func materialize(in Input) dom.Todo {
	t := dom.Todo{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Priority:    dom.PriorityLow,
		Status:      dom.StatusNew,
		DueDate:     in.DueDate,
	}
	if in.Priority != nil {
		t.Priority = *in.Priority
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	return t
}

func notFoundErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
