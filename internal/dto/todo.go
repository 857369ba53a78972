package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DueDate parses due_date from JSON as either date-only ("2006-01-02") or RFC3339.
// Date-only is stored as start of that day in UTC. JSON null parses to nil.
type DueDate struct{ t *time.Time }

func (d *DueDate) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		d.t = nil
		return nil
	}
	s := strings.TrimSpace(*raw)
	layouts := []string{
		"2006-01-02",     // date only
		time.RFC3339,     // 2006-01-02T15:04:05Z07:00
		time.RFC3339Nano, // with nanoseconds
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			// If it was date-only (no time component), use start of day UTC
			if layout == "2006-01-02" {
				parsed = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
			}
			d.t = &parsed
			return nil
		}
	}
	return fmt.Errorf("due_date: use date (YYYY-MM-DD) or RFC3339 datetime")
}

// Ptr returns *time.Time for use in service/domain.
func (d DueDate) Ptr() *time.Time { return d.t }

// OptionalTime distinguishes "field omitted" from "field: null" in PATCH
// bodies: Set is false only when the key was absent. A value-typed field is
// required here — encoding/json skips UnmarshalJSON on null for pointer fields.
type OptionalTime struct {
	Set   bool
	Value *time.Time
}

func (o *OptionalTime) UnmarshalJSON(data []byte) error {
	o.Set = true
	var d DueDate
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	o.Value = d.Ptr()
	return nil
}

// CreateTodoRequest is the JSON body for POST /todos. Priority and status
// default to LOW / NEW when omitted.
type CreateTodoRequest struct {
	Name        string  `json:"name" binding:"required,min=3,max=512"`
	Description string  `json:"description" binding:"required,min=1,max=2000"`
	Priority    *int    `json:"priority" binding:"omitempty,oneof=1 2 3"`
	Status      *string `json:"status" binding:"omitempty,oneof=NEW IN_PROGRESS DONE"`
	DueDate     DueDate `json:"due_date"` // optional: "2026-02-19" or RFC3339
}

// ReplaceTodoRequest is the JSON body for PUT /todos/{id}. Same shape as
// create: omitted priority/status fall back to their defaults.
type ReplaceTodoRequest = CreateTodoRequest

// PatchTodoRequest is the JSON body for PATCH /todos/{id}.
// nil = не менять, значение = поставить. due_date additionally
// supports explicit null = clear.
type PatchTodoRequest struct {
	Name        *string      `json:"name" binding:"omitempty,min=3,max=512"`
	Description *string      `json:"description" binding:"omitempty,min=1,max=2000"`
	Priority    *int         `json:"priority" binding:"omitempty,oneof=1 2 3"`
	Status      *string      `json:"status" binding:"omitempty,oneof=NEW IN_PROGRESS DONE"`
	DueDate     OptionalTime `json:"due_date"`
}

// StatusUpdateRequest is the JSON body for PATCH /todos/{id}/status.
type StatusUpdateRequest struct {
	Status string `json:"status" binding:"required,oneof=NEW IN_PROGRESS DONE"`
}

// ListTodosQuery binds the query string of GET /todos.
type ListTodosQuery struct {
	Limit          int     `form:"limit,default=10" binding:"min=1,max=100"`
	Offset         int     `form:"offset,default=0" binding:"min=0"`
	Priority       *int    `form:"priority" binding:"omitempty,oneof=1 2 3"`
	Status         *string `form:"status" binding:"omitempty,oneof=NEW IN_PROGRESS DONE"`
	Q              string  `form:"q" binding:"omitempty,min=1,max=100"`
	Overdue        bool    `form:"overdue"`
	IncludeDeleted bool    `form:"include_deleted"`
	SortBy         string  `form:"sort_by,default=id" binding:"oneof=id name priority status due_date created_at updated_at"`
	Order          string  `form:"order,default=asc" binding:"oneof=asc desc"`
}

// ExportQuery binds the query string of GET /todos/export.
type ExportQuery struct {
	Format         string `form:"format,default=json" binding:"oneof=json csv"`
	IncludeDeleted bool   `form:"include_deleted"`
}

// StatsQuery binds the query string of GET /todos/stats.
type StatsQuery struct {
	IncludeDeleted bool `form:"include_deleted"`
}

// TodoResponse is the wire representation of a record, with the explicit
// field set every read and export route shares.
type TodoResponse struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Priority    int        `json:"priority"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"due_date"`
	IsDeleted   bool       `json:"is_deleted"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type StatsResponse struct {
	Total  int64 `json:"total"`
	High   int64 `json:"high"`
	Medium int64 `json:"medium"`
	Low    int64 `json:"low"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the uniform failure envelope for every error the API
// returns. Detail is either a message string or a list of field violations.
type ErrorResponse struct {
	OK     bool   `json:"ok"`
	Error  string `json:"error"`
	Detail any    `json:"detail"`
	Path   string `json:"path"`
}

// FieldError is one entry of a validation-failure detail list.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}
