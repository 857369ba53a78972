package domain

import "time"

// Priority levels. Lower value = higher urgency, matching the wire format.
type Priority int

const (
	PriorityHigh   Priority = 1
	PriorityMedium Priority = 2
	PriorityLow    Priority = 3
)

// Valid reports whether p is one of the three known levels.
func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// Status values a todo can hold. Any status may move to any other,
// there is no workflow state machine.
type Status string

const (
	StatusNew        Status = "NEW"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

// Valid reports whether s is one of the three known statuses.
func (s Status) Valid() bool {
	return s == StatusNew || s == StatusInProgress || s == StatusDone
}

// Domain entity: бизнес-объект (истина).
// Не зависит от Gin и Postgres.
type Todo struct {
	ID          int64
	Name        string
	Description string
	Priority    Priority
	Status      Status
	DueDate     *time.Time

	IsDeleted bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Stats holds the aggregate counters over one consistent read.
// Total always equals High + Medium + Low.
type Stats struct {
	Total  int64
	High   int64
	Medium int64
	Low    int64
}
