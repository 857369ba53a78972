package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	dom "todoapi/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	due := time.Date(2026, 2, 19, 10, 30, 0, 0, time.UTC)
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	todos := []dom.Todo{
		{
			ID: 1, Name: "Sports", Description: "Go to the Gym",
			Priority: dom.PriorityMedium, Status: dom.StatusInProgress,
			DueDate: &due, CreatedAt: created, UpdatedAt: created,
		},
		{
			ID: 2, Name: "Read", Description: "Chapter 5, \"The Plan\"",
			Priority: dom.PriorityLow, Status: dom.StatusDone,
			IsDeleted: true, CreatedAt: created, UpdatedAt: created.Add(time.Hour),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, todos))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{
		"id", "name", "description", "priority", "status",
		"due_date", "is_deleted", "created_at", "updated_at",
	}, rows[0])
	assert.Equal(t, []string{
		"1", "Sports", "Go to the Gym", "2", "IN_PROGRESS",
		"2026-02-19T10:30:00Z", "false", "2026-01-01T00:00:00Z", "2026-01-01T00:00:00Z",
	}, rows[1])
	// Null due_date renders as empty string; quoting survives round-trip.
	assert.Equal(t, "", rows[2][5])
	assert.Equal(t, `Chapter 5, "The Plan"`, rows[2][2])
	assert.Equal(t, "true", rows[2][6])
}

func TestWriteCSVEmptySet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1, "header only")
}
