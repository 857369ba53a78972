// Package export renders the full record set as a CSV attachment. The JSON
// export shares the regular response shaping in dto.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	dom "todoapi/internal/domain"
)

// Filename is the fixed attachment name for CSV downloads.
const Filename = "todos.csv"

// csvHeader matches the JSON field set, in the same order.
var csvHeader = []string{
	"id", "name", "description", "priority", "status",
	"due_date", "is_deleted", "created_at", "updated_at",
}

// WriteCSV streams the full set as CSV: one header row, RFC3339 timestamps,
// empty string for null due dates.
func WriteCSV(w io.Writer, todos []dom.Todo) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, t := range todos {
		row := []string{
			strconv.FormatInt(t.ID, 10),
			t.Name,
			t.Description,
			strconv.Itoa(int(t.Priority)),
			string(t.Status),
			formatTimePtr(t.DueDate),
			strconv.FormatBool(t.IsDeleted),
			t.CreatedAt.Format(time.RFC3339),
			t.UpdatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
