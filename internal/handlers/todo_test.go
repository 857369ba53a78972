package handlers_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"todoapi/internal/app"
	"todoapi/internal/config"
	"todoapi/internal/dto"
	"todoapi/internal/repo"
	"todoapi/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "test-key"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	cfg := config.Config{Auth: config.AuthConfig{APIKey: testKey}}
	svc := service.NewTodoService(repo.NewMemTodoRepo())
	app.Setup(r, cfg, svc)
	return r
}

func do(t *testing.T, r http.Handler, method, path, key string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeTodo(t *testing.T, w *httptest.ResponseRecorder) dto.TodoResponse {
	t.Helper()
	var out dto.TodoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func decodeTodos(t *testing.T, w *httptest.ResponseRecorder) []dto.TodoResponse {
	t.Helper()
	var out []dto.TodoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func createTodo(t *testing.T, r http.Handler, body map[string]any) dto.TodoResponse {
	t.Helper()
	w := do(t, r, http.MethodPost, "/todos", testKey, body)
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
	return decodeTodo(t, w)
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestMutatingRoutesRequireAPIKey(t *testing.T) {
	r := newTestRouter(t)
	created := createTodo(t, r, map[string]any{"name": "Keep me", "description": "intact"})

	routes := []struct {
		method, path string
		body         any
	}{
		{http.MethodPost, "/todos", map[string]any{"name": "Nope", "description": "nope"}},
		{http.MethodPut, fmt.Sprintf("/todos/%d", created.ID), map[string]any{"name": "Nope!", "description": "nope"}},
		{http.MethodPatch, fmt.Sprintf("/todos/%d", created.ID), map[string]any{"name": "Nope!"}},
		{http.MethodPatch, fmt.Sprintf("/todos/%d/status", created.ID), map[string]any{"status": "DONE"}},
		{http.MethodPost, fmt.Sprintf("/todos/%d/restore", created.ID), nil},
		{http.MethodDelete, fmt.Sprintf("/todos/%d", created.ID), nil},
	}
	for _, key := range []string{"", "wrong-key"} {
		for _, rt := range routes {
			w := do(t, r, rt.method, rt.path, key, rt.body)
			assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s key=%q", rt.method, rt.path, key)
			env := decodeEnvelope(t, w)
			assert.Equal(t, false, env["ok"])
			assert.Equal(t, "Unauthorized", env["error"])
		}
	}

	// Nothing changed and nothing extra was created.
	w := do(t, r, http.MethodGet, "/todos", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeTodos(t, w)
	require.Len(t, list, 1)
	assert.Equal(t, created, list[0])
}

func TestReadRoutesNeedNoAPIKey(t *testing.T) {
	r := newTestRouter(t)
	created := createTodo(t, r, map[string]any{"name": "Readable", "description": "by anyone"})

	for _, path := range []string{
		"/todos",
		"/todos/stats",
		"/todos/export",
		fmt.Sprintf("/todos/%d", created.ID),
	} {
		w := do(t, r, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, w.Code, "GET %s", path)
	}
}

func TestCreateValidationListsEveryViolation(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodPost, "/todos", testKey, map[string]any{
		"name":        "ab",
		"description": "",
		"priority":    9,
		"status":      "LATER",
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	env := decodeEnvelope(t, w)
	assert.Equal(t, false, env["ok"])
	assert.Equal(t, "ValidationError", env["error"])
	assert.Equal(t, "/todos", env["path"])

	detail, ok := env["detail"].([]any)
	require.True(t, ok, "detail must be a list, got %T", env["detail"])
	fields := map[string]bool{}
	for _, d := range detail {
		entry := d.(map[string]any)
		fields[entry["field"].(string)] = true
	}
	for _, f := range []string{"name", "description", "priority", "status"} {
		assert.True(t, fields[f], "missing violation for %s, detail: %v", f, detail)
	}
}

func TestCreateAppliesDefaultsAndTimestamps(t *testing.T) {
	r := newTestRouter(t)
	created := createTodo(t, r, map[string]any{"name": "Minimal", "description": "just the basics"})

	assert.Positive(t, created.ID)
	assert.Equal(t, 3, created.Priority)
	assert.Equal(t, "NEW", created.Status)
	assert.Nil(t, created.DueDate)
	assert.False(t, created.IsDeleted)
	assert.True(t, created.CreatedAt.Equal(created.UpdatedAt))

	w := do(t, r, http.MethodGet, fmt.Sprintf("/todos/%d", created.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created, decodeTodo(t, w))
}

func TestListLimitBounds(t *testing.T) {
	r := newTestRouter(t)
	for i := 0; i < 15; i++ {
		createTodo(t, r, map[string]any{"name": fmt.Sprintf("item %02d", i), "description": "filler"})
	}

	for _, bad := range []string{"0", "101", "-1", "abc"} {
		w := do(t, r, http.MethodGet, "/todos?limit="+bad, "", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "limit=%s", bad)
	}

	w := do(t, r, http.MethodGet, "/todos", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeTodos(t, w), 10, "default limit is 10")

	w = do(t, r, http.MethodGet, "/todos?limit=100", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeTodos(t, w), 15)

	w = do(t, r, http.MethodGet, "/todos?limit=4&offset=12", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeTodos(t, w), 3)
}

func TestListRejectsUnknownSort(t *testing.T) {
	r := newTestRouter(t)
	for _, q := range []string{"sort_by=bogus", "sort_by=is_deleted", "order=sideways"} {
		w := do(t, r, http.MethodGet, "/todos?"+q, "", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "query %s", q)
	}
}

func TestListFilters(t *testing.T) {
	r := newTestRouter(t)
	createTodo(t, r, map[string]any{"name": "Buy milk", "description": "2 percent", "priority": 2})
	createTodo(t, r, map[string]any{"name": "Gym", "description": "leg day", "priority": 1, "status": "IN_PROGRESS"})
	createTodo(t, r, map[string]any{"name": "Taxes", "description": "overdue paperwork", "priority": 1, "due_date": "2020-01-01"})

	w := do(t, r, http.MethodGet, "/todos?priority=1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeTodos(t, w), 2)

	w = do(t, r, http.MethodGet, "/todos?priority=1&status=IN_PROGRESS", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeTodos(t, w)
	require.Len(t, list, 1, "filters combine with AND")
	assert.Equal(t, "Gym", list[0].Name)

	// q matches name OR description, case-insensitively.
	w = do(t, r, http.MethodGet, "/todos?q=MILK", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decodeTodos(t, w), 1)

	w = do(t, r, http.MethodGet, "/todos?q=leg", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decodeTodos(t, w), 1)

	w = do(t, r, http.MethodGet, "/todos?overdue=true", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list = decodeTodos(t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "Taxes", list[0].Name)
}

func TestListSortingMonotonic(t *testing.T) {
	r := newTestRouter(t)
	createTodo(t, r, map[string]any{"name": "charlie", "description": "x", "priority": 2})
	createTodo(t, r, map[string]any{"name": "alpha", "description": "x", "priority": 3})
	createTodo(t, r, map[string]any{"name": "bravo", "description": "x", "priority": 1})

	w := do(t, r, http.MethodGet, "/todos?sort_by=name&order=asc", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeTodos(t, w)
	require.Len(t, list, 3)
	for i := 1; i < len(list); i++ {
		assert.LessOrEqual(t, list[i-1].Name, list[i].Name)
	}

	w = do(t, r, http.MethodGet, "/todos?sort_by=priority&order=desc", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list = decodeTodos(t, w)
	require.Len(t, list, 3)
	for i := 1; i < len(list); i++ {
		assert.GreaterOrEqual(t, list[i-1].Priority, list[i].Priority)
	}

	w = do(t, r, http.MethodGet, "/todos?sort_by=id&order=desc", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list = decodeTodos(t, w)
	require.Len(t, list, 3)
	for i := 1; i < len(list); i++ {
		assert.GreaterOrEqual(t, list[i-1].ID, list[i].ID)
	}
}

func TestListSoftDeleteVisibility(t *testing.T) {
	r := newTestRouter(t)
	keep := createTodo(t, r, map[string]any{"name": "Keeper", "description": "stays"})
	gone := createTodo(t, r, map[string]any{"name": "Goner", "description": "leaves"})

	w := do(t, r, http.MethodDelete, fmt.Sprintf("/todos/%d", gone.ID), testKey, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = do(t, r, http.MethodGet, "/todos", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeTodos(t, w)
	require.Len(t, list, 1)
	assert.Equal(t, keep.ID, list[0].ID)
	for _, item := range list {
		assert.False(t, item.IsDeleted)
	}

	w = do(t, r, http.MethodGet, "/todos?include_deleted=true", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list = decodeTodos(t, w)
	assert.Len(t, list, 2)
}

func TestStatsInvariant(t *testing.T) {
	r := newTestRouter(t)
	createTodo(t, r, map[string]any{"name": "High one", "description": "x", "priority": 1})
	createTodo(t, r, map[string]any{"name": "Medium one", "description": "x", "priority": 2})
	createTodo(t, r, map[string]any{"name": "Low one", "description": "x", "priority": 3})
	extra := createTodo(t, r, map[string]any{"name": "Low two", "description": "x", "priority": 3})

	w := do(t, r, http.MethodDelete, fmt.Sprintf("/todos/%d", extra.ID), testKey, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	var stats dto.StatsResponse
	w = do(t, r, http.MethodGet, "/todos/stats", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, stats.Total, stats.High+stats.Medium+stats.Low)

	w = do(t, r, http.MethodGet, "/todos/stats?include_deleted=true", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, stats.Total, stats.High+stats.Medium+stats.Low)
}

func TestExportFormatsAgree(t *testing.T) {
	r := newTestRouter(t)
	createTodo(t, r, map[string]any{"name": "First", "description": "a", "due_date": "2026-02-19"})
	createTodo(t, r, map[string]any{"name": "Second", "description": "b"})
	third := createTodo(t, r, map[string]any{"name": "Third", "description": "c"})

	w := do(t, r, http.MethodDelete, fmt.Sprintf("/todos/%d", third.ID), testKey, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, r, http.MethodGet, "/todos/export?format=json", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	jsonList := decodeTodos(t, w)
	require.Len(t, jsonList, 2)
	// Always id ascending.
	for i := 1; i < len(jsonList); i++ {
		assert.Less(t, jsonList[i-1].ID, jsonList[i].ID)
	}

	w = do(t, r, http.MethodGet, "/todos/export?format=csv", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename=todos.csv`, w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")

	rows, err := csv.NewReader(bytes.NewReader(w.Body.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, len(jsonList)+1)
	assert.Equal(t, []string{
		"id", "name", "description", "priority", "status",
		"due_date", "is_deleted", "created_at", "updated_at",
	}, rows[0])
	for i, rec := range jsonList {
		assert.Equal(t, fmt.Sprintf("%d", rec.ID), rows[i+1][0])
		assert.Equal(t, rec.Name, rows[i+1][1])
	}

	// include_deleted brings the third record back into both formats.
	w = do(t, r, http.MethodGet, "/todos/export?format=json&include_deleted=true", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeTodos(t, w), 3)

	w = do(t, r, http.MethodGet, "/todos/export?format=xml", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestReplaceOverwritesEverything(t *testing.T) {
	r := newTestRouter(t)
	created := createTodo(t, r, map[string]any{
		"name": "Before", "description": "old", "priority": 1, "status": "IN_PROGRESS", "due_date": "2026-02-19",
	})

	w := do(t, r, http.MethodPut, fmt.Sprintf("/todos/%d", created.ID), testKey, map[string]any{
		"name": "After", "description": "new",
	})
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeTodo(t, w)
	assert.Equal(t, "After", got.Name)
	assert.Equal(t, "new", got.Description)
	assert.Equal(t, 3, got.Priority, "omitted priority falls back to LOW")
	assert.Equal(t, "NEW", got.Status, "omitted status falls back to NEW")
	assert.Nil(t, got.DueDate, "omitted due_date is cleared on replace")
	assert.Equal(t, created.ID, got.ID)
	assert.True(t, got.CreatedAt.Equal(created.CreatedAt))
}

func TestPatchDueDateTriState(t *testing.T) {
	r := newTestRouter(t)
	created := createTodo(t, r, map[string]any{
		"name": "Dated", "description": "has a deadline", "due_date": "2026-02-19",
	})
	require.NotNil(t, created.DueDate)

	// Omitted key leaves due_date alone.
	w := do(t, r, http.MethodPatch, fmt.Sprintf("/todos/%d", created.ID), testKey, map[string]any{"name": "Dated still"})
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeTodo(t, w)
	assert.Equal(t, "Dated still", got.Name)
	require.NotNil(t, got.DueDate)

	// Explicit null clears it.
	w = do(t, r, http.MethodPatch, fmt.Sprintf("/todos/%d", created.ID), testKey,
		json.RawMessage(`{"due_date":null}`))
	require.Equal(t, http.StatusOK, w.Code)
	got = decodeTodo(t, w)
	assert.Nil(t, got.DueDate)
	assert.Equal(t, "Dated still", got.Name, "other fields untouched")

	// And a fresh value sets it again.
	w = do(t, r, http.MethodPatch, fmt.Sprintf("/todos/%d", created.ID), testKey,
		map[string]any{"due_date": "2027-01-01T12:00:00Z"})
	require.Equal(t, http.StatusOK, w.Code)
	got = decodeTodo(t, w)
	require.NotNil(t, got.DueDate)
	assert.Equal(t, 2027, got.DueDate.Year())
}

func TestNotFoundResponses(t *testing.T) {
	r := newTestRouter(t)

	cases := []struct {
		method, path string
		body         any
		key          string
	}{
		{http.MethodGet, "/todos/999", nil, ""},
		{http.MethodPut, "/todos/999", map[string]any{"name": "ghost", "description": "x"}, testKey},
		{http.MethodPatch, "/todos/999", map[string]any{"name": "ghost"}, testKey},
		{http.MethodPatch, "/todos/999/status", map[string]any{"status": "DONE"}, testKey},
		{http.MethodPost, "/todos/999/restore", nil, testKey},
		{http.MethodDelete, "/todos/999", nil, testKey},
	}
	for _, tc := range cases {
		w := do(t, r, tc.method, tc.path, tc.key, tc.body)
		assert.Equal(t, http.StatusNotFound, w.Code, "%s %s", tc.method, tc.path)
		env := decodeEnvelope(t, w)
		assert.Equal(t, false, env["ok"])
		assert.Equal(t, "NotFound", env["error"])
	}
}

func TestInvalidIDIsValidationError(t *testing.T) {
	r := newTestRouter(t)
	for _, path := range []string{"/todos/abc", "/todos/0", "/todos/-5"} {
		w := do(t, r, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "GET %s", path)
	}
}

func TestLifecycleScenario(t *testing.T) {
	r := newTestRouter(t)

	created := createTodo(t, r, map[string]any{
		"name": "Buy milk", "description": "2%", "priority": 2, "status": "NEW",
	})
	assert.Equal(t, 2, created.Priority)
	assert.Equal(t, "NEW", created.Status)

	path := fmt.Sprintf("/todos/%d", created.ID)

	w := do(t, r, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created, decodeTodo(t, w))

	w = do(t, r, http.MethodPatch, path+"/status", testKey, map[string]any{"status": "DONE"})
	require.Equal(t, http.StatusOK, w.Code)
	done := decodeTodo(t, w)
	assert.Equal(t, "DONE", done.Status)
	assert.True(t, done.UpdatedAt.After(created.UpdatedAt), "updated_at must advance")

	w = do(t, r, http.MethodDelete, path, testKey, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, r, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodPost, path+"/restore", testKey, nil)
	require.Equal(t, http.StatusOK, w.Code)
	restored := decodeTodo(t, w)
	assert.Equal(t, "DONE", restored.Status, "restore keeps the pre-delete state")
	assert.False(t, restored.IsDeleted)

	w = do(t, r, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/todos", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeTodos(t, w)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
}
