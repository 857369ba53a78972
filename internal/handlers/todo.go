package handlers

import (
	"net/http"
	"strconv"

	dom "todoapi/internal/domain"
	"todoapi/internal/dto"
	"todoapi/internal/export"
	"todoapi/internal/repo"
	"todoapi/internal/service"

	"github.com/gin-gonic/gin"
)

type TodoHandler struct {
	svc *service.TodoService
}

func NewTodoHandler(svc *service.TodoService) *TodoHandler {
	return &TodoHandler{svc: svc}
}

// List godoc
// @Summary      List todos with filters, sorting and pagination
// @Tags         todos
// @Produce      json
// @Param        limit            query  int     false  "Page size (1-100)"  default(10)
// @Param        offset           query  int     false  "Rows to skip"       default(0)
// @Param        priority         query  int     false  "Exact priority (1=HIGH 2=MEDIUM 3=LOW)"
// @Param        status           query  string  false  "Exact status (NEW, IN_PROGRESS, DONE)"
// @Param        q                query  string  false  "Substring match on name or description"
// @Param        overdue          query  bool    false  "Only records with due_date in the past"
// @Param        include_deleted  query  bool    false  "Include soft-deleted records"
// @Param        sort_by          query  string  false  "Sort field"  default(id)
// @Param        order            query  string  false  "asc or desc" default(asc)
// @Success      200  {array}   dto.TodoResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /todos [get]
func (h *TodoHandler) List(c *gin.Context) {
	var q dto.ListTodosQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondValidationError(c, err)
		return
	}
	list, err := h.svc.List(c.Request.Context(), listFilter(q))
	if err != nil {
		respondError(c, http.StatusInternalServerError, kindInternal, err.Error())
		return
	}
	c.JSON(http.StatusOK, todosToResponses(list))
}

// Export godoc
// @Summary      Export all todos as JSON or CSV
// @Tags         todos
// @Produce      json
// @Produce      text/csv
// @Param        format           query  string  false  "json or csv"  default(json)
// @Param        include_deleted  query  bool    false  "Include soft-deleted records"
// @Success      200  {array}   dto.TodoResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /todos/export [get]
func (h *TodoHandler) Export(c *gin.Context) {
	var q dto.ExportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondValidationError(c, err)
		return
	}
	list, err := h.svc.Export(c.Request.Context(), q.IncludeDeleted)
	if err != nil {
		respondError(c, http.StatusInternalServerError, kindInternal, err.Error())
		return
	}
	if q.Format == "json" {
		c.JSON(http.StatusOK, todosToResponses(list))
		return
	}
	c.Header("Content-Disposition", `attachment; filename=`+export.Filename)
	c.Header("Content-Type", "text/csv")
	c.Status(http.StatusOK)
	if err := export.WriteCSV(c.Writer, list); err != nil {
		_ = c.Error(err)
	}
}

// Stats godoc
// @Summary      Aggregate counts per priority
// @Tags         todos
// @Produce      json
// @Param        include_deleted  query  bool  false  "Include soft-deleted records"
// @Success      200  {object}  dto.StatsResponse
// @Router       /todos/stats [get]
func (h *TodoHandler) Stats(c *gin.Context) {
	var q dto.StatsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondValidationError(c, err)
		return
	}
	s, err := h.svc.Stats(c.Request.Context(), q.IncludeDeleted)
	if err != nil {
		respondError(c, http.StatusInternalServerError, kindInternal, err.Error())
		return
	}
	c.JSON(http.StatusOK, dto.StatsResponse{Total: s.Total, High: s.High, Medium: s.Medium, Low: s.Low})
}

// GetByID godoc
// @Summary      Get a todo by ID
// @Tags         todos
// @Produce      json
// @Param        id   path      int  true  "Todo ID"
// @Success      200  {object}  dto.TodoResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /todos/{id} [get]
func (h *TodoHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	t, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, todoToResponse(t))
}

// Create godoc
// @Summary      Create a todo
// @Tags         todos
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        body  body      dto.CreateTodoRequest  true  "Todo body"
// @Success      201   {object}  dto.TodoResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /todos [post]
func (h *TodoHandler) Create(c *gin.Context) {
	var req dto.CreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	t, err := h.svc.Create(c.Request.Context(), inputFromRequest(req))
	if err != nil {
		respondError(c, http.StatusInternalServerError, kindInternal, err.Error())
		return
	}
	c.JSON(http.StatusCreated, todoToResponse(t))
}

// Replace godoc
// @Summary      Replace a todo
// @Tags         todos
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id    path      int                     true  "Todo ID"
// @Param        body  body      dto.ReplaceTodoRequest  true  "Full record"
// @Success      200   {object}  dto.TodoResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /todos/{id} [put]
func (h *TodoHandler) Replace(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.ReplaceTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	t, err := h.svc.Replace(c.Request.Context(), id, inputFromRequest(req))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, todoToResponse(t))
}

// Update godoc
// @Summary      Partially update a todo
// @Tags         todos
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id    path      int                   true  "Todo ID"
// @Param        body  body      dto.PatchTodoRequest  true  "Fields to change; omitted fields stay, due_date null clears"
// @Success      200   {object}  dto.TodoResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /todos/{id} [patch]
func (h *TodoHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.PatchTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	patch := service.Patch{
		Name:        req.Name,
		Description: req.Description,
		Priority:    priorityPtr(req.Priority),
		Status:      statusPtr(req.Status),
		DueDateSet:  req.DueDate.Set,
		DueDate:     req.DueDate.Value,
	}
	t, err := h.svc.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, todoToResponse(t))
}

// UpdateStatus godoc
// @Summary      Update only the status of a todo
// @Tags         todos
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id    path      int                      true  "Todo ID"
// @Param        body  body      dto.StatusUpdateRequest  true  "New status"
// @Success      200   {object}  dto.TodoResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /todos/{id}/status [patch]
func (h *TodoHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	t, err := h.svc.SetStatus(c.Request.Context(), id, dom.Status(req.Status))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, todoToResponse(t))
}

// Restore godoc
// @Summary      Restore a soft-deleted todo
// @Tags         todos
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id   path      int  true  "Todo ID"
// @Success      200  {object}  dto.TodoResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /todos/{id}/restore [post]
func (h *TodoHandler) Restore(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	t, err := h.svc.Restore(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, todoToResponse(t))
}

// Delete godoc
// @Summary      Soft-delete a todo
// @Tags         todos
// @Security     ApiKeyAuth
// @Param        id   path  int  true  "Todo ID"
// @Success      204
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /todos/{id} [delete]
func (h *TodoHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func respondServiceError(c *gin.Context, err error) {
	if err == service.ErrNotFound {
		respondError(c, http.StatusNotFound, kindNotFound, "todo not found")
		return
	}
	respondError(c, http.StatusInternalServerError, kindInternal, err.Error())
}

func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusUnprocessableEntity, kindValidation, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func listFilter(q dto.ListTodosQuery) repo.ListFilter {
	return repo.ListFilter{
		Limit:          q.Limit,
		Offset:         q.Offset,
		Priority:       priorityPtr(q.Priority),
		Status:         statusPtr(q.Status),
		Query:          q.Q,
		Overdue:        q.Overdue,
		IncludeDeleted: q.IncludeDeleted,
		SortBy:         q.SortBy,
		Desc:           q.Order == "desc",
	}
}

func inputFromRequest(req dto.CreateTodoRequest) service.Input {
	return service.Input{
		Name:        req.Name,
		Description: req.Description,
		Priority:    priorityPtr(req.Priority),
		Status:      statusPtr(req.Status),
		DueDate:     req.DueDate.Ptr(),
	}
}

func priorityPtr(v *int) *dom.Priority {
	if v == nil {
		return nil
	}
	p := dom.Priority(*v)
	return &p
}

func statusPtr(v *string) *dom.Status {
	if v == nil {
		return nil
	}
	s := dom.Status(*v)
	return &s
}

func todoToResponse(t dom.Todo) dto.TodoResponse {
	return dto.TodoResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Priority:    int(t.Priority),
		Status:      string(t.Status),
		DueDate:     t.DueDate,
		IsDeleted:   t.IsDeleted,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func todosToResponses(list []dom.Todo) []dto.TodoResponse {
	out := make([]dto.TodoResponse, len(list))
	for i := range list {
		out[i] = todoToResponse(list[i])
	}
	return out
}
