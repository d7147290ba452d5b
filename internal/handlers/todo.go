package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jarboard/backend/internal/services"
)

type TodoHandler struct {
	todoService services.TodoService
}

func NewTodoHandler(todoService services.TodoService) *TodoHandler {
	return &TodoHandler{todoService: todoService}
}

func (th *TodoHandler) Create(c *gin.Context) {
	var req services.CreateTodoInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	todo, err := th.todoService.Create(c.Request.Context(), req)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "todo_create_failed", err)
		return
	}
	c.JSON(http.StatusCreated, todo)
}

func (th *TodoHandler) List(c *gin.Context) {
	todos, err := th.todoService.List(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "todo_list_failed", err)
		return
	}
	RespondOK(c, todos)
}

func (th *TodoHandler) Get(c *gin.Context) {
	todoID, err := pathID(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	todo, err := th.todoService.Get(c.Request.Context(), todoID)
	if err != nil {
		RespondError(c, http.StatusNotFound, "todo_not_found", err)
		return
	}
	RespondOK(c, todo)
}

func (th *TodoHandler) Update(c *gin.Context) {
	todoID, err := pathID(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req services.UpdateTodoInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	todo, err := th.todoService.Update(c.Request.Context(), todoID, req)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "todo_update_failed", err)
		return
	}
	RespondOK(c, todo)
}

func (th *TodoHandler) SetCompleted(c *gin.Context) {
	todoID, err := pathID(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req struct {
		Completed bool `json:"completed"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	todo, err := th.todoService.SetCompleted(c.Request.Context(), todoID, req.Completed)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "todo_complete_failed", err)
		return
	}
	RespondOK(c, todo)
}

func (th *TodoHandler) SetLinks(c *gin.Context) {
	todoID, err := pathID(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req struct {
		JarIDs []uuid.UUID `json:"jar_ids"`
		TagIDs []uuid.UUID `json:"tag_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	todo, err := th.todoService.SetLinks(c.Request.Context(), todoID, req.JarIDs, req.TagIDs)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "todo_set_links_failed", err)
		return
	}
	RespondOK(c, todo)
}

func (th *TodoHandler) Delete(c *gin.Context) {
	todoID, err := pathID(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if err := th.todoService.Delete(c.Request.Context(), todoID); err != nil {
		RespondError(c, http.StatusNotFound, "todo_delete_failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}
