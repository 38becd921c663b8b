package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/shivamvijaywargi/mernative/internal/application"
	"github.com/shivamvijaywargi/mernative/internal/interface/middleware"
	"github.com/shivamvijaywargi/mernative/pkg/response"
	"github.com/shivamvijaywargi/mernative/pkg/validation"
)

// TaskHandler owns the per-user task CRUD. Tasks live inside the user
// document, so every operation is a load-mutate-save on the aggregate.
type TaskHandler struct {
	Svc    *application.Service
	Logger *logrus.Logger
}

func NewTaskHandler(svc *application.Service, logger *logrus.Logger) *TaskHandler {
	return &TaskHandler{Svc: svc, Logger: logger}
}

type addTaskRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

// AddTask handles POST /newtask.
func (h *TaskHandler) AddTask(c *gin.Context) {
	u := middleware.CurrentUser(c)
	var req addTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	task, err := h.Svc.AddTask(c.Request.Context(), u, req.Title, req.Description)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"task": task}, "Task added successfully")
}

// ToggleTask handles PUT /task/:taskId, flipping the completed flag.
func (h *TaskHandler) ToggleTask(c *gin.Context) {
	u := middleware.CurrentUser(c)
	task, err := h.Svc.ToggleTask(c.Request.Context(), u, c.Param("taskId"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"task": task}, "Task updated successfully")
}

// RemoveTask handles DELETE /task/:taskId. Removing an unknown id succeeds.
func (h *TaskHandler) RemoveTask(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if err := h.Svc.RemoveTask(c.Request.Context(), u, c.Param("taskId")); err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "Task removed successfully")
}
