package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/shivamvijaywargi/mernative/internal/domain/repository"
	handlers "github.com/shivamvijaywargi/mernative/internal/interface/http"
	"github.com/shivamvijaywargi/mernative/internal/interface/middleware"
	"github.com/shivamvijaywargi/mernative/pkg/helpers"
)

// TaskModule wires the task CRUD, all behind the auth gate.
// Protected: POST /newtask, PUT /task/:taskId, DELETE /task/:taskId

type TaskModule struct {
	Handler *handlers.TaskHandler
	Repo    repository.UserRepository
	JWT     *helpers.JWTManager
}

func NewTaskModule(h *handlers.TaskHandler, repo repository.UserRepository, jwt *helpers.JWTManager) *TaskModule {
	return &TaskModule{Handler: h, Repo: repo, JWT: jwt}
}

func (m *TaskModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.Repo, m.JWT))
	{
		auth.POST("/newtask", m.Handler.AddTask)
		auth.PUT("/task/:taskId", m.Handler.ToggleTask)
		auth.DELETE("/task/:taskId", m.Handler.RemoveTask)
	}
}
