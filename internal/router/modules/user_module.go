package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/shivamvijaywargi/mernative/internal/domain/repository"
	handlers "github.com/shivamvijaywargi/mernative/internal/interface/http"
	"github.com/shivamvijaywargi/mernative/internal/interface/middleware"
	"github.com/shivamvijaywargi/mernative/pkg/helpers"
)

// UserModule wires the authenticated profile routes.
// Protected: GET /me, PUT /updateProfile, PUT /updatePassword

type UserModule struct {
	Handler *handlers.UserHandler
	Repo    repository.UserRepository
	JWT     *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, repo repository.UserRepository, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, Repo: repo, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.Repo, m.JWT))
	{
		auth.GET("/me", m.Handler.GetMyProfile)
		auth.PUT("/updateProfile", m.Handler.UpdateProfile)
		auth.PUT("/updatePassword", m.Handler.UpdatePassword)
	}
}
