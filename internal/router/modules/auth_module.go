package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shivamvijaywargi/mernative/internal/container"
	"github.com/shivamvijaywargi/mernative/internal/domain/repository"
	handlers "github.com/shivamvijaywargi/mernative/internal/interface/http"
	"github.com/shivamvijaywargi/mernative/internal/interface/middleware"
	"github.com/shivamvijaywargi/mernative/pkg/helpers"
)

// AuthModule wires the credential flows.
// Public: POST /register, POST /login, GET /logout, POST /forgotPassword, PUT /resetPassword
// Protected: POST /verify

type AuthModule struct {
	Handler *handlers.AuthHandler
	Repo    repository.UserRepository
	JWT     *helpers.JWTManager
}

func NewAuthModule(h *handlers.AuthHandler, repo repository.UserRepository, jwt *helpers.JWTManager) *AuthModule {
	return &AuthModule{Handler: h, Repo: repo, JWT: jwt}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	// Per-IP limits on the credential endpoints; fail open without redis.
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP())
	forgotLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIPAndPath())
	resetLimiter := middleware.RateLimit(container.GetRedis(), 30, time.Minute, middleware.KeyByIPAndPath())

	rg.POST("/register", m.Handler.Register)
	rg.POST("/login", loginLimiter, m.Handler.Login)
	rg.GET("/logout", m.Handler.Logout)
	rg.POST("/forgotPassword", forgotLimiter, m.Handler.ForgotPassword)
	rg.PUT("/resetPassword", resetLimiter, m.Handler.ResetPassword)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.Repo, m.JWT))
	{
		verifyLimiter := middleware.RateLimit(container.GetRedis(), 30, time.Minute, middleware.KeyByIPAndPath())
		auth.POST("/verify", verifyLimiter, m.Handler.Verify)
	}
}
