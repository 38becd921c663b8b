package router

import (
	"github.com/shivamvijaywargi/mernative/internal/application"
	"github.com/shivamvijaywargi/mernative/internal/container"
	"github.com/shivamvijaywargi/mernative/internal/domain/repository"
	"github.com/shivamvijaywargi/mernative/internal/infrastructure/mongodb"
	handlers "github.com/shivamvijaywargi/mernative/internal/interface/http"
	"github.com/shivamvijaywargi/mernative/internal/router/modules"
	"github.com/shivamvijaywargi/mernative/pkg/helpers"
)

type moduleDeps struct {
	Repo    repository.UserRepository
	Service *application.Service
	Cookies *helpers.CookieManager
}

func buildDeps() moduleDeps {
	cfg := container.GetConfig()

	repo := mongodb.NewUserRepository(container.GetMongo(), cfg.MongoDB)

	service := application.NewService(
		repo,
		helpers.NewGCSMediaStore(container.GetGCS(), cfg.GCSBucket),
		container.GetMailgun(),
		container.GetLogger(),
		cfg.OTPExpiry,
	)

	cookies := helpers.NewCookie(cfg.CookieDomain, cfg.CookieSecure)

	return moduleDeps{Repo: repo, Service: service, Cookies: cookies}
}

// InitModules initializes all application modules and registers them with the
// router registry. Called once during startup.
func InitModules(r *Registry) {
	deps := buildDeps()
	jwt := container.GetJWT()
	logger := container.GetLogger()

	authHandler := handlers.NewAuthHandler(deps.Service, jwt, deps.Cookies, logger)
	userHandler := handlers.NewUserHandler(deps.Service, jwt, deps.Cookies, logger)
	taskHandler := handlers.NewTaskHandler(deps.Service, logger)

	r.Add(modules.NewAuthModule(authHandler, deps.Repo, jwt))
	r.Add(modules.NewUserModule(userHandler, deps.Repo, jwt))
	r.Add(modules.NewTaskModule(taskHandler, deps.Repo, jwt))
}
