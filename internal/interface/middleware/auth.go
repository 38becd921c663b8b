package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shivamvijaywargi/mernative/internal/domain/entity"
	"github.com/shivamvijaywargi/mernative/internal/domain/repository"
	"github.com/shivamvijaywargi/mernative/pkg/helpers"
	"github.com/shivamvijaywargi/mernative/pkg/response"
)

const CtxUserKey = "currentUser"

// Auth reads the session cookie, validates the token, resolves the user, and
// stores it in the Gin context. Missing or invalid credentials are 401; only
// a repository infrastructure failure is 500.
func Auth(repo repository.UserRepository, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(helpers.SessionCookieName)
		if err != nil || token == "" {
			resp := response.Error[any](c, http.StatusUnauthorized, "please login", nil)
			c.AbortWithStatusJSON(resp.Status, resp)
			return
		}
		claims, err := jwt.Parse(token)
		if err != nil {
			resp := response.Error[any](c, http.StatusUnauthorized, "invalid session token", nil)
			c.AbortWithStatusJSON(resp.Status, resp)
			return
		}
		u, err := repo.GetByID(c.Request.Context(), claims.UserID)
		if errors.Is(err, repository.ErrNotFound) {
			resp := response.Error[any](c, http.StatusUnauthorized, "please login", nil)
			c.AbortWithStatusJSON(resp.Status, resp)
			return
		}
		if err != nil {
			resp := response.Error[any](c, http.StatusInternalServerError, err.Error(), nil)
			c.AbortWithStatusJSON(resp.Status, resp)
			return
		}
		c.Set(CtxUserKey, u)
		c.Set("userID", u.ID.Hex())
		c.Next()
	}
}

// CurrentUser pulls the resolved user out of the Gin context.
func CurrentUser(c *gin.Context) *entity.User {
	if v, ok := c.Get(CtxUserKey); ok {
		if u, ok := v.(*entity.User); ok {
			return u
		}
	}
	return nil
}
