package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/shivamvijaywargi/mernative/internal/application"
	"github.com/shivamvijaywargi/mernative/internal/interface/middleware"
	"github.com/shivamvijaywargi/mernative/pkg/helpers"
	"github.com/shivamvijaywargi/mernative/pkg/response"
	"github.com/shivamvijaywargi/mernative/pkg/validation"
)

// UserHandler owns the authenticated profile operations.
type UserHandler struct {
	Svc     *application.Service
	JWT     *helpers.JWTManager
	Cookies *helpers.CookieManager
	Logger  *logrus.Logger
}

func NewUserHandler(svc *application.Service, jwt *helpers.JWTManager, cookies *helpers.CookieManager, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, JWT: jwt, Cookies: cookies, Logger: logger}
}

type updateProfileRequest struct {
	Name string `form:"name"`
}

type updatePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

// GetMyProfile handles GET /me, refreshing the session on read.
func (h *UserHandler) GetMyProfile(c *gin.Context) {
	u := middleware.CurrentUser(c)
	sendToken(c, h.Cookies, h.JWT, u, http.StatusOK, fmt.Sprintf("Welcome back %s", u.Name))
}

// UpdateProfile handles PUT /updateProfile (multipart: name?, avatar?). The
// presence of the avatar file is what triggers the replace.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	u := middleware.CurrentUser(c)
	var req updateProfileRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	in := application.UpdateProfileInput{Name: req.Name}
	if file, err := c.FormFile("avatar"); err == nil {
		if file.Size > MaxUploadBytes {
			response.Fail(c, http.StatusBadRequest, "avatar exceeds the 50MB limit", nil)
			return
		}
		path, err := stageUpload(c, file)
		if err != nil {
			response.Fail(c, http.StatusInternalServerError, err.Error(), nil)
			return
		}
		defer func() {
			if rmErr := removeStaged(path); rmErr != nil {
				h.Logger.WithError(rmErr).Warn("failed to remove staged upload")
			}
		}()
		in.AvatarPath = path
	}

	if err := h.Svc.UpdateProfile(c.Request.Context(), u, in); err != nil {
		writeServiceError(c, err)
		return
	}
	sendToken(c, h.Cookies, h.JWT, u, http.StatusOK, "Profile updated successfully")
}

// UpdatePassword handles PUT /updatePassword.
func (h *UserHandler) UpdatePassword(c *gin.Context) {
	u := middleware.CurrentUser(c)
	var req updatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.UpdatePassword(c.Request.Context(), u.ID.Hex(), req.OldPassword, req.NewPassword); err != nil {
		writeServiceError(c, err)
		return
	}
	sendToken(c, h.Cookies, h.JWT, u, http.StatusOK, "Password updated successfully")
}
