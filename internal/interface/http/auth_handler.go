package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/shivamvijaywargi/mernative/internal/application"
	"github.com/shivamvijaywargi/mernative/internal/interface/middleware"
	"github.com/shivamvijaywargi/mernative/pkg/helpers"
	"github.com/shivamvijaywargi/mernative/pkg/response"
	"github.com/shivamvijaywargi/mernative/pkg/validation"
)

// AuthHandler owns the unauthenticated credential flows plus OTP
// verification: register, verify, login, logout, forgot/reset password.
type AuthHandler struct {
	Svc     *application.Service
	JWT     *helpers.JWTManager
	Cookies *helpers.CookieManager
	Logger  *logrus.Logger
}

func NewAuthHandler(svc *application.Service, jwt *helpers.JWTManager, cookies *helpers.CookieManager, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, JWT: jwt, Cookies: cookies, Logger: logger}
}

type registerRequest struct {
	Name     string `form:"name" binding:"required"`
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type verifyRequest struct {
	OTP int32 `json:"otp" binding:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	OTP         int32  `json:"otp" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

// Register handles POST /register (multipart: name, email, password, avatar).
// A session is issued before verification completes.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	file, err := c.FormFile("avatar")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", map[string]string{"avatar": "is required"})
		return
	}
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

	u, err := h.Svc.Register(c.Request.Context(), application.RegisterInput{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		AvatarPath: path,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	sendToken(c, h.Cookies, h.JWT, u, http.StatusCreated, "OTP Sent to your email, please verify your account.")
}

// Verify handles POST /verify (auth required).
func (h *AuthHandler) Verify(c *gin.Context) {
	u := middleware.CurrentUser(c)
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.VerifyOTP(c.Request.Context(), u, req.OTP); err != nil {
		writeServiceError(c, err)
		return
	}
	sendToken(c, h.Cookies, h.JWT, u, http.StatusOK, "Account verified successfully")
}

// Login handles POST /login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	sendToken(c, h.Cookies, h.JWT, u, http.StatusOK, "Login successful")
}

// Logout handles GET /logout. It only clears the cookie; the token itself
// stays valid until its natural expiry.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, nil, "Logout successful")
}

// ForgotPassword handles POST /forgotPassword.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "OTP sent successfully to your email")
}

// ResetPassword handles PUT /resetPassword.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.ResetPassword(c.Request.Context(), req.OTP, req.NewPassword); err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "Password changed successfully")
}
