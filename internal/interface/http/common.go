package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shivamvijaywargi/mernative/internal/application"
	"github.com/shivamvijaywargi/mernative/internal/domain/entity"
	"github.com/shivamvijaywargi/mernative/pkg/helpers"
	"github.com/shivamvijaywargi/mernative/pkg/response"
)

// MaxUploadBytes caps avatar uploads at 50MB.
const MaxUploadBytes = 50 << 20

// writeServiceError translates service error kinds to HTTP statuses at the
// handler boundary. Unknown errors surface as 500 with the raw message.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, application.ErrEmailTaken),
		errors.Is(err, application.ErrInvalidCredentials),
		errors.Is(err, application.ErrInvalidOTP),
		errors.Is(err, application.ErrInvalidResetOTP),
		errors.Is(err, application.ErrInvalidOldPassword),
		errors.Is(err, application.ErrUserNotFound):
		response.Fail(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, application.ErrTaskNotFound):
		response.Fail(c, http.StatusNotFound, err.Error(), nil)
	default:
		response.Fail(c, http.StatusInternalServerError, err.Error(), nil)
	}
}

// sendToken re-issues the session cookie and writes the profile payload, the
// way every authenticated response does.
func sendToken(c *gin.Context, cookies *helpers.CookieManager, jwt *helpers.JWTManager, u *entity.User, status int, message string) {
	token, exp, err := jwt.Generate(u.ID.Hex())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	cookies.SetSession(c, token, exp)
	response.Success(c, status, gin.H{"user": u}, message)
}

// stageUpload copies a multipart file to a temp path for the media upload.
// The caller removes the file once the upload finishes.
func stageUpload(c *gin.Context, file *multipart.FileHeader) (string, error) {
	dst := filepath.Join(os.TempDir(), uuid.NewString()+filepath.Ext(file.Filename))
	if err := c.SaveUploadedFile(file, dst); err != nil {
		return "", err
	}
	return dst, nil
}

func removeStaged(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
