package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shivamvijaywargi/mernative/internal/application"
	"github.com/shivamvijaywargi/mernative/internal/domain/entity"
	"github.com/shivamvijaywargi/mernative/internal/domain/repository"
	handlers "github.com/shivamvijaywargi/mernative/internal/interface/http"
	"github.com/shivamvijaywargi/mernative/internal/router"
	"github.com/shivamvijaywargi/mernative/internal/router/modules"
	"github.com/shivamvijaywargi/mernative/pkg/helpers"
	"github.com/shivamvijaywargi/mernative/pkg/validation"
)

// ---- fakes ----

type memoryUserRepo struct {
	users map[string]entity.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: map[string]entity.User{}}
}

func (r *memoryUserRepo) Create(_ context.Context, u *entity.User) error {
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return errors.New("duplicate key error")
		}
	}
	u.ID = primitive.NewObjectID()
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now
	r.users[u.ID.Hex()] = *u
	return nil
}

func (r *memoryUserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u.Password = ""
	return &u, nil
}

func (r *memoryUserRepo) GetByIDWithPassword(_ context.Context, id string) (*entity.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *memoryUserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			u.Password = ""
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memoryUserRepo) GetByEmailWithPassword(_ context.Context, email string) (*entity.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memoryUserRepo) FindByResetOTP(_ context.Context, otp int32, now time.Time) (*entity.User, error) {
	for _, u := range r.users {
		if u.ResetPasswordOTP != nil && *u.ResetPasswordOTP == otp &&
			u.ResetPasswordOTPExpiry != nil && u.ResetPasswordOTPExpiry.After(now) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memoryUserRepo) Save(_ context.Context, u *entity.User) error {
	existing, ok := r.users[u.ID.Hex()]
	if !ok {
		return repository.ErrNotFound
	}
	cp := *u
	if cp.Password == "" {
		cp.Password = existing.Password
	}
	cp.UpdatedAt = time.Now()
	r.users[u.ID.Hex()] = cp
	return nil
}

type fakeMediaStore struct {
	seq     int
	deleted []string
}

func (m *fakeMediaStore) UploadFile(_ context.Context, folder, _ string) (string, string, error) {
	m.seq++
	id := fmt.Sprintf("%s/object-%d", folder, m.seq)
	return id, "https://storage.googleapis.com/test-bucket/" + id, nil
}

func (m *fakeMediaStore) Delete(_ context.Context, publicID string) error {
	m.deleted = append(m.deleted, publicID)
	return nil
}

type fakeMailer struct {
	sent []string
	to   []string
}

func (m *fakeMailer) Send(_ context.Context, to, _ /* subject */, text string) error {
	m.to = append(m.to, to)
	m.sent = append(m.sent, text)
	return nil
}

var otpPattern = regexp.MustCompile(`\d{6}`)

func (m *fakeMailer) lastOTP(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, m.sent)
	code := otpPattern.FindString(m.sent[len(m.sent)-1])
	require.NotEmpty(t, code)
	return code
}

// ---- harness ----

type testApp struct {
	engine *gin.Engine
	repo   *memoryUserRepo
	media  *fakeMediaStore
	mail   *fakeMailer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	repo := newMemoryUserRepo()
	media := &fakeMediaStore{}
	mail := &fakeMailer{}
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	svc := application.NewService(repo, media, mail, logger, 5*time.Minute)
	jwt := helpers.NewJWTManager("test-secret", 7*24*time.Hour)
	cookies := helpers.NewCookie("localhost", false)

	engine := gin.New()
	reg := router.NewRegistry(engine)
	reg.Add(modules.NewAuthModule(handlers.NewAuthHandler(svc, jwt, cookies, logger), repo, jwt))
	reg.Add(modules.NewUserModule(handlers.NewUserHandler(svc, jwt, cookies, logger), repo, jwt))
	reg.Add(modules.NewTaskModule(handlers.NewTaskHandler(svc, logger), repo, jwt))
	reg.RegisterAll()

	return &testApp{engine: engine, repo: repo, media: media, mail: mail}
}

// client keeps the session cookie between requests like a browser would.
type client struct {
	app    *testApp
	cookie *http.Cookie
}

func (c *client) do(t *testing.T, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/api/v1"+path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	w := httptest.NewRecorder()
	c.app.engine.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		if ck.Name == helpers.SessionCookieName {
			if ck.MaxAge < 0 || ck.Value == "" {
				c.cookie = nil
			} else {
				c.cookie = ck
			}
		}
	}
	return w
}

func (c *client) doJSON(t *testing.T, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	return c.do(t, method, path, bytes.NewReader(b), "application/json")
}

func (c *client) register(t *testing.T, name, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", name))
	require.NoError(t, mw.WriteField("email", email))
	require.NoError(t, mw.WriteField("password", password))
	fw, err := mw.CreateFormFile("avatar", "avatar.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return c.do(t, http.MethodPost, "/register", &buf, mw.FormDataContentType())
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var e envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	return e
}

func userFrom(t *testing.T, w *httptest.ResponseRecorder) entity.User {
	t.Helper()
	var payload struct {
		User entity.User `json:"user"`
	}
	e := decode(t, w)
	require.NoError(t, json.Unmarshal(e.Data, &payload))
	return payload.User
}

// ---- tests ----

func TestRegisterVerifyTaskScenario(t *testing.T) {
	app := newTestApp(t)
	c := &client{app: app}

	// Register issues a session cookie and mails a 6-digit code.
	w := c.register(t, "Ann", "ann@x.com", "pw123")
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, c.cookie, "register must set the session cookie")
	require.Equal(t, []string{"ann@x.com"}, app.mail.to)

	u := userFrom(t, w)
	require.False(t, u.Verified)
	require.NotNil(t, u.Avatar)

	// Verify with the mailed code.
	otp, err := strconv.Atoi(app.mail.lastOTP(t))
	require.NoError(t, err)
	w = c.doJSON(t, http.MethodPost, "/verify", gin.H{"otp": otp})
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, userFrom(t, w).Verified)

	// Add a task.
	w = c.doJSON(t, http.MethodPost, "/newtask", gin.H{"title": "Buy milk", "description": "2 liters"})
	require.Equal(t, http.StatusOK, w.Code)

	w = c.do(t, http.MethodGet, "/me", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	u = userFrom(t, w)
	require.Len(t, u.Tasks, 1)
	require.False(t, u.Tasks[0].Completed)
	taskID := u.Tasks[0].ID

	// Toggle it.
	w = c.do(t, http.MethodPut, "/task/"+taskID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	u = userFrom(t, c.do(t, http.MethodGet, "/me", nil, ""))
	require.True(t, u.Tasks[0].Completed)

	// Remove it.
	w = c.do(t, http.MethodDelete, "/task/"+taskID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	u = userFrom(t, c.do(t, http.MethodGet, "/me", nil, ""))
	require.Empty(t, u.Tasks)

	// Removing it again still succeeds.
	w = c.do(t, http.MethodDelete, "/task/"+taskID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	app := newTestApp(t)
	c := &client{app: app}

	require.Equal(t, http.StatusCreated, c.register(t, "Ann", "ann@x.com", "pw123").Code)

	other := &client{app: app}
	w := other.register(t, "Imposter", "ann@x.com", "other")
	require.Equal(t, http.StatusBadRequest, w.Code)
	e := decode(t, w)
	require.False(t, e.Success)
	require.Contains(t, e.Message, "already exists")
}

func TestVerifyRejectsBadOTP(t *testing.T) {
	app := newTestApp(t)
	c := &client{app: app}
	c.register(t, "Ann", "ann@x.com", "pw123")

	otp, _ := strconv.Atoi(app.mail.lastOTP(t))
	wrong := (otp + 1) % 1000000
	if wrong == 0 {
		wrong = 1
	}
	w := c.doJSON(t, http.MethodPost, "/verify", gin.H{"otp": wrong})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.False(t, decode(t, w).Success)
}

func TestLoginAndLogout(t *testing.T) {
	app := newTestApp(t)
	c := &client{app: app}
	c.register(t, "Ann", "ann@x.com", "pw123")
	c.cookie = nil

	// Wrong password and unknown email yield the same message.
	w1 := c.doJSON(t, http.MethodPost, "/login", gin.H{"email": "ann@x.com", "password": "nope"})
	w2 := c.doJSON(t, http.MethodPost, "/login", gin.H{"email": "ghost@x.com", "password": "pw123"})
	require.Equal(t, http.StatusBadRequest, w1.Code)
	require.Equal(t, http.StatusBadRequest, w2.Code)
	require.Equal(t, decode(t, w1).Message, decode(t, w2).Message)

	// Missing fields are a validation failure.
	w := c.doJSON(t, http.MethodPost, "/login", gin.H{"email": "ann@x.com"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = c.doJSON(t, http.MethodPost, "/login", gin.H{"email": "ann@x.com", "password": "pw123"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, c.cookie)

	w = c.do(t, http.MethodGet, "/logout", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Nil(t, c.cookie, "logout must clear the session cookie")

	w = c.do(t, http.MethodGet, "/me", nil, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	app := newTestApp(t)
	c := &client{app: app}

	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/verify"},
		{http.MethodGet, "/me"},
		{http.MethodPost, "/newtask"},
		{http.MethodPut, "/task/some-id"},
		{http.MethodDelete, "/task/some-id"},
		{http.MethodPut, "/updateProfile"},
		{http.MethodPut, "/updatePassword"},
	} {
		w := c.do(t, route.method, route.path, nil, "")
		require.Equalf(t, http.StatusUnauthorized, w.Code, "%s %s", route.method, route.path)
	}
}

func TestTamperedCookieRejected(t *testing.T) {
	app := newTestApp(t)
	c := &client{app: app}
	c.register(t, "Ann", "ann@x.com", "pw123")

	c.cookie = &http.Cookie{Name: helpers.SessionCookieName, Value: c.cookie.Value + "x"}
	w := c.do(t, http.MethodGet, "/me", nil, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateProfile(t *testing.T) {
	app := newTestApp(t)
	c := &client{app: app}
	c.register(t, "Ann", "ann@x.com", "pw123")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "Annie"))
	fw, err := mw.CreateFormFile("avatar", "new.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("new-png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := c.do(t, http.MethodPut, "/updateProfile", &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusOK, w.Code)
	u := userFrom(t, w)
	require.Equal(t, "Annie", u.Name)
	require.Equal(t, "todo-app/object-2", u.Avatar.PublicID)
	require.Equal(t, []string{"todo-app/object-1"}, app.media.deleted)
}

func TestUpdatePassword(t *testing.T) {
	app := newTestApp(t)
	c := &client{app: app}
	c.register(t, "Ann", "ann@x.com", "pw123")

	w := c.doJSON(t, http.MethodPut, "/updatePassword", gin.H{"oldPassword": "wrong", "newPassword": "newpw1"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, decode(t, w).Message, "old password")

	w = c.doJSON(t, http.MethodPut, "/updatePassword", gin.H{"oldPassword": "pw123", "newPassword": "newpw1"})
	require.Equal(t, http.StatusOK, w.Code)

	c.cookie = nil
	w = c.doJSON(t, http.MethodPost, "/login", gin.H{"email": "ann@x.com", "password": "newpw1"})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestForgotAndResetPasswordFlow(t *testing.T) {
	app := newTestApp(t)
	c := &client{app: app}
	c.register(t, "Ann", "ann@x.com", "pw123")
	c.cookie = nil

	w := c.doJSON(t, http.MethodPost, "/forgotPassword", gin.H{"email": "ghost@x.com"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = c.doJSON(t, http.MethodPost, "/forgotPassword", gin.H{"email": "ann@x.com"})
	require.Equal(t, http.StatusOK, w.Code)
	code, err := strconv.Atoi(app.mail.lastOTP(t))
	require.NoError(t, err)

	w = c.doJSON(t, http.MethodPut, "/resetPassword", gin.H{"otp": code, "newPassword": "fresh-pw"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Nil(t, c.cookie, "resetPassword must not issue a session")

	// The code is single-use.
	w = c.doJSON(t, http.MethodPut, "/resetPassword", gin.H{"otp": code, "newPassword": "again"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, strings.ToLower(decode(t, w).Message), "invalid or expired")

	w = c.doJSON(t, http.MethodPost, "/login", gin.H{"email": "ann@x.com", "password": "fresh-pw"})
	require.Equal(t, http.StatusOK, w.Code)
	w = c.doJSON(t, http.MethodPost, "/login", gin.H{"email": "ann@x.com", "password": "pw123"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestToggleUnknownTaskIs404(t *testing.T) {
	app := newTestApp(t)
	c := &client{app: app}
	c.register(t, "Ann", "ann@x.com", "pw123")

	w := c.do(t, http.MethodPut, "/task/no-such-task", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)
}
