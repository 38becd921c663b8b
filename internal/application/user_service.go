package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/shivamvijaywargi/mernative/internal/domain/entity"
	"github.com/shivamvijaywargi/mernative/internal/domain/repository"
	"github.com/shivamvijaywargi/mernative/pkg/helpers"
)

// avatarFolder is the logical folder avatars are stored under on the media host.
const avatarFolder = "todo-app"

// resetOTPWindow is how long a password-reset OTP stays valid.
const resetOTPWindow = 30 * time.Minute

var (
	ErrEmailTaken         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidOTP         = errors.New("invalid OTP or expired")
	ErrInvalidResetOTP    = errors.New("OTP is invalid or expired")
	ErrInvalidOldPassword = errors.New("invalid old password")
	ErrUserNotFound       = errors.New("user not found")
	ErrTaskNotFound       = errors.New("task not found")
)

// MediaStore is the media collaborator: stores a staged file and returns the
// object identifier and public URL; supports delete-by-identifier.
type MediaStore interface {
	UploadFile(ctx context.Context, folder, path string) (publicID, url string, err error)
	Delete(ctx context.Context, publicID string) error
}

// Mailer sends a plain-text mail; fire-and-forget, no delivery tracking.
type Mailer interface {
	Send(ctx context.Context, to, subject, text string) error
}

type Service struct {
	Repo      repository.UserRepository
	Media     MediaStore
	Mail      Mailer
	Logger    *logrus.Logger
	OTPExpiry time.Duration // registration OTP validity window
}

func NewService(repo repository.UserRepository, media MediaStore, mail Mailer, logger *logrus.Logger, otpExpiry time.Duration) *Service {
	return &Service{
		Repo:      repo,
		Media:     media,
		Mail:      mail,
		Logger:    logger,
		OTPExpiry: otpExpiry,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	// AvatarPath is the staged temp file for the uploaded avatar.
	AvatarPath string
}

// Register creates an unverified user with a fresh OTP and mails the code.
// The avatar upload is not rolled back if a later step fails.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	if _, err := s.Repo.GetByEmail(ctx, in.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	publicID, url, err := s.Media.UploadFile(ctx, avatarFolder, in.AvatarPath)
	if err != nil {
		return nil, err
	}

	code, err := helpers.GenOTPCode()
	if err != nil {
		return nil, err
	}
	expiry := time.Now().Add(s.OTPExpiry)

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &entity.User{
		Name:      in.Name,
		Email:     in.Email,
		Password:  hash,
		Avatar:    &entity.Avatar{PublicID: publicID, URL: url},
		OTP:       &code,
		OTPExpiry: &expiry,
		Tasks:     []entity.Task{},
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, err
	}

	if err := s.Mail.Send(ctx, u.Email, "Verify your account", "Your OTP is "+helpers.FormatOTP(code)); err != nil {
		return nil, err
	}

	s.Logger.WithFields(logrus.Fields{"user_id": u.ID.Hex(), "email": u.Email}).Info("user registered")
	return u, nil
}

// VerifyOTP marks the user verified when the submitted code matches the
// stored one before its expiry, then clears both OTP fields so the code
// cannot be replayed.
func (s *Service) VerifyOTP(ctx context.Context, u *entity.User, otp int32) error {
	if u.OTP == nil || u.OTPExpiry == nil || *u.OTP != otp || !u.OTPExpiry.After(time.Now()) {
		return ErrInvalidOTP
	}
	u.Verified = true
	u.OTP = nil
	u.OTPExpiry = nil
	if err := s.Repo.Save(ctx, u); err != nil {
		return err
	}
	s.Logger.WithField("user_id", u.ID.Hex()).Info("account verified")
	return nil
}

// Login checks credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Repo.GetByEmailWithPassword(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

type UpdateProfileInput struct {
	Name string
	// AvatarPath is empty when no new avatar was uploaded.
	AvatarPath string
}

// UpdateProfile overwrites the name when present and, when a new avatar file
// was uploaded, deletes the old stored object before uploading the new one.
func (s *Service) UpdateProfile(ctx context.Context, u *entity.User, in UpdateProfileInput) error {
	if in.Name != "" {
		u.Name = in.Name
	}
	if in.AvatarPath != "" {
		if u.Avatar != nil {
			if err := s.Media.Delete(ctx, u.Avatar.PublicID); err != nil {
				return err
			}
		}
		publicID, url, err := s.Media.UploadFile(ctx, avatarFolder, in.AvatarPath)
		if err != nil {
			return err
		}
		u.Avatar = &entity.Avatar{PublicID: publicID, URL: url}
	}
	return s.Repo.Save(ctx, u)
}

// UpdatePassword verifies the old password before storing a new hash. The
// caller must pass a user loaded with its password hash.
func (s *Service) UpdatePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	u, err := s.Repo.GetByIDWithPassword(ctx, userID)
	if err != nil {
		return err
	}
	if !helpers.CompareHashAndPassword(u.Password, oldPassword) {
		return ErrInvalidOldPassword
	}
	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return err
	}
	u.Password = hash
	return s.Repo.Save(ctx, u)
}

// ForgotPassword issues a reset OTP valid for 30 minutes and mails it. No
// session is involved; the caller is unauthenticated.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.Repo.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	code, err := helpers.GenOTPCode()
	if err != nil {
		return err
	}
	expiry := time.Now().Add(resetOTPWindow)
	u.ResetPasswordOTP = &code
	u.ResetPasswordOTPExpiry = &expiry
	if err := s.Repo.Save(ctx, u); err != nil {
		return err
	}

	msg := fmt.Sprintf("Your OTP to reset your password is %s. This OTP is valid for 30 minutes. If you did not request this, please ignore this email.", helpers.FormatOTP(code))
	if err := s.Mail.Send(ctx, u.Email, "Reset Password", msg); err != nil {
		return err
	}
	s.Logger.WithField("email", u.Email).Info("reset OTP sent")
	return nil
}

// ResetPassword finds the user holding an unexpired matching reset OTP, sets
// the new password, and clears both reset fields so the OTP is single-use.
func (s *Service) ResetPassword(ctx context.Context, otp int32, newPassword string) error {
	u, err := s.Repo.FindByResetOTP(ctx, otp, time.Now())
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInvalidResetOTP
	}
	if err != nil {
		return err
	}
	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return err
	}
	u.Password = hash
	u.ResetPasswordOTP = nil
	u.ResetPasswordOTPExpiry = nil
	return s.Repo.Save(ctx, u)
}

// AddTask appends a new task to the user's sequence. Order is insertion
// order; no sort is ever applied.
func (s *Service) AddTask(ctx context.Context, u *entity.User, title, description string) (*entity.Task, error) {
	task := entity.Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Completed:   false,
		CreatedAt:   time.Now(),
	}
	u.Tasks = append(u.Tasks, task)
	if err := s.Repo.Save(ctx, u); err != nil {
		return nil, err
	}
	return &u.Tasks[len(u.Tasks)-1], nil
}

// ToggleTask flips the completed flag of the task with the given id.
func (s *Service) ToggleTask(ctx context.Context, u *entity.User, taskID string) (*entity.Task, error) {
	task := u.FindTask(taskID)
	if task == nil {
		return nil, ErrTaskNotFound
	}
	task.Completed = !task.Completed
	if err := s.Repo.Save(ctx, u); err != nil {
		return nil, err
	}
	return task, nil
}

// RemoveTask drops the task with the given id. Removing an absent id is a
// no-op, not an error.
func (s *Service) RemoveTask(ctx context.Context, u *entity.User, taskID string) error {
	u.RemoveTask(taskID)
	return s.Repo.Save(ctx, u)
}
