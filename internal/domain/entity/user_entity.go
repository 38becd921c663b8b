package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Avatar references an object stored on the media host.
type Avatar struct {
	PublicID string `bson:"public_id" json:"public_id"`
	URL      string `bson:"url" json:"url"`
}

// Task is a value object embedded in its owning User document. It has no
// lifecycle of its own; mutations always go through a load-mutate-save cycle
// on the user.
type Task struct {
	ID          string    `bson:"_id" json:"id"`
	Title       string    `bson:"title" json:"title"`
	Description string    `bson:"description" json:"description"`
	Completed   bool      `bson:"completed" json:"completed"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}

// User is the aggregate root. Password holds a bcrypt hash and is excluded
// from default repository reads; the *WithPassword lookups include it.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name     string             `bson:"name" json:"name"`
	Email    string             `bson:"email" json:"email"`
	Password string             `bson:"password,omitempty" json:"-"`
	Avatar   *Avatar            `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Verified bool               `bson:"verified" json:"verified"`

	OTP       *int32     `bson:"otp,omitempty" json:"-"`
	OTPExpiry *time.Time `bson:"otp_expiry,omitempty" json:"-"`

	ResetPasswordOTP       *int32     `bson:"resetPasswordOtp,omitempty" json:"-"`
	ResetPasswordOTPExpiry *time.Time `bson:"resetPasswordOtpExpiry,omitempty" json:"-"`

	Tasks []Task `bson:"tasks" json:"tasks"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// FindTask returns a pointer into Tasks for in-place mutation, or nil when no
// task carries the id.
func (u *User) FindTask(taskID string) *Task {
	for i := range u.Tasks {
		if u.Tasks[i].ID == taskID {
			return &u.Tasks[i]
		}
	}
	return nil
}

// RemoveTask filters the task out of the sequence. Removing an unknown id is
// a no-op; it reports whether anything was removed.
func (u *User) RemoveTask(taskID string) bool {
	kept := u.Tasks[:0]
	removed := false
	for _, t := range u.Tasks {
		if t.ID == taskID {
			removed = true
			continue
		}
		kept = append(kept, t)
	}
	u.Tasks = kept
	return removed
}
