package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shivamvijaywargi/mernative/internal/domain/entity"
	"github.com/shivamvijaywargi/mernative/internal/domain/repository"
)

// hidePassword strips the password hash from reads that do not need it.
var hidePassword = options.FindOne().SetProjection(bson.M{"password": 0})

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(client *mongo.Client, dbName string) *UserRepository {
	return &UserRepository{col: client.Database(dbName).Collection(usersCollection)}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.Tasks == nil {
		u.Tasks = []entity.Task{}
	}
	res, err := r.col.InsertOne(ctx, u)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = oid
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid}, hidePassword)
}

func (r *UserRepository) GetByIDWithPassword(ctx context.Context, id string) (*entity.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, bson.M{"email": email}, hidePassword)
}

func (r *UserRepository) GetByEmailWithPassword(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) FindByResetOTP(ctx context.Context, otp int32, now time.Time) (*entity.User, error) {
	filter := bson.M{
		"resetPasswordOtp":       otp,
		"resetPasswordOtpExpiry": bson.M{"$gt": now},
	}
	return r.findOne(ctx, filter)
}

// Save writes the aggregate back field by field. The password hash is only
// touched when the caller set one, since most reads load the user without it.
// Last write wins at the document level; there is no optimistic concurrency
// check.
func (r *UserRepository) Save(ctx context.Context, u *entity.User) error {
	u.UpdatedAt = time.Now()
	if u.Tasks == nil {
		u.Tasks = []entity.Task{}
	}

	set := bson.M{
		"name":      u.Name,
		"email":     u.Email,
		"verified":  u.Verified,
		"tasks":     u.Tasks,
		"updatedAt": u.UpdatedAt,
	}
	unset := bson.M{}

	if u.Password != "" {
		set["password"] = u.Password
	}
	if u.Avatar != nil {
		set["avatar"] = u.Avatar
	}
	setOrUnset(set, unset, "otp", u.OTP)
	setOrUnset(set, unset, "otp_expiry", u.OTPExpiry)
	setOrUnset(set, unset, "resetPasswordOtp", u.ResetPasswordOTP)
	setOrUnset(set, unset, "resetPasswordOtpExpiry", u.ResetPasswordOTPExpiry)

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": u.ID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func setOrUnset[T any](set, unset bson.M, field string, v *T) {
	if v != nil {
		set[field] = *v
	} else {
		unset[field] = ""
	}
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*entity.User, error) {
	u := &entity.User{}
	err := r.col.FindOne(ctx, filter, opts...).Decode(u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
