package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/subletme/sublet-api/internal/db"
)

// UserRepository provides data access for accounts, profile photos and
// push-notification devices.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

func (r *UserRepository) GetByID(ctx context.Context, userID uint64) (*db.User, error) {
	var user db.User
	if err := r.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*db.User, error) {
	var user db.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *db.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// ProfilePhotoURL returns the user's profile shot, or ("", nil) when none is
// set.
func (r *UserRepository) ProfilePhotoURL(ctx context.Context, userID uint64) (string, error) {
	var photo db.UserPhoto
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_profile = ?", userID, true).
		First(&photo).Error
	if IsNotFound(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return photo.PhotoURL, nil
}

// UpsertDevice registers a push token for the user. Re-registering the same
// (user, token) pair refreshes the metadata.
func (r *UserRepository) UpsertDevice(ctx context.Context, userID uint64, token, metadata string) error {
	device := db.UserDevice{
		UserID:         userID,
		FirebaseToken:  token,
		DeviceMetadata: metadata,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "firebase_token"}},
			DoUpdates: clause.AssignmentColumns([]string{"device_metadata", "updated_at"}),
		}).
		Create(&device).Error
}

// DeviceTokens lists the user's registered push tokens. Empty is a valid
// result: the caller logs and skips delivery.
func (r *UserRepository) DeviceTokens(ctx context.Context, userID uint64) ([]string, error) {
	var tokens []string
	err := r.db.WithContext(ctx).
		Model(&db.UserDevice{}).
		Where("user_id = ?", userID).
		Pluck("firebase_token", &tokens).Error
	return tokens, err
}

// RemoveDeviceToken drops a token everywhere it appears, used when FCM
// reports it permanently invalid.
func (r *UserRepository) RemoveDeviceToken(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).
		Where("firebase_token = ?", token).
		Delete(&db.UserDevice{}).Error
}
