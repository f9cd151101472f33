package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/okanb/health-tracker/internal/db"
	apperr "github.com/okanb/health-tracker/internal/errors"
	"github.com/okanb/health-tracker/internal/metrics"
)

// ProfileRepository provides data access methods for user profiles.
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new repository bound to the given DB connection.
func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// ProfileCore is the read-only projection used by metrics computation:
// everything needed to derive a record besides the session inputs.
type ProfileCore struct {
	Birthday string
	Gender   metrics.Gender
	Height   float64 // meters
}

// Create inserts a new profile and returns its assigned id.
// Timestamps are set by the store.
func (r *ProfileRepository) Create(ctx context.Context, name, birthday string, gender metrics.Gender, heightM float64) (uint64, error) {
	profile := db.UserProfile{
		Name:     name,
		Birthday: birthday,
		Gender:   string(gender),
		Height:   heightM,
	}
	if err := r.db.WithContext(ctx).Create(&profile).Error; err != nil {
		return 0, err
	}
	return profile.UserID, nil
}

// Update overwrites all mutable fields of the named profile.
// A missing id is a silent no-op at this level; callers that need to
// distinguish should check existence first.
func (r *ProfileRepository) Update(ctx context.Context, userID uint64, name, birthday string, gender metrics.Gender, heightM float64) error {
	return r.db.WithContext(ctx).
		Model(&db.UserProfile{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"user_name":     name,
			"user_birthday": birthday,
			"user_gender":   string(gender),
			"user_height":   heightM,
		}).Error
}

// Get returns the full profile row.
func (r *ProfileRepository) Get(ctx context.Context, userID uint64) (*db.UserProfile, error) {
	var profile db.UserProfile
	err := r.db.WithContext(ctx).First(&profile, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetCore returns (birthday, gender, height) for calculations.
func (r *ProfileRepository) GetCore(ctx context.Context, userID uint64) (ProfileCore, error) {
	profile, err := r.Get(ctx, userID)
	if err != nil {
		return ProfileCore{}, err
	}
	return ProfileCore{
		Birthday: profile.Birthday,
		Gender:   metrics.Gender(profile.Gender),
		Height:   profile.Height,
	}, nil
}

// Exists reports whether a profile with the given id is present.
func (r *ProfileRepository) Exists(ctx context.Context, userID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.UserProfile{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count > 0, err
}

// Delete removes a profile. The FK cascade removes its records with it.
func (r *ProfileRepository) Delete(ctx context.Context, userID uint64) error {
	res := r.db.WithContext(ctx).Delete(&db.UserProfile{}, "user_id = ?", userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrProfileNotFound
	}
	return nil
}
