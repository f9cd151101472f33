package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/okanb/health-tracker/internal/db"
	apperr "github.com/okanb/health-tracker/internal/errors"
	"github.com/okanb/health-tracker/internal/metrics"
	"github.com/okanb/health-tracker/internal/utils/pagination"
)

// RecordRepository provides data access methods for per-user records.
type RecordRepository struct {
	db *gorm.DB
}

// NewRecordRepository creates a new repository bound to the given DB connection.
func NewRecordRepository(database *gorm.DB) *RecordRepository {
	return &RecordRepository{db: database}
}

// Insert writes one logged session for a profile and returns the assigned
// per-user record number.
//
// Behavior:
//   - Runs in a single transaction: verify the profile exists, read
//     MAX(record_id) for the user, insert with MAX+1 (1 when none).
//   - The transaction makes the sequence gapless and strictly increasing;
//     two concurrent inserts for the same profile cannot allocate the same
//     number.
//   - Referencing a missing profile fails the whole operation, nothing is
//     written.
func (r *RecordRepository) Insert(ctx context.Context, userID uint64, fields metrics.RecordFields) (uint64, error) {
	var recordID uint64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var profiles int64
		if err := tx.Model(&db.UserProfile{}).
			Where("user_id = ?", userID).
			Count(&profiles).Error; err != nil {
			return err
		}
		if profiles == 0 {
			return apperr.ErrMissingProfile
		}

		// next record_id for this user, inside the same transaction
		if err := tx.Raw(
			"SELECT COALESCE(MAX(record_id), 0) + 1 FROM user_record WHERE user_id = ?",
			userID,
		).Scan(&recordID).Error; err != nil {
			return err
		}

		record := db.UserRecord{
			UserID:        userID,
			RecordID:      recordID,
			Weight:        fields.Weight,
			BMI:           fields.BMI,
			BMR:           fields.BMR,
			ActivityLevel: fields.ActivityLevel,
			TDEE:          fields.TDEE,
			Goal:          string(fields.Goal),
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		return 0, err
	}
	return recordID, nil
}

// List returns a user's records, newest first.
//
// Behavior:
//   - Ordered by created_at DESC, record_id DESC.
//   - Supports cursor-based pagination via paginationToken (limit+1 fetch,
//     token built from the last returned row).
func (r *RecordRepository) List(
	ctx context.Context,
	userID uint64,
	paginationToken *string,
	limit int,
) ([]db.UserRecord, *string, error) {
	var records []db.UserRecord

	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, record_id DESC").
		Limit(limit + 1)

	// apply cursor
	if cursor.RecordID > 0 && cursor.CreatedUnix > 0 {
		ts := time.UnixMilli(cursor.CreatedUnix)
		query = query.Where(
			"(created_at < ? OR (created_at = ? AND record_id < ?))",
			ts, ts, cursor.RecordID,
		)
	}

	if err := query.Find(&records).Error; err != nil {
		return nil, nil, err
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(records) > limit {
		last := records[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			RecordID:    last.RecordID,
			CreatedUnix: last.CreatedAt.UnixMilli(),
		})
		nextToken = &token
		records = records[:limit]
	}

	return records, nextToken, nil
}

// Count returns how many records a user has logged.
// Used in conjunction with the Redis cache (DB is fallback).
func (r *RecordRepository) Count(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.UserRecord{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
