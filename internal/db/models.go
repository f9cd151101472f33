package db

import (
	"time"
)

// UserProfile is a user's stable biometric identity: one row per user.
type UserProfile struct {
	UserID    uint64    `gorm:"column:user_id;primaryKey;autoIncrement"`
	Name      string    `gorm:"column:user_name;size:128;not null"`
	Birthday  string    `gorm:"column:user_birthday;size:10"` // YYYY-MM-DD
	Gender    string    `gorm:"column:user_gender;size:16"`   // Male, Female
	Height    float64   `gorm:"column:user_height;check:user_height > 0"` // meters
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (UserProfile) TableName() string { return "user_profile" }

// UserRecord is one logged session's weight/derived-metrics snapshot.
//
// Composite PK: (UserID, RecordID)
//   - RecordID is a per-user sequence starting at 1, allocated inside the
//     insert transaction (see repository.InsertRecord).
//
// Indexes:
//   - idx_user_record_user(user_id, created_at DESC)
//     Optimizes per-user record listing, newest first.
//
// The FK to user_profile cascades on update and delete: removing a profile
// removes all of its records.
type UserRecord struct {
	UserID        uint64    `gorm:"column:user_id;primaryKey;autoIncrement:false;index:idx_user_record_user,priority:1"`
	RecordID      uint64    `gorm:"column:record_id;primaryKey;autoIncrement:false"`
	Weight        float64   `gorm:"column:user_weight"` // kg
	BMI           float64   `gorm:"column:user_bmi"`
	BMR           float64   `gorm:"column:user_bmr"`
	ActivityLevel int       `gorm:"column:user_activity_level"` // 1-5
	TDEE          float64   `gorm:"column:user_tdee"`
	Goal          string    `gorm:"column:user_goal;size:16"` // cut, bulk, maintain
	CreatedAt     time.Time `gorm:"autoCreateTime;index:idx_user_record_user,priority:2,sort:desc"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`

	Profile *UserProfile `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (UserRecord) TableName() string { return "user_record" }
