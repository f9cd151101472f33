package tracker_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/okanb/health-tracker/internal/app"
	"github.com/okanb/health-tracker/internal/cache"
	"github.com/okanb/health-tracker/internal/config"
	"github.com/okanb/health-tracker/internal/db"
	apperr "github.com/okanb/health-tracker/internal/errors"
	"github.com/okanb/health-tracker/internal/metrics"
	"github.com/okanb/health-tracker/internal/service/tracker"
)

// setupService spins up an in-memory SQLite DB with foreign keys enforced,
// applies migrations, starts a miniredis, and wires everything into a
// tracker Service instance.
//
// Each test gets its own isolated DB + Redis.
func setupService(t *testing.T) (*tracker.Service, *miniredis.Miniredis) {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", t.Name())
	dbase, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, dbase.AutoMigrate(&db.UserProfile{}, &db.UserRecord{}))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	redisCache := cache.NewRedisCache(cfg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // discard logs in tests

	appCtx := app.New(dbase, redisCache, logger)
	return tracker.NewTrackerService(appCtx), mr
}

func createTestProfile(t *testing.T, svc *tracker.Service) uint64 {
	t.Helper()
	resp, err := svc.CreateProfile(context.Background(), &tracker.ProfileRequest{
		Name:     "Alice",
		Birthday: "1992-03-04",
		Gender:   "f",
		HeightCm: 165,
	})
	require.NoError(t, err)
	return resp.UserID
}

func TestCreateProfile(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	resp, err := svc.CreateProfile(ctx, &tracker.ProfileRequest{
		Name:     "Bob",
		Birthday: "1988-11-21",
		Gender:   "male",
		HeightCm: 182,
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(1), resp.UserID)
	assert.Equal(t, "Bob", resp.Name)
	assert.Equal(t, "Male", resp.Gender) // normalized
	assert.Equal(t, 1.82, resp.HeightM)  // cm converted to meters
}

func TestCreateProfile_InvalidInput(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	// unrecognized gender
	_, err := svc.CreateProfile(ctx, &tracker.ProfileRequest{
		Name: "X", Birthday: "1990-01-01", Gender: "unknown", HeightCm: 170,
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	// malformed birthday
	_, err = svc.CreateProfile(ctx, &tracker.ProfileRequest{
		Name: "X", Birthday: "01/01/1990", Gender: "m", HeightCm: 170,
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	// height out of range
	_, err = svc.CreateProfile(ctx, &tracker.ProfileRequest{
		Name: "X", Birthday: "1990-01-01", Gender: "m", HeightCm: 420,
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	// out-of-range heights must not round their way into the valid range
	_, err = svc.CreateProfile(ctx, &tracker.ProfileRequest{
		Name: "X", Birthday: "1990-01-01", Gender: "m", HeightCm: 49.6,
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = svc.CreateProfile(ctx, &tracker.ProfileRequest{
		Name: "X", Birthday: "1990-01-01", Gender: "m", HeightCm: 400.4,
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	// exact bounds are accepted
	resp, err := svc.CreateProfile(ctx, &tracker.ProfileRequest{
		Name: "Y", Birthday: "1990-01-01", Gender: "m", HeightCm: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.5, resp.HeightM)
}

func TestUpdateProfile_NotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, err := svc.UpdateProfile(ctx, 99, &tracker.ProfileRequest{
		Name: "Ghost", Birthday: "1990-01-01", Gender: "m", HeightCm: 180,
	})
	assert.ErrorIs(t, err, apperr.ErrProfileNotFound)
}

func TestLogRecord(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)
	userID := createTestProfile(t, svc)

	resp, err := svc.LogRecord(ctx, userID, &tracker.LogRecordRequest{
		Weight:        58,
		ActivityLevel: 2,
		Goal:          "maintain",
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(1), resp.Record.RecordID)
	assert.Equal(t, 58.0, resp.Record.Weight)
	assert.Equal(t, metrics.CalcBMI(58, 1.65), resp.Record.BMI)
	assert.Equal(t, "maintain", resp.Record.Goal)
	assert.Equal(t, metrics.ClassifyBMI(resp.Record.BMI), resp.BMIClass)
	assert.Equal(t, resp.Record.TDEE, resp.TargetCalories) // maintain modifier is 1.0

	macros, err := metrics.CalculateMacros(resp.Record.TDEE, metrics.GoalMaintain)
	require.NoError(t, err)
	assert.Equal(t, macros.CarbG, resp.Macros.CarbG)
	assert.Equal(t, macros.ProteinG, resp.Macros.ProteinG)
	assert.Equal(t, macros.FatG, resp.Macros.FatG)

	// next session gets the next per-user number
	resp, err = svc.LogRecord(ctx, userID, &tracker.LogRecordRequest{
		Weight:        57.4,
		ActivityLevel: 3,
		Goal:          "cut",
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), resp.Record.RecordID)
}

func TestLogRecord_PoundsConverted(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)
	userID := createTestProfile(t, svc)

	resp, err := svc.LogRecord(ctx, userID, &tracker.LogRecordRequest{
		Weight:        150,
		WeightUnit:    "lb",
		ActivityLevel: 3,
		Goal:          "cut",
	})
	require.NoError(t, err)
	assert.Equal(t, 68.04, resp.Record.Weight) // 150 lb * 0.453592
}

func TestLogRecord_InvalidInput(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)
	userID := createTestProfile(t, svc)

	_, err := svc.LogRecord(ctx, userID, &tracker.LogRecordRequest{
		Weight: 58, ActivityLevel: 7, Goal: "cut",
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = svc.LogRecord(ctx, userID, &tracker.LogRecordRequest{
		Weight: 58, ActivityLevel: 2, Goal: "tone",
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = svc.LogRecord(ctx, userID, &tracker.LogRecordRequest{
		Weight: 5, ActivityLevel: 2, Goal: "cut", // below 10 kg
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestLogRecord_MissingProfile(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, err := svc.LogRecord(ctx, 12345, &tracker.LogRecordRequest{
		Weight: 70, ActivityLevel: 3, Goal: "cut",
	})
	assert.ErrorIs(t, err, apperr.ErrProfileNotFound)
}

func TestCountRecords_CacheFirst(t *testing.T) {
	ctx := context.Background()
	svc, mr := setupService(t)
	userID := createTestProfile(t, svc)

	for i := 0; i < 2; i++ {
		_, err := svc.LogRecord(ctx, userID, &tracker.LogRecordRequest{
			Weight: 58 - float64(i), ActivityLevel: 2, Goal: "maintain",
		})
		require.NoError(t, err)
	}

	// logging alone must not invent a cached counter
	assert.False(t, mr.Exists(fmt.Sprintf("records:count:%d", userID)))

	// first call populates the cache from the DB
	count, err := svc.CountRecords(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.True(t, mr.Exists(fmt.Sprintf("records:count:%d", userID)))

	// a new record keeps the cached count in step
	_, err = svc.LogRecord(ctx, userID, &tracker.LogRecordRequest{
		Weight: 57, ActivityLevel: 2, Goal: "maintain",
	})
	require.NoError(t, err)

	count, err = svc.CountRecords(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestListRecords(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)
	userID := createTestProfile(t, svc)

	for i := 0; i < 3; i++ {
		_, err := svc.LogRecord(ctx, userID, &tracker.LogRecordRequest{
			Weight: 58 + float64(i), ActivityLevel: 2, Goal: "maintain",
		})
		require.NoError(t, err)
	}

	resp, err := svc.ListRecords(ctx, userID, nil, 2)
	require.NoError(t, err)
	require.Len(t, resp.Records, 2)
	require.NotNil(t, resp.NextPaginationToken)
	assert.Equal(t, uint64(3), resp.Records[0].RecordID) // newest first

	resp, err = svc.ListRecords(ctx, userID, resp.NextPaginationToken, 2)
	require.NoError(t, err)
	require.Len(t, resp.Records, 1)
	assert.Nil(t, resp.NextPaginationToken)

	// listing for a missing profile is an explicit not-found
	_, err = svc.ListRecords(ctx, 999, nil, 2)
	assert.ErrorIs(t, err, apperr.ErrProfileNotFound)
}

func TestDeleteProfile_RemovesRecordsAndCache(t *testing.T) {
	ctx := context.Background()
	svc, mr := setupService(t)
	userID := createTestProfile(t, svc)

	_, err := svc.LogRecord(ctx, userID, &tracker.LogRecordRequest{
		Weight: 58, ActivityLevel: 2, Goal: "maintain",
	})
	require.NoError(t, err)

	_, err = svc.CountRecords(ctx, userID)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProfile(ctx, userID))

	assert.False(t, mr.Exists(fmt.Sprintf("records:count:%d", userID)))

	_, err = svc.GetProfile(ctx, userID)
	assert.ErrorIs(t, err, apperr.ErrProfileNotFound)
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	resp, err := svc.Summary(ctx, &tracker.SummaryRequest{
		Gender:        "m",
		Birthday:      "1999-06-15",
		HeightCm:      175,
		Weight:        70,
		ActivityLevel: 3,
		Goal:          "cut",
	})
	require.NoError(t, err)

	age, err := metrics.Age("1999-06-15")
	require.NoError(t, err)

	assert.Equal(t, age, resp.Age)
	assert.Equal(t, 22.86, resp.BMI)
	assert.Equal(t, "Normal weight", resp.BMIClass)
	assert.Equal(t, metrics.CalcBMR(metrics.Male, 70, 1.75, age), resp.BMR)
	assert.Equal(t, metrics.CalcTDEE(resp.BMR, 3), resp.TDEE)

	target, err := metrics.TargetCalories(resp.TDEE, metrics.GoalCut)
	require.NoError(t, err)
	assert.Equal(t, target, resp.TargetCalories)

	_, err = svc.Summary(ctx, &tracker.SummaryRequest{
		Gender: "m", Birthday: "1999-06-15", HeightCm: 175,
		Weight: 70, ActivityLevel: 3, Goal: "shred",
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}
