package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/okanb/health-tracker/internal/app"
	"github.com/okanb/health-tracker/internal/db"
	apperr "github.com/okanb/health-tracker/internal/errors"
	"github.com/okanb/health-tracker/internal/metrics"
	"github.com/okanb/health-tracker/internal/repository"
)

// Service implements the health tracker API.
// It contains the business logic on top of repository and cache layers:
// profile lifecycle, session logging (fetch core -> compute -> insert) and
// cache-backed record counts.
type Service struct {
	appCtx      *app.AppContext
	profileRepo *repository.ProfileRepository
	recordRepo  *repository.RecordRepository
}

// NewTrackerService creates a new tracker service with dependencies from AppContext.
func NewTrackerService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:      appCtx,
		profileRepo: repository.NewProfileRepository(appCtx.DB),
		recordRepo:  repository.NewRecordRepository(appCtx.DB),
	}
}

//
// Request / response types
//

// ProfileRequest carries the mutable profile fields. Height comes in from
// the input surface in centimeters and is stored in meters.
type ProfileRequest struct {
	Name     string  `json:"name" binding:"required"`
	Birthday string  `json:"birthday" binding:"required"`
	Gender   string  `json:"gender" binding:"required"`
	HeightCm float64 `json:"height_cm" binding:"required"`
}

type ProfileResponse struct {
	UserID    uint64    `json:"user_id"`
	Name      string    `json:"name"`
	Birthday  string    `json:"birthday"`
	Gender    string    `json:"gender"`
	HeightM   float64   `json:"height_m"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LogRecordRequest carries one session's inputs. Weight defaults to kg;
// "lb" is converted before validation.
type LogRecordRequest struct {
	Weight        float64 `json:"weight" binding:"required"`
	WeightUnit    string  `json:"weight_unit"`
	ActivityLevel int     `json:"activity_level" binding:"required"`
	Goal          string  `json:"goal" binding:"required"`
}

type MacrosResponse struct {
	CarbG    float64 `json:"carb_g"`
	ProteinG float64 `json:"protein_g"`
	FatG     float64 `json:"fat_g"`
}

type RecordResponse struct {
	UserID        uint64    `json:"user_id"`
	RecordID      uint64    `json:"record_id"`
	Weight        float64   `json:"weight_kg"`
	BMI           float64   `json:"bmi"`
	BMR           float64   `json:"bmr"`
	ActivityLevel int       `json:"activity_level"`
	TDEE          float64   `json:"tdee"`
	Goal          string    `json:"goal"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// LogRecordResponse returns the stored record plus the presentation-only
// derived values (classification, macros, calorie target).
type LogRecordResponse struct {
	Record         RecordResponse `json:"record"`
	BMIClass       string         `json:"bmi_class"`
	TargetCalories float64        `json:"target_calories"`
	Macros         MacrosResponse `json:"macros"`
}

type ListRecordsResponse struct {
	Records             []RecordResponse `json:"records"`
	NextPaginationToken *string          `json:"next_pagination_token,omitempty"`
}

// SummaryRequest is the stateless preview: raw inputs, nothing persisted.
type SummaryRequest struct {
	Gender        string  `json:"gender" binding:"required"`
	Birthday      string  `json:"birthday" binding:"required"`
	HeightCm      float64 `json:"height_cm" binding:"required"`
	Weight        float64 `json:"weight" binding:"required"`
	WeightUnit    string  `json:"weight_unit"`
	ActivityLevel int     `json:"activity_level" binding:"required"`
	Goal          string  `json:"goal" binding:"required"`
}

type SummaryResponse struct {
	Age            int            `json:"age"`
	BMI            float64        `json:"bmi"`
	BMIClass       string         `json:"bmi_class"`
	BMR            float64        `json:"bmr"`
	TDEE           float64        `json:"tdee"`
	TargetCalories float64        `json:"target_calories"`
	Macros         MacrosResponse `json:"macros"`
}

//
// Profile operations
//

// CreateProfile validates and stores a new profile, returning it with the
// assigned id.
func (s *Service) CreateProfile(ctx context.Context, req *ProfileRequest) (*ProfileResponse, error) {
	s.appCtx.Logger.Debug("CreateProfile called", "name", req.Name)

	gender, birthday, heightM, err := s.validateProfileInput(req)
	if err != nil {
		return nil, err
	}

	userID, err := s.profileRepo.Create(ctx, req.Name, birthday, gender, heightM)
	if err != nil {
		s.appCtx.Logger.Error("profile create failed", "err", err)
		return nil, err
	}

	s.appCtx.Logger.Info("profile created", "user_id", userID)
	return s.GetProfile(ctx, userID)
}

// GetProfile returns the full profile for an id.
func (s *Service) GetProfile(ctx context.Context, userID uint64) (*ProfileResponse, error) {
	profile, err := s.profileRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return profileResponse(profile), nil
}

// UpdateProfile overwrites all mutable fields of an existing profile.
// Unlike the repository-level no-op, a missing id is reported to the caller.
func (s *Service) UpdateProfile(ctx context.Context, userID uint64, req *ProfileRequest) (*ProfileResponse, error) {
	s.appCtx.Logger.Debug("UpdateProfile called", "user_id", userID)

	gender, birthday, heightM, err := s.validateProfileInput(req)
	if err != nil {
		return nil, err
	}

	exists, err := s.profileRepo.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.ErrProfileNotFound
	}

	if err := s.profileRepo.Update(ctx, userID, req.Name, birthday, gender, heightM); err != nil {
		s.appCtx.Logger.Error("profile update failed", "user_id", userID, "err", err)
		return nil, err
	}
	return s.GetProfile(ctx, userID)
}

// DeleteProfile removes a profile and, via FK cascade, all of its records.
func (s *Service) DeleteProfile(ctx context.Context, userID uint64) error {
	s.appCtx.Logger.Debug("DeleteProfile called", "user_id", userID)

	if err := s.profileRepo.Delete(ctx, userID); err != nil {
		return err
	}
	if err := s.appCtx.RedisCache.InvalidateRecordCount(ctx, userID); err != nil {
		s.appCtx.Logger.Warn("failed to drop record count cache", "user_id", userID, "err", err)
	}
	return nil
}

//
// Record operations
//

// LogRecord logs one session for an existing profile:
// fetch the profile core, derive the record fields, insert with the next
// per-user record number, and return the stored row together with the
// presentation-only values (BMI class, macros, calorie target).
func (s *Service) LogRecord(ctx context.Context, userID uint64, req *LogRecordRequest) (*LogRecordResponse, error) {
	s.appCtx.Logger.Debug("LogRecord called", "user_id", userID, "weight", req.Weight, "unit", req.WeightUnit)

	weightKg, err := normalizeWeight(req.Weight, req.WeightUnit)
	if err != nil {
		return nil, err
	}
	if req.ActivityLevel < 1 || req.ActivityLevel > 5 {
		return nil, fmt.Errorf("%w: activity_level must be 1-5, got %d", apperr.ErrInvalidInput, req.ActivityLevel)
	}
	goal, err := metrics.NormalizeGoal(req.Goal)
	if err != nil {
		return nil, err
	}

	core, err := s.profileRepo.GetCore(ctx, userID)
	if err != nil {
		return nil, err
	}

	fields, err := metrics.ComputeRecordFields(core.Gender, core.Height, core.Birthday, weightKg, req.ActivityLevel, goal)
	if err != nil {
		return nil, err
	}

	recordID, err := s.recordRepo.Insert(ctx, userID, fields)
	if err != nil {
		s.appCtx.Logger.Error("record insert failed", "user_id", userID, "err", err)
		return nil, err
	}

	// atomic bump of the cached count; a miss stays a miss until the next
	// CountRecords repopulates it from the DB
	if _, _, err := s.appCtx.RedisCache.IncrRecordCount(ctx, userID); err != nil {
		s.appCtx.Logger.Warn("failed to bump record count cache", "user_id", userID, "err", err)
	}

	macros, err := metrics.CalculateMacros(fields.TDEE, goal)
	if err != nil {
		return nil, err
	}
	target, err := metrics.TargetCalories(fields.TDEE, goal)
	if err != nil {
		return nil, err
	}

	s.appCtx.Logger.Info("record logged", "user_id", userID, "record_id", recordID)

	record, err := s.fetchRecord(ctx, userID, recordID)
	if err != nil {
		return nil, err
	}

	return &LogRecordResponse{
		Record:         *record,
		BMIClass:       metrics.ClassifyBMI(fields.BMI),
		TargetCalories: target,
		Macros:         macrosResponse(macros),
	}, nil
}

// ListRecords returns a user's records, newest first, cursor-paginated.
func (s *Service) ListRecords(ctx context.Context, userID uint64, paginationToken *string, limit int) (*ListRecordsResponse, error) {
	s.appCtx.Logger.Debug("ListRecords called", "user_id", userID, "limit", limit)

	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	exists, err := s.profileRepo.Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.ErrProfileNotFound
	}

	records, nextToken, err := s.recordRepo.List(ctx, userID, paginationToken, limit)
	if err != nil {
		return nil, err
	}

	resp := &ListRecordsResponse{Records: make([]RecordResponse, 0, len(records))}
	for _, rec := range records {
		resp.Records = append(resp.Records, recordResponse(&rec))
	}
	resp.NextPaginationToken = nextToken
	return resp, nil
}

// CountRecords returns how many records a user has logged.
// Cache-first strategy:
//  1. Attempts to read from Redis (records:count:userID).
//  2. On miss, falls back to DB via repository.Count.
//  3. On DB fetch, updates Redis with a fresh TTL.
func (s *Service) CountRecords(ctx context.Context, userID uint64) (int64, error) {
	s.appCtx.Logger.Debug("CountRecords called", "user_id", userID)

	if cached, ok, _ := s.appCtx.RedisCache.GetRecordCount(ctx, userID); ok {
		return cached, nil
	}

	exists, err := s.profileRepo.Exists(ctx, userID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, apperr.ErrProfileNotFound
	}

	count, err := s.recordRepo.Count(ctx, userID)
	if err != nil {
		return 0, err
	}
	_ = s.appCtx.RedisCache.UpdateRecordCount(ctx, userID, count)

	return count, nil
}

// Summary derives the full metric set from raw inputs without touching
// storage. Presentation-only.
func (s *Service) Summary(ctx context.Context, req *SummaryRequest) (*SummaryResponse, error) {
	gender, err := metrics.NormalizeGender(req.Gender)
	if err != nil {
		return nil, err
	}
	heightM, err := normalizeHeight(req.HeightCm)
	if err != nil {
		return nil, err
	}
	weightKg, err := normalizeWeight(req.Weight, req.WeightUnit)
	if err != nil {
		return nil, err
	}
	goal, err := metrics.NormalizeGoal(req.Goal)
	if err != nil {
		return nil, err
	}

	age, err := metrics.Age(req.Birthday)
	if err != nil {
		return nil, err
	}

	bmi := metrics.CalcBMI(weightKg, heightM)
	bmr := metrics.CalcBMR(gender, weightKg, heightM, age)
	tdee := metrics.CalcTDEE(bmr, req.ActivityLevel)
	macros, err := metrics.CalculateMacros(tdee, goal)
	if err != nil {
		return nil, err
	}
	target, err := metrics.TargetCalories(tdee, goal)
	if err != nil {
		return nil, err
	}

	return &SummaryResponse{
		Age:            age,
		BMI:            bmi,
		BMIClass:       metrics.ClassifyBMI(bmi),
		BMR:            bmr,
		TDEE:           tdee,
		TargetCalories: target,
		Macros:         macrosResponse(macros),
	}, nil
}

//
// Helpers
//

func macrosResponse(m metrics.Macros) MacrosResponse {
	return MacrosResponse{
		CarbG:    m.CarbG,
		ProteinG: m.ProteinG,
		FatG:     m.FatG,
	}
}

func (s *Service) validateProfileInput(req *ProfileRequest) (metrics.Gender, string, float64, error) {
	gender, err := metrics.NormalizeGender(req.Gender)
	if err != nil {
		return "", "", 0, err
	}

	age, err := metrics.Age(req.Birthday)
	if err != nil {
		return "", "", 0, err
	}
	if age < metrics.AgeMin || age > metrics.AgeMax {
		return "", "", 0, fmt.Errorf("%w: age %d out of range %d-%d", apperr.ErrInvalidInput, age, metrics.AgeMin, metrics.AgeMax)
	}

	heightM, err := normalizeHeight(req.HeightCm)
	if err != nil {
		return "", "", 0, err
	}
	return gender, req.Birthday, heightM, nil
}

func (s *Service) fetchRecord(ctx context.Context, userID, recordID uint64) (*RecordResponse, error) {
	var rec db.UserRecord
	err := s.appCtx.DB.WithContext(ctx).
		First(&rec, "user_id = ? AND record_id = ?", userID, recordID).Error
	if err != nil {
		return nil, err
	}
	resp := recordResponse(&rec)
	return &resp, nil
}

// normalizeHeight checks the 50-400 cm input range, then converts to
// meters (2 decimals). The range is checked on the raw value so 49.6 cm
// cannot round its way to a valid 0.50 m.
func normalizeHeight(heightCm float64) (float64, error) {
	if heightCm < metrics.HeightMMin*100 || heightCm > metrics.HeightMMax*100 {
		return 0, fmt.Errorf("%w: height %.1f cm out of range %.0f-%.0f cm",
			apperr.ErrInvalidInput, heightCm, metrics.HeightMMin*100, metrics.HeightMMax*100)
	}
	return metrics.Round2(heightCm / 100), nil
}

// normalizeWeight converts to kilograms (lb at 0.453592) and checks the
// 10-400 kg input range.
func normalizeWeight(weight float64, unit string) (float64, error) {
	switch unit {
	case "", "kg":
	case "lb":
		weight *= metrics.LbToKg
	default:
		return 0, fmt.Errorf("%w: weight_unit must be kg or lb, got %q", apperr.ErrInvalidInput, unit)
	}
	if weight < metrics.WeightKgMin || weight > metrics.WeightKgMax {
		return 0, fmt.Errorf("%w: weight %.2f kg out of range %.0f-%.0f kg",
			apperr.ErrInvalidInput, weight, metrics.WeightKgMin, metrics.WeightKgMax)
	}
	return metrics.Round2(weight), nil
}

func profileResponse(p *db.UserProfile) *ProfileResponse {
	return &ProfileResponse{
		UserID:    p.UserID,
		Name:      p.Name,
		Birthday:  p.Birthday,
		Gender:    p.Gender,
		HeightM:   p.Height,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func recordResponse(rec *db.UserRecord) RecordResponse {
	return RecordResponse{
		UserID:        rec.UserID,
		RecordID:      rec.RecordID,
		Weight:        rec.Weight,
		BMI:           rec.BMI,
		BMR:           rec.BMR,
		ActivityLevel: rec.ActivityLevel,
		TDEE:          rec.TDEE,
		Goal:          rec.Goal,
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
	}
}
