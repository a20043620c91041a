package services

import (
	"context"
	"errors"
	"strings"

	"glowfit/models"
	"glowfit/skincare"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultDiaryDays = 30
	maxDiaryDays     = 365
	maxDiaryProducts = 30
)

type SkincareService struct {
	db   *gorm.DB
	game *GamificationService
	Now  Clock
}

func NewSkincareService(db *gorm.DB, game *GamificationService) *SkincareService {
	return &SkincareService{db: db, game: game}
}

type DiaryInput struct {
	Date          string   `json:"date"`
	SkinCondition int      `json:"skin_condition" binding:"required"`
	SleepHours    float64  `json:"sleep_hours"`
	WaterMl       float64  `json:"water_ml"`
	StressLevel   int      `json:"stress_level"`
	Products      []string `json:"products"`
	Notes         string   `json:"notes"`
}

func (in *DiaryInput) validate() error {
	if in.SkinCondition < 1 || in.SkinCondition > 5 {
		return invalid("skin_condition must be between 1 and 5")
	}
	if in.StressLevel == 0 {
		in.StressLevel = 3
	}
	if in.StressLevel < 1 || in.StressLevel > 5 {
		return invalid("stress_level must be between 1 and 5")
	}
	if in.SleepHours < 0 || in.SleepHours > 24 {
		return invalid("sleep_hours must be between 0 and 24")
	}
	if in.WaterMl < 0 || in.WaterMl > 10000 {
		return invalid("water_ml must be between 0 and 10000")
	}
	if len(in.Products) > maxDiaryProducts {
		return invalid("at most %d products per day", maxDiaryProducts)
	}
	products := in.Products[:0]
	for _, p := range in.Products {
		if p = strings.TrimSpace(p); p != "" {
			products = append(products, p)
		}
	}
	in.Products = products
	return nil
}

// Upsert writes the entry for a day, replacing any entry already there.
// Only the first write of a day earns XP.
func (s *SkincareService) Upsert(ctx context.Context, userID uint, in DiaryInput) (*models.SkinDiaryEntry, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	now := s.Now.now()
	day, err := ParseDay(in.Date, now)
	if err != nil {
		return nil, err
	}
	if day.After(dayStart(now)) {
		return nil, invalid("date is in the future")
	}
	if in.Products == nil {
		in.Products = []string{}
	}

	var entry models.SkinDiaryEntry
	err = s.db.WithContext(ctx).Where("user_id = ? AND date = ?", userID, day).First(&entry).Error
	created := false
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		entry = models.SkinDiaryEntry{UserID: userID, Date: day}
		created = true
	default:
		return nil, err
	}
	entry.SkinCondition = in.SkinCondition
	entry.SleepHours = in.SleepHours
	entry.WaterMl = in.WaterMl
	entry.StressLevel = in.StressLevel
	entry.Products = datatypes.NewJSONSlice(in.Products)
	entry.Notes = strings.TrimSpace(in.Notes)

	if err := s.db.WithContext(ctx).Save(&entry).Error; err != nil {
		return nil, err
	}
	if created {
		s.game.AwardQuietly(ctx, userID, ActionDiary, entry.ID, "Wrote a skin diary entry")
	}
	return &entry, nil
}

func clampDays(days int) int {
	if days <= 0 {
		return defaultDiaryDays
	}
	if days > maxDiaryDays {
		return maxDiaryDays
	}
	return days
}

// List returns entries of the last n days, newest first.
func (s *SkincareService) List(ctx context.Context, userID uint, days int) ([]models.SkinDiaryEntry, error) {
	since := dayStart(s.Now.now()).AddDate(0, 0, -(clampDays(days) - 1))
	entries := []models.SkinDiaryEntry{}
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date >= ?", userID, since).
		Order("date DESC").
		Find(&entries).Error
	return entries, err
}

type CorrelationReport struct {
	Days int `json:"days"`
	skincare.Report
}

func (s *SkincareService) Correlation(ctx context.Context, userID uint, days int) (*CorrelationReport, error) {
	days = clampDays(days)
	entries, err := s.List(ctx, userID, days)
	if err != nil {
		return nil, err
	}
	obs := make([]skincare.Day, 0, len(entries))
	for _, e := range entries {
		obs = append(obs, skincare.Day{
			SkinCondition: float64(e.SkinCondition),
			SleepHours:    e.SleepHours,
			WaterMl:       e.WaterMl,
			StressLevel:   float64(e.StressLevel),
			ProductCount:  float64(len(e.Products)),
		})
	}
	return &CorrelationReport{Days: days, Report: skincare.Analyze(obs)}, nil
}
