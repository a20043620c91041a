package services

import (
	"context"
	"fmt"
	"time"

	"glowfit/logger"
	"glowfit/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxWaterMl = 5000

type WaterService struct {
	db       *gorm.DB
	settings *NutritionSettingsService
	progress *ProgressService
	game     *GamificationService
	Now      Clock
}

func NewWaterService(db *gorm.DB, settings *NutritionSettingsService, progress *ProgressService, game *GamificationService) *WaterService {
	return &WaterService{db: db, settings: settings, progress: progress, game: game}
}

type WaterDay struct {
	Date    string               `json:"date"`
	Records []models.WaterRecord `json:"records"`
	TotalMl int                  `json:"total_ml"`
	GoalMl  int                  `json:"goal_ml"`
	Percent float64              `json:"percent"`
}

func (s *WaterService) Add(ctx context.Context, userID uint, amountMl int, at *time.Time) (*models.WaterRecord, error) {
	if amountMl < 1 || amountMl > maxWaterMl {
		return nil, invalid("amount_ml must be between 1 and %d", maxWaterMl)
	}
	now := s.Now.now()
	rec := &models.WaterRecord{UserID: userID, AmountMl: amountMl, RecordedAt: now}
	if at != nil {
		if at.After(now.Add(time.Hour)) {
			return nil, invalid("recorded_at is in the future")
		}
		rec.RecordedAt = *at
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, err
	}
	if _, err := s.progress.Refresh(ctx, userID, rec.RecordedAt); err != nil {
		logger.Warn("refresh progress failed", zap.Uint("user_id", userID), zap.Error(err))
	}
	s.game.AwardQuietly(ctx, userID, ActionWater, rec.ID, fmt.Sprintf("Drank %d ml", amountMl))
	return rec, nil
}

func (s *WaterService) Day(ctx context.Context, user *models.User, day time.Time) (*WaterDay, error) {
	records := []models.WaterRecord{}
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND recorded_at >= ? AND recorded_at < ?", user.ID, dayStart(day), dayEnd(day)).
		Order("recorded_at ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	goal, _, err := s.settings.Load(ctx, user)
	if err != nil {
		return nil, err
	}
	out := &WaterDay{Date: dayStart(day).Format(dateLayout), Records: records, GoalMl: goal.WaterGoalMl}
	for _, r := range records {
		out.TotalMl += r.AmountMl
	}
	out.Percent = pct(float64(out.TotalMl), float64(out.GoalMl))
	return out, nil
}

func (s *WaterService) Delete(ctx context.Context, userID, id uint) error {
	var rec models.WaterRecord
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&rec).Error; err != nil {
		return notFound(err, "water record")
	}
	if err := s.db.WithContext(ctx).Delete(&rec).Error; err != nil {
		return err
	}
	if _, err := s.progress.Refresh(ctx, userID, rec.RecordedAt); err != nil {
		logger.Warn("refresh progress failed", zap.Uint("user_id", userID), zap.Error(err))
	}
	return nil
}
