package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"glowfit/logger"
	"glowfit/models"
	"glowfit/nutrition"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxWorkoutMinutes = 600

type WorkoutService struct {
	db       *gorm.DB
	progress *ProgressService
	game     *GamificationService
	Now      Clock
}

func NewWorkoutService(db *gorm.DB, progress *ProgressService, game *GamificationService) *WorkoutService {
	return &WorkoutService{db: db, progress: progress, game: game}
}

type WorkoutInput struct {
	Type        string     `json:"type" binding:"required"`
	DurationMin int        `json:"duration_min" binding:"required"`
	Intensity   string     `json:"intensity"`
	PerformedAt *time.Time `json:"performed_at"`
}

type WorkoutStats struct {
	WeekStart     string  `json:"week_start"`
	WeekMinutes   float64 `json:"week_minutes"`
	WeekSessions  int     `json:"week_sessions"`
	WeekCalories  float64 `json:"week_calories"`
	CurrentStreak int     `json:"current_streak"`
}

func (s *WorkoutService) Log(ctx context.Context, user *models.User, in WorkoutInput) (*models.WorkoutLog, *AwardResult, error) {
	in.Type = strings.ToLower(strings.TrimSpace(in.Type))
	if !nutrition.ValidWorkoutType(in.Type) {
		return nil, nil, invalid("unknown workout type %q", in.Type)
	}
	if in.DurationMin < 1 || in.DurationMin > maxWorkoutMinutes {
		return nil, nil, invalid("duration_min must be between 1 and %d", maxWorkoutMinutes)
	}
	if in.Intensity == "" {
		in.Intensity = "moderate"
	}
	if !nutrition.ValidIntensity(in.Intensity) {
		return nil, nil, invalid("intensity must be low, moderate or high")
	}
	now := s.Now.now()
	at := now
	if in.PerformedAt != nil {
		if in.PerformedAt.After(now.Add(time.Hour)) {
			return nil, nil, invalid("performed_at is in the future")
		}
		at = *in.PerformedAt
	}

	w := &models.WorkoutLog{
		UserID:         user.ID,
		Type:           in.Type,
		Intensity:      in.Intensity,
		DurationMin:    float64(in.DurationMin),
		CaloriesBurned: nutrition.CaloriesBurned(in.Type, in.Intensity, user.WeightKg, in.DurationMin),
		PerformedAt:    at,
	}
	if err := s.db.WithContext(ctx).Create(w).Error; err != nil {
		return nil, nil, err
	}
	if _, err := s.progress.Refresh(ctx, user.ID, at); err != nil {
		logger.Warn("refresh progress failed", zap.Uint("user_id", user.ID), zap.Error(err))
	}
	award := s.game.AwardQuietly(ctx, user.ID, ActionWorkout, w.ID,
		fmt.Sprintf("%d min of %s", in.DurationMin, strings.ReplaceAll(in.Type, "_", " ")))
	return w, award, nil
}

func (s *WorkoutService) List(ctx context.Context, userID uint, from, to time.Time) ([]models.WorkoutLog, error) {
	logs := []models.WorkoutLog{}
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND performed_at >= ? AND performed_at < ?", userID, dayStart(from), dayEnd(to)).
		Order("performed_at DESC").
		Find(&logs).Error
	return logs, err
}

func (s *WorkoutService) Delete(ctx context.Context, userID, id uint) error {
	var w models.WorkoutLog
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&w).Error; err != nil {
		return notFound(err, "workout")
	}
	if err := s.db.WithContext(ctx).Delete(&w).Error; err != nil {
		return err
	}
	if _, err := s.progress.Refresh(ctx, userID, w.PerformedAt); err != nil {
		logger.Warn("refresh progress failed", zap.Uint("user_id", userID), zap.Error(err))
	}
	return nil
}

// weekStart is the local Monday of t's week.
func weekStart(t time.Time) time.Time {
	d := dayStart(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// Stats totals the current week and counts consecutive workout days ending
// today, or yesterday when nothing was logged yet today.
func (s *WorkoutService) Stats(ctx context.Context, userID uint) (*WorkoutStats, error) {
	now := s.Now.now()
	start := weekStart(now)
	out := &WorkoutStats{WeekStart: start.Format(dateLayout)}

	var week struct {
		Minutes  float64
		Sessions int
		Kcal     float64
	}
	if err := s.db.WithContext(ctx).Model(&models.WorkoutLog{}).
		Select("COALESCE(SUM(duration_min),0) AS minutes, COUNT(*) AS sessions, COALESCE(SUM(calories_burned),0) AS kcal").
		Where("user_id = ? AND performed_at >= ? AND performed_at < ?", userID, start, dayEnd(now)).
		Scan(&week).Error; err != nil {
		return nil, err
	}
	out.WeekMinutes, out.WeekSessions, out.WeekCalories = week.Minutes, week.Sessions, week.Kcal

	var times []time.Time
	if err := s.db.WithContext(ctx).Model(&models.WorkoutLog{}).
		Where("user_id = ? AND performed_at >= ? AND performed_at < ?", userID, dayStart(now).AddDate(-1, 0, 0), dayEnd(now)).
		Order("performed_at DESC").
		Pluck("performed_at", &times).Error; err != nil {
		return nil, err
	}
	out.CurrentStreak = consecutiveDays(times, now)
	return out, nil
}

func consecutiveDays(times []time.Time, now time.Time) int {
	active := make(map[string]bool, len(times))
	for _, t := range times {
		active[dayStart(t).Format(dateLayout)] = true
	}
	day := dayStart(now)
	if !active[day.Format(dateLayout)] {
		day = day.AddDate(0, 0, -1)
	}
	streak := 0
	for active[day.Format(dateLayout)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}
