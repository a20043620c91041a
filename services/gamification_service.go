package services

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"glowfit/logger"
	"glowfit/models"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	ActionAnalysis = "analysis"
	ActionMeal     = "meal"
	ActionWater    = "water"
	ActionWorkout  = "workout"
	ActionDiary    = "diary"
)

// XPRewards is the experience granted per logged action.
var XPRewards = map[string]int{
	ActionAnalysis: 20,
	ActionMeal:     5,
	ActionWater:    2,
	ActionWorkout:  10,
	ActionDiary:    5,
}

// actions that show up in followers' feeds
var feedActions = map[string]bool{
	ActionAnalysis: true,
	ActionMeal:     true,
	ActionWorkout:  true,
	ActionDiary:    true,
}

// tables counted for count:<action> badges
var actionTables = map[string]any{
	ActionAnalysis: &models.Analysis{},
	ActionMeal:     &models.MealRecord{},
	ActionWater:    &models.WaterRecord{},
	ActionWorkout:  &models.WorkoutLog{},
	ActionDiary:    &models.SkinDiaryEntry{},
}

const xpPerLevelUnit = 50

type Badge struct {
	Code        string `yaml:"code" json:"code"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Metric      string `yaml:"metric" json:"metric"`
	Min         int    `yaml:"min" json:"min"`
}

//go:embed badges.yaml
var badgesYAML []byte

var badgeCatalogue = mustLoadBadges(badgesYAML)

func mustLoadBadges(raw []byte) []Badge {
	var doc struct {
		Badges []Badge `yaml:"badges"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		panic(fmt.Sprintf("services: bad badges.yaml: %v", err))
	}
	return doc.Badges
}

// LevelForXP is floor(sqrt(xp/50)) + 1.
func LevelForXP(xp int) int {
	if xp <= 0 {
		return 1
	}
	return int(math.Floor(math.Sqrt(float64(xp)/xpPerLevelUnit))) + 1
}

// XPForLevel is the total XP at which a level starts.
func XPForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	return xpPerLevelUnit * (level - 1) * (level - 1)
}

// nextStreak advances a streak for activity on day given the last active day.
func nextStreak(current int, last, day time.Time) int {
	if last.IsZero() {
		return 1
	}
	last = dayStart(last)
	switch {
	case last.Equal(day):
		if current == 0 {
			return 1
		}
		return current
	case last.AddDate(0, 0, 1).Equal(day):
		return current + 1
	case last.After(day):
		return current
	default:
		return 1
	}
}

type GamificationService struct {
	db     *gorm.DB
	alerts *AlertBus
	Now    Clock
}

func NewGamificationService(db *gorm.DB, alerts *AlertBus) *GamificationService {
	return &GamificationService{db: db, alerts: alerts}
}

type AwardResult struct {
	XPGained  int      `json:"xp_gained"`
	XP        int      `json:"xp"`
	Level     int      `json:"level"`
	LeveledUp bool     `json:"leveled_up"`
	Streak    int      `json:"streak"`
	NewBadges []string `json:"new_badges,omitempty"`
}

// Award grants XP for an action, advances the streak, records a feed event
// and hands out any newly earned badges.
func (s *GamificationService) Award(ctx context.Context, userID uint, action string, refID uint, summary string) (*AwardResult, error) {
	xp, ok := XPRewards[action]
	if !ok {
		return nil, fmt.Errorf("unknown action %q", action)
	}
	now := s.Now.now()
	today := dayStart(now)

	res := &AwardResult{XPGained: xp}
	var newBadges []Badge
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stats := models.UserStats{UserID: userID, Level: 1}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).FirstOrCreate(&stats, models.UserStats{UserID: userID}).Error; err != nil {
			return err
		}
		prevLevel := stats.Level
		stats.XP += xp
		stats.Level = LevelForXP(stats.XP)
		stats.CurrentStreak = nextStreak(stats.CurrentStreak, stats.LastActiveDate, today)
		if stats.CurrentStreak > stats.LongestStreak {
			stats.LongestStreak = stats.CurrentStreak
		}
		if today.After(stats.LastActiveDate) {
			stats.LastActiveDate = today
		}
		stats.UpdatedAt = now
		if err := tx.Save(&stats).Error; err != nil {
			return err
		}
		res.XP, res.Level, res.Streak = stats.XP, stats.Level, stats.CurrentStreak
		res.LeveledUp = stats.Level > prevLevel

		if feedActions[action] && summary != "" {
			if err := tx.Create(&models.ActivityEvent{UserID: userID, Kind: action, Summary: summary, RefID: refID, CreatedAt: now}).Error; err != nil {
				return err
			}
		}

		var err error
		newBadges, err = s.grantBadges(tx, userID, &stats, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	if res.LeveledUp {
		s.alerts.Emit(ctx, userID, models.AlertInfo, fmt.Sprintf("Level up! You reached level %d.", res.Level))
	}
	for _, b := range newBadges {
		res.NewBadges = append(res.NewBadges, b.Code)
		s.alerts.Emit(ctx, userID, models.AlertBadge, fmt.Sprintf("You earned the %q badge: %s", b.Name, b.Description))
	}
	return res, nil
}

func (s *GamificationService) grantBadges(tx *gorm.DB, userID uint, stats *models.UserStats, now time.Time) ([]Badge, error) {
	var owned []string
	if err := tx.Model(&models.UserBadge{}).Where("user_id = ?", userID).Pluck("code", &owned).Error; err != nil {
		return nil, err
	}
	have := make(map[string]bool, len(owned))
	for _, c := range owned {
		have[c] = true
	}

	counts := map[string]int64{}
	var earned []Badge
	for _, b := range badgeCatalogue {
		if have[b.Code] {
			continue
		}
		var value int64
		switch {
		case b.Metric == "streak":
			value = int64(stats.CurrentStreak)
		case b.Metric == "level":
			value = int64(stats.Level)
		case strings.HasPrefix(b.Metric, "count:"):
			action := strings.TrimPrefix(b.Metric, "count:")
			n, ok := counts[action]
			if !ok {
				model, known := actionTables[action]
				if !known {
					continue
				}
				if err := tx.Model(model).Where("user_id = ?", userID).Count(&n).Error; err != nil {
					return nil, err
				}
				counts[action] = n
			}
			value = n
		default:
			continue
		}
		if value < int64(b.Min) {
			continue
		}
		row := models.UserBadge{UserID: userID, Code: b.Code, EarnedAt: now}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			continue
		}
		earned = append(earned, b)
		if err := tx.Create(&models.ActivityEvent{UserID: userID, Kind: "badge", Summary: "Earned the " + b.Name + " badge", RefID: row.ID, CreatedAt: now}).Error; err != nil {
			return nil, err
		}
	}
	return earned, nil
}

// AwardQuietly is Award for callers whose main operation already succeeded.
func (s *GamificationService) AwardQuietly(ctx context.Context, userID uint, action string, refID uint, summary string) *AwardResult {
	if s == nil {
		return nil
	}
	res, err := s.Award(ctx, userID, action, refID, summary)
	if err != nil {
		logger.Warn("award xp failed", zap.Uint("user_id", userID), zap.String("action", action), zap.Error(err))
		return nil
	}
	return res
}

type BadgeView struct {
	Badge
	Earned   bool       `json:"earned"`
	EarnedAt *time.Time `json:"earned_at,omitempty"`
}

type GameProfile struct {
	XP            int         `json:"xp"`
	Level         int         `json:"level"`
	LevelStartXP  int         `json:"level_start_xp"`
	NextLevelXP   int         `json:"next_level_xp"`
	LevelProgress float64     `json:"level_progress"`
	CurrentStreak int         `json:"current_streak"`
	LongestStreak int         `json:"longest_streak"`
	Badges        []BadgeView `json:"badges"`
}

func (s *GamificationService) Profile(ctx context.Context, userID uint) (*GameProfile, error) {
	var stats models.UserStats
	err := s.db.WithContext(ctx).First(&stats, "user_id = ?", userID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	level := LevelForXP(stats.XP)
	streak := stats.CurrentStreak
	// a streak that missed yesterday is already broken
	if !stats.LastActiveDate.IsZero() && dayStart(stats.LastActiveDate).AddDate(0, 0, 1).Before(dayStart(s.Now.now())) {
		streak = 0
	}
	p := &GameProfile{
		XP:            stats.XP,
		Level:         level,
		LevelStartXP:  XPForLevel(level),
		NextLevelXP:   XPForLevel(level + 1),
		CurrentStreak: streak,
		LongestStreak: stats.LongestStreak,
	}
	p.LevelProgress = round2(float64(p.XP-p.LevelStartXP) / float64(p.NextLevelXP-p.LevelStartXP))

	var owned []models.UserBadge
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&owned).Error; err != nil {
		return nil, err
	}
	at := make(map[string]time.Time, len(owned))
	for _, b := range owned {
		at[b.Code] = b.EarnedAt
	}
	for _, b := range badgeCatalogue {
		v := BadgeView{Badge: b}
		if t, ok := at[b.Code]; ok {
			v.Earned = true
			v.EarnedAt = &t
		}
		p.Badges = append(p.Badges, v)
	}
	return p, nil
}

type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	UserID    uint   `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Picture   string `json:"profile_picture,omitempty"`
	XP        int    `json:"xp"`
	Level     int    `json:"level"`
	Streak    int    `json:"current_streak"`
}

// Leaderboard ranks by XP. With followingOf set, only that user and the
// people they follow are ranked.
func (s *GamificationService) Leaderboard(ctx context.Context, limit int, followingOf uint) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	q := s.db.WithContext(ctx).Table("user_stats").
		Select("user_stats.user_id, users.first_name, users.last_name, users.profile_picture AS picture, user_stats.xp, user_stats.level, user_stats.current_streak AS streak").
		Joins("JOIN users ON users.id = user_stats.user_id AND users.deleted_at IS NULL").
		Where("users.disabled = ?", false)
	if followingOf != 0 {
		q = q.Where("user_stats.user_id = ? OR user_stats.user_id IN (?)", followingOf,
			s.db.Model(&models.Follow{}).Select("followee_id").Where("follower_id = ?", followingOf))
	}
	var rows []LeaderboardEntry
	if err := q.Order("user_stats.xp DESC, user_stats.user_id ASC").Limit(limit).Scan(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows, nil
}
