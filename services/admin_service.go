package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"glowfit/ai"
	"glowfit/logger"
	"glowfit/models"
	"glowfit/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type AdminService struct {
	db       *gorm.DB
	breakers *ai.Registry
	mailer   *utils.Mailer
	progress *ProgressService
	Now      Clock
}

func NewAdminService(db *gorm.DB, breakers *ai.Registry, mailer *utils.Mailer, progress *ProgressService) *AdminService {
	return &AdminService{db: db, breakers: breakers, mailer: mailer, progress: progress}
}

type AdminStats struct {
	Users          int64            `json:"users"`
	DisabledUsers  int64            `json:"disabled_users"`
	Analyses       int64            `json:"analyses"`
	AnalysesByKind map[string]int64 `json:"analyses_by_kind"`
	Meals          int64            `json:"meals"`
	Workouts       int64            `json:"workouts"`
	FallbackRatio  float64          `json:"fallback_ratio"`
}

func (s *AdminService) Stats(ctx context.Context) (*AdminStats, error) {
	out := &AdminStats{AnalysesByKind: map[string]int64{}}
	var fallbacks int64
	g, ctx := errgroup.WithContext(ctx)
	count := func(dst *int64, model any, where ...any) {
		g.Go(func() error {
			q := s.db.WithContext(ctx).Model(model)
			if len(where) > 0 {
				q = q.Where(where[0], where[1:]...)
			}
			return q.Count(dst).Error
		})
	}
	count(&out.Users, &models.User{})
	count(&out.DisabledUsers, &models.User{}, "disabled = ?", true)
	count(&out.Analyses, &models.Analysis{})
	count(&fallbacks, &models.Analysis{}, "used_fallback = ?", true)
	count(&out.Meals, &models.MealRecord{})
	count(&out.Workouts, &models.WorkoutLog{})

	var byKind []struct {
		Kind  string
		Total int64
	}
	g.Go(func() error {
		return s.db.WithContext(ctx).Model(&models.Analysis{}).
			Select("kind, COUNT(*) AS total").Group("kind").Scan(&byKind).Error
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, k := range models.AnalysisKinds {
		out.AnalysesByKind[k] = 0
	}
	for _, row := range byKind {
		out.AnalysesByKind[row.Kind] = row.Total
	}
	if out.Analyses > 0 {
		out.FallbackRatio = round2(float64(fallbacks) / float64(out.Analyses))
	}
	return out, nil
}

type UserPage struct {
	Users    []models.User `json:"users"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

func (s *AdminService) Users(ctx context.Context, q string, page, pageSize int) (*UserPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	tx := s.db.WithContext(ctx).Model(&models.User{})
	if q = strings.ToLower(strings.TrimSpace(q)); q != "" {
		like := "%" + q + "%"
		tx = tx.Where("LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", like, like, like)
	}
	out := &UserPage{Users: []models.User{}, Page: page, PageSize: pageSize}
	if err := tx.Count(&out.Total).Error; err != nil {
		return nil, err
	}
	if err := tx.Order("id ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&out.Users).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type AdminUserPatch struct {
	Disabled *bool   `json:"disabled"`
	Role     *string `json:"role"`
}

func (s *AdminService) UpdateUser(ctx context.Context, actorID, userID uint, in AdminUserPatch) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, userID).Error; err != nil {
		return nil, notFound(err, "user")
	}
	updates := map[string]any{}
	if in.Disabled != nil {
		if *in.Disabled && userID == actorID {
			return nil, invalid("admins cannot disable themselves")
		}
		updates["disabled"] = *in.Disabled
	}
	if in.Role != nil {
		switch *in.Role {
		case models.RoleUser, models.RoleAdmin:
		default:
			return nil, invalid("role must be user or admin")
		}
		if *in.Role != models.RoleAdmin && userID == actorID {
			return nil, invalid("admins cannot demote themselves")
		}
		updates["role"] = *in.Role
	}
	if len(updates) == 0 {
		return &u, nil
	}
	if err := s.db.WithContext(ctx).Model(&u).Updates(updates).Error; err != nil {
		return nil, err
	}
	logger.Info("admin updated user", zap.Uint("actor_id", actorID), zap.Uint("user_id", userID), zap.Any("changes", updates))
	return &u, nil
}

func (s *AdminService) Providers() []ai.BreakerSnapshot {
	if s.breakers == nil {
		return []ai.BreakerSnapshot{}
	}
	return s.breakers.All()
}

func (s *AdminService) ResetProvider(name string) error {
	if s.breakers == nil || !s.breakers.Reset(name) {
		return fmt.Errorf("provider %q %w", name, ErrNotFound)
	}
	logger.Info("breaker reset by admin", zap.String("provider", name))
	return nil
}

type ReportRun struct {
	Recipients int `json:"recipients"`
	Sent       int `json:"sent"`
	Failed     int `json:"failed"`
}

// SendWeeklyReports mails last week's nutrition summary to every active user
// who kept the weekly report option on.
func (s *AdminService) SendWeeklyReports(ctx context.Context) (*ReportRun, error) {
	if s.mailer == nil || !s.mailer.Enabled() {
		return nil, utils.ErrMailDisabled
	}
	var users []models.User
	if err := s.db.WithContext(ctx).
		Where("weekly_report = ? AND disabled = ?", true, false).
		Find(&users).Error; err != nil {
		return nil, err
	}
	to := dayStart(s.Now.now()).AddDate(0, 0, -1)
	from := to.AddDate(0, 0, -6)

	run := &ReportRun{Recipients: len(users)}
	var sent, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := range users {
		u := &users[i]
		g.Go(func() error {
			sum, err := s.progress.Summary(gctx, u, from, to, true)
			if err == nil {
				err = s.mailer.SendWeeklyReport(gctx, u.Email, WeeklyReportBody(u, sum))
			}
			if err != nil {
				failed.Add(1)
				logger.Warn("weekly report failed", zap.Uint("user_id", u.ID), zap.Error(err))
				return nil
			}
			sent.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	run.Sent, run.Failed = int(sent.Load()), int(failed.Load())
	return run, nil
}

func WeeklyReportBody(u *models.User, sum *Summary) string {
	var sb strings.Builder
	name := u.FirstName
	if name == "" {
		name = "there"
	}
	fmt.Fprintf(&sb, "Hi %s,\n\nHere is your GlowFit week (%s to %s).\n\n", name, sum.From, sum.To)
	keys := make([]string, 0, len(sum.Averages))
	for k := range sum.Averages {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		a := sum.Averages[k]
		if a.Goal > 0 {
			fmt.Fprintf(&sb, "  %-9s %8.1f %s/day (%.0f%% of goal)\n", k, a.AvgConsumed, a.Unit, a.AvgPercent)
		} else {
			fmt.Fprintf(&sb, "  %-9s %8.1f %s/day\n", k, a.AvgConsumed, a.Unit)
		}
	}
	fmt.Fprintf(&sb, "\nFood safety score: %.0f%% (%d of %d items without high-severity warnings).\n",
		sum.Safety.ScorePct, sum.Safety.SafeItems, sum.Safety.TotalItems)
	sb.WriteString("\nKeep it up!\n")
	return sb.String()
}
