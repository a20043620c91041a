package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"glowfit/ai"
	"glowfit/config"
	"glowfit/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Wednesday noon, so "this week" and "yesterday" stay inside the same month.
var testNow = time.Date(2026, time.March, 11, 12, 0, 0, 0, time.Local)

func fixedClock(t time.Time) Clock { return func() time.Time { return t } }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, config.Migrate(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, FirstName: strings.Split(email, "@")[0], Role: models.RoleUser, WeeklyReport: true}
	require.NoError(t, db.Create(u).Error)
	return u
}

// fixture wires the services most tests share, all pinned to testNow.
type fixture struct {
	db       *gorm.DB
	alerts   *AlertBus
	game     *GamificationService
	settings *NutritionSettingsService
	progress *ProgressService
}

func newFixture(t *testing.T) *fixture {
	db := newTestDB(t)
	f := &fixture{db: db, alerts: NewAlertBus(db, nil, nil), settings: NewNutritionSettingsService(db)}
	f.game = NewGamificationService(db, f.alerts)
	f.game.Now = fixedClock(testNow)
	f.progress = NewProgressService(db, f.settings)
	f.progress.Now = fixedClock(testNow)
	return f
}

type stubGen struct {
	mu    sync.Mutex
	text  string
	err   error
	calls int
	last  ai.Request
}

func (g *stubGen) Generate(_ context.Context, req ai.Request) (*ai.Response, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.last = req
	if g.err != nil {
		return nil, g.err
	}
	return &ai.Response{Text: g.text, Provider: "gemini", Model: "stub-model"}, nil
}
