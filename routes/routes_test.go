package routes

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"glowfit/ai"
	"glowfit/config"
	"glowfit/middlewares"
	"glowfit/models"
	"glowfit/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testSecret = "route-test-secret"

type testServer struct {
	t      *testing.T
	router *gin.Engine
	svc    *services.Container
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
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

	svc := services.NewContainer(services.Deps{
		DB:             db,
		Breakers:       ai.NewRegistry(ai.DefaultBreakerSettings()),
		JWTSecret:      testSecret,
		AdminEmails:    []string{"boss@glowfit.app"},
		MaxUploadBytes: 1 << 20,
	})
	router := SetupRouter(svc, middlewares.NewAuthenticator(svc.Auth, testSecret, nil), Options{
		CORSAllowOrigins: []string{"https://app.glowfit.app"},
	})
	return &testServer{t: t, router: router, svc: svc}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// signup registers and logs in, returning the bearer token.
func (s *testServer) signup(email string) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/auth/register", "", gin.H{"email": email, "password": "correct-horse", "first_name": "Test"})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	w = s.do(http.MethodPost, "/auth/login", "", gin.H{"email": email, "password": "correct-horse"})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &out))
	require.NotEmpty(s.t, out.Token)
	return out.Token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])
	assert.NotEmpty(t, w.Header().Get(middlewares.RequestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/dashboard", nil)
	req.Header.Set("Origin", "https://app.glowfit.app")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.glowfit.app", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/dashboard", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/dashboard", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/dashboard", "not-a-jwt", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/user/profile", "not-a-jwt", nil).Code)
}

func TestRegisterLoginAndProfile(t *testing.T) {
	s := newTestServer(t)
	token := s.signup("mina@example.com")

	w := s.do(http.MethodPost, "/auth/register", "", gin.H{"email": "mina@example.com", "password": "correct-horse"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/auth/login", "", gin.H{"email": "mina@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPut, "/user/profile", token, gin.H{"height_cm": 165, "weight_kg": 55, "sex": "female"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	profile := decode[services.Profile](t, w)
	assert.Equal(t, "mina@example.com", profile.Email)
	require.NotNil(t, profile.BMI)
	assert.InDelta(t, 20.2, profile.BMI.Value, 0.1)

	w = s.do(http.MethodGet, "/user/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 165.0, decode[services.Profile](t, w).HeightCm)
}

func TestValidationErrorsAre400(t *testing.T) {
	s := newTestServer(t)
	token := s.signup("val@example.com")

	w := s.do(http.MethodPost, "/api/nutrition/water", token, gin.H{"amount_ml": 9000})
	require.Equal(t, http.StatusBadRequest, w.Code)
	msg := decode[map[string]string](t, w)["error"]
	assert.NotContains(t, msg, services.ErrValidation.Error())

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/analyze/tattoo", token, gin.H{"image_base64": "x"}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/nutrition/meals?date=03-11-2026", token, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodDelete, "/api/workouts/abc", token, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, "/api/workouts/999", token, nil).Code)
}

func TestWaterWorkoutAndDashboard(t *testing.T) {
	s := newTestServer(t)
	token := s.signup("fit@example.com")

	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/nutrition/water", token, gin.H{"amount_ml": 500}).Code)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/nutrition/water", token, gin.H{"amount_ml": 250}).Code)

	w := s.do(http.MethodGet, "/api/nutrition/water", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	day := decode[services.WaterDay](t, w)
	assert.Equal(t, 750, day.TotalMl)
	assert.Len(t, day.Records, 2)

	w = s.do(http.MethodPost, "/api/workouts", token, gin.H{"type": "running", "duration_min": 30})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/workouts/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[services.WorkoutStats](t, w)
	assert.Equal(t, 1, stats.WeekSessions)
	assert.Equal(t, 1, stats.CurrentStreak)

	w = s.do(http.MethodGet, "/api/gamification/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2+2+10, decode[services.GameProfile](t, w).XP)

	w = s.do(http.MethodGet, "/api/dashboard", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestAnalyzeFallsBackWithoutProviders(t *testing.T) {
	s := newTestServer(t)
	token := s.signup("glow@example.com")

	w := s.do(http.MethodPost, "/api/analyze/skin", token, gin.H{"image_base64": pngDataURI(t, color.RGBA{R: 200, G: 150, B: 120, A: 255})})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	res := decode[services.AnalysisResult](t, w)
	require.NotNil(t, res.Analysis)
	assert.True(t, res.Analysis.UsedFallback)
	assert.Equal(t, models.AnalysisSkin, res.Analysis.Kind)

	w = s.do(http.MethodPost, "/api/analyze/skin", token, gin.H{"image_base64": pngDataURI(t, color.RGBA{R: 5, G: 5, B: 5, A: 255})})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/analyze/history?kind=skin", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	hist := decode[struct {
		Analyses []models.Analysis `json:"analyses"`
	}](t, w)
	require.Len(t, hist.Analyses, 1)

	path := fmt.Sprintf("/api/analyze/%d", hist.Analyses[0].ID)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, path, token, nil).Code)

	other := s.signup("other@example.com")
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, path, other, nil).Code)
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, path, token, nil).Code)
}

func TestSocialFollow(t *testing.T) {
	s := newTestServer(t)
	a := s.signup("a@example.com")
	s.signup("b@example.com")

	var b models.User
	require.NoError(t, s.svc.DB.Where("email = ?", "b@example.com").First(&b).Error)

	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, fmt.Sprintf("/api/social/follow/%d", b.ID), a, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, fmt.Sprintf("/api/social/follow/%d", b.ID), a, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/api/social/follow/9999", a, nil).Code)

	w := s.do(http.MethodGet, "/api/social/following", a, nil)
	require.Equal(t, http.StatusOK, w.Code)
	following := decode[struct {
		Users []services.UserCard `json:"users"`
	}](t, w)
	assert.Len(t, following.Users, 1)

	assert.Equal(t, http.StatusOK, s.do(http.MethodDelete, fmt.Sprintf("/api/social/follow/%d", b.ID), a, nil).Code)
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	user := s.signup("member@example.com")
	boss := s.signup("boss@glowfit.app")

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/admin/stats", user, nil).Code)

	w := s.do(http.MethodGet, "/admin/stats", boss, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 2, decode[services.AdminStats](t, w).Users)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/admin/ai/providers/gemini/reset", boss, nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, s.do(http.MethodPost, "/admin/reports/weekly", boss, nil).Code)

	var member models.User
	require.NoError(t, s.svc.DB.Where("email = ?", "member@example.com").First(&member).Error)
	w = s.do(http.MethodPatch, fmt.Sprintf("/admin/users/%d", member.ID), boss, gin.H{"disabled": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/user/profile", user, nil).Code)
}

func pngDataURI(t *testing.T, c color.RGBA) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}
