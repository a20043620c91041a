package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"glowfit/logger"
	"glowfit/models"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

type Config struct {
	Env  string
	Port string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string

	JWTSecret   string
	ClerkJWTKey string // PEM encoded RS256 public key from the Clerk dashboard
	AdminEmails []string

	AWSRegion     string
	S3Region      string
	S3Bucket      string
	CloudFrontURL string
	SESSender     string
	SNSFCMArn     string

	RequireFaceCheck bool

	GeminiAPIKey    string
	GeminiModel     string
	AnthropicAPIKey string
	AnthropicModel  string

	AITimeout          time.Duration
	AIMaxConcurrent    int
	AIRequestsPerMin   int
	BreakerThreshold   int
	BreakerOpenTimeout time.Duration

	EdamamAppID      string
	EdamamAppKey     string
	EdamamNutriID    string
	EdamamNutriKey   string
	MaxUploadBytes   int64
	CORSAllowOrigins []string
}

// Load reads .env (when present) and the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: could not load .env: %v\n", err)
	}

	return Config{
		Env:  GetEnv("ENV", "development"),
		Port: GetEnv("PORT", "8080"),

		DBHost:     GetEnv("DB_HOST", "localhost"),
		DBUser:     GetEnv("DB_USER", "postgres"),
		DBPassword: GetEnv("DB_PASSWORD", "postgres"),
		DBName:     GetEnv("DB_NAME", "glowfit"),
		DBPort:     GetEnv("DB_PORT", "5432"),
		DBSSLMode:  GetEnv("DB_SSLMODE", "disable"),

		JWTSecret:   os.Getenv("JWT_SECRET"),
		ClerkJWTKey: os.Getenv("CLERK_JWT_KEY"),
		AdminEmails: splitList(os.Getenv("ADMIN_EMAILS")),

		AWSRegion:     GetEnv("AWS_REGION", "ap-northeast-2"),
		S3Region:      os.Getenv("S3_REGION"),
		S3Bucket:      os.Getenv("S3_BUCKET"),
		CloudFrontURL: os.Getenv("CLOUDFRONT_URL"),
		SESSender:     os.Getenv("SES_EMAIL"),
		SNSFCMArn:     os.Getenv("SNS_FCM_ARN"),

		RequireFaceCheck: GetBool("REQUIRE_FACE_CHECK", false),

		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     GetEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  GetEnv("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),

		AITimeout:          GetDuration("AI_TIMEOUT", 45*time.Second),
		AIMaxConcurrent:    GetInt("AI_MAX_CONCURRENT", 4),
		AIRequestsPerMin:   GetInt("AI_REQUESTS_PER_MIN", 60),
		BreakerThreshold:   GetInt("AI_BREAKER_THRESHOLD", 3),
		BreakerOpenTimeout: GetDuration("AI_BREAKER_OPEN_TIMEOUT", time.Minute),

		EdamamAppID:    os.Getenv("EDAMAM_APP_ID"),
		EdamamAppKey:   os.Getenv("EDAMAM_APP_KEY"),
		EdamamNutriID:  os.Getenv("EDAMAM_NUTRI_APP_ID"),
		EdamamNutriKey: os.Getenv("EDAMAM_NUTRI_APP_KEY"),

		MaxUploadBytes:   int64(GetInt("MAX_UPLOAD_BYTES", 8<<20)),
		CORSAllowOrigins: splitList(GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")),
	}
}

func (c Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

// InitDB connects to Postgres and migrates every model.
func InitDB(cfg Config) (*gorm.DB, error) {
	level := gormlogger.Warn
	if cfg.Env != "production" {
		level = gormlogger.Info
	}
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	logger.Info("database connection established", zap.String("host", cfg.DBHost), zap.String("name", cfg.DBName))

	if err := Migrate(db); err != nil {
		return nil, err
	}
	DB = db
	return db, nil
}

// Migrate runs AutoMigrate for all tables. Tests call it against SQLite.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.UserDevice{},
		&models.Alert{},
		&models.FoodItem{},
		&models.MealRecord{},
		&models.MealItem{},
		&models.WaterRecord{},
		&models.NutritionSettings{},
		&models.DailyProgress{},
		&models.WorkoutLog{},
		&models.Analysis{},
		&models.SkinDiaryEntry{},
		&models.SavedOutfit{},
		&models.Follow{},
		&models.ActivityEvent{},
		&models.UserStats{},
		&models.UserBadge{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func GetEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func GetInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func GetBool(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func GetDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
