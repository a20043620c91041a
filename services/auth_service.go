package services

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"glowfit/logger"
	"glowfit/models"
	"glowfit/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	resetCodeTTL    = 15 * time.Minute
	minPasswordLen  = 8
	clerkEmailHost  = "users.clerk"
	resetCodeDigits = 6

	// wrong guesses allowed before the outstanding code is burned
	maxResetAttempts = 5
)

type AuthService struct {
	db          *gorm.DB
	mailer      *utils.Mailer
	secret      string
	adminEmails map[string]bool
	Now         Clock
}

func NewAuthService(db *gorm.DB, mailer *utils.Mailer, jwtSecret string, adminEmails []string) *AuthService {
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		admins[strings.ToLower(e)] = true
	}
	return &AuthService{db: db, mailer: mailer, secret: jwtSecret, adminEmails: admins}
}

type RegisterInput struct {
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func normalizeEmail(s string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(s))
	if err != nil {
		return "", invalid("invalid email address")
	}
	return strings.ToLower(addr.Address), nil
}

// IsAdmin reports whether the user holds the admin role or is listed in ADMIN_EMAILS.
func (s *AuthService) IsAdmin(u *models.User) bool {
	return u.IsAdmin() || s.adminEmails[strings.ToLower(u.Email)]
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if len(in.Password) < minPasswordLen {
		return nil, invalid("password must be at least %d characters", minPasswordLen)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("email %w", ErrConflict)
	}

	hashed, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:     email,
		Password:  hashed,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Role:      models.RoleUser,
	}
	if s.adminEmails[email] {
		user.Role = models.RoleAdmin
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	logger.Info("user registered", zap.Uint("user_id", user.ID))
	return user, nil
}

// Login checks the password and returns a signed HS256 token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ? AND disabled = ?", email, false).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
		}
		return "", nil, err
	}
	if user.Password == "" || !utils.CheckPasswordHash(password, user.Password) {
		return "", nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}
	role := user.Role
	if s.IsAdmin(&user) {
		role = models.RoleAdmin
	}
	token, err := utils.GenerateJWT(s.secret, user.ID, user.Email, role, utils.DefaultTokenTTL)
	if err != nil {
		return "", nil, err
	}
	return token, &user, nil
}

func hashCode(code string) string {
	h := sha256.Sum256([]byte(code))
	return hex.EncodeToString(h[:])
}

// ForgotPassword mails a reset code. Unknown emails succeed silently.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ? AND disabled = ?", email, false).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	code, err := utils.GenerateResetCode(resetCodeDigits)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Model(&user).Updates(map[string]any{
		"reset_token":     hashCode(code),
		"reset_token_exp": s.Now.now().Add(resetCodeTTL),
		"reset_attempts":  0,
	}).Error
	if err != nil {
		return err
	}
	return s.mailer.SendResetEmail(ctx, user.Email, code)
}

func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return invalid("password must be at least %d characters", minPasswordLen)
	}
	email = strings.ToLower(strings.TrimSpace(email))
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return notFound(err, "user")
	}
	if user.ResetToken == "" || s.Now.now().After(user.ResetTokenExp) {
		return invalid("invalid or expired reset code")
	}
	if subtle.ConstantTimeCompare([]byte(hashCode(code)), []byte(user.ResetToken)) != 1 {
		if err := s.recordResetMiss(ctx, &user); err != nil {
			return err
		}
		return invalid("invalid or expired reset code")
	}
	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&user).Updates(map[string]any{
		"password":        hashed,
		"reset_token":     "",
		"reset_token_exp": time.Time{},
		"reset_attempts":  0,
	}).Error
}

// recordResetMiss counts a wrong code and clears the token once the user has
// used up maxResetAttempts guesses.
func (s *AuthService) recordResetMiss(ctx context.Context, user *models.User) error {
	db := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID)
	if user.ResetAttempts+1 >= maxResetAttempts {
		logger.Warn("password reset code burned after repeated misses", zap.Uint("user_id", user.ID))
		return db.Updates(map[string]any{
			"reset_token":     "",
			"reset_token_exp": time.Time{},
			"reset_attempts":  0,
		}).Error
	}
	return db.Update("reset_attempts", gorm.Expr("reset_attempts + 1")).Error
}

// ResolveClerkUser maps a verified Clerk subject to a user row, linking an
// existing local account by email or creating a new one.
func (s *AuthService) ResolveClerkUser(ctx context.Context, claims *utils.ClerkClaims) (*models.User, error) {
	db := s.db.WithContext(ctx)
	var user models.User
	err := db.Where("clerk_id = ?", claims.Subject).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	email := strings.ToLower(claims.Email)
	if email == "" {
		email = claims.Subject + "@" + clerkEmailHost
	}
	sub := claims.Subject
	err = db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("email = ? AND clerk_id IS NULL", email).First(&user).Error
		switch {
		case err == nil:
			return tx.Model(&user).Update("clerk_id", sub).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			user = models.User{ClerkID: &sub, Email: email, Role: models.RoleUser}
			if s.adminEmails[email] {
				user.Role = models.RoleAdmin
			}
			return tx.Create(&user).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	logger.Info("clerk user linked", zap.Uint("user_id", user.ID), zap.String("clerk_id", sub))
	return &user, nil
}

func (s *AuthService) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}
