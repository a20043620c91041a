package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"glowfit/logger"
	"glowfit/models"
	"glowfit/nutrition"
	"glowfit/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UserService struct {
	db        *gorm.DB
	storage   *utils.Storage
	maxUpload int64
	Now       Clock
}

func NewUserService(db *gorm.DB, storage *utils.Storage, maxUpload int64) *UserService {
	return &UserService{db: db, storage: storage, maxUpload: maxUpload}
}

type ProfileInput struct {
	FirstName      *string  `json:"first_name"`
	LastName       *string  `json:"last_name"`
	Birthday       *string  `json:"birthday"` // YYYY-MM-DD
	Sex            *string  `json:"sex"`
	HeightCm       *float64 `json:"height_cm"`
	WeightKg       *float64 `json:"weight_kg"`
	WeeklyReport   *bool    `json:"weekly_report"`
	ProfilePicture string   `json:"profile_picture"` // data URI
}

type Profile struct {
	ID             uint             `json:"id"`
	Email          string           `json:"email"`
	FirstName      string           `json:"first_name"`
	LastName       string           `json:"last_name"`
	Birthday       string           `json:"birthday,omitempty"`
	Age            int              `json:"age,omitempty"`
	Sex            string           `json:"sex,omitempty"`
	HeightCm       float64          `json:"height_cm,omitempty"`
	WeightKg       float64          `json:"weight_kg,omitempty"`
	ProfilePicture string           `json:"profile_picture,omitempty"`
	Role           string           `json:"role"`
	WeeklyReport   bool             `json:"weekly_report"`
	BMI            *utils.BMIResult `json:"bmi,omitempty"`
}

func (s *UserService) toProfile(u *models.User) *Profile {
	p := &Profile{
		ID:             u.ID,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Sex:            u.Sex,
		HeightCm:       u.HeightCm,
		WeightKg:       u.WeightKg,
		ProfilePicture: u.ProfilePicture,
		Role:           u.Role,
		WeeklyReport:   u.WeeklyReport,
	}
	if !u.Birthday.IsZero() {
		p.Birthday = u.Birthday.Format(dateLayout)
		p.Age = nutrition.AgeOn(u.Birthday, s.Now.now())
	}
	if bmi, err := utils.AssessBMI(u.HeightCm, u.WeightKg); err == nil {
		p.BMI = &bmi
	}
	return p
}

func (s *UserService) GetProfile(ctx context.Context, userID uint) (*Profile, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("disabled = ?", false).First(&u, userID).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return s.toProfile(&u), nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uint, in ProfileInput) (*Profile, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("disabled = ?", false).First(&u, userID).Error; err != nil {
		return nil, notFound(err, "user")
	}

	if in.FirstName != nil {
		u.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		u.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Birthday != nil {
		if *in.Birthday == "" {
			u.Birthday = time.Time{}
		} else {
			b, err := time.ParseInLocation(dateLayout, *in.Birthday, time.Local)
			if err != nil {
				return nil, invalid("birthday must be YYYY-MM-DD")
			}
			if b.After(s.Now.now()) {
				return nil, invalid("birthday is in the future")
			}
			u.Birthday = b
		}
	}
	if in.Sex != nil {
		switch sex := strings.ToLower(strings.TrimSpace(*in.Sex)); sex {
		case "female", "male", "":
			u.Sex = sex
		default:
			return nil, invalid("sex must be female, male or empty")
		}
	}
	if in.HeightCm != nil {
		if *in.HeightCm != 0 && (*in.HeightCm < 50 || *in.HeightCm > 250) {
			return nil, invalid("height_cm out of range")
		}
		u.HeightCm = *in.HeightCm
	}
	if in.WeightKg != nil {
		if *in.WeightKg != 0 && (*in.WeightKg < 10 || *in.WeightKg > 400) {
			return nil, invalid("weight_kg out of range")
		}
		u.WeightKg = *in.WeightKg
	}
	if in.WeeklyReport != nil {
		u.WeeklyReport = *in.WeeklyReport
	}
	old := u.ProfilePicture
	if in.ProfilePicture != "" {
		url, err := s.storage.UploadDataURI(ctx, fmt.Sprintf("profile-pictures/%d", u.ID), in.ProfilePicture, s.maxUpload)
		if err != nil {
			return nil, fmt.Errorf("upload profile picture: %w", err)
		}
		u.ProfilePicture = url
	}

	if err := s.db.WithContext(ctx).Save(&u).Error; err != nil {
		return nil, err
	}
	if old != "" && old != u.ProfilePicture {
		if err := s.storage.Delete(context.WithoutCancel(ctx), old); err != nil {
			logger.Warn("delete old profile picture failed", zap.String("url", old), zap.Error(err))
		}
	}
	return s.toProfile(&u), nil
}
