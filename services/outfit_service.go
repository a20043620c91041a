package services

import (
	"context"
	"encoding/json"
	"strings"

	"glowfit/logger"
	"glowfit/models"
	"glowfit/utils"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var outfitSeasons = map[string]bool{"": true, "spring": true, "summer": true, "autumn": true, "winter": true, "all": true}

type OutfitService struct {
	db        *gorm.DB
	storage   *utils.Storage
	maxUpload int64
}

func NewOutfitService(db *gorm.DB, storage *utils.Storage, maxUpload int64) *OutfitService {
	return &OutfitService{db: db, storage: storage, maxUpload: maxUpload}
}

type OutfitInput struct {
	Name        string          `json:"name" binding:"required"`
	Occasion    string          `json:"occasion"`
	Season      string          `json:"season"`
	Items       json.RawMessage `json:"items"`
	ImageBase64 string          `json:"image_base64"`
	AnalysisID  *uint           `json:"analysis_id"`
}

func (s *OutfitService) Create(ctx context.Context, userID uint, in OutfitInput) (*models.SavedOutfit, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || len(in.Name) > 100 {
		return nil, invalid("name must be 1-100 characters")
	}
	in.Season = strings.ToLower(strings.TrimSpace(in.Season))
	if !outfitSeasons[in.Season] {
		return nil, invalid("season must be spring, summer, autumn, winter or all")
	}
	items := datatypes.JSON("[]")
	if len(in.Items) > 0 && string(in.Items) != "null" {
		var list []json.RawMessage
		if err := json.Unmarshal(in.Items, &list); err != nil {
			return nil, invalid("items must be a JSON array")
		}
		items = datatypes.JSON(in.Items)
	}

	if in.AnalysisID != nil {
		var a models.Analysis
		err := s.db.WithContext(ctx).Select("id", "kind").
			Where("id = ? AND user_id = ?", *in.AnalysisID, userID).First(&a).Error
		if err != nil {
			return nil, notFound(err, "analysis")
		}
		if a.Kind != models.AnalysisPersonalColor {
			return nil, invalid("outfits can only link a personal-color analysis")
		}
	}

	outfit := &models.SavedOutfit{
		UserID:     userID,
		Name:       in.Name,
		Occasion:   strings.TrimSpace(in.Occasion),
		Season:     in.Season,
		Items:      items,
		AnalysisID: in.AnalysisID,
	}
	if in.ImageBase64 != "" {
		url, err := s.storage.UploadDataURI(ctx, "outfits", in.ImageBase64, s.maxUpload)
		if err != nil {
			return nil, err
		}
		outfit.ImageURL = url
	}
	if err := s.db.WithContext(ctx).Create(outfit).Error; err != nil {
		return nil, err
	}
	return outfit, nil
}

func (s *OutfitService) List(ctx context.Context, userID uint, season string) ([]models.SavedOutfit, error) {
	tx := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if season = strings.ToLower(strings.TrimSpace(season)); season != "" {
		tx = tx.Where("season IN ?", []string{season, "all"})
	}
	outfits := []models.SavedOutfit{}
	err := tx.Order("created_at DESC").Find(&outfits).Error
	return outfits, err
}

func (s *OutfitService) Delete(ctx context.Context, userID, id uint) error {
	var o models.SavedOutfit
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&o).Error; err != nil {
		return notFound(err, "outfit")
	}
	if err := s.db.WithContext(ctx).Delete(&o).Error; err != nil {
		return err
	}
	if o.ImageURL != "" && s.storage.Enabled() {
		if err := s.storage.Delete(context.WithoutCancel(ctx), o.ImageURL); err != nil {
			logger.Warn("delete outfit image failed", zap.String("url", o.ImageURL), zap.Error(err))
		}
	}
	return nil
}
