package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"glowfit/ai"
	"glowfit/imaging"
	"glowfit/logger"
	"glowfit/models"
	"glowfit/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Generator is satisfied by *ai.Router.
type Generator interface {
	Generate(ctx context.Context, req ai.Request) (*ai.Response, error)
}

var ErrBadExposure = errors.New("photo exposure unusable")

// kinds that need a single visible face
var faceKinds = map[string]bool{
	models.AnalysisSkin:          true,
	models.AnalysisPersonalColor: true,
	models.AnalysisMakeup:        true,
}

const analysisMaxTokens = 1500

type AnalysisService struct {
	db          *gorm.DB
	gen         Generator
	storage     *utils.Storage
	vision      *utils.Vision
	game        *GamificationService
	maxUpload   int64
	requireFace bool
}

func NewAnalysisService(db *gorm.DB, gen Generator, storage *utils.Storage, vision *utils.Vision, game *GamificationService, maxUpload int64, requireFace bool) *AnalysisService {
	return &AnalysisService{
		db:          db,
		gen:         gen,
		storage:     storage,
		vision:      vision,
		game:        game,
		maxUpload:   maxUpload,
		requireFace: requireFace,
	}
}

type AnalyzeInput struct {
	ImageBase64 string            `json:"image_base64" binding:"required"`
	Hints       map[string]string `json:"hints"`
}

type AnalysisResult struct {
	Analysis *models.Analysis `json:"analysis"`
	Award    *AwardResult     `json:"award,omitempty"`
}

func ValidKind(kind string) bool { return slices.Contains(models.AnalysisKinds, kind) }

func (s *AnalysisService) Analyze(ctx context.Context, userID uint, kind string, in AnalyzeInput) (*AnalysisResult, error) {
	if !ValidKind(kind) {
		return nil, invalid("unknown analysis kind %q", kind)
	}
	raw, mime, err := imaging.DecodeDataURI(in.ImageBase64, s.maxUpload)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(raw)
	if err != nil {
		return nil, err
	}
	report := imaging.Analyze(img)
	switch report.Exposure {
	case imaging.ExposureTooDark:
		return nil, fmt.Errorf("%w: photo is too dark, retake it in better light", ErrBadExposure)
	case imaging.ExposureTooBright:
		return nil, fmt.Errorf("%w: photo is overexposed, avoid direct light", ErrBadExposure)
	}

	if err := s.checkFace(ctx, kind, raw); err != nil {
		return nil, err
	}

	row := &models.Analysis{UserID: userID, Kind: kind}
	if s.storage.Enabled() {
		url, err := s.storage.Upload(ctx, "analyses/"+kind, raw, mime)
		if err != nil {
			return nil, fmt.Errorf("upload photo: %w", err)
		}
		row.ImageURL = url
	}
	if row.Metrics, err = json.Marshal(report); err != nil {
		return nil, err
	}

	result, resp, err := s.generate(ctx, kind, in.Hints, raw, mime)
	if err != nil {
		logger.Warn("AI analysis failed, using heuristic result",
			zap.String("kind", kind), zap.Uint("user_id", userID), zap.Error(err))
		result = heuristicResult(kind, report)
		row.UsedFallback = true
		row.Provider = "heuristic"
	} else {
		row.Provider = resp.Provider
		row.ModelName = resp.Model
	}
	row.Score = scoreOf(result)
	if row.Result, err = json.Marshal(result); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		s.discardUpload(ctx, row.ImageURL)
		return nil, err
	}
	award := s.game.AwardQuietly(ctx, userID, ActionAnalysis, row.ID, fmt.Sprintf("Completed a %s analysis", kind))
	return &AnalysisResult{Analysis: row, Award: award}, nil
}

// discardUpload removes a photo whose analysis row was never written. It runs
// detached from ctx so a cancelled request still cleans up.
func (s *AnalysisService) discardUpload(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if err := s.storage.Delete(context.WithoutCancel(ctx), url); err != nil {
		logger.Warn("failed to remove orphaned analysis photo", zap.String("url", url), zap.Error(err))
	}
}

func (s *AnalysisService) checkFace(ctx context.Context, kind string, raw []byte) error {
	if !s.requireFace || !faceKinds[kind] || !s.vision.Enabled() {
		return nil
	}
	n, err := s.vision.CountFaces(ctx, raw)
	if err != nil {
		// face detection outages should not block analyses
		logger.Warn("face check skipped", zap.Error(err))
		return nil
	}
	if n != 1 {
		return invalid("exactly one face must be visible, found %d", n)
	}
	return nil
}

func (s *AnalysisService) generate(ctx context.Context, kind string, hints map[string]string, img []byte, mime string) (map[string]any, *ai.Response, error) {
	if s.gen == nil {
		return nil, nil, ai.ErrNoProviders
	}
	system, prompt, err := ai.AnalysisPrompt(kind, hints)
	if err != nil {
		return nil, nil, err
	}
	resp, err := s.gen.Generate(ctx, ai.Request{
		System:    system,
		Prompt:    prompt,
		Image:     img,
		MIMEType:  mime,
		MaxTokens: analysisMaxTokens,
		JSON:      true,
	})
	if err != nil {
		return nil, nil, err
	}
	var out map[string]any
	if err := ai.DecodeJSON(resp.Text, &out); err != nil {
		return nil, nil, fmt.Errorf("decode %s reply: %w", resp.Provider, err)
	}
	return out, resp, nil
}

func scoreOf(result map[string]any) float64 {
	switch v := result["score"].(type) {
	case float64:
		return math.Max(0, math.Min(100, v))
	case int:
		return float64(v)
	}
	return 0
}

// heuristicResult is served when every AI provider is down. It is built only
// from the zone brightness metrics, so it stays coarse.
func heuristicResult(kind string, r imaging.Report) map[string]any {
	out := map[string]any{
		"note":       "AI analysis is temporarily unavailable; this estimate is based on photo brightness metrics only.",
		"estimated":  true,
		"undertone":  r.Undertone,
		"uniformity": r.Uniformity,
	}
	switch kind {
	case models.AnalysisSkin:
		redness := clamp100((r.Redness - 1) * 200)
		skinType := "normal"
		switch {
		case r.TZoneOiliness >= 60:
			skinType = "oily"
		case r.TZoneOiliness >= 30:
			skinType = "combination"
		case redness >= 50:
			skinType = "sensitive"
		}
		out["skin_type"] = skinType
		out["score"] = math.Round(0.6*r.Uniformity + 0.4*(100-r.TZoneOiliness))
		out["metrics"] = map[string]float64{
			"oil":     math.Round(r.TZoneOiliness),
			"redness": math.Round(redness),
		}
		out["recommendations"] = skinTips[skinType]
	case models.AnalysisPersonalColor:
		out["season"] = season(r.Undertone, r.Brightness)
		out["score"] = 40.0
		out["recommendations"] = []string{"Retake the analysis later for a full palette."}
	default:
		out["score"] = math.Round(r.Uniformity)
		out["recommendations"] = []string{"Retake the analysis later for detailed guidance."}
	}
	return out
}

var skinTips = map[string][]string{
	"oily":        {"Use a gel cleanser twice a day.", "Pick oil-free, non-comedogenic moisturizers.", "Blot the T-zone instead of washing it repeatedly."},
	"combination": {"Moisturize cheeks more than the T-zone.", "Use a gentle exfoliant once or twice a week."},
	"sensitive":   {"Avoid fragrance and alcohol-heavy products.", "Patch-test new products on the jawline first."},
	"normal":      {"Keep a simple cleanse, moisturize and sunscreen routine."},
}

func season(undertone string, brightness float64) string {
	light := brightness >= 140
	switch undertone {
	case imaging.UndertoneWarm:
		if light {
			return "spring"
		}
		return "autumn"
	case imaging.UndertoneCool:
		if light {
			return "summer"
		}
		return "winter"
	default:
		if light {
			return "summer"
		}
		return "autumn"
	}
}

func clamp100(v float64) float64 { return math.Max(0, math.Min(100, v)) }

type HistoryQuery struct {
	Kind  string
	Limit int
}

func (s *AnalysisService) History(ctx context.Context, userID uint, q HistoryQuery) ([]models.Analysis, error) {
	q.Kind = strings.TrimSpace(q.Kind)
	if q.Kind != "" && !ValidKind(q.Kind) {
		return nil, invalid("unknown analysis kind %q", q.Kind)
	}
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}
	tx := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if q.Kind != "" {
		tx = tx.Where("kind = ?", q.Kind)
	}
	rows := []models.Analysis{}
	err := tx.Order("created_at DESC").Order("id DESC").Limit(q.Limit).Find(&rows).Error
	return rows, err
}

func (s *AnalysisService) Get(ctx context.Context, userID, id uint) (*models.Analysis, error) {
	var row models.Analysis
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&row).Error; err != nil {
		return nil, notFound(err, "analysis")
	}
	return &row, nil
}

// Latest returns the newest analysis per kind; kinds never analyzed are absent.
func (s *AnalysisService) Latest(ctx context.Context, userID uint) (map[string]*models.Analysis, error) {
	out := make(map[string]*models.Analysis, len(models.AnalysisKinds))
	for _, kind := range models.AnalysisKinds {
		var row models.Analysis
		err := s.db.WithContext(ctx).
			Where("user_id = ? AND kind = ?", userID, kind).
			Order("created_at DESC").Order("id DESC").
			Limit(1).Find(&row).Error
		if err != nil {
			return nil, err
		}
		if row.ID != 0 {
			out[kind] = &row
		}
	}
	return out, nil
}

func (s *AnalysisService) Delete(ctx context.Context, userID, id uint) error {
	row, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(row).Error; err != nil {
		return err
	}
	if row.ImageURL != "" && s.storage.Enabled() {
		if err := s.storage.Delete(context.WithoutCancel(ctx), row.ImageURL); err != nil {
			logger.Warn("delete analysis photo failed", zap.String("url", row.ImageURL), zap.Error(err))
		}
	}
	return nil
}
