package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"glowfit/logger"
	"glowfit/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrPushDisabled = errors.New("push notifications not configured")

// SNSAPI is the part of *sns.Client used for mobile push.
type SNSAPI interface {
	CreatePlatformEndpoint(ctx context.Context, in *awssns.CreatePlatformEndpointInput, optFns ...func(*awssns.Options)) (*awssns.CreatePlatformEndpointOutput, error)
	Publish(ctx context.Context, in *awssns.PublishInput, optFns ...func(*awssns.Options)) (*awssns.PublishOutput, error)
}

type PushService struct {
	db             *gorm.DB
	sns            SNSAPI
	fcmPlatformArn string
}

func NewPushService(db *gorm.DB, client SNSAPI, fcmPlatformArn string) *PushService {
	return &PushService{db: db, sns: client, fcmPlatformArn: fcmPlatformArn}
}

type RegisterDeviceReq struct {
	Platform string `json:"platform" binding:"required"` // "android" | "ios"
	Token    string `json:"token" binding:"required"`
}

func tokenHash(tok string) string {
	h := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(h[:])
}

func (p *PushService) platformArn(platform string) (string, error) {
	switch strings.ToLower(platform) {
	case "android", "ios":
		if p.fcmPlatformArn == "" || p.sns == nil {
			return "", ErrPushDisabled
		}
		return p.fcmPlatformArn, nil
	default:
		return "", invalid("unknown platform %q", platform)
	}
}

// RegisterDevice creates (or refreshes) the SNS endpoint for a device token.
func (p *PushService) RegisterDevice(ctx context.Context, userID uint, req RegisterDeviceReq) (*models.UserDevice, error) {
	appArn, err := p.platformArn(req.Platform)
	if err != nil {
		return nil, err
	}
	out, err := p.sns.CreatePlatformEndpoint(ctx, &awssns.CreatePlatformEndpointInput{
		PlatformApplicationArn: aws.String(appArn),
		Token:                  aws.String(req.Token),
	})
	if err != nil {
		return nil, err
	}

	dev := models.UserDevice{
		UserID:    userID,
		TokenHash: tokenHash(req.Token),
	}
	err = p.db.WithContext(ctx).
		Where("user_id = ? AND token_hash = ?", userID, dev.TokenHash).
		Assign(models.UserDevice{
			Platform:    strings.ToLower(req.Platform),
			EndpointARN: aws.ToString(out.EndpointArn),
			Enabled:     true,
			UpdatedAt:   time.Now(),
		}).
		FirstOrCreate(&dev).Error
	if err != nil {
		return nil, err
	}
	return &dev, nil
}

// SetEnabled toggles push for every device of the user.
func (p *PushService) SetEnabled(ctx context.Context, userID uint, enabled bool) (int64, error) {
	res := p.db.WithContext(ctx).Model(&models.UserDevice{}).
		Where("user_id = ?", userID).
		Update("enabled", enabled)
	return res.RowsAffected, res.Error
}

// PushToUser publishes to every enabled endpoint. Failures are logged only.
func (p *PushService) PushToUser(ctx context.Context, userID uint, title, body string, data map[string]string) {
	if p == nil || p.sns == nil {
		return
	}
	var endpoints []models.UserDevice
	if err := p.db.WithContext(ctx).Where("user_id = ? AND enabled = ?", userID, true).Find(&endpoints).Error; err != nil {
		logger.Warn("load push endpoints failed", zap.Uint("user_id", userID), zap.Error(err))
		return
	}
	if len(endpoints) == 0 {
		return
	}

	gcm, _ := json.Marshal(map[string]any{
		"notification": map[string]string{"title": title, "body": body},
		"data":         data,
	})
	raw, _ := json.Marshal(map[string]string{"default": body, "GCM": string(gcm)})
	for _, d := range endpoints {
		_, err := p.sns.Publish(ctx, &awssns.PublishInput{
			MessageStructure: aws.String("json"),
			Message:          aws.String(string(raw)),
			TargetArn:        aws.String(d.EndpointARN),
		})
		if err != nil {
			logger.Warn("sns publish failed", zap.Uint("user_id", userID), zap.Uint("device_id", d.ID), zap.Error(err))
		}
	}
}
