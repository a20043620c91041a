package services

import (
	"context"
	"strconv"
	"time"

	"glowfit/logger"
	"glowfit/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AlertBus persists an alert, pushes it over open websockets and sends a
// mobile push. Either transport may be nil.
type AlertBus struct {
	db   *gorm.DB
	hub  *RealtimeHub
	push *PushService
}

func NewAlertBus(db *gorm.DB, hub *RealtimeHub, push *PushService) *AlertBus {
	return &AlertBus{db: db, hub: hub, push: push}
}

func (b *AlertBus) Emit(ctx context.Context, userID uint, typ, message string) *models.Alert {
	if b == nil || b.db == nil {
		return nil
	}
	a := &models.Alert{UserID: userID, Type: typ, Message: message, CreatedAt: time.Now()}
	if err := b.db.WithContext(ctx).Create(a).Error; err != nil {
		logger.Error("store alert failed", zap.Uint("user_id", userID), zap.Error(err))
		return nil
	}
	if b.hub != nil {
		b.hub.Broadcast(userID, map[string]any{"kind": "alert.created", "alert": a})
	}
	if b.push != nil {
		b.push.PushToUser(ctx, userID, "GlowFit", message, map[string]string{
			"type": typ, "alertId": strconv.FormatUint(uint64(a.ID), 10),
		})
	}
	return a
}

// List returns the newest alerts first.
func (b *AlertBus) List(ctx context.Context, userID uint, unreadOnly bool, limit int) ([]models.Alert, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	q := b.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("read = ?", false)
	}
	var out []models.Alert
	err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&out).Error
	return out, err
}

func (b *AlertBus) MarkAllRead(ctx context.Context, userID uint) error {
	return b.db.WithContext(ctx).Model(&models.Alert{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true).Error
}
