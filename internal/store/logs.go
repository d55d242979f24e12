package store

import (
	"context"

	"whatsapp-gateway/internal/models"

	"gorm.io/gorm"
)

type WebhookLogRepo struct {
	db *gorm.DB
}

func NewWebhookLogRepo(db *gorm.DB) *WebhookLogRepo {
	return &WebhookLogRepo{db: db}
}

func (r *WebhookLogRepo) Append(ctx context.Context, entry *models.WebhookLog) error {
	return wrap("append webhook log", r.db.WithContext(ctx).Create(entry).Error)
}

func (r *WebhookLogRepo) List(ctx context.Context, tenantID string, logType models.LogType, limit int) ([]models.WebhookLog, error) {
	var entries []models.WebhookLog
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if logType != "" {
		query = query.Where("log_type = ?", logType)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Order("logged_at DESC, id DESC").Find(&entries).Error
	return entries, wrap("list webhook logs", err)
}
