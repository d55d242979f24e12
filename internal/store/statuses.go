package store

import (
	"context"

	"whatsapp-gateway/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StatusRepo struct {
	db *gorm.DB
}

func NewStatusRepo(db *gorm.DB) *StatusRepo {
	return &StatusRepo{db: db}
}

func (r *StatusRepo) Find(ctx context.Context, tenantID, providerID string) (models.DeliveryStatus, error) {
	var status models.DeliveryStatus
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND provider_message_id = ?", tenantID, providerID).
		First(&status).Error
	return status, wrap("find status", err)
}

// Upsert writes the status by (tenant, provider message id); the last write wins.
func (r *StatusRepo) Upsert(ctx context.Context, status *models.DeliveryStatus) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "provider_message_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "recipient", "error_message", "updated_at"}),
	}).Create(status).Error
	return wrap("upsert status", err)
}

func (r *StatusRepo) List(ctx context.Context, tenantID string, limit int) ([]models.DeliveryStatus, error) {
	var statuses []models.DeliveryStatus
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Order("updated_at DESC, id DESC").Find(&statuses).Error
	return statuses, wrap("list statuses", err)
}
