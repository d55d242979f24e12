package store

import (
	"context"

	"whatsapp-gateway/internal/models"

	"gorm.io/gorm"
)

type MessageRepo struct {
	db *gorm.DB
}

func NewMessageRepo(db *gorm.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

func (r *MessageRepo) FindByProviderID(ctx context.Context, tenantID, providerID string) (models.Message, error) {
	var msg models.Message
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND provider_message_id = ?", tenantID, providerID).
		First(&msg).Error
	return msg, wrap("find message", err)
}

func (r *MessageRepo) Create(ctx context.Context, msg *models.Message) error {
	return wrap("create message", r.db.WithContext(ctx).Create(msg).Error)
}

func (r *MessageRepo) Latest(ctx context.Context, tenantID string) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.WithContext(ctx).Raw(`SELECT * FROM messages m
		WHERE m.tenant_id = ? AND m.id = (
			SELECT m2.id FROM messages m2
			WHERE m2.tenant_id = m.tenant_id AND m2.phone = m.phone
			ORDER BY m2.occurred_at DESC, m2.id DESC
			LIMIT 1
		)`, tenantID).Scan(&msgs).Error
	return msgs, wrap("latest messages", err)
}

func (r *MessageRepo) CountByPhone(ctx context.Context, tenantID string) (map[string]int64, error) {
	var rows []struct {
		Phone string
		Total int64
	}
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Select("phone, COUNT(*) AS total").
		Where("tenant_id = ?", tenantID).
		Group("phone").
		Scan(&rows).Error
	if err != nil {
		return nil, wrap("count messages", err)
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Phone] = row.Total
	}
	return counts, nil
}

func (r *MessageRepo) Thread(ctx context.Context, tenantID, phone string, limit int) ([]models.Message, error) {
	var msgs []models.Message
	query := r.db.WithContext(ctx).Where("tenant_id = ? AND phone = ?", tenantID, phone)
	if limit <= 0 {
		err := query.Order("occurred_at ASC, id ASC").Find(&msgs).Error
		return msgs, wrap("thread", err)
	}

	if err := query.Order("occurred_at DESC, id DESC").Limit(limit).Find(&msgs).Error; err != nil {
		return nil, wrap("thread", err)
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (r *MessageRepo) DeleteThread(ctx context.Context, tenantID, phone string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND phone = ?", tenantID, phone).
		Delete(&models.Message{})
	return result.RowsAffected, wrap("delete thread", result.Error)
}

func (r *MessageRepo) Recent(ctx context.Context, tenantID string, limit int) ([]models.Message, error) {
	var msgs []models.Message
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Order("occurred_at DESC, id DESC").Find(&msgs).Error
	return msgs, wrap("recent messages", err)
}

func (r *MessageRepo) UpdateStatus(ctx context.Context, tenantID, providerID string, status models.Status) error {
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("tenant_id = ? AND provider_message_id = ?", tenantID, providerID).
		Update("status", string(status)).Error
	return wrap("update message status", err)
}
