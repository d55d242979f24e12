package store

import (
	"context"

	"whatsapp-gateway/internal/models"
	pkgmodels "whatsapp-gateway/pkg/models"

	"gorm.io/gorm"
)

type StatsRepo struct {
	db *gorm.DB
}

func NewStatsRepo(db *gorm.DB) *StatsRepo {
	return &StatsRepo{db: db}
}

func (r *StatsRepo) Stats(ctx context.Context, tenantID string) (pkgmodels.Stats, error) {
	stats := pkgmodels.Stats{
		Statuses: map[string]int64{},
		Logs:     map[string]int64{},
	}
	db := r.db.WithContext(ctx)

	if err := db.Model(&models.Message{}).Where("tenant_id = ?", tenantID).Count(&stats.Messages).Error; err != nil {
		return stats, wrap("count messages", err)
	}
	if err := db.Model(&models.Message{}).Where("tenant_id = ? AND direction = ?", tenantID, models.DirectionInbound).Count(&stats.Inbound).Error; err != nil {
		return stats, wrap("count inbound", err)
	}
	if err := db.Model(&models.Message{}).Where("tenant_id = ? AND direction = ?", tenantID, models.DirectionOutbound).Count(&stats.Outbound).Error; err != nil {
		return stats, wrap("count outbound", err)
	}
	if err := db.Model(&models.Message{}).Where("tenant_id = ?", tenantID).Distinct("phone").Count(&stats.Conversations).Error; err != nil {
		return stats, wrap("count conversations", err)
	}
	if err := db.Model(&models.Contact{}).Where("tenant_id = ?", tenantID).Count(&stats.Contacts).Error; err != nil {
		return stats, wrap("count contacts", err)
	}

	var grouped []struct {
		Name  string
		Total int64
	}
	if err := db.Model(&models.DeliveryStatus{}).Select("status AS name, COUNT(*) AS total").
		Where("tenant_id = ?", tenantID).Group("status").Scan(&grouped).Error; err != nil {
		return stats, wrap("count statuses", err)
	}
	for _, g := range grouped {
		stats.Statuses[g.Name] = g.Total
	}

	grouped = nil
	if err := db.Model(&models.WebhookLog{}).Select("log_type AS name, COUNT(*) AS total").
		Where("tenant_id = ?", tenantID).Group("log_type").Scan(&grouped).Error; err != nil {
		return stats, wrap("count logs", err)
	}
	for _, g := range grouped {
		stats.Logs[g.Name] = g.Total
	}
	return stats, nil
}
