package store

import (
	"context"

	"whatsapp-gateway/internal/models"

	"gorm.io/gorm"
)

type GroupRepo struct {
	db *gorm.DB
}

func NewGroupRepo(db *gorm.DB) *GroupRepo {
	return &GroupRepo{db: db}
}

func (r *GroupRepo) Find(ctx context.Context, tenantID, groupID string) (models.Group, error) {
	var group models.Group
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND group_id = ?", tenantID, groupID).
		First(&group).Error
	return group, wrap("find group", err)
}

func (r *GroupRepo) Create(ctx context.Context, group *models.Group) error {
	return wrap("create group", r.db.WithContext(ctx).Create(group).Error)
}

func (r *GroupRepo) Save(ctx context.Context, group *models.Group) error {
	return wrap("save group", r.db.WithContext(ctx).Save(group).Error)
}

func (r *GroupRepo) List(ctx context.Context, tenantID string, activeOnly bool) ([]models.Group, error) {
	var groups []models.Group
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Order("updated_at DESC, id DESC").Find(&groups).Error
	return groups, wrap("list groups", err)
}

func (r *GroupRepo) Delete(ctx context.Context, tenantID, groupID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND group_id = ?", tenantID, groupID).
		Delete(&models.Group{})
	return result.RowsAffected, wrap("delete group", result.Error)
}
