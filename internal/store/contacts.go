package store

import (
	"context"
	"strings"

	"whatsapp-gateway/internal/models"

	"gorm.io/gorm"
)

type ContactRepo struct {
	db *gorm.DB
}

func NewContactRepo(db *gorm.DB) *ContactRepo {
	return &ContactRepo{db: db}
}

func (r *ContactRepo) Find(ctx context.Context, tenantID, phone string) (models.Contact, error) {
	var contact models.Contact
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND phone = ?", tenantID, phone).
		First(&contact).Error
	return contact, wrap("find contact", err)
}

func (r *ContactRepo) FindMany(ctx context.Context, tenantID string, phones []string) ([]models.Contact, error) {
	var contacts []models.Contact
	if len(phones) == 0 {
		return contacts, nil
	}
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND phone IN ?", tenantID, phones).
		Find(&contacts).Error
	return contacts, wrap("find contacts", err)
}

func (r *ContactRepo) Create(ctx context.Context, contact *models.Contact) error {
	return wrap("create contact", r.db.WithContext(ctx).Create(contact).Error)
}

func (r *ContactRepo) Save(ctx context.Context, contact *models.Contact) error {
	return wrap("save contact", r.db.WithContext(ctx).Save(contact).Error)
}

func (r *ContactRepo) List(ctx context.Context, tenantID, search string, limit int) ([]models.Contact, error) {
	var contacts []models.Contact
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if search = strings.TrimSpace(search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("(LOWER(name) LIKE ? OR phone LIKE ?)", pattern, pattern)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Order("last_seen DESC, id DESC").Find(&contacts).Error
	return contacts, wrap("list contacts", err)
}

func (r *ContactRepo) Delete(ctx context.Context, tenantID, phone string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND phone = ?", tenantID, phone).
		Delete(&models.Contact{})
	return result.RowsAffected, wrap("delete contact", result.Error)
}
