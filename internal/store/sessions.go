package store

import (
	"context"
	"time"

	"whatsapp-gateway/internal/models"

	"gorm.io/gorm"
)

type SessionRepo struct {
	db *gorm.DB
}

func NewSessionRepo(db *gorm.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

func (r *SessionRepo) FindActiveUser(ctx context.Context, username string) (models.AdminUser, error) {
	var user models.AdminUser
	err := r.db.WithContext(ctx).
		Where("username = ? AND is_active = ?", username, true).
		First(&user).Error
	return user, wrap("find user", err)
}

func (r *SessionRepo) CreateUser(ctx context.Context, user *models.AdminUser) error {
	return wrap("create user", r.db.WithContext(ctx).Create(user).Error)
}

func (r *SessionRepo) TouchLogin(ctx context.Context, userID uint, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.AdminUser{}).
		Where("id = ?", userID).
		Update("last_login", at).Error
	return wrap("touch login", err)
}

func (r *SessionRepo) CreateSession(ctx context.Context, session *models.AdminSession) error {
	return wrap("create session", r.db.WithContext(ctx).Create(session).Error)
}

func (r *SessionRepo) FindSession(ctx context.Context, id string) (models.AdminSession, error) {
	var session models.AdminSession
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error
	return session, wrap("find session", err)
}

func (r *SessionRepo) DeleteSession(ctx context.Context, id string) error {
	return wrap("delete session", r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.AdminSession{}).Error)
}
