// Package store is the persistence port of the gateway: repository
// interfaces consumed by the pipeline and their gorm implementations.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"whatsapp-gateway/internal/models"
	pkgmodels "whatsapp-gateway/pkg/models"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// StorageError wraps every persistence failure with the operation that failed.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		err = ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		err = ErrDuplicate
	}
	return &StorageError{Op: op, Err: err}
}

type MessageRepository interface {
	FindByProviderID(ctx context.Context, tenantID, providerID string) (models.Message, error)
	Create(ctx context.Context, msg *models.Message) error
	// Latest returns the most recent message of every phone of a tenant.
	Latest(ctx context.Context, tenantID string) ([]models.Message, error)
	CountByPhone(ctx context.Context, tenantID string) (map[string]int64, error)
	// Thread returns messages ascending by time. With limit > 0 only the
	// most recent limit messages are returned, still ascending.
	Thread(ctx context.Context, tenantID, phone string, limit int) ([]models.Message, error)
	DeleteThread(ctx context.Context, tenantID, phone string) (int64, error)
	// Recent returns messages newest first.
	Recent(ctx context.Context, tenantID string, limit int) ([]models.Message, error)
	UpdateStatus(ctx context.Context, tenantID, providerID string, status models.Status) error
}

type ContactRepository interface {
	Find(ctx context.Context, tenantID, phone string) (models.Contact, error)
	FindMany(ctx context.Context, tenantID string, phones []string) ([]models.Contact, error)
	Create(ctx context.Context, contact *models.Contact) error
	Save(ctx context.Context, contact *models.Contact) error
	List(ctx context.Context, tenantID, search string, limit int) ([]models.Contact, error)
	Delete(ctx context.Context, tenantID, phone string) (int64, error)
}

type GroupRepository interface {
	Find(ctx context.Context, tenantID, groupID string) (models.Group, error)
	Create(ctx context.Context, group *models.Group) error
	Save(ctx context.Context, group *models.Group) error
	// List returns groups most recently updated first.
	List(ctx context.Context, tenantID string, activeOnly bool) ([]models.Group, error)
	Delete(ctx context.Context, tenantID, groupID string) (int64, error)
}

type StatusRepository interface {
	Find(ctx context.Context, tenantID, providerID string) (models.DeliveryStatus, error)
	Upsert(ctx context.Context, status *models.DeliveryStatus) error
	List(ctx context.Context, tenantID string, limit int) ([]models.DeliveryStatus, error)
}

type WebhookLogRepository interface {
	Append(ctx context.Context, entry *models.WebhookLog) error
	// List returns entries newest first; an empty logType matches all types.
	List(ctx context.Context, tenantID string, logType models.LogType, limit int) ([]models.WebhookLog, error)
}

type SessionRepository interface {
	FindActiveUser(ctx context.Context, username string) (models.AdminUser, error)
	CreateUser(ctx context.Context, user *models.AdminUser) error
	TouchLogin(ctx context.Context, userID uint, at time.Time) error
	CreateSession(ctx context.Context, session *models.AdminSession) error
	FindSession(ctx context.Context, id string) (models.AdminSession, error)
	DeleteSession(ctx context.Context, id string) error
}

type StatsRepository interface {
	Stats(ctx context.Context, tenantID string) (pkgmodels.Stats, error)
}

// Repositories bundles the gorm implementations over one connection.
type Repositories struct {
	Messages MessageRepository
	Contacts ContactRepository
	Groups   GroupRepository
	Statuses StatusRepository
	Logs     WebhookLogRepository
	Sessions SessionRepository
	Stats    StatsRepository
}

func New(db *gorm.DB) *Repositories {
	return &Repositories{
		Messages: NewMessageRepo(db),
		Contacts: NewContactRepo(db),
		Groups:   NewGroupRepo(db),
		Statuses: NewStatusRepo(db),
		Logs:     NewWebhookLogRepo(db),
		Sessions: NewSessionRepo(db),
		Stats:    NewStatsRepo(db),
	}
}
