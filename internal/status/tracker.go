// Package status records delivery-status callbacks for outbound messages.
package status

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"whatsapp-gateway/internal/audit"
	"whatsapp-gateway/internal/models"
	"whatsapp-gateway/internal/store"
	pkgmodels "whatsapp-gateway/pkg/models"
)

// ErrMissingMessageID marks a callback that cannot be correlated.
var ErrMissingMessageID = errors.New("status callback without message id")

type Update struct {
	ProviderMessageID string
	Status            models.Status
	Recipient         string
	Timestamp         time.Time
	Error             string
}

// FromWebhook converts a provider status callback.
func FromWebhook(s pkgmodels.WebhookStatus) Update {
	u := Update{
		ProviderMessageID: strings.TrimSpace(s.ID),
		Status:            models.ParseStatus(strings.ToLower(s.Status)),
		Recipient:         s.RecipientID,
	}
	if secs, err := strconv.ParseInt(s.Timestamp, 10, 64); err == nil && secs > 0 {
		u.Timestamp = time.Unix(secs, 0).UTC()
	}
	if len(s.Errors) > 0 {
		e := s.Errors[0]
		u.Error = fmt.Sprintf("%d %s", e.Code, e.Title)
		if e.Message != "" {
			u.Error += ": " + e.Message
		}
	}
	return u
}

type Tracker struct {
	statuses store.StatusRepository
	messages store.MessageRepository
	audit    *audit.Log
	now      func() time.Time
}

func NewTracker(statuses store.StatusRepository, messages store.MessageRepository, auditLog *audit.Log) *Tracker {
	return &Tracker{statuses: statuses, messages: messages, audit: auditLog, now: time.Now}
}

// Record stores u as the latest status of its message. Updates are applied
// in arrival order; a regression is stored like any other update and
// additionally logged as anomalous.
func (t *Tracker) Record(ctx context.Context, tenantID string, u Update) error {
	if u.ProviderMessageID == "" {
		t.audit.Record(ctx, models.WebhookLog{
			TenantID:     audit.Tenant(tenantID),
			LogType:      models.LogError,
			Phone:        u.Recipient,
			Status:       string(u.Status),
			ErrorMessage: ErrMissingMessageID.Error(),
			Context:      "status",
			RawData:      t.audit.Snapshot(u),
		})
		return ErrMissingMessageID
	}
	if u.Status == "" {
		u.Status = models.StatusUnknown
	}
	updatedAt := u.Timestamp
	if updatedAt.IsZero() {
		updatedAt = t.now()
	}

	var previous models.Status
	prev, err := t.statuses.Find(ctx, tenantID, u.ProviderMessageID)
	switch {
	case err == nil:
		previous = prev.Status
	case !errors.Is(err, store.ErrNotFound):
		return err
	}

	row := &models.DeliveryStatus{
		TenantID:          tenantID,
		ProviderMessageID: u.ProviderMessageID,
		Status:            u.Status,
		Recipient:         u.Recipient,
		ErrorMessage:      u.Error,
		UpdatedAt:         updatedAt.UTC(),
	}
	if err := t.statuses.Upsert(ctx, row); err != nil {
		return err
	}
	if err := t.messages.UpdateStatus(ctx, tenantID, u.ProviderMessageID, u.Status); err != nil {
		log.Printf("Error stamping message status %s: %v", u.ProviderMessageID, err)
	}

	t.audit.Record(ctx, models.WebhookLog{
		TenantID:     audit.Tenant(tenantID),
		LogType:      models.LogStatus,
		Phone:        u.Recipient,
		MessageID:    u.ProviderMessageID,
		Status:       string(u.Status),
		ErrorMessage: u.Error,
	})

	if Regressed(previous, u.Status) {
		log.Printf("Status regression for %s: %s -> %s", u.ProviderMessageID, previous, u.Status)
		t.audit.Record(ctx, models.WebhookLog{
			TenantID:     audit.Tenant(tenantID),
			LogType:      models.LogError,
			Phone:        u.Recipient,
			MessageID:    u.ProviderMessageID,
			Status:       string(u.Status),
			ErrorMessage: fmt.Sprintf("status regressed from %s to %s", previous, u.Status),
			Context:      "status_regression",
		})
	}
	return nil
}

func (t *Tracker) Find(ctx context.Context, tenantID, providerID string) (models.DeliveryStatus, error) {
	return t.statuses.Find(ctx, tenantID, providerID)
}

func (t *Tracker) List(ctx context.Context, tenantID string, limit int) ([]models.DeliveryStatus, error) {
	return t.statuses.List(ctx, tenantID, limit)
}

var rank = map[models.Status]int{
	models.StatusSent:      1,
	models.StatusDelivered: 2,
	models.StatusRead:      3,
}

// Regressed reports whether moving from previous to next goes backwards:
// a lower rank after a higher one, or failed after the message arrived.
func Regressed(previous, next models.Status) bool {
	if previous == "" {
		return false
	}
	if next == models.StatusFailed {
		return previous == models.StatusDelivered || previous == models.StatusRead
	}
	p, okPrev := rank[previous]
	n, okNext := rank[next]
	return okPrev && okNext && n < p
}
