// Package conversation persists canonical messages and derives the
// per-phone conversation views from them.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"whatsapp-gateway/internal/models"
	"whatsapp-gateway/internal/store"
	pkgmodels "whatsapp-gateway/pkg/models"
)

// ContactUpserter is the part of the contact directory the store needs.
type ContactUpserter interface {
	Upsert(ctx context.Context, tenantID, phone, displayName string) (models.Contact, error)
	Names(ctx context.Context, tenantID string, phones []string) (map[string]string, error)
}

type Store struct {
	messages store.MessageRepository
	contacts ContactUpserter
	locks    *keyLock
	now      func() time.Time
}

func NewStore(messages store.MessageRepository, contacts ContactUpserter) *Store {
	return &Store{
		messages: messages,
		contacts: contacts,
		locks:    newKeyLock(),
		now:      time.Now,
	}
}

func threadKey(tenantID, phone string) string {
	return tenantID + "\x00" + phone
}

// Append stores msg unless a message with the same (tenant, provider id)
// already exists, in which case the existing record is returned unchanged.
// Appends for one (tenant, phone) are serialized; other keys run in parallel.
// Inbound messages also upsert the sender's contact.
func (s *Store) Append(ctx context.Context, msg *models.Message) (models.Message, error) {
	stored, _, err := s.AppendIfNew(ctx, msg)
	return stored, err
}

// AppendIfNew is Append that also reports whether a record was created.
func (s *Store) AppendIfNew(ctx context.Context, msg *models.Message) (models.Message, bool, error) {
	if msg.TenantID == "" || msg.Phone == "" {
		return models.Message{}, false, fmt.Errorf("append message: tenant and phone are required")
	}
	if msg.ProviderMessageID != nil && *msg.ProviderMessageID == "" {
		msg.ProviderMessageID = nil
	}

	unlock := s.locks.Lock(threadKey(msg.TenantID, msg.Phone))
	defer unlock()

	if id := msg.ProviderID(); id != "" {
		existing, err := s.messages.FindByProviderID(ctx, msg.TenantID, id)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return models.Message{}, false, err
		}
	}

	if msg.Direction == models.DirectionInbound && s.contacts != nil {
		contact, err := s.contacts.Upsert(ctx, msg.TenantID, msg.Phone, msg.ContactName)
		if err != nil {
			return models.Message{}, false, err
		}
		if msg.ContactName == "" {
			msg.ContactName = contact.Name
		}
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now()
	}
	msg.Timestamp = msg.Timestamp.UTC()

	if err := s.messages.Create(ctx, msg); err != nil {
		if errors.Is(err, store.ErrDuplicate) && msg.ProviderID() != "" {
			// same provider id under a different phone key won the insert
			existing, findErr := s.messages.FindByProviderID(ctx, msg.TenantID, msg.ProviderID())
			return existing, false, findErr
		}
		return models.Message{}, false, err
	}
	return *msg, true, nil
}

// LatestPerPhone lists one summary per phone, most recent first.
func (s *Store) LatestPerPhone(ctx context.Context, tenantID string) ([]pkgmodels.ConversationSummary, error) {
	latest, err := s.messages.Latest(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	counts, err := s.messages.CountByPhone(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	phones := make([]string, 0, len(latest))
	for _, m := range latest {
		phones = append(phones, m.Phone)
	}
	names := map[string]string{}
	if s.contacts != nil {
		if names, err = s.contacts.Names(ctx, tenantID, phones); err != nil {
			return nil, err
		}
	}

	sort.SliceStable(latest, func(i, j int) bool {
		if !latest[i].Timestamp.Equal(latest[j].Timestamp) {
			return latest[i].Timestamp.After(latest[j].Timestamp)
		}
		return latest[i].ID > latest[j].ID
	})

	summaries := make([]pkgmodels.ConversationSummary, 0, len(latest))
	for _, m := range latest {
		name := names[m.Phone]
		if name == "" {
			name = m.Phone
		}
		summaries = append(summaries, pkgmodels.ConversationSummary{
			Phone:         m.Phone,
			Name:          name,
			LastMessage:   m.Body,
			LastType:      string(m.Type),
			LastDirection: string(m.Direction),
			LastTimestamp: m.Timestamp,
			MessageCount:  counts[m.Phone],
		})
	}
	return summaries, nil
}

// Thread returns the conversation with phone ascending by time. A positive
// limit keeps only the most recent limit messages.
func (s *Store) Thread(ctx context.Context, tenantID, phone string, limit int) ([]models.Message, error) {
	return s.messages.Thread(ctx, tenantID, phone, limit)
}

// DeleteThread hard-deletes every message exchanged with phone.
func (s *Store) DeleteThread(ctx context.Context, tenantID, phone string) (int64, error) {
	unlock := s.locks.Lock(threadKey(tenantID, phone))
	defer unlock()
	return s.messages.DeleteThread(ctx, tenantID, phone)
}

func (s *Store) Recent(ctx context.Context, tenantID string, limit int) ([]models.Message, error) {
	return s.messages.Recent(ctx, tenantID, limit)
}
