// Package contacts maintains the per-tenant contact directory.
package contacts

import (
	"context"
	"errors"
	"strings"
	"time"

	"whatsapp-gateway/internal/models"
	"whatsapp-gateway/internal/store"
	pkgmodels "whatsapp-gateway/pkg/models"
)

var ErrExists = errors.New("contact already exists")

type Directory struct {
	repo store.ContactRepository
	now  func() time.Time
}

func NewDirectory(repo store.ContactRepository) *Directory {
	return &Directory{repo: repo, now: time.Now}
}

// Upsert records that phone was seen for tenant. A new contact is created
// with displayName; an existing one takes displayName only when it is
// non-empty and differs. LastSeen is refreshed on every call so recently
// active contacts sort first.
func (d *Directory) Upsert(ctx context.Context, tenantID, phone, displayName string) (models.Contact, error) {
	displayName = strings.TrimSpace(displayName)
	now := d.now().UTC()

	contact, err := d.repo.Find(ctx, tenantID, phone)
	if errors.Is(err, store.ErrNotFound) {
		contact = models.Contact{
			TenantID: tenantID,
			Phone:    phone,
			Name:     displayName,
			Labels:   []string{},
			Groups:   []string{},
			LastSeen: now,
		}
		err = d.repo.Create(ctx, &contact)
		if !errors.Is(err, store.ErrDuplicate) {
			return contact, err
		}
		// lost a creation race with another writer; fall through to update
		contact, err = d.repo.Find(ctx, tenantID, phone)
	}
	if err != nil {
		return models.Contact{}, err
	}

	if displayName != "" && displayName != contact.Name {
		contact.Name = displayName
	}
	contact.LastSeen = now
	if err := d.repo.Save(ctx, &contact); err != nil {
		return models.Contact{}, err
	}
	return contact, nil
}

// Create adds a contact through the API. Unlike Upsert it refuses an
// existing (tenant, phone).
func (d *Directory) Create(ctx context.Context, tenantID string, req pkgmodels.CreateContactRequest) (models.Contact, error) {
	contact := models.Contact{
		TenantID: tenantID,
		Phone:    strings.TrimSpace(req.Phone),
		Name:     strings.TrimSpace(req.Name),
		Notes:    req.Notes,
		Labels:   nonNil(req.Labels),
		Groups:   nonNil(req.Groups),
		LastSeen: d.now().UTC(),
	}
	err := d.repo.Create(ctx, &contact)
	if errors.Is(err, store.ErrDuplicate) {
		return models.Contact{}, ErrExists
	}
	return contact, err
}

func (d *Directory) Update(ctx context.Context, tenantID, phone string, req pkgmodels.UpdateContactRequest) (models.Contact, error) {
	contact, err := d.repo.Find(ctx, tenantID, phone)
	if err != nil {
		return models.Contact{}, err
	}
	if req.Name != nil {
		contact.Name = strings.TrimSpace(*req.Name)
	}
	if req.Notes != nil {
		contact.Notes = *req.Notes
	}
	if req.Labels != nil {
		contact.Labels = req.Labels
	}
	if req.Groups != nil {
		contact.Groups = req.Groups
	}
	if err := d.repo.Save(ctx, &contact); err != nil {
		return models.Contact{}, err
	}
	return contact, nil
}

func (d *Directory) Get(ctx context.Context, tenantID, phone string) (models.Contact, error) {
	return d.repo.Find(ctx, tenantID, phone)
}

func (d *Directory) List(ctx context.Context, tenantID, search string, limit int) ([]models.Contact, error) {
	return d.repo.List(ctx, tenantID, search, limit)
}

// Names returns display names keyed by phone for the given phones.
func (d *Directory) Names(ctx context.Context, tenantID string, phones []string) (map[string]string, error) {
	found, err := d.repo.FindMany(ctx, tenantID, phones)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(found))
	for _, c := range found {
		names[c.Phone] = c.Name
	}
	return names, nil
}

func (d *Directory) Delete(ctx context.Context, tenantID, phone string) (bool, error) {
	n, err := d.repo.Delete(ctx, tenantID, phone)
	return n > 0, err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
