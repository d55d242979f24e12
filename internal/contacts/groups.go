package contacts

import (
	"context"
	"errors"
	"strings"

	"whatsapp-gateway/internal/models"
	"whatsapp-gateway/internal/store"
	pkgmodels "whatsapp-gateway/pkg/models"
)

var ErrGroupExists = errors.New("group already exists")

// Groups keeps the tenant's WhatsApp group records.
type Groups struct {
	repo store.GroupRepository
}

func NewGroups(repo store.GroupRepository) *Groups {
	return &Groups{repo: repo}
}

func (g *Groups) Create(ctx context.Context, tenantID string, req pkgmodels.CreateGroupRequest) (models.Group, error) {
	group := models.Group{
		TenantID:     tenantID,
		GroupID:      strings.TrimSpace(req.GroupID),
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		Participants: nonNil(req.Participants),
		Admins:       nonNil(req.Admins),
		CreatedBy:    req.CreatedBy,
		InviteLink:   req.InviteLink,
		IsActive:     true,
	}
	err := g.repo.Create(ctx, &group)
	if errors.Is(err, store.ErrDuplicate) {
		return models.Group{}, ErrGroupExists
	}
	return group, err
}

func (g *Groups) Update(ctx context.Context, tenantID, groupID string, req pkgmodels.UpdateGroupRequest) (models.Group, error) {
	group, err := g.repo.Find(ctx, tenantID, groupID)
	if err != nil {
		return models.Group{}, err
	}
	if req.Name != nil {
		group.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		group.Description = *req.Description
	}
	if req.IsActive != nil {
		group.IsActive = *req.IsActive
	}
	if req.Participants != nil {
		group.Participants = req.Participants
	}
	if req.Admins != nil {
		group.Admins = req.Admins
	}
	if err := g.repo.Save(ctx, &group); err != nil {
		return models.Group{}, err
	}
	return group, nil
}

func (g *Groups) Get(ctx context.Context, tenantID, groupID string) (models.Group, error) {
	return g.repo.Find(ctx, tenantID, groupID)
}

func (g *Groups) List(ctx context.Context, tenantID string, activeOnly bool) ([]models.Group, error) {
	return g.repo.List(ctx, tenantID, activeOnly)
}

func (g *Groups) Delete(ctx context.Context, tenantID, groupID string) (bool, error) {
	n, err := g.repo.Delete(ctx, tenantID, groupID)
	return n > 0, err
}
