package api

import (
	"errors"
	"net/http"
	"strconv"

	"whatsapp-gateway/internal/auth"
	"whatsapp-gateway/internal/contacts"
	"whatsapp-gateway/internal/models"
	pkgmodels "whatsapp-gateway/pkg/models"

	"github.com/gin-gonic/gin"
)

type GroupHandler struct {
	Groups *contacts.Groups
}

func NewGroupHandler(groups *contacts.Groups) *GroupHandler {
	return &GroupHandler{Groups: groups}
}

// GetGroups lists active groups unless ?active_only=false.
func (h *GroupHandler) GetGroups(c *gin.Context) {
	activeOnly := true
	if raw := c.Query("active_only"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "active_only must be a boolean"})
			return
		}
		activeOnly = v
	}

	groups, err := h.Groups.List(c.Request.Context(), auth.TenantID(c), activeOnly)
	if err != nil {
		respondError(c, err, "Failed to list groups")
		return
	}
	if groups == nil {
		groups = []models.Group{}
	}
	c.JSON(http.StatusOK, groups)
}

func (h *GroupHandler) GetGroup(c *gin.Context) {
	group, err := h.Groups.Get(c.Request.Context(), auth.TenantID(c), c.Param("groupId"))
	if err != nil {
		respondError(c, err, "Failed to load group")
		return
	}
	c.JSON(http.StatusOK, group)
}

func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req pkgmodels.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.Groups.Create(c.Request.Context(), auth.TenantID(c), req)
	if errors.Is(err, contacts.ErrGroupExists) {
		c.JSON(http.StatusConflict, gin.H{"error": "Group already exists"})
		return
	}
	if err != nil {
		respondError(c, err, "Failed to create group")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "group": group})
}

func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	var req pkgmodels.UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.Groups.Update(c.Request.Context(), auth.TenantID(c), c.Param("groupId"), req)
	if err != nil {
		respondError(c, err, "Failed to update group")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "group": group})
}

func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	deleted, err := h.Groups.Delete(c.Request.Context(), auth.TenantID(c), c.Param("groupId"))
	if err != nil {
		respondError(c, err, "Failed to delete group")
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Group deleted"})
}
