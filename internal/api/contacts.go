package api

import (
	"encoding/csv"
	"errors"
	"net/http"
	"strings"
	"time"

	"whatsapp-gateway/internal/auth"
	"whatsapp-gateway/internal/contacts"
	"whatsapp-gateway/internal/models"
	pkgmodels "whatsapp-gateway/pkg/models"

	"github.com/gin-gonic/gin"
)

type ContactHandler struct {
	Directory *contacts.Directory
}

func NewContactHandler(directory *contacts.Directory) *ContactHandler {
	return &ContactHandler{Directory: directory}
}

func (h *ContactHandler) GetContacts(c *gin.Context) {
	list, err := h.Directory.List(c.Request.Context(), auth.TenantID(c), c.Query("search"), queryLimit(c, 0))
	if err != nil {
		respondError(c, err, "Failed to list contacts")
		return
	}

	// Return empty array instead of null
	if list == nil {
		list = []models.Contact{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *ContactHandler) GetContact(c *gin.Context) {
	contact, err := h.Directory.Get(c.Request.Context(), auth.TenantID(c), c.Param("phone"))
	if err != nil {
		respondError(c, err, "Failed to load contact")
		return
	}
	c.JSON(http.StatusOK, contact)
}

func (h *ContactHandler) CreateContact(c *gin.Context) {
	var req pkgmodels.CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contact, err := h.Directory.Create(c.Request.Context(), auth.TenantID(c), req)
	if errors.Is(err, contacts.ErrExists) {
		c.JSON(http.StatusConflict, gin.H{"error": "Contact already exists"})
		return
	}
	if err != nil {
		respondError(c, err, "Failed to create contact")
		return
	}
	c.JSON(http.StatusCreated, contact)
}

func (h *ContactHandler) UpdateContact(c *gin.Context) {
	var req pkgmodels.UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contact, err := h.Directory.Update(c.Request.Context(), auth.TenantID(c), c.Param("phone"), req)
	if err != nil {
		respondError(c, err, "Failed to update contact")
		return
	}
	c.JSON(http.StatusOK, contact)
}

func (h *ContactHandler) DeleteContact(c *gin.Context) {
	deleted, err := h.Directory.Delete(c.Request.Context(), auth.TenantID(c), c.Param("phone"))
	if err != nil {
		respondError(c, err, "Failed to delete contact")
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contact not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Contact deleted"})
}

func (h *ContactHandler) ExportContacts(c *gin.Context) {
	list, err := h.Directory.List(c.Request.Context(), auth.TenantID(c), "", 0)
	if err != nil {
		respondError(c, err, "Failed to export contacts")
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=contacts.csv")
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	w.Write([]string{"Phone", "Name", "Labels", "Groups", "Notes", "Last Seen", "Created At"})
	for _, contact := range list {
		w.Write([]string{
			contact.Phone,
			contact.Name,
			strings.Join(contact.Labels, ";"),
			strings.Join(contact.Groups, ";"),
			contact.Notes,
			contact.LastSeen.UTC().Format(time.RFC3339),
			contact.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	w.Flush()
}
