package api

import (
	"whatsapp-gateway/internal/auth"

	"github.com/gin-gonic/gin"
)

// Handlers groups the REST handlers mounted under /api.
type Handlers struct {
	Auth          *AuthHandler
	Conversations *ConversationHandler
	Contacts      *ContactHandler
	Groups        *GroupHandler
	Send          *SendHandler
	Dashboard     *DashboardHandler
}

// RegisterRoutes mounts the REST surface. Everything except login sits
// behind the tenant gate.
func RegisterRoutes(r gin.IRouter, h Handlers, resolver *auth.Resolver, cookieName string) {
	apiGroup := r.Group("/api")
	apiGroup.POST("/auth/login", h.Auth.Login)
	apiGroup.POST("/auth/logout", h.Auth.Logout)

	protected := apiGroup.Group("", auth.RequireTenant(resolver, cookieName))
	{
		protected.GET("/auth/me", h.Auth.Me)

		protected.GET("/conversations", h.Conversations.ListConversations)
		protected.GET("/conversations/:phone", h.Conversations.GetConversation)
		protected.DELETE("/conversations/:phone", h.Conversations.DeleteConversation)

		protected.POST("/send/text", h.Send.SendText)
		protected.POST("/send/flow", h.Send.SendFlow)

		// CRM Routes
		protected.GET("/contacts", h.Contacts.GetContacts)
		protected.GET("/contacts/export", h.Contacts.ExportContacts)
		protected.POST("/contacts", h.Contacts.CreateContact)
		protected.GET("/contacts/:phone", h.Contacts.GetContact)
		protected.PUT("/contacts/:phone", h.Contacts.UpdateContact)
		protected.DELETE("/contacts/:phone", h.Contacts.DeleteContact)

		protected.GET("/groups", h.Groups.GetGroups)
		protected.POST("/groups", h.Groups.CreateGroup)
		protected.GET("/groups/:groupId", h.Groups.GetGroup)
		protected.PUT("/groups/:groupId", h.Groups.UpdateGroup)
		protected.DELETE("/groups/:groupId", h.Groups.DeleteGroup)

		protected.GET("/messages", h.Dashboard.GetMessages)
		protected.GET("/statuses", h.Dashboard.GetStatuses)
		protected.GET("/logs", h.Dashboard.GetLogs)
		protected.GET("/stats", h.Dashboard.GetStats)
	}
}
