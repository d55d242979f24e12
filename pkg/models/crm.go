package models

import "time"

// ConversationSummary is one row of the conversation list
type ConversationSummary struct {
	Phone         string    `json:"phone"`
	Name          string    `json:"name"`
	LastMessage   string    `json:"last_message"`
	LastType      string    `json:"last_type"`
	LastDirection string    `json:"last_direction"`
	LastTimestamp time.Time `json:"last_timestamp"`
	MessageCount  int64     `json:"message_count"`
}

// CreateContactRequest for adding new contacts
type CreateContactRequest struct {
	Phone  string   `json:"phone" binding:"required"`
	Name   string   `json:"name"`
	Notes  string   `json:"notes"`
	Labels []string `json:"labels"`
	Groups []string `json:"groups"`
}

// UpdateContactRequest carries optional fields; nil leaves a field unchanged
type UpdateContactRequest struct {
	Name   *string  `json:"name"`
	Notes  *string  `json:"notes"`
	Labels []string `json:"labels"`
	Groups []string `json:"groups"`
}

// CreateGroupRequest registers a group under its provider group id
type CreateGroupRequest struct {
	GroupID      string   `json:"group_id" binding:"required"`
	Name         string   `json:"name" binding:"required"`
	Description  string   `json:"description"`
	Participants []string `json:"participants"`
	Admins       []string `json:"admins"`
	CreatedBy    string   `json:"created_by"`
	InviteLink   string   `json:"group_invite_link"`
}

// UpdateGroupRequest carries optional fields; nil leaves a field unchanged
type UpdateGroupRequest struct {
	Name         *string  `json:"name"`
	Description  *string  `json:"description"`
	IsActive     *bool    `json:"is_active"`
	Participants []string `json:"participants"`
	Admins       []string `json:"admins"`
}

type SendTextRequest struct {
	To   string `json:"to" binding:"required"`
	Text string `json:"text" binding:"required,max=4096"`
}

type SendFlowRequest struct {
	To         string `json:"to" binding:"required"`
	FlowID     string `json:"flow_id" binding:"required"`
	FlowToken  string `json:"flow_token"`
	FlowCTA    string `json:"flow_cta"`
	FlowAction string `json:"flow_action"`
	Screen     string `json:"screen"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Stats aggregates tenant-scoped counters for the dashboard
type Stats struct {
	Messages      int64            `json:"messages"`
	Inbound       int64            `json:"inbound"`
	Outbound      int64            `json:"outbound"`
	Conversations int64            `json:"conversations"`
	Contacts      int64            `json:"contacts"`
	Statuses      map[string]int64 `json:"statuses"`
	Logs          map[string]int64 `json:"logs"`
}
