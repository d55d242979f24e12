package models

import (
	"time"

	"gorm.io/datatypes"
)

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// MessageType is the canonical kind of a message, independent of the provider payload.
type MessageType string

const (
	TypeText     MessageType = "text"
	TypeImage    MessageType = "image"
	TypeVideo    MessageType = "video"
	TypeAudio    MessageType = "audio"
	TypeDocument MessageType = "document"
	TypeLocation MessageType = "location"
	TypeOther    MessageType = "other"
)

// Message represents one inbound or outbound WhatsApp message
type Message struct {
	ID                uint              `gorm:"primaryKey" json:"id"`
	TenantID          string            `gorm:"type:varchar(100);not null;index:idx_messages_tenant_phone,priority:1;uniqueIndex:idx_messages_tenant_provider,priority:1" json:"tenant_id"`
	Phone             string            `gorm:"type:varchar(50);not null;index:idx_messages_tenant_phone,priority:2" json:"phone"`
	ProviderMessageID *string           `gorm:"type:varchar(255);uniqueIndex:idx_messages_tenant_provider,priority:2" json:"message_id,omitempty"`
	ContactName       string            `gorm:"type:varchar(255)" json:"name,omitempty"`
	Direction         Direction         `gorm:"type:varchar(20);not null" json:"direction"`
	Type              MessageType       `gorm:"type:varchar(50)" json:"type"`
	Body              string            `gorm:"type:text" json:"text"`
	Metadata          datatypes.JSONMap `json:"metadata,omitempty"`
	Status            string            `gorm:"type:varchar(20)" json:"status,omitempty"`
	Timestamp         time.Time         `gorm:"column:occurred_at;index" json:"timestamp"`
	CreatedAt         time.Time         `gorm:"autoCreateTime" json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}

// ProviderID returns the provider-assigned id or "" when the message has none.
func (m Message) ProviderID() string {
	if m.ProviderMessageID == nil {
		return ""
	}
	return *m.ProviderMessageID
}

// Contact represents a WhatsApp contact, unique per (tenant, phone)
type Contact struct {
	ID        uint                        `gorm:"primaryKey" json:"id"`
	TenantID  string                      `gorm:"type:varchar(100);not null;uniqueIndex:idx_contacts_tenant_phone,priority:1" json:"tenant_id"`
	Phone     string                      `gorm:"type:varchar(50);not null;uniqueIndex:idx_contacts_tenant_phone,priority:2" json:"phone"`
	Name      string                      `gorm:"type:varchar(255)" json:"name"`
	Labels    datatypes.JSONSlice[string] `json:"labels"`
	Groups    datatypes.JSONSlice[string] `json:"groups"`
	Notes     string                      `gorm:"type:text" json:"notes"`
	LastSeen  time.Time                   `gorm:"index" json:"last_seen"`
	CreatedAt time.Time                   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Contact) TableName() string {
	return "contacts"
}

// Group is a WhatsApp group tracked for a tenant, unique per (tenant, group id)
type Group struct {
	ID           uint                        `gorm:"primaryKey" json:"id"`
	TenantID     string                      `gorm:"type:varchar(100);not null;uniqueIndex:idx_groups_tenant_group,priority:1" json:"tenant_id"`
	GroupID      string                      `gorm:"type:varchar(100);not null;uniqueIndex:idx_groups_tenant_group,priority:2" json:"group_id"`
	Name         string                      `gorm:"type:varchar(255);not null" json:"name"`
	Description  string                      `gorm:"type:text" json:"description"`
	Participants datatypes.JSONSlice[string] `json:"participants"`
	Admins       datatypes.JSONSlice[string] `json:"admins"`
	CreatedBy    string                      `gorm:"type:varchar(50)" json:"created_by,omitempty"`
	InviteLink   string                      `gorm:"column:group_invite_link;type:varchar(500)" json:"group_invite_link,omitempty"`
	IsActive     bool                        `gorm:"index" json:"is_active"`
	CreatedAt    time.Time                   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time                   `gorm:"autoUpdateTime;index" json:"updated_at"`
}

func (Group) TableName() string {
	return "groups"
}

type Status string

const (
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
	StatusFailed    Status = "failed"
	StatusUnknown   Status = "unknown"
)

// ParseStatus maps a provider status string onto the known set.
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusSent, StatusDelivered, StatusRead, StatusFailed:
		return Status(s)
	}
	return StatusUnknown
}

// DeliveryStatus is the latest known delivery state of an outbound message
type DeliveryStatus struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	TenantID          string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_statuses_tenant_message,priority:1" json:"tenant_id"`
	ProviderMessageID string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_statuses_tenant_message,priority:2" json:"message_id"`
	Status            Status    `gorm:"type:varchar(20);not null" json:"status"`
	Recipient         string    `gorm:"type:varchar(50)" json:"recipient"`
	ErrorMessage      string    `gorm:"type:text" json:"error,omitempty"`
	UpdatedAt         time.Time `json:"updated_at"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (DeliveryStatus) TableName() string {
	return "delivery_statuses"
}

type LogType string

const (
	LogMessage LogType = "message"
	LogStatus  LogType = "status"
	LogError   LogType = "error"
)

// WebhookLog is an append-only diagnostic record of webhook activity
type WebhookLog struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	TenantID     *string        `gorm:"type:varchar(100);index" json:"tenant_id"`
	LogType      LogType        `gorm:"type:varchar(50);index" json:"type"`
	Phone        string         `gorm:"type:varchar(50)" json:"from,omitempty"`
	MessageID    string         `gorm:"type:varchar(255)" json:"message_id,omitempty"`
	Status       string         `gorm:"type:varchar(50)" json:"status,omitempty"`
	ErrorMessage string         `gorm:"type:text" json:"error,omitempty"`
	Context      string         `gorm:"type:varchar(255)" json:"context,omitempty"`
	RawData      datatypes.JSON `json:"raw_data,omitempty"`
	Timestamp    time.Time      `gorm:"column:logged_at;index" json:"timestamp"`
}

func (WebhookLog) TableName() string {
	return "webhook_logs"
}

// AdminUser is a legacy single-tenant dashboard login
type AdminUser struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"type:varchar(100);not null;uniqueIndex" json:"username"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"`
	IsActive     bool       `gorm:"default:true" json:"is_active"`
	LastLogin    *time.Time `json:"last_login"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (AdminUser) TableName() string {
	return "admin_users"
}

// AdminSession is server-side session state behind the session cookie
type AdminSession struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Username  string    `gorm:"type:varchar(100);not null;index" json:"username"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (AdminSession) TableName() string {
	return "admin_sessions"
}

// All lists every entity managed by auto-migration.
func All() []interface{} {
	return []interface{}{
		&Message{},
		&Contact{},
		&Group{},
		&DeliveryStatus{},
		&WebhookLog{},
		&AdminUser{},
		&AdminSession{},
	}
}
