// Package outbound sends messages to the provider and records them in the
// conversation thread.
package outbound

import (
	"context"
	"fmt"
	"log"
	"time"

	"whatsapp-gateway/internal/audit"
	"whatsapp-gateway/internal/models"
	"whatsapp-gateway/internal/whatsapp"
)

// Sender is the provider capability; *whatsapp.Client implements it.
type Sender interface {
	SendText(ctx context.Context, to, body string) (string, error)
	SendFlow(ctx context.Context, to string, flow whatsapp.Flow) (string, error)
}

// Appender persists outbound messages; *conversation.Store implements it.
type Appender interface {
	Append(ctx context.Context, msg *models.Message) (models.Message, error)
}

// SendFailure is a provider call that did not succeed.
type SendFailure struct {
	To  string
	Err error
}

func (e *SendFailure) Error() string {
	return fmt.Sprintf("send to %s failed: %v", e.To, e.Err)
}

func (e *SendFailure) Unwrap() error {
	return e.Err
}

type Service struct {
	sender  Sender
	store   Appender
	audit   *audit.Log
	timeout time.Duration
}

func NewService(sender Sender, store Appender, auditLog *audit.Log, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Service{sender: sender, store: store, audit: auditLog, timeout: timeout}
}

// SendText sends body to to and appends it to the thread. The message is
// appended even when the send fails, with status failed and no provider
// id; the failure is returned as *SendFailure alongside the stored record.
func (s *Service) SendText(ctx context.Context, tenantID, to, body string) (models.Message, error) {
	sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
	providerID, sendErr := s.sender.SendText(sendCtx, to, body)
	cancel()

	msg := &models.Message{
		TenantID:  tenantID,
		Phone:     to,
		Direction: models.DirectionOutbound,
		Type:      models.TypeText,
		Body:      body,
	}
	return s.record(ctx, msg, providerID, sendErr)
}

// SendFlow sends an interactive flow. The thread gets a summary entry.
func (s *Service) SendFlow(ctx context.Context, tenantID, to string, flow whatsapp.Flow) (models.Message, error) {
	sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
	providerID, sendErr := s.sender.SendFlow(sendCtx, to, flow)
	cancel()

	meta := map[string]interface{}{"flow_id": flow.ID}
	if flow.Screen != "" {
		meta["screen"] = flow.Screen
	}
	msg := &models.Message{
		TenantID:  tenantID,
		Phone:     to,
		Direction: models.DirectionOutbound,
		Type:      models.TypeOther,
		Body:      "(flow)",
		Metadata:  meta,
	}
	return s.record(ctx, msg, providerID, sendErr)
}

func (s *Service) record(ctx context.Context, msg *models.Message, providerID string, sendErr error) (models.Message, error) {
	entry := models.WebhookLog{
		TenantID: audit.Tenant(msg.TenantID),
		LogType:  models.LogMessage,
		Phone:    msg.Phone,
		Context:  "outbound",
	}

	if sendErr != nil {
		log.Printf("Error sending %s to %s: %v", msg.Type, msg.Phone, sendErr)
		msg.Status = string(models.StatusFailed)
		entry.LogType = models.LogError
		entry.Status = msg.Status
		entry.ErrorMessage = sendErr.Error()
	} else {
		msg.Status = string(models.StatusSent)
		if providerID != "" {
			msg.ProviderMessageID = &providerID
		}
		entry.MessageID = providerID
		entry.Status = msg.Status
	}

	stored, err := s.store.Append(ctx, msg)
	if err != nil {
		log.Printf("Error storing outbound message to %s: %v", msg.Phone, err)
		s.audit.Record(ctx, models.WebhookLog{
			TenantID:     entry.TenantID,
			LogType:      models.LogError,
			Phone:        msg.Phone,
			MessageID:    providerID,
			ErrorMessage: err.Error(),
			Context:      "outbound_store",
		})
	}
	s.audit.Record(ctx, entry)

	if sendErr != nil {
		return stored, &SendFailure{To: msg.Phone, Err: sendErr}
	}
	return stored, err
}
