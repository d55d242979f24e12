package webhook

import (
	"context"
	"errors"
	"log"
	"sync"

	"whatsapp-gateway/internal/audit"
	"whatsapp-gateway/internal/models"
	"whatsapp-gateway/internal/status"
	pkgmodels "whatsapp-gateway/pkg/models"

	"golang.org/x/sync/errgroup"
)

// Appender is the conversation store as seen by the pipeline.
type Appender interface {
	AppendIfNew(ctx context.Context, msg *models.Message) (models.Message, bool, error)
}

type StatusRecorder interface {
	Record(ctx context.Context, tenantID string, u status.Update) error
}

// Dispatcher reacts to a newly stored inbound message.
type Dispatcher interface {
	Handle(ctx context.Context, tenantID string, in Inbound)
}

// TenantFunc maps the receiving phone_number_id to a tenant.
type TenantFunc func(phoneNumberID string) string

// Result counts what one payload produced.
type Result struct {
	Stored     int
	Duplicates int
	Statuses   int
	Failed     int
}

type Pipeline struct {
	store      Appender
	statuses   StatusRecorder
	dispatcher Dispatcher
	audit      *audit.Log
	tenantFor  TenantFunc

	mu       sync.Mutex
	inflight sync.WaitGroup
}

func NewPipeline(store Appender, statuses StatusRecorder, dispatcher Dispatcher, auditLog *audit.Log, tenantFor TenantFunc) *Pipeline {
	return &Pipeline{
		store:      store,
		statuses:   statuses,
		dispatcher: dispatcher,
		audit:      auditLog,
		tenantFor:  tenantFor,
	}
}

type threadEvent struct {
	tenant  string
	inbound Inbound
	raw     pkgmodels.WebhookMessage
}

type statusEvent struct {
	tenant string
	raw    pkgmodels.WebhookStatus
}

// Process persists every message and status of payload. Messages of one
// (tenant, phone) are handled in payload order; different threads run in
// parallel. A failing event is logged and never stops its siblings.
// Replies are dispatched in the background; Wait blocks until they finish.
func (p *Pipeline) Process(ctx context.Context, payload pkgmodels.WebhookPayload) Result {
	threads := map[string][]threadEvent{}
	var order []string
	var statuses []statusEvent
	var result Result

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			value := change.Value
			tenant := p.tenantFor(value.Metadata.PhoneNumberID)

			for _, raw := range value.Messages {
				in, err := Normalize(raw, value.Contacts)
				if err != nil {
					result.Failed++
					log.Printf("Dropping webhook message %s: %v", raw.ID, err)
					p.audit.Record(ctx, models.WebhookLog{
						TenantID:     audit.Tenant(tenant),
						LogType:      models.LogError,
						MessageID:    raw.ID,
						ErrorMessage: err.Error(),
						Context:      "normalize",
						RawData:      p.audit.Snapshot(raw),
					})
					continue
				}
				key := tenant + "\x00" + in.Phone()
				if _, ok := threads[key]; !ok {
					order = append(order, key)
				}
				threads[key] = append(threads[key], threadEvent{tenant: tenant, inbound: in, raw: raw})
			}
			for _, raw := range value.Statuses {
				statuses = append(statuses, statusEvent{tenant: tenant, raw: raw})
			}
		}
	}

	var g errgroup.Group
	for _, key := range order {
		events := threads[key]
		g.Go(func() error {
			var fresh []threadEvent
			for i := range events {
				ev := &events[i]
				if p.ingest(ctx, ev, &result) {
					fresh = append(fresh, *ev)
				}
			}
			p.dispatch(ctx, fresh)
			return nil
		})
	}
	if len(statuses) > 0 {
		g.Go(func() error {
			for _, ev := range statuses {
				p.recordStatus(ctx, ev, &result)
			}
			return nil
		})
	}
	g.Wait()

	return result
}

// ingest stores one message and reports whether it was new. ev.inbound is
// updated to the stored record.
func (p *Pipeline) ingest(ctx context.Context, ev *threadEvent, result *Result) bool {
	msg := ev.inbound.Message
	msg.TenantID = ev.tenant

	stored, created, err := p.store.AppendIfNew(ctx, &msg)
	if err != nil {
		p.count(func() { result.Failed++ })
		log.Printf("Error storing message %s from %s: %v", msg.ProviderID(), msg.Phone, err)
		p.audit.Record(ctx, models.WebhookLog{
			TenantID:     audit.Tenant(ev.tenant),
			LogType:      models.LogError,
			Phone:        msg.Phone,
			MessageID:    msg.ProviderID(),
			ErrorMessage: err.Error(),
			Context:      "store",
			RawData:      p.audit.Snapshot(ev.raw),
		})
		return false
	}
	if !created {
		p.count(func() { result.Duplicates++ })
		return false
	}
	p.count(func() { result.Stored++ })

	p.audit.Record(ctx, models.WebhookLog{
		TenantID:  audit.Tenant(ev.tenant),
		LogType:   models.LogMessage,
		Phone:     stored.Phone,
		MessageID: stored.ProviderID(),
		Context:   "inbound " + string(stored.Type),
		RawData:   p.audit.Snapshot(ev.raw),
	})

	ev.inbound.Message = stored
	return true
}

// dispatch answers the new messages of one thread in the background, one
// after another, so replies keep the order of the messages they answer.
func (p *Pipeline) dispatch(ctx context.Context, events []threadEvent) {
	if p.dispatcher == nil || len(events) == 0 {
		return
	}
	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		for _, ev := range events {
			p.dispatcher.Handle(ctx, ev.tenant, ev.inbound)
		}
	}()
}

func (p *Pipeline) recordStatus(ctx context.Context, ev statusEvent, result *Result) {
	err := p.statuses.Record(ctx, ev.tenant, status.FromWebhook(ev.raw))
	switch {
	case err == nil:
		p.count(func() { result.Statuses++ })
	case errors.Is(err, status.ErrMissingMessageID):
		p.count(func() { result.Failed++ })
	default:
		p.count(func() { result.Failed++ })
		log.Printf("Error recording status %s: %v", ev.raw.ID, err)
		p.audit.Record(ctx, models.WebhookLog{
			TenantID:     audit.Tenant(ev.tenant),
			LogType:      models.LogError,
			MessageID:    ev.raw.ID,
			Status:       ev.raw.Status,
			ErrorMessage: err.Error(),
			Context:      "status",
		})
	}
}

func (p *Pipeline) count(f func()) {
	p.mu.Lock()
	f()
	p.mu.Unlock()
}

// Wait blocks until every background dispatch has returned.
func (p *Pipeline) Wait() {
	p.inflight.Wait()
}
