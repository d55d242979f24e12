// Package automation drives the command-based auto-replies.
package automation

import (
	"context"
	"fmt"
	"log"
	"strings"

	"whatsapp-gateway/internal/models"
	"whatsapp-gateway/internal/webhook"
	"whatsapp-gateway/internal/whatsapp"
)

const (
	TextOnlyNotice   = "I only understand text for now 🙂"
	NothingToEcho    = "(nothing to echo)"
	PongReply        = "pong 🏓"
	FlowNotAvailable = "No flow is configured on this server."
	HelpHint         = "Send /help to see what I can do."

	WelcomeReply = "👋 Hey! Try:\n" +
		"• /help – show commands\n" +
		"• /echo <text> – I'll repeat it\n" +
		"• /info – what I know about you\n" +
		"• /flow – send a sample Flow (if enabled)"

	HelpReply = "🧰 Commands:\n" +
		"• /help – show this\n" +
		"• /echo <text>\n" +
		"• /info\n" +
		"• /ping\n" +
		"• /flow – send a sample Flow"
)

var greetings = map[string]bool{"hi": true, "hello": true, "hey": true, "start": true}

// Input is what the decision table looks at.
type Input struct {
	Kind           models.MessageType
	Text           string
	Phone          string
	Name           string
	FlowConfigured bool
}

// Decision is either a text reply or a request to send the configured flow.
type Decision struct {
	Reply    string
	SendFlow bool
}

// Decide evaluates the command table top to bottom; the first match wins.
func Decide(in Input) Decision {
	text := strings.TrimSpace(in.Text)
	if in.Kind != models.TypeText || text == "" {
		return Decision{Reply: TextOnlyNotice}
	}
	low := strings.ToLower(text)

	switch {
	case greetings[low]:
		return Decision{Reply: WelcomeReply}
	case strings.HasPrefix(low, "/help"):
		return Decision{Reply: HelpReply}
	case low == "/echo" || strings.HasPrefix(low, "/echo "):
		rest := strings.TrimSpace(text[len("/echo"):])
		if rest == "" {
			return Decision{Reply: NothingToEcho}
		}
		return Decision{Reply: rest}
	case low == "/info":
		name := in.Name
		if name == "" {
			name = "(unknown)"
		}
		return Decision{Reply: fmt.Sprintf("📇 Your number: %s\nName: %s", in.Phone, name)}
	case low == "/ping":
		return Decision{Reply: PongReply}
	case strings.HasPrefix(low, "/flow"):
		if !in.FlowConfigured {
			return Decision{Reply: FlowNotAvailable}
		}
		return Decision{SendFlow: true}
	}
	return Decision{Reply: "Echo: " + text + "\n\n" + HelpHint}
}

// Replier is the outbound send path; *outbound.Service implements it.
type Replier interface {
	SendText(ctx context.Context, tenantID, to, body string) (models.Message, error)
	SendFlow(ctx context.Context, tenantID, to string, flow whatsapp.Flow) (models.Message, error)
}

type Dispatcher struct {
	replier Replier
	flow    whatsapp.Flow
}

func NewDispatcher(replier Replier, flow whatsapp.Flow) *Dispatcher {
	return &Dispatcher{replier: replier, flow: flow}
}

// Handle answers one inbound message. Failures are logged and swallowed;
// the inbound message is already stored when Handle runs.
func (d *Dispatcher) Handle(ctx context.Context, tenantID string, in webhook.Inbound) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Dispatcher panic for %s: %v", in.Phone(), r)
		}
	}()

	text, _ := in.Text()
	decision := Decide(Input{
		Kind:           in.Message.Type,
		Text:           text,
		Phone:          in.Phone(),
		Name:           knownName(in),
		FlowConfigured: d.flow.ID != "",
	})

	if decision.SendFlow {
		if _, err := d.replier.SendFlow(ctx, tenantID, in.Phone(), d.flow); err != nil {
			log.Printf("Flow send failed for %s: %v", in.Phone(), err)
			decision.Reply = fmt.Sprintf("Flow send failed: %v", err)
		} else {
			return
		}
	}

	if decision.Reply == "" {
		return
	}
	if _, err := d.replier.SendText(ctx, tenantID, in.Phone(), decision.Reply); err != nil {
		log.Printf("Reply to %s failed: %v", in.Phone(), err)
	}
}

// knownName prefers the stored contact name, which covers payloads that
// carry no profile.
func knownName(in webhook.Inbound) string {
	if name := strings.TrimSpace(in.Message.ContactName); name != "" {
		return name
	}
	return in.DisplayName
}
