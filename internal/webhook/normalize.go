package webhook

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"whatsapp-gateway/internal/models"
	pkgmodels "whatsapp-gateway/pkg/models"
)

// ErrMalformedEvent is returned when no phone can be extracted from an event.
var ErrMalformedEvent = errors.New("malformed webhook event")

// Content is the kind-specific part of an inbound message. Exactly one of
// Text, Media, Location or Other.
type Content interface {
	Kind() models.MessageType
	summary() string
	metadata() map[string]interface{}
}

type Text struct {
	Body string
}

// Media covers image, video, audio and document attachments.
type Media struct {
	MediaKind models.MessageType
	ID        string
	MimeType  string
	Caption   string
	Filename  string
}

type Location struct {
	Latitude  float64
	Longitude float64
	Name      string
	Address   string
}

// Other is any kind without a canonical shape: stickers, reactions,
// interactive replies and types the provider adds later.
type Other struct {
	RawType string
	Title   string
	ReplyID string
	Payload string
}

func (Text) Kind() models.MessageType { return models.TypeText }

func (m Media) Kind() models.MessageType { return m.MediaKind }

func (Location) Kind() models.MessageType { return models.TypeLocation }

func (Other) Kind() models.MessageType { return models.TypeOther }

func (t Text) summary() string { return t.Body }

func (Text) metadata() map[string]interface{} { return nil }

func (m Media) summary() string {
	if m.Caption != "" {
		return m.Caption
	}
	return "(" + string(m.MediaKind) + ")"
}

func (m Media) metadata() map[string]interface{} {
	meta := map[string]interface{}{"media_id": m.ID}
	setIf(meta, "mime_type", m.MimeType)
	setIf(meta, "caption", m.Caption)
	setIf(meta, "filename", m.Filename)
	return meta
}

func (l Location) summary() string {
	if l.Name != "" {
		return l.Name
	}
	return "(location)"
}

func (l Location) metadata() map[string]interface{} {
	meta := map[string]interface{}{
		"latitude":  l.Latitude,
		"longitude": l.Longitude,
	}
	setIf(meta, "name", l.Name)
	setIf(meta, "address", l.Address)
	return meta
}

func (o Other) summary() string {
	if o.Title != "" {
		return o.Title
	}
	return "(" + o.RawType + ")"
}

func (o Other) metadata() map[string]interface{} {
	meta := map[string]interface{}{"raw_type": o.RawType}
	setIf(meta, "reply_id", o.ReplyID)
	setIf(meta, "payload", o.Payload)
	return meta
}

func setIf(meta map[string]interface{}, key, value string) {
	if value != "" {
		meta[key] = value
	}
}

// Inbound is a normalized inbound event. Message carries no tenant yet;
// the pipeline assigns it.
type Inbound struct {
	Message     models.Message
	Content     Content
	DisplayName string
}

// Phone is the sender of the event.
func (in Inbound) Phone() string {
	return in.Message.Phone
}

// Text returns the trimmed body of a text message and false for other kinds.
func (in Inbound) Text() (string, bool) {
	t, ok := in.Content.(Text)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(t.Body), true
}

// Normalize turns one provider message into a canonical inbound message.
// contacts is the sibling contacts array of the same change and supplies
// the display name.
func Normalize(msg pkgmodels.WebhookMessage, contacts []pkgmodels.WebhookContact) (Inbound, error) {
	phone := strings.TrimSpace(msg.From)
	if phone == "" && len(contacts) > 0 {
		phone = strings.TrimSpace(contacts[0].WaID)
	}
	if phone == "" {
		return Inbound{}, ErrMalformedEvent
	}

	content := contentOf(msg)
	name := displayName(phone, contacts)

	canonical := models.Message{
		Phone:       phone,
		ContactName: name,
		Direction:   models.DirectionInbound,
		Type:        content.Kind(),
		Body:        content.summary(),
		Timestamp:   parseUnix(msg.Timestamp),
	}
	if msg.ID != "" {
		id := msg.ID
		canonical.ProviderMessageID = &id
	}
	if meta := content.metadata(); len(meta) > 0 {
		canonical.Metadata = meta
	}

	return Inbound{Message: canonical, Content: content, DisplayName: name}, nil
}

func contentOf(msg pkgmodels.WebhookMessage) Content {
	switch msg.Type {
	case "text":
		if msg.Text == nil {
			return Text{}
		}
		return Text{Body: msg.Text.Body}
	case "image":
		return media(models.TypeImage, msg.Image)
	case "video":
		return media(models.TypeVideo, msg.Video)
	case "audio":
		return media(models.TypeAudio, msg.Audio)
	case "document":
		return media(models.TypeDocument, msg.Document)
	case "location":
		if msg.Location == nil {
			return Location{}
		}
		return Location{
			Latitude:  msg.Location.Latitude,
			Longitude: msg.Location.Longitude,
			Name:      msg.Location.Name,
			Address:   msg.Location.Address,
		}
	case "interactive":
		return interactive(msg.Interactive)
	case "button":
		other := Other{RawType: "button"}
		if msg.Button != nil {
			other.Title = msg.Button.Text
			other.Payload = msg.Button.Payload
		}
		return other
	}

	rawType := msg.Type
	if rawType == "" {
		rawType = "unknown"
	}
	return Other{RawType: rawType}
}

func media(kind models.MessageType, m *pkgmodels.MediaMessage) Media {
	out := Media{MediaKind: kind}
	if m != nil {
		out.ID = m.ID
		out.MimeType = m.MimeType
		out.Caption = m.Caption
		out.Filename = m.Filename
	}
	return out
}

func interactive(m *pkgmodels.InteractiveMessage) Other {
	other := Other{RawType: "interactive"}
	if m == nil {
		return other
	}
	switch {
	case m.ButtonReply != nil:
		other.Title = m.ButtonReply.Title
		other.ReplyID = m.ButtonReply.ID
	case m.ListReply != nil:
		other.Title = m.ListReply.Title
		other.ReplyID = m.ListReply.ID
	case m.NfmReply != nil:
		other.Title = m.NfmReply.Body
		other.Payload = m.NfmReply.ResponsePayload
	}
	return other
}

func displayName(phone string, contacts []pkgmodels.WebhookContact) string {
	for _, c := range contacts {
		if c.WaID == phone {
			return strings.TrimSpace(c.Profile.Name)
		}
	}
	// single-contact changes sometimes carry a formatted wa_id
	if len(contacts) == 1 {
		return strings.TrimSpace(contacts[0].Profile.Name)
	}
	return ""
}

// parseUnix reads the provider's unix-seconds timestamp; zero when absent
// so the store stamps the receive time.
func parseUnix(raw string) time.Time {
	secs, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || secs <= 0 {
		return time.Time{}
	}
	return time.Unix(secs, 0).UTC()
}
