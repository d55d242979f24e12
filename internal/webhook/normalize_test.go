package webhook

import (
	"testing"
	"time"

	"whatsapp-gateway/internal/models"
	pkgmodels "whatsapp-gateway/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contact(waID, name string) pkgmodels.WebhookContact {
	var c pkgmodels.WebhookContact
	c.WaID = waID
	c.Profile.Name = name
	return c
}

func TestNormalizeText(t *testing.T) {
	in, err := Normalize(pkgmodels.WebhookMessage{
		From:      "15550001",
		ID:        "wamid.1",
		Timestamp: "1714557600",
		Type:      "text",
		Text:      &pkgmodels.TextMessage{Body: "  hello  "},
	}, []pkgmodels.WebhookContact{contact("15550001", "Alice")})
	require.NoError(t, err)

	assert.Equal(t, "15550001", in.Phone())
	assert.Equal(t, "Alice", in.DisplayName)
	assert.Equal(t, models.TypeText, in.Message.Type)
	assert.Equal(t, models.DirectionInbound, in.Message.Direction)
	assert.Equal(t, "wamid.1", in.Message.ProviderID())
	assert.True(t, in.Message.Timestamp.Equal(time.Unix(1714557600, 0)))
	assert.Nil(t, in.Message.Metadata)

	text, ok := in.Text()
	assert.True(t, ok)
	assert.Equal(t, "hello", text)
}

func TestNormalizeEmptyTextSucceeds(t *testing.T) {
	in, err := Normalize(pkgmodels.WebhookMessage{From: "1", Type: "text"}, nil)
	require.NoError(t, err)
	text, ok := in.Text()
	assert.True(t, ok)
	assert.Empty(t, text)
	assert.Empty(t, in.Message.ProviderID())
	assert.True(t, in.Message.Timestamp.IsZero())
}

func TestNormalizeMedia(t *testing.T) {
	in, err := Normalize(pkgmodels.WebhookMessage{
		From:  "1",
		Type:  "image",
		Image: &pkgmodels.MediaMessage{ID: "media-1", MimeType: "image/jpeg"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.TypeImage, in.Message.Type)
	assert.Equal(t, "(image)", in.Message.Body)
	assert.Equal(t, "media-1", in.Message.Metadata["media_id"])
	assert.Equal(t, "image/jpeg", in.Message.Metadata["mime_type"])

	_, isText := in.Text()
	assert.False(t, isText)

	doc, err := Normalize(pkgmodels.WebhookMessage{
		From:     "1",
		Type:     "document",
		Document: &pkgmodels.MediaMessage{ID: "d", Caption: "invoice", Filename: "inv.pdf"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "invoice", doc.Message.Body)
	assert.Equal(t, "inv.pdf", doc.Message.Metadata["filename"])
}

func TestNormalizeLocation(t *testing.T) {
	in, err := Normalize(pkgmodels.WebhookMessage{
		From:     "1",
		Type:     "location",
		Location: &pkgmodels.LocationMessage{Latitude: 52.5, Longitude: 13.4},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.TypeLocation, in.Message.Type)
	assert.Equal(t, "(location)", in.Message.Body)
	assert.Equal(t, 52.5, in.Message.Metadata["latitude"])

	loc, ok := in.Content.(Location)
	require.True(t, ok)
	assert.Equal(t, 13.4, loc.Longitude)
}

func TestNormalizeOtherKinds(t *testing.T) {
	sticker, err := Normalize(pkgmodels.WebhookMessage{From: "1", Type: "sticker"}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.TypeOther, sticker.Message.Type)
	assert.Equal(t, "(sticker)", sticker.Message.Body)

	reply, err := Normalize(pkgmodels.WebhookMessage{
		From: "1",
		Type: "interactive",
		Interactive: &pkgmodels.InteractiveMessage{
			Type:        "button_reply",
			ButtonReply: &pkgmodels.ButtonReply{ID: "btn-yes", Title: "Yes"},
		},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.TypeOther, reply.Message.Type)
	assert.Equal(t, "Yes", reply.Message.Body)
	assert.Equal(t, "btn-yes", reply.Message.Metadata["reply_id"])

	unknown, err := Normalize(pkgmodels.WebhookMessage{From: "1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "(unknown)", unknown.Message.Body)
}

func TestNormalizePhoneFallsBackToContact(t *testing.T) {
	in, err := Normalize(pkgmodels.WebhookMessage{Type: "text"}, []pkgmodels.WebhookContact{contact("15550002", "Bob")})
	require.NoError(t, err)
	assert.Equal(t, "15550002", in.Phone())
	assert.Equal(t, "Bob", in.DisplayName)
}

func TestNormalizeWithoutPhoneIsMalformed(t *testing.T) {
	_, err := Normalize(pkgmodels.WebhookMessage{Type: "text", ID: "wamid.x"}, nil)
	assert.ErrorIs(t, err, ErrMalformedEvent)
}
