// Package whatsapp is a minimal WhatsApp Cloud API client for sending
// messages through the Graph API.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"whatsapp-gateway/internal/config"
)

type Client struct {
	baseURL       string
	version       string
	phoneNumberID string
	token         string
	httpClient    *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:       strings.TrimRight(cfg.GraphBaseURL, "/"),
		version:       cfg.GraphAPIVersion,
		phoneNumberID: cfg.PhoneNumberID,
		token:         cfg.WhatsAppToken,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
	}
}

// --- Message Structures ---

type GenericMessage struct {
	MessagingProduct string          `json:"messaging_product"`
	RecipientType    string          `json:"recipient_type,omitempty"`
	To               string          `json:"to"`
	Type             string          `json:"type"`
	Text             *TextObj        `json:"text,omitempty"`
	Interactive      *InteractiveObj `json:"interactive,omitempty"`
}

type TextObj struct {
	Body       string `json:"body"`
	PreviewUrl bool   `json:"preview_url,omitempty"`
}

type InteractiveObj struct {
	Type   string    `json:"type"`
	Body   BodyObj   `json:"body"`
	Action ActionObj `json:"action"`
}

type BodyObj struct {
	Text string `json:"text"`
}

type ActionObj struct {
	Name       string      `json:"name"`
	Parameters *FlowParams `json:"parameters,omitempty"`
}

type FlowParams struct {
	FlowMessageVersion string             `json:"flow_message_version"`
	FlowToken          string             `json:"flow_token,omitempty"`
	FlowID             string             `json:"flow_id"`
	FlowCTA            string             `json:"flow_cta"`
	FlowAction         string             `json:"flow_action,omitempty"` // navigate or data_exchange
	FlowActionPayload  *FlowActionPayload `json:"flow_action_payload,omitempty"`
}

type FlowActionPayload struct {
	Screen string `json:"screen"`
}

// Flow describes an interactive flow message.
type Flow struct {
	ID     string
	Token  string
	CTA    string
	Action string
	Screen string
	Body   string
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// APIError is a non-2xx answer from the Graph API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %d - %s", e.StatusCode, e.Body)
}

// --- Helper Functions ---

func (c *Client) sendRequest(ctx context.Context, method, url string, body interface{}) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return respBody, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}

func (c *Client) messagesURL() string {
	return fmt.Sprintf("%s/%s/%s/messages", c.baseURL, c.version, c.phoneNumberID)
}

// SendRawMessage posts msg and returns the provider message id.
func (c *Client) SendRawMessage(ctx context.Context, msg GenericMessage) (string, error) {
	if c.phoneNumberID == "" || c.token == "" {
		return "", errors.New("whatsapp client is not configured")
	}
	msg.MessagingProduct = "whatsapp"
	if msg.RecipientType == "" {
		msg.RecipientType = "individual"
	}

	raw, err := c.sendRequest(ctx, http.MethodPost, c.messagesURL(), msg)
	if err != nil {
		return "", err
	}
	var resp sendResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decode send response: %w", err)
	}
	if len(resp.Messages) == 0 || resp.Messages[0].ID == "" {
		return "", errors.New("send response carried no message id")
	}
	return resp.Messages[0].ID, nil
}

// --- Messaging Methods ---

func (c *Client) SendText(ctx context.Context, to, body string) (string, error) {
	return c.SendRawMessage(ctx, GenericMessage{
		To:   to,
		Type: "text",
		Text: &TextObj{Body: body},
	})
}

func (c *Client) SendFlow(ctx context.Context, to string, flow Flow) (string, error) {
	params := &FlowParams{
		FlowMessageVersion: "3",
		FlowToken:          flow.Token,
		FlowID:             flow.ID,
		FlowCTA:            flow.CTA,
		FlowAction:         flow.Action,
	}
	if params.FlowCTA == "" {
		params.FlowCTA = "Open"
	}
	if params.FlowAction == "" {
		params.FlowAction = "navigate"
	}
	if flow.Screen != "" {
		params.FlowActionPayload = &FlowActionPayload{Screen: flow.Screen}
	}
	body := flow.Body
	if body == "" {
		body = "Tap the button below to continue."
	}

	return c.SendRawMessage(ctx, GenericMessage{
		To:   to,
		Type: "interactive",
		Interactive: &InteractiveObj{
			Type:   "flow",
			Body:   BodyObj{Text: body},
			Action: ActionObj{Name: "flow", Parameters: params},
		},
	})
}
