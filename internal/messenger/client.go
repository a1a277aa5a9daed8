package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"teachme/internal/domain"

	"go.uber.org/zap"
)

const defaultSendURL = "https://graph.facebook.com/v2.6/me/messages"

// Client implements Sender against the Messenger Send API
type Client struct {
	sendURL     string
	accessToken string
	httpClient  *http.Client
	logger      *zap.Logger
}

var _ Sender = (*Client)(nil)

// NewClient creates a Send API client using the given page access token
func NewClient(accessToken string, logger *zap.Logger) *Client {
	return &Client{
		sendURL:     defaultSendURL,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		logger:      logger,
	}
}

// NewClientWithURL is NewClient with an overridden Send API URL,
// used by tests pointing at a local server.
func NewClientWithURL(sendURL, accessToken string, logger *zap.Logger) *Client {
	c := NewClient(accessToken, logger)
	c.sendURL = sendURL
	return c
}

// Wire types for the Send API request body

type sendRequest struct {
	Recipient recipient   `json:"recipient"`
	Message   wireMessage `json:"message"`
}

type recipient struct {
	ID string `json:"id"`
}

type wireMessage struct {
	Text       string          `json:"text,omitempty"`
	Metadata   string          `json:"metadata,omitempty"`
	Attachment *wireAttachment `json:"attachment,omitempty"`
}

type wireAttachment struct {
	Type    string      `json:"type"`
	Payload wirePayload `json:"payload"`
}

type wirePayload struct {
	URL          string        `json:"url,omitempty"`
	TemplateType string        `json:"template_type,omitempty"`
	Text         string        `json:"text,omitempty"`
	Buttons      []wireButton  `json:"buttons,omitempty"`
	Elements     []wireElement `json:"elements,omitempty"`
}

type wireButton struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Payload string `json:"payload"`
}

type wireElement struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

type sendResponse struct {
	RecipientID string `json:"recipient_id"`
	MessageID   string `json:"message_id"`
}

// SendText sends a plain text message
func (c *Client) SendText(ctx context.Context, recipientID, text string) error {
	return c.callSendAPI(ctx, recipientID, wireMessage{
		Text:     text,
		Metadata: "DEVELOPER_DEFINED_METADATA",
	})
}

// SendButtons sends a button template message
func (c *Client) SendButtons(ctx context.Context, recipientID, text string, buttons []domain.Button) error {
	wire := make([]wireButton, 0, len(buttons))
	for _, b := range buttons {
		wire = append(wire, wireButton{
			Type:    "postback",
			Title:   b.Title,
			Payload: b.Payload,
		})
	}
	return c.callSendAPI(ctx, recipientID, wireMessage{
		Attachment: &wireAttachment{
			Type: "template",
			Payload: wirePayload{
				TemplateType: "button",
				Text:         text,
				Buttons:      wire,
			},
		},
	})
}

// SendCards sends a generic template (carousel) message
func (c *Client) SendCards(ctx context.Context, recipientID string, items []domain.CardItem) error {
	elements := make([]wireElement, 0, len(items))
	for _, it := range items {
		elements = append(elements, wireElement{
			Title:    it.Title,
			Subtitle: it.Subtitle,
			ImageURL: it.ImageURL,
		})
	}
	return c.callSendAPI(ctx, recipientID, wireMessage{
		Attachment: &wireAttachment{
			Type: "template",
			Payload: wirePayload{
				TemplateType: "generic",
				Elements:     elements,
			},
		},
	})
}

// SendImage sends an image attachment by URL
func (c *Client) SendImage(ctx context.Context, recipientID, imageURL string) error {
	return c.callSendAPI(ctx, recipientID, wireMessage{
		Attachment: &wireAttachment{
			Type:    "image",
			Payload: wirePayload{URL: imageURL},
		},
	})
}

func (c *Client) callSendAPI(ctx context.Context, recipientID string, msg wireMessage) error {
	body, err := json.Marshal(sendRequest{
		Recipient: recipient{ID: recipientID},
		Message:   msg,
	})
	if err != nil {
		return fmt.Errorf("marshal send request: %w", err)
	}

	q := url.Values{}
	q.Set("access_token", c.accessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.sendURL+"?"+q.Encode(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Send API call failed",
			zap.String("recipient_id", recipientID),
			zap.Error(err),
		)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.Error("Send API returned error",
			zap.String("recipient_id", recipientID),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)),
		)
		return fmt.Errorf("send api status %d", resp.StatusCode)
	}

	var out sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err == nil && out.MessageID != "" {
		c.logger.Debug("Message sent",
			zap.String("recipient_id", out.RecipientID),
			zap.String("message_id", out.MessageID),
		)
	}
	return nil
}
