package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/redsunink/veliankeeper/internal/domain"
	"github.com/redsunink/veliankeeper/internal/errors"
	"github.com/redsunink/veliankeeper/internal/presentation"
)

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// BaseURL is the base URL of the chat gateway API.
	BaseURL string
	// Token authenticates the bot against the gateway.
	Token string
	// HTTPClient is used for all requests. If nil, http.DefaultClient is used.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Client talks to the chat gateway's message REST API. It implements
// presentation.Channel.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new gateway client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("gateway: BaseURL is required")
	}
	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, fmt.Errorf("gateway: invalid BaseURL %q: %w", config.BaseURL, err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		token:      config.Token,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Render posts a new message carrying the artifact.
func (c *Client) Render(ctx context.Context, channelID int64, artifact presentation.Artifact) (domain.MessageRef, error) {
	path := fmt.Sprintf("/channels/%d/messages", channelID)
	body, err := c.doRequest(ctx, http.MethodPost, path, artifactToWire(artifact))
	if err != nil {
		return domain.MessageRef{}, fmt.Errorf("gateway: render failed: %w", err)
	}

	var msg wireMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return domain.MessageRef{}, fmt.Errorf("gateway: failed to parse render response: %w", err)
	}
	return domain.MessageRef{MessageID: msg.ID, ChannelID: channelID}, nil
}

// Update edits an existing message in place.
func (c *Client) Update(ctx context.Context, ref domain.MessageRef, artifact presentation.Artifact) error {
	path := fmt.Sprintf("/channels/%d/messages/%d", ref.ChannelID, ref.MessageID)
	if _, err := c.doRequest(ctx, http.MethodPatch, path, artifactToWire(artifact)); err != nil {
		return fmt.Errorf("gateway: update failed: %w", err)
	}
	return nil
}

// Retract deletes a message. A message that is already gone counts as
// successfully retracted.
func (c *Client) Retract(ctx context.Context, ref domain.MessageRef) error {
	path := fmt.Sprintf("/channels/%d/messages/%d", ref.ChannelID, ref.MessageID)
	_, err := c.doRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		if errors.IsErrorType(err, errors.ErrorTypeNotFound) {
			c.logger.Debug("retract of already-removed message", "message_id", ref.MessageID)
			return nil
		}
		return fmt.Errorf("gateway: retract failed: %w", err)
	}
	return nil
}

// Fetch returns a single existing message.
func (c *Client) Fetch(ctx context.Context, ref domain.MessageRef) (*presentation.Message, error) {
	path := fmt.Sprintf("/channels/%d/messages/%d", ref.ChannelID, ref.MessageID)
	body, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var msg wireMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("gateway: failed to parse message: %w", err)
	}
	return msg.toPresentation(ref.ChannelID), nil
}

// History returns up to limit recent messages on a channel, newest first.
func (c *Client) History(ctx context.Context, channelID int64, limit int) ([]presentation.Message, error) {
	path := fmt.Sprintf("/channels/%d/messages?limit=%d", channelID, limit)
	body, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("gateway: history failed: %w", err)
	}

	var msgs []wireMessage
	if err := json.Unmarshal(body, &msgs); err != nil {
		return nil, fmt.Errorf("gateway: failed to parse history: %w", err)
	}

	out := make([]presentation.Message, len(msgs))
	for i, msg := range msgs {
		out[i] = *msg.toPresentation(channelID)
	}
	return out, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bot "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.NewNotFoundError("message", method+" "+path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s %s: unexpected status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// Wire types follow the gateway's message shape: snowflake ids travel as
// strings, the artifact as the first embed.

type wireMessage struct {
	ID     int64       `json:"id,string"`
	Embeds []wireEmbed `json:"embeds"`
}

type wireEmbed struct {
	Title       string               `json:"title,omitempty"`
	Description string               `json:"description,omitempty"`
	Color       int                  `json:"color,omitempty"`
	Fields      []presentation.Field `json:"fields,omitempty"`
	Thumbnail   *wireThumbnail       `json:"thumbnail,omitempty"`
	Footer      *wireFooter          `json:"footer,omitempty"`
}

type wireThumbnail struct {
	URL string `json:"url"`
}

type wireFooter struct {
	Text string `json:"text"`
}

type wirePayload struct {
	Embeds []wireEmbed `json:"embeds"`
}

func artifactToWire(artifact presentation.Artifact) wirePayload {
	embed := wireEmbed{
		Title:       artifact.Title,
		Description: artifact.Description,
		Color:       artifact.Color,
		Fields:      artifact.Fields,
		Footer:      &wireFooter{Text: artifact.Footer},
	}
	if artifact.Thumbnail != "" {
		embed.Thumbnail = &wireThumbnail{URL: artifact.Thumbnail}
	}
	return wirePayload{Embeds: []wireEmbed{embed}}
}

func (m wireMessage) toPresentation(channelID int64) *presentation.Message {
	msg := &presentation.Message{
		Ref: domain.MessageRef{MessageID: m.ID, ChannelID: channelID},
	}
	if len(m.Embeds) > 0 && m.Embeds[0].Footer != nil {
		msg.Footer = m.Embeds[0].Footer.Text
	}
	return msg
}
