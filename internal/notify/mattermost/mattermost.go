// Package mattermost posts notifications to a Mattermost-compatible
// incoming webhook.
package mattermost

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config identifies the webhook and the default posting identity.
type Config struct {
	// APIURL is the server base URL, e.g. https://chat.example.com.
	APIURL string `mapstructure:"api_url"`
	// Hook is the incoming webhook ID.
	Hook string `mapstructure:"hook"`
	// Channel and Username are optional defaults applied to every message.
	Channel  string `mapstructure:"channel"`
	Username string `mapstructure:"username"`
}

// Validate reports missing webhook settings before any request is made.
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIURL) == "" {
		return &InvocationError{Field: "api_url", Reason: "must be set"}
	}
	if strings.TrimSpace(c.Hook) == "" {
		return &InvocationError{Field: "hook", Reason: "must be set"}
	}
	return nil
}

// InvocationError describes invalid notifier input, detected before the
// webhook is called.
type InvocationError struct {
	Field  string
	Reason string
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Message is one notification. Channel and Username override the client
// defaults when set.
type Message struct {
	Text     string
	Channel  string
	Username string
}

// Client posts messages to a single webhook.
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	return NewClientWithHTTPClient(cfg, nil)
}

func NewClientWithHTTPClient(cfg Config, httpClient *http.Client) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{cfg: cfg, http: httpClient}, nil
}

// Post sends one message. The text is wrapped in a fixed-width code block so
// structured payloads stay readable in chat; channel and username are only
// included when set.
func (c *Client) Post(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.Text) == "" {
		return &InvocationError{Field: "message", Reason: "must be set"}
	}

	channel := msg.Channel
	if channel == "" {
		channel = c.cfg.Channel
	}
	username := msg.Username
	if username == "" {
		username = c.cfg.Username
	}

	parameters := map[string]string{}
	if channel != "" {
		parameters["channel"] = channel
	}
	if username != "" {
		parameters["username"] = username
	}
	parameters["text"] = "```" + msg.Text + "```"

	encoded, err := json.Marshal(parameters)
	if err != nil {
		return err
	}
	body := "payload=" + url.QueryEscape(string(encoded))

	endpoint := strings.TrimSuffix(c.cfg.APIURL, "/") + "/hooks/" + c.cfg.Hook
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("webhook status %d: %s", resp.StatusCode, string(snippet))
	}
	return nil
}
