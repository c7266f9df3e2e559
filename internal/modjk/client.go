// Package modjk controls mod_jk load balancer workers through the Apache
// status worker's property interface.
package modjk

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

// ErrWorkerNotFound is returned when a worker is absent from the running
// configuration.
var ErrWorkerNotFound = errors.New("modjk: worker not found")

// ValidationError reports a client setting or argument that failed
// validation before any request was made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// CommandError reports a command the status worker did not accept.
type CommandError struct {
	Type    string
	Message string
}

func (e *CommandError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("modjk: command failed with %s: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("modjk: command failed with %s", e.Type)
}

// Config holds the connection settings of one status worker endpoint.
type Config struct {
	URL      string        `mapstructure:"url"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"pass"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (c Config) Validate() error {
	if c.URL == "" {
		return &ValidationError{Field: "url", Reason: "must not be empty"}
	}
	if _, err := url.Parse(c.URL); err != nil {
		return &ValidationError{Field: "url", Reason: err.Error()}
	}
	return nil
}

// Client issues status worker commands against one balancer endpoint.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient builds a client for the given endpoint.
func NewClient(cfg Config) (*Client, error) {
	return NewClientWithHTTPClient(cfg, &http.Client{})
}

// NewClientWithHTTPClient builds a client on top of a caller-supplied HTTP
// client. The passed client is not mutated.
func NewClientWithHTTPClient(cfg Config, httpClient *http.Client) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	clone := *httpClient
	clone.Timeout = cfg.Timeout
	return &Client{cfg: cfg, http: &clone}, nil
}

// Properties is the flat key=value document the status worker emits in prop
// mime mode. Repeated keys are comma-joined in document order.
type Properties map[string]string

func (p Properties) get(key string) (string, bool) {
	v, ok := p[key]
	return v, ok
}

func (c *Client) do(ctx context.Context, params url.Values) (Properties, error) {
	params.Set("mime", "prop")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build status request: %w", err)
	}
	if c.cfg.User != "" && c.cfg.Password != "" {
		req.SetBasicAuth(c.cfg.User, c.cfg.Password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query status worker: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("status worker returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return parseProperties(resp.Body)
}

// command runs a state-changing command and checks the reported result type.
func (c *Client) command(ctx context.Context, params url.Values) error {
	props, err := c.do(ctx, params)
	if err != nil {
		return err
	}
	if typ, _ := props.get("worker.result.type"); typ != "OK" {
		msg, _ := props.get("worker.result.message")
		return &CommandError{Type: typ, Message: msg}
	}
	return nil
}

func parseProperties(r io.Reader) (Properties, error) {
	props := Properties{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		if existing, ok := props[key]; ok {
			props[key] = existing + "," + value
		} else {
			props[key] = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read status response: %w", err)
	}
	return props, nil
}
