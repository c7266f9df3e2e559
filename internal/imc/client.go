package imc

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	defaultTimeout   = 15 * time.Second
	maxRetryAttempts = 3
)

// Config holds the connection settings for one management controller.
type Config struct {
	// Host is the controller address, with or without scheme. Plain hosts
	// default to https.
	Host      string        `mapstructure:"host"`
	Username  string        `mapstructure:"username"`
	Password  string        `mapstructure:"password"`
	VerifyTLS bool          `mapstructure:"verify_tls"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// Validate reports missing connection settings before any request is made.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return invalidArg("host", "must be set")
	}
	if c.Username == "" {
		return invalidArg("username", "must be set")
	}
	if c.Password == "" {
		return invalidArg("password", "must be set")
	}
	return nil
}

func (c Config) endpoint() string {
	host := strings.TrimSuffix(c.Host, "/")
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	return host + "/nuova"
}

// Client speaks the controller's XML API: one POST endpoint, documents
// dispatched by their root element. A session cookie is obtained lazily and
// reused across calls.
type Client struct {
	cfg        Config
	httpClient *http.Client

	mu     sync.Mutex
	cookie string
}

func NewClient(cfg Config) (*Client, error) {
	return NewClientWithHTTPClient(cfg, nil)
}

func NewClientWithHTTPClient(cfg Config, httpClient *http.Client) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	} else {
		clone := *httpClient
		httpClient = &clone
	}
	if httpClient.Timeout == 0 {
		httpClient.Timeout = defaultTimeout
	}
	if httpClient.Transport == nil && !cfg.VerifyTLS {
		var transport *http.Transport
		if defaultTransport, ok := http.DefaultTransport.(*http.Transport); ok {
			transport = defaultTransport.Clone()
		} else {
			transport = &http.Transport{}
		}
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		httpClient.Transport = transport
	}
	return &Client{cfg: cfg, httpClient: httpClient}, nil
}

// ResolveClass fetches every managed object of the given class.
func (c *Client) ResolveClass(ctx context.Context, class string, hierarchical bool) (*Response, error) {
	if class == "" {
		return nil, invalidArg("class", "must be set")
	}
	cookie, err := c.session(ctx)
	if err != nil {
		return nil, err
	}
	body := fmt.Sprintf(`<configResolveClass cookie="%s" inHierarchical="%s" classId="%s"/>`,
		cookie, boolAttr(hierarchical), class)
	return c.post(ctx, body)
}

// ModifyConfig posts a config-modify document against the object at dn. The
// inner config is passed through verbatim; callers own the payload shape.
func (c *Client) ModifyConfig(ctx context.Context, dn, inConfig string) (*Response, error) {
	if dn == "" {
		return nil, invalidArg("dn", "must be set")
	}
	if strings.TrimSpace(inConfig) == "" {
		return nil, invalidArg("inConfig", "must be set")
	}
	cookie, err := c.session(ctx)
	if err != nil {
		return nil, err
	}
	body := fmt.Sprintf(`<configConfMo dn="%s" cookie="%s" inHierarchical="false"><inConfig>%s</inConfig></configConfMo>`,
		dn, cookie, inConfig)
	return c.post(ctx, body)
}

// Logout releases the session cookie, if one was established.
func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	cookie := c.cookie
	c.cookie = ""
	c.mu.Unlock()
	if cookie == "" {
		return nil
	}
	_, err := c.post(ctx, fmt.Sprintf(`<aaaLogout inCookie="%s"/>`, cookie))
	return err
}

func (c *Client) session(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cookie != "" {
		return c.cookie, nil
	}
	resp, err := c.post(ctx, fmt.Sprintf(`<aaaLogin inName="%s" inPassword="%s"/>`, c.cfg.Username, c.cfg.Password))
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if resp.Cookie == "" {
		return "", fmt.Errorf("login: no session cookie in response")
	}
	c.cookie = resp.Cookie
	return c.cookie, nil
}

func (c *Client) post(ctx context.Context, body string) (*Response, error) {
	var lastErr error
	for attempt := 1; attempt <= maxRetryAttempts; attempt++ {
		resp, err := c.doPost(ctx, body)
		if err == nil {
			return resp, nil
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return nil, err
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * 400 * time.Millisecond):
		}
	}
	return nil, fmt.Errorf("imc request failed for %s: %w", c.cfg.Host, lastErr)
}

func (c *Client) doPost(ctx context.Context, body string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.endpoint(), strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(snippet))
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	return parseResponse(data)
}

func boolAttr(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
