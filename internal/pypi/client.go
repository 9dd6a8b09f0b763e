// Package pypi performs the single read-only metadata lookup against the
// Python Package Index JSON API.
package pypi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultHost    = "pypi.org"
	DefaultTimeout = time.Second
)

// The scheme is fixed; only the host may change.
const scheme = "https"

// Error variables for specific error conditions.
var (
	ErrNetworkFailure  = fmt.Errorf("network request failed")
	ErrNotFound        = fmt.Errorf("package not found on registry")
	ErrInvalidResponse = fmt.Errorf("invalid registry response")
)

// ProjectInfo is the "info" object of the JSON API response.
type ProjectInfo struct {
	Name           string `json:"name"`
	Version        string `json:"version"`
	Summary        string `json:"summary"`
	HomePage       string `json:"home_page"`
	ProjectURL     string `json:"project_url"`
	RequiresPython string `json:"requires_python"`
	Yanked         bool   `json:"yanked"`
}

// Project is the subset of https://pypi.org/pypi/{name}/json we read.
type Project struct {
	Info ProjectInfo `json:"info"`
}

// Client queries the registry.
type Client struct {
	host       string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithHost points the client at a mirror. The host must not carry a scheme.
func WithHost(host string) ClientOption {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(host); trimmed != "" {
			c.host = trimmed
		}
	}
}

// NewClient creates a registry client with a 1 second timeout.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		host: DefaultHost,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient.CheckRedirect == nil {
		c.httpClient.CheckRedirect = httpsOnlyRedirect
	}
	return c
}

// ProjectURL returns the metadata endpoint for name.
func (c *Client) ProjectURL(name string) string {
	u := url.URL{
		Scheme: scheme,
		Host:   c.host,
		Path:   "/pypi/" + name + "/json",
	}
	return u.String()
}

// Project fetches the project metadata for name.
func (c *Client) Project(ctx context.Context, name string) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("package name is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ProjectURL(name), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if req.URL.Scheme != scheme {
		return nil, fmt.Errorf("%w: refusing scheme %q", ErrNetworkFailure, req.URL.Scheme)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "pypi-latest")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrNetworkFailure, resp.StatusCode)
	}

	var project Project
	if err := json.NewDecoder(resp.Body).Decode(&project); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrInvalidResponse, err)
	}
	return &project, nil
}

// LatestVersion returns info.version for name.
func (c *Client) LatestVersion(ctx context.Context, name string) (string, error) {
	project, err := c.Project(ctx, name)
	if err != nil {
		return "", err
	}
	version := strings.TrimSpace(project.Info.Version)
	if version == "" {
		return "", fmt.Errorf("%w: missing info.version", ErrInvalidResponse)
	}
	return version, nil
}

func httpsOnlyRedirect(req *http.Request, via []*http.Request) error {
	if req.URL.Scheme != scheme {
		return fmt.Errorf("refusing redirect to %s", req.URL.Redacted())
	}
	if len(via) >= 10 {
		return fmt.Errorf("stopped after 10 redirects")
	}
	return nil
}
