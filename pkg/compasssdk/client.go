package compasssdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultAPIPrefix is where the API routes are mounted.
const DefaultAPIPrefix = "/api"

// Client calls the unauthenticated endpoints and opens Sessions.
type Client struct {
	BaseURL    string
	APIPrefix  string
	HTTPClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:   strings.TrimSuffix(baseURL, "/"),
		APIPrefix: DefaultAPIPrefix,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Register creates an account and returns a Session for it.
func (c *Client) Register(ctx context.Context, email, password string) (*Session, error) {
	return c.authenticate(ctx, "/auth/register", http.StatusCreated, email, password)
}

// Login returns a Session for an existing account.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	return c.authenticate(ctx, "/auth/login", http.StatusOK, email, password)
}

func (c *Client) authenticate(ctx context.Context, path string, status int, email, password string) (*Session, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, c.apiPath(path), "", Credentials{Email: email, Password: password}, &out, status); err != nil {
		return nil, err
	}
	return &Session{client: c, token: out.Token, User: out.User}, nil
}

// NewSession wraps a token obtained elsewhere.
func (c *Client) NewSession(token string) *Session {
	return &Session{client: c, token: token}
}

// GetInvite fetches the snapshot behind an invite token.
func (c *Client) GetInvite(ctx context.Context, token string) (*InviteSnapshot, error) {
	var out InviteSnapshot
	if err := c.do(ctx, http.MethodGet, c.invitePath(token), "", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateInvite applies a sparse update through an invite token.
func (c *Client) UpdateInvite(ctx context.Context, token string, req UpdateInviteRequest) error {
	var out OKResponse
	return c.do(ctx, http.MethodPatch, c.invitePath(token), "", req, &out, http.StatusOK)
}

func (c *Client) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.do(ctx, http.MethodGet, "/livez", "", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.do(ctx, http.MethodGet, "/readyz", "", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) apiPath(p string) string {
	return c.APIPrefix + p
}

func (c *Client) invitePath(token string) string {
	return c.apiPath("/invite/" + url.PathEscape(token))
}

// do sends body as JSON (when non-nil) and decodes the expected response
// into out. Any other status is returned as *APIError.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any, expectedStatus int) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != expectedStatus {
		return parseErrorResponse(resp, respBody)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
