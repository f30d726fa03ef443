package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"boardview/internal/core"
	ports "boardview/internal/trello"
)

// DefaultBaseURL is the public REST endpoint of the board API.
const DefaultBaseURL = "https://api.trello.com/1"

// maxErrorBody caps how much of an error response is kept for diagnostics.
const maxErrorBody = 512

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	token      string
	boardID    string
}

// Ensure interface conformance
var _ ports.BoardReader = (*Client)(nil)

// Config holds the credentials and endpoint for a Client.
type Config struct {
	BaseURL string
	APIKey  string
	// APISecret is accepted for parity with the OAuth credential set but is
	// not needed for key+token authenticated reads.
	APISecret  string
	Token      string
	BoardID    string
	HTTPClient *http.Client
}

// Error is returned for non-2xx responses.
type Error struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("board api %s: status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// NotFound reports whether the API answered 404 (unknown board or bad id).
func (e *Error) NotFound() bool { return e.StatusCode == http.StatusNotFound }

// Unauthorized reports whether the credentials were rejected.
func (e *Error) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// New validates the configuration and returns a ready Client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("missing API key")
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("missing API token")
	}
	if strings.TrimSpace(cfg.BoardID) == "" {
		return nil, core.ErrEmptyBoardID
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", base, err)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = newHTTPClientWithPooling()
	}
	return &Client{
		httpClient: hc,
		baseURL:    base,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		token:      strings.TrimSpace(cfg.Token),
		boardID:    strings.TrimSpace(cfg.BoardID),
	}, nil
}

// NewFromEnv creates a client from API_KEY, API_SECRET, TOKEN and BOARD_ID.
// TRELLO_BASE_URL overrides the endpoint.
func NewFromEnv() (*Client, error) {
	return New(Config{
		BaseURL:   os.Getenv("TRELLO_BASE_URL"),
		APIKey:    os.Getenv("API_KEY"),
		APISecret: os.Getenv("API_SECRET"),
		Token:     os.Getenv("TOKEN"),
		BoardID:   os.Getenv("BOARD_ID"),
	})
}

// newHTTPClientWithPooling creates an HTTP client with connection pooling
// and bounded timeouts for the board API.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 20 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   30 * time.Second,
	}
}

func (c *Client) BoardID() string { return c.boardID }

func (c *Client) Labels(ctx context.Context) ([]core.Label, error) {
	var out []core.Label
	q := url.Values{"fields": {"name,color"}, "limit": {"1000"}}
	if err := c.get(ctx, "labels", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Cards returns the open cards of the board with their labels and custom field values.
func (c *Client) Cards(ctx context.Context) ([]core.Card, error) {
	var out []core.Card
	q := url.Values{"customFieldItems": {"true"}}
	if err := c.get(ctx, "cards", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Lists(ctx context.Context) ([]core.List, error) {
	var out []core.List
	q := url.Values{"filter": {"open"}}
	if err := c.get(ctx, "lists", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Members(ctx context.Context) ([]core.Member, error) {
	var out []core.Member
	q := url.Values{"fields": {"fullName,username,initials"}}
	if err := c.get(ctx, "members", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CustomFields(ctx context.Context) ([]core.CustomField, error) {
	var out []core.CustomField
	if err := c.get(ctx, "customFields", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) authorization() string {
	return fmt.Sprintf(`OAuth oauth_consumer_key="%s", oauth_token="%s"`, c.apiKey, c.token)
}

// get issues GET /boards/{id}/{resource} and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, resource string, query url.Values, out any) error {
	endpoint := fmt.Sprintf("boards/%s/%s", url.PathEscape(c.boardID), resource)

	target := c.baseURL + "/" + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	// credentials stay out of the URL so they never show up in *url.Error
	req.Header.Set("Authorization", c.authorization())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	slog.DebugContext(ctx, "Board API call",
		"endpoint", endpoint,
		"status_code", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &Error{
			StatusCode: resp.StatusCode,
			Endpoint:   endpoint,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}
