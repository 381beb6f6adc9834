package smartpermitsdk

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

// Client is a minimal SmartPermit HTTP API client.
type Client struct {
	BaseURL     string
	APIKey      string
	BearerToken string
	// ActorID and Role fill the legacy development headers when no token or
	// API key is set.
	ActorID    string
	Role       string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// JMT represents the API safety-analysis model (partial).
type JMT struct {
	ID          string   `json:"id"`
	SiteID      string   `json:"site_id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Zone        string   `json:"zone,omitempty"`
	Type        string   `json:"type"`
	Status      string   `json:"status"`
	RiskLevel   string   `json:"risk_level"`
	Deadline    string   `json:"deadline,omitempty"`
	Supervisor  *string  `json:"supervisor,omitempty"`
	Director    *string  `json:"director,omitempty"`
	Comments    *string  `json:"comments,omitempty"`
	RequiredPPE []string `json:"required_ppe,omitempty"`
}

// Permit represents the API height-work permit model (partial).
type Permit struct {
	ID     string  `json:"id"`
	SiteID string  `json:"site_id"`
	JMTID  *string `json:"jmt_id,omitempty"`
	Number string  `json:"number"`
	Place  string  `json:"place,omitempty"`
	Date   string  `json:"date,omitempty"`
	Status string  `json:"status"`
}

// PermitDraft is a permit pre-filled from an approved JMT.
type PermitDraft struct {
	JMTID       string `json:"jmt_id"`
	Place       string `json:"place,omitempty"`
	Date        string `json:"date,omitempty"`
	Description string `json:"description,omitempty"`
	Responsible string `json:"responsible,omitempty"`
}

// Notification represents a feed entry.
type Notification struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Title     string `json:"title"`
	Message   string `json:"message,omitempty"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"created_at"`
}

// Detection is the height-work auto-detection result.
type Detection struct {
	WorkingAtHeight  bool     `json:"working_at_height"`
	SuggestedPermits []string `json:"suggested_permits,omitempty"`
}

// Event represents a log entry.
type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts"`
	Type       string `json:"type"`
	SiteID     string `json:"site_id"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id"`
	ActorID    string `json:"actor_id"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// CreateJMT creates a pending safety analysis.
func (c *Client) CreateJMT(ctx context.Context, body map[string]any) (JMT, error) {
	var resp JMT
	err := c.do(ctx, http.MethodPost, "v0/jmts", body, &resp)
	return resp, err
}

// ListJMTs lists analyses visible to the caller's role. view is "main" or
// "validation"; query filters on title, description and zone.
func (c *Client) ListJMTs(ctx context.Context, view, status, query string) ([]JMT, error) {
	q := url.Values{}
	if view != "" {
		q.Set("view", view)
	}
	if status != "" {
		q.Set("status", status)
	}
	if query != "" {
		q.Set("q", query)
	}
	endpoint := "v0/jmts"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp []JMT
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// GetJMT fetches a single analysis.
func (c *Client) GetJMT(ctx context.Context, id string) (JMT, error) {
	var resp JMT
	err := c.do(ctx, http.MethodGet, "v0/jmts/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// ApproveJMT approves as the caller's role. comments are optional.
func (c *Client) ApproveJMT(ctx context.Context, id, comments string) (JMT, error) {
	var resp JMT
	endpoint := fmt.Sprintf("v0/jmts/%s/approve", url.PathEscape(id))
	err := c.do(ctx, http.MethodPost, endpoint, map[string]any{"comments": comments}, &resp)
	return resp, err
}

// RejectJMT rejects as the caller's role. The server refuses an empty comment.
func (c *Client) RejectJMT(ctx context.Context, id, comments string) (JMT, error) {
	var resp JMT
	endpoint := fmt.Sprintf("v0/jmts/%s/reject", url.PathEscape(id))
	err := c.do(ctx, http.MethodPost, endpoint, map[string]any{"comments": comments}, &resp)
	return resp, err
}

// PermitDraft returns a permit pre-filled from a JMT.
func (c *Client) PermitDraft(ctx context.Context, jmtID string) (PermitDraft, error) {
	var resp PermitDraft
	endpoint := fmt.Sprintf("v0/jmts/%s/permit-draft", url.PathEscape(jmtID))
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// CreatePermit creates a height-work permit.
func (c *Client) CreatePermit(ctx context.Context, body map[string]any) (Permit, error) {
	var resp Permit
	err := c.do(ctx, http.MethodPost, "v0/permits", body, &resp)
	return resp, err
}

// ApprovePermit approves a permit as the caller's role.
func (c *Client) ApprovePermit(ctx context.Context, id, comments string) (Permit, error) {
	var resp Permit
	endpoint := fmt.Sprintf("v0/permits/%s/approve", url.PathEscape(id))
	err := c.do(ctx, http.MethodPost, endpoint, map[string]any{"comments": comments}, &resp)
	return resp, err
}

// Notifications lists feed entries, optionally unread only.
func (c *Client) Notifications(ctx context.Context, unreadOnly bool) ([]Notification, error) {
	endpoint := "v0/notifications"
	if unreadOnly {
		endpoint += "?unread=true"
	}
	var resp []Notification
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// MarkNotificationRead marks a notification read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	endpoint := fmt.Sprintf("v0/notifications/%s/read", url.PathEscape(id))
	return c.do(ctx, http.MethodPost, endpoint, nil, nil)
}

// Catalog returns the values of one catalog.
func (c *Client) Catalog(ctx context.Context, kind string) ([]string, error) {
	var resp []string
	err := c.do(ctx, http.MethodGet, "v0/catalogs/"+url.PathEscape(kind), nil, &resp)
	return resp, err
}

// AddCatalogValue appends a value to a catalog. Case-insensitive duplicates
// are silently ignored by the server.
func (c *Client) AddCatalogValue(ctx context.Context, kind, value string) error {
	endpoint := fmt.Sprintf("v0/catalogs/%s/values", url.PathEscape(kind))
	return c.do(ctx, http.MethodPost, endpoint, map[string]any{"value": value}, nil)
}

// Detect runs height-work detection for a draft.
func (c *Client) Detect(ctx context.Context, workType string, envHazards []string) (Detection, error) {
	var resp Detection
	err := c.do(ctx, http.MethodPost, "v0/detect", map[string]any{
		"type":        workType,
		"env_hazards": envHazards,
	}, &resp)
	return resp, err
}

// Events returns recent events, newest first.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	endpoint := "v0/events"
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var resp []Event
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// DevLogin obtains a bearer token from the development login endpoint and
// stores it on the client.
func (c *Client) DevLogin(ctx context.Context, actorID, role string) error {
	var resp map[string]string
	err := c.do(ctx, http.MethodPost, "v0/auth/dev/login", map[string]any{
		"actor_id": actorID,
		"role":     role,
	}, &resp)
	if err != nil {
		return err
	}
	c.BearerToken = resp["token"]
	return nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	case c.ActorID != "":
		req.Header.Set("X-Actor-Id", c.ActorID)
		if c.Role != "" {
			req.Header.Set("X-Role", c.Role)
		}
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
