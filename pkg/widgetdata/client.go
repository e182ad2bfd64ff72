package widgetdata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/goliatone/go-portal/components/portal"
)

// Client fetches widget payloads from the HR/finance backends.
type Client interface {
	FetchWidget(ctx context.Context, req Request) (portal.WidgetData, error)
}

// Request identifies the widget and viewer a payload is for.
type Request struct {
	WidgetID string            `json:"widget_id"`
	Size     portal.WidgetSize `json:"size"`
	Role     portal.Role       `json:"role"`
	UserID   string            `json:"user_id,omitempty"`
	TenantID string            `json:"tenant_id,omitempty"`
	Locale   string            `json:"locale,omitempty"`
}

// HTTPConfig configures the HTTP widget data client.
type HTTPConfig struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// HTTPClient talks to a remote widget data API via REST endpoints.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPClient builds a client capable of hitting live widget data APIs.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("widgetdata: base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  httpClient,
	}, nil
}

// FetchWidget implements Client by calling POST /widgets/{id}/data.
func (c *HTTPClient) FetchWidget(ctx context.Context, req Request) (portal.WidgetData, error) {
	var resp widgetResponse
	if err := c.do(ctx, http.MethodPost, "/widgets/"+url.PathEscape(req.WidgetID)+"/data", req, &resp); err != nil {
		return nil, err
	}
	return resp.toData(), nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload any, target any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("widgetdata: encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("widgetdata: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("widgetdata: http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return fmt.Errorf("widgetdata: remote error %d: %s", resp.StatusCode, buf.String())
	}
	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("widgetdata: decode response: %w", err)
	}
	return nil
}

type widgetResponse struct {
	Title     string         `json:"title,omitempty"`
	Data      map[string]any `json:"data"`
	UpdatedAt string         `json:"updated_at,omitempty"`
}

func (r widgetResponse) toData() portal.WidgetData {
	out := make(portal.WidgetData, len(r.Data)+2)
	for k, v := range r.Data {
		out[k] = v
	}
	if r.Title != "" {
		out["title"] = r.Title
	}
	if r.UpdatedAt != "" {
		out["updated_at"] = r.UpdatedAt
	}
	return out
}
