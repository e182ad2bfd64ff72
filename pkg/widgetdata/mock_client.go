package widgetdata

import (
	"context"
	"maps"
	"sync"

	"github.com/goliatone/go-portal/components/portal"
)

// MockClient implements Client using in-memory fixtures keyed by widget id.
type MockClient struct {
	mu    sync.RWMutex
	data  map[string]portal.WidgetData
	calls []Request
}

// NewMockClient builds a mock client from the provided fixtures.
func NewMockClient(data map[string]portal.WidgetData) *MockClient {
	return &MockClient{data: data}
}

// FetchWidget returns a copy of the fixture for the widget, or an empty payload.
func (c *MockClient) FetchWidget(_ context.Context, req Request) (portal.WidgetData, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, req)
	return maps.Clone(c.data[req.WidgetID]), nil
}

// Calls returns the requests seen so far.
func (c *MockClient) Calls() []Request {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Request(nil), c.calls...)
}
