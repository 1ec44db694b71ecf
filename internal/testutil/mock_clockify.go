// Package testutil provides testing utilities for the Clockify client.
package testutil

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
)

// MockResponse defines the behavior for a mock Clockify endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
}

// RecordedRequest is a request received by the mock server.
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// MockClockify is a configurable mock Clockify API server for testing.
// Handlers are keyed by method and path; a handler registered with an empty
// method serves every method.
type MockClockify struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	requests []RecordedRequest
}

// NewMockClockify creates and starts a new mock Clockify server.
func NewMockClockify() *MockClockify {
	mock := &MockClockify{
		handlers: make(map[string]http.HandlerFunc),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		mock.mu.Lock()
		mock.requests = append(mock.requests, RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   body,
		})
		handler, exists := mock.handlers[r.Method+" "+r.URL.Path]
		if !exists {
			handler, exists = mock.handlers[" "+r.URL.Path]
		}
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}
		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockClockify) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockClockify) Close() {
	m.server.Close()
}

// Reset clears recorded requests. Handlers are kept.
func (m *MockClockify) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
}

// SetHandler sets a custom handler for method and path. An empty method
// matches any method.
func (m *MockClockify) SetHandler(method, path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[method+" "+path] = handler
}

// SetResponse configures a fixed response for method and path.
func (m *MockClockify) SetResponse(method, path string, resp MockResponse) {
	m.SetHandler(method, path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetPagedResponse serves items, each a raw JSON value, from a paged GET
// endpoint honouring the "page" and "page-size" query parameters.
func (m *MockClockify) SetPagedResponse(path string, items []string) {
	m.SetHandler(http.MethodGet, path, NewPagedHandler(items))
}

// Requests returns a copy of all recorded requests.
func (m *MockClockify) Requests() []RecordedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RecordedRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// LastRequest returns the most recent request, or false if none was made.
func (m *MockClockify) LastRequest() (RecordedRequest, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.requests) == 0 {
		return RecordedRequest{}, false
	}
	return m.requests[len(m.requests)-1], true
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockClockify) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// GetPathCount returns the number of requests made to path with any method.
func (m *MockClockify) GetPathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, r := range m.requests {
		if r.Path == path {
			n++
		}
	}
	return n
}

// defaultHandler answers unknown routes with a Clockify error body.
func (m *MockClockify) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotImplemented)
	fmt.Fprintf(w, `{"message":"no mock handler for %s %s","code":501}`, r.Method, r.URL.Path)
}

// NewPagedHandler returns a handler serving items page by page. Pages are
// 1-based; the default page size is 50.
func NewPagedHandler(items []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := queryInt(r.URL.Query(), "page", 1)
		size := queryInt(r.URL.Query(), "page-size", 50)
		if page < 1 || size < 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"message":"invalid paging parameters","code":400}`))
			return
		}

		start := (page - 1) * size
		if start > len(items) {
			start = len(items)
		}
		end := start + size
		if end > len(items) {
			end = len(items)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("[" + strings.Join(items[start:end], ",") + "]"))
	}
}

func queryInt(q url.Values, key string, def int) int {
	v := q.Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return n
}

// NewJSONResponse creates a response with the given status and JSON body.
func NewJSONResponse(statusCode int, body string) MockResponse {
	return MockResponse{StatusCode: statusCode, Body: body}
}

// NewErrorResponse creates a Clockify error response.
func NewErrorResponse(statusCode, code int, message string) MockResponse {
	return MockResponse{
		StatusCode: statusCode,
		Body:       fmt.Sprintf(`{"message":%q,"code":%d}`, message, code),
	}
}

// NewAuthErrorResponse creates the 401 returned for a missing or invalid API
// key. It carries "description" instead of "message".
func NewAuthErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusUnauthorized,
		Body:       `{"description":"Full authentication is required to access this resource","code":1000}`,
	}
}

// NewNoRunningEntryResponse creates the 404 returned when stopping a timer
// that is not running.
func NewNoRunningEntryResponse(workspaceID, userID string) MockResponse {
	return NewErrorResponse(http.StatusNotFound, 404,
		fmt.Sprintf("Currently running time entry doesn't exist on workspace %s for user %s.", workspaceID, userID))
}

// NumberedItems returns n JSON objects {"id":"<prefix><i>","name":"<prefix> <i>"}
// for use with SetPagedResponse.
func NumberedItems(prefix string, n int) []string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf(`{"id":"%s%d","name":"%s %d"}`, prefix, i, prefix, i)
	}
	return items
}
