// Package client provides low-level HTTP access to the Clockify API: request
// construction, response interpretation and the error taxonomy.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/clockify-client/pkg/logging"
	"github.com/Sternrassler/clockify-client/pkg/pagination"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// DefaultBaseURL is the public Clockify API v1 endpoint.
	DefaultBaseURL = "https://api.clockify.me/api/v1"

	// DefaultUserAgent identifies this library to the API.
	DefaultUserAgent = "clockify-client-go/0.1.0"

	headerAPIKey      = "X-Api-Key"
	headerContentType = "Content-Type"
	contentTypeJSON   = "application/json"
)

// ServerConfig holds the configuration of a Server.
type ServerConfig struct {
	// BaseURL of the API, e.g. "https://api.clockify.me/api/v1" (REQUIRED)
	BaseURL string

	// User-Agent header sent with every request
	UserAgent string

	// Transport settings, ignored when HTTPClient is set
	Timeout  time.Duration
	ProxyURL string

	// HTTPClient replaces the client built from Timeout and ProxyURL
	HTTPClient *http.Client
}

// DefaultServerConfig returns a configuration for the given base URL.
func DefaultServerConfig(baseURL string) ServerConfig {
	return ServerConfig{
		BaseURL:   baseURL,
		UserAgent: DefaultUserAgent,
		Timeout:   DefaultTimeout,
	}
}

// Server performs HTTP requests against one Clockify API and returns decoded
// JSON or typed errors. Requests are never retried.
type Server struct {
	baseURL    string
	httpClient *http.Client
	config     ServerConfig
	logger     zerolog.Logger
}

// NewServer creates a new Server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.BaseURL == "" {
		return nil, ErrMissingBaseURL
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url must be absolute (got %q)", cfg.BaseURL)
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient, err = NewHTTPClient(TransportOptions{
			Timeout:  cfg.Timeout,
			ProxyURL: cfg.ProxyURL,
		})
		if err != nil {
			return nil, err
		}
	}

	return &Server{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		config:     cfg,
		logger:     logging.NewLogger("clockify-client"),
	}, nil
}

// BaseURL returns the API base URL without trailing slash.
func (s *Server) BaseURL() string {
	return s.baseURL
}

// Get performs a GET request. params are sent as query parameters.
func (s *Server) Get(ctx context.Context, path, apiKey string, params url.Values) (any, error) {
	return s.do(ctx, http.MethodGet, path, apiKey, params, nil)
}

// Post sends data as a JSON body with POST.
func (s *Server) Post(ctx context.Context, path, apiKey string, data any) (any, error) {
	return s.do(ctx, http.MethodPost, path, apiKey, nil, data)
}

// Put sends data as a JSON body with PUT.
func (s *Server) Put(ctx context.Context, path, apiKey string, data any) (any, error) {
	return s.do(ctx, http.MethodPut, path, apiKey, nil, data)
}

// Patch sends data as a JSON body with PATCH.
func (s *Server) Patch(ctx context.Context, path, apiKey string, data any) (any, error) {
	return s.do(ctx, http.MethodPatch, path, apiKey, nil, data)
}

// Iterator returns a lazy iterator over the records of a paged list endpoint.
// No request is made until the first call to Next.
func (s *Server) Iterator(path, apiKey string, params url.Values, opts ...pagination.Option) *pagination.Iterator[any] {
	fetch := func(ctx context.Context, pageParams url.Values) ([]any, error) {
		v, err := s.Get(ctx, path, apiKey, pageParams)
		if err != nil {
			return nil, err
		}
		return AsList(v)
	}
	return pagination.New(fetch, params, opts...)
}

// do executes one request and interprets the response.
func (s *Server) do(ctx context.Context, method, path, apiKey string, params url.Values, data any) (any, error) {
	requestURL := s.baseURL + path
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}

	var body io.Reader
	if data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set(headerAPIKey, apiKey)
	req.Header.Set(headerContentType, contentTypeJSON)
	req.Header.Set("Accept", contentTypeJSON)
	req.Header.Set("User-Agent", s.config.UserAgent)

	requestID := uuid.NewString()
	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(method).Observe(time.Since(startTime).Seconds())
	}()

	s.logger.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Msg("Executing Clockify request")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, s.fail(requestID, method, path, "network_error",
			&ConnectionError{Method: method, URL: s.baseURL + path, Err: err})
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, s.fail(requestID, method, path, "network_error",
			&ConnectionError{Method: method, URL: s.baseURL + path, Err: fmt.Errorf("read body: %w", err)})
	}

	status := strconv.Itoa(resp.StatusCode)
	v, err := Interpret(resp.StatusCode, raw)
	if err != nil {
		return nil, s.fail(requestID, method, path, status, err)
	}

	requestsTotal.WithLabelValues(method, status).Inc()
	s.logger.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(startTime)).
		Msg("Clockify request completed")

	return v, nil
}

// fail records metrics and logs for a failed request and returns err.
func (s *Server) fail(requestID, method, path, status string, err error) error {
	class := Classify(err)
	requestsTotal.WithLabelValues(method, status).Inc()
	errorsTotal.WithLabelValues(string(class)).Inc()

	event := s.logger.Warn()
	if class == ErrorClassNotFound {
		event = s.logger.Debug()
	}
	event.
		Err(err).
		Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Str("status", status).
		Str("error_class", string(class)).
		Msg("Clockify request failed")

	return err
}
