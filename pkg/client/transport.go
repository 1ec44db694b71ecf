package client

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/proxy"
)

// DefaultTimeout is the default HTTP client timeout.
const DefaultTimeout = 30 * time.Second

// TransportOptions configures the HTTP client used by a Server.
type TransportOptions struct {
	// Timeout for a whole request, including reading the body (default: 30s)
	Timeout time.Duration

	// ProxyURL routes requests through a proxy. Supported schemes are
	// http, https and socks5. Empty means the environment's proxy settings.
	ProxyURL string
}

// NewHTTPClient builds an HTTP client with optional proxy support.
func NewHTTPClient(opts TransportOptions) (*http.Client, error) {
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if opts.ProxyURL != "" {
		if err := configureProxy(transport, opts.ProxyURL); err != nil {
			return nil, fmt.Errorf("configure proxy: %w", err)
		}
	}

	return &http.Client{
		Timeout:   opts.Timeout,
		Transport: transport,
	}, nil
}

func configureProxy(transport *http.Transport, rawURL string) error {
	proxyURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse proxy URL: %w", err)
	}

	switch proxyURL.Scheme {
	case "http", "https":
		transport.Proxy = http.ProxyURL(proxyURL)
		return nil
	case "socks5":
		return configureSocks5Proxy(transport, proxyURL)
	default:
		return fmt.Errorf("unsupported proxy scheme %q", proxyURL.Scheme)
	}
}

// configureSocks5Proxy replaces the transport dialer with a SOCKS5 dialer.
func configureSocks5Proxy(transport *http.Transport, proxyURL *url.URL) error {
	var auth *proxy.Auth
	if proxyURL.User != nil {
		password, _ := proxyURL.User.Password()
		auth = &proxy.Auth{
			User:     proxyURL.User.Username(),
			Password: password,
		}
	}

	dialer, err := proxy.SOCKS5("tcp", proxyURL.Host, auth, proxy.Direct)
	if err != nil {
		return fmt.Errorf("create SOCKS5 dialer: %w", err)
	}

	transport.Proxy = nil
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		transport.DialContext = cd.DialContext
	} else {
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	}

	return nil
}
