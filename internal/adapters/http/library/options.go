package library

import (
	"net/http"
	"time"

	"github.com/jackskhakis/gameyfin/pkg/logger"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL sets the origin of the backend, e.g. "http://localhost:8080".
func WithBaseURL(raw string) Option {
	return func(c *Client) {
		c.rawBaseURL = raw
	}
}

// WithAPIPath sets the base path of the library endpoints. Defaults to /library.
func WithAPIPath(path string) Option {
	return func(c *Client) {
		if path != "" {
			c.apiPath = path
		}
	}
}

// WithTimeout bounds each call. Ignored when WithHTTPClient is used.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger used for call and wire logging.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithWireLog dumps full requests and responses at debug level.
func WithWireLog(enabled bool) Option {
	return func(c *Client) {
		c.wireLog = enabled
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}
