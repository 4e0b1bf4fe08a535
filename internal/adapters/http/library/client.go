// Package library is the HTTP client for the backend library API.
//
// Every call is a single GET with no retry, backoff or caching. Transport
// failures and non-2xx statuses are returned to the caller as errors; the
// body of a successful scan or image download is not interpreted.
package library

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/jackskhakis/gameyfin/pkg/logger"
	"github.com/jackskhakis/gameyfin/pkg/metrics"
)

// Operation names, also used as metric labels.
const (
	OpScan           = "scan"
	OpDownloadImages = "download-images"
	OpListFiles      = "files"
)

const (
	// DefaultAPIPath is the base path of the library endpoints.
	DefaultAPIPath = "/library"

	// HeaderRequestID carries the per-call correlation id.
	HeaderRequestID = "X-Request-ID"

	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "gameyfin-web"
	wireBodyLimit    = 4096
)

// Response is the raw envelope of a backend answer.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
	RequestID  string
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

// Client forwards library operations to the backend. It is safe for concurrent use.
type Client struct {
	rawBaseURL string
	baseURL    *url.URL
	apiPath    string
	timeout    time.Duration
	http       *http.Client
	logger     logger.Logger
	wireLog    bool
	userAgent  string
}

// New builds a Client. WithBaseURL is required.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		apiPath:   DefaultAPIPath,
		timeout:   defaultTimeout,
		logger:    logger.Nop(),
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}

	u, err := url.Parse(c.rawBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: base url %q", ErrConfig, c.rawBaseURL)
	}
	c.baseURL = u

	if c.http == nil {
		// The cloned default transport honours HTTP_PROXY / HTTPS_PROXY / NO_PROXY.
		transport := http.DefaultTransport.(*http.Transport).Clone()
		c.http = &http.Client{Timeout: c.timeout, Transport: transport}
	}
	return c, nil
}

// ScanLibrary asks the backend to scan its library.
func (c *Client) ScanLibrary(ctx context.Context) (*Response, error) {
	return c.do(ctx, OpScan, "scan", nil)
}

// DownloadImages asks the backend to fetch images for catalog entries.
func (c *Client) DownloadImages(ctx context.Context) (*Response, error) {
	return c.do(ctx, OpDownloadImages, "download-images", nil)
}

// ListFiles returns the file paths known to the backend in the order it sent them.
func (c *Client) ListFiles(ctx context.Context) ([]string, error) {
	var files []string
	_, err := c.do(ctx, OpListFiles, "files", func(body []byte) error {
		return json.Unmarshal(body, &files)
	})
	if err != nil {
		return nil, err
	}
	if files == nil {
		files = []string{}
	}
	return files, nil
}

// Endpoint returns the absolute URL of an endpoint below the API path.
func (c *Client) Endpoint(name string) string {
	return c.baseURL.JoinPath(c.apiPath, name).String()
}

// do performs one GET and records exactly one outcome for it. decode, when
// set, runs on the body of a 2xx response before the outcome is recorded.
func (c *Client) do(ctx context.Context, op, endpoint string, decode func([]byte) error) (*Response, error) {
	requestID := uuid.NewString()
	log := c.logger.With(logger.String("op", op), logger.String("request_id", requestID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint(endpoint), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTransport, op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(HeaderRequestID, requestID)
	c.dumpRequest(ctx, log, req)

	start := time.Now()
	httpResp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordBackendCall(op, metrics.OutcomeTransportError, sinceMs(start))
		log.Warn(ctx, "library call failed", logger.Error(err), logger.Duration("elapsed", time.Since(start)))
		return nil, fmt.Errorf("%w: %s: %w", ErrTransport, op, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		metrics.RecordBackendCall(op, metrics.OutcomeTransportError, sinceMs(start))
		return nil, fmt.Errorf("%w: %s: read body: %w", ErrTransport, op, err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Header:     httpResp.Header,
		Body:       body,
		RequestID:  requestID,
	}
	c.dumpResponse(ctx, log, resp)

	if !resp.OK() {
		metrics.RecordBackendCall(op, metrics.OutcomeHTTPError, sinceMs(start))
		log.Warn(ctx, "library call returned error status", logger.Int("status", resp.StatusCode))
		return resp, &StatusError{Operation: op, StatusCode: resp.StatusCode, Body: body}
	}

	if decode != nil {
		if err := decode(body); err != nil {
			metrics.RecordBackendCall(op, metrics.OutcomeDecodeError, sinceMs(start))
			log.Warn(ctx, "library call returned an undecodable body", logger.Error(err))
			return resp, fmt.Errorf("%w: %s: %w", ErrDecode, op, err)
		}
	}

	metrics.RecordBackendCall(op, metrics.OutcomeSuccess, sinceMs(start))
	log.Debug(ctx, "library call done", logger.Int("status", resp.StatusCode), logger.Duration("elapsed", time.Since(start)))
	return resp, nil
}

func (c *Client) dumpRequest(ctx context.Context, log logger.Logger, req *http.Request) {
	if !c.wireLog || !log.Enabled(ctx, slog.LevelDebug) {
		return
	}
	dump, err := httputil.DumpRequestOut(req, false)
	if err != nil {
		log.Debug(ctx, "request dump failed", logger.Error(err))
		return
	}
	log.Debug(ctx, "library request", logger.String("wire", string(dump)))
}

func (c *Client) dumpResponse(ctx context.Context, log logger.Logger, resp *Response) {
	if !c.wireLog || !log.Enabled(ctx, slog.LevelDebug) {
		return
	}
	body := resp.Body
	if len(body) > wireBodyLimit {
		body = body[:wireBodyLimit]
	}
	log.Debug(ctx, "library response",
		logger.String("status", resp.Status),
		logger.Any("header", resp.Header),
		logger.String("body", string(body)),
	)
}

func sinceMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
