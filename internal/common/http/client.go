// Package http is the JSON client used by the dashboard and the command-line
// tools to talk to the Care+ API.
//
// Request is the fail-soft helper: any non-2xx status is logged, surfaced to
// the user through an Alerter and turned into an empty list. Transport and
// decode failures are returned unchanged. Call is the strict variant and
// reports non-2xx statuses as *StatusError.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"careplus/internal/common/logger"
	"careplus/internal/common/metrics"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultBaseURL is the API origin prepended to every request path.
	DefaultBaseURL = "http://localhost:8000"

	RequestIDHeader = "X-Request-ID"
)

// Options are the recognized per-request settings.
type Options struct {
	Method string
	Body   any
}

// Client issues one request per call against a fixed base address.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
	alerter    Alerter
	tracer     trace.Tracer
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithAlerter(a Alerter) Option {
	return func(c *Client) { c.alerter = a }
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

// NewClient returns a client for baseURL, or DefaultBaseURL when empty.
// The underlying http.Client has no timeout; callers bound a request with ctx.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		logger:     logger.NewNoOpLogger(),
		alerter:    NewConsoleAlerter(nil),
		tracer:     otel.Tracer("careplus/client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Clone returns a copy of c with opts applied on top.
func (c *Client) Clone(opts ...Option) *Client {
	cp := *c
	for _, opt := range opts {
		opt(&cp)
	}
	return &cp
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL is the request target for path: the base address followed by path verbatim.
func (c *Client) URL(path string) string {
	return c.baseURL + path
}

// Request performs the fail-soft call. On a non-2xx status it logs the
// status and body text, raises "Backend error: <status>" and returns an
// empty list with a nil error. On success it returns the decoded JSON body.
func (c *Client) Request(ctx context.Context, path string, opts *Options) (any, error) {
	resp, err := c.do(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	method := methodOf(opts)
	if !isSuccess(resp.StatusCode) {
		text, _ := io.ReadAll(resp.Body)
		c.logger.Error("API ERROR:", map[string]interface{}{
			"status": resp.StatusCode,
			"body":   string(text),
			"method": method,
			"url":    c.URL(path),
		})
		c.alerter.Alert(fmt.Sprintf("Backend error: %d", resp.StatusCode))
		metrics.ClientRequests.WithLabelValues(method, "status_error").Inc()
		return []any{}, nil
	}

	var out any
	if err := decodeJSON(resp.Body, &out); err != nil {
		metrics.ClientRequests.WithLabelValues(method, "decode_error").Inc()
		return nil, fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	metrics.ClientRequests.WithLabelValues(method, "ok").Inc()
	return out, nil
}

// Call performs the strict call. A non-2xx status is returned as
// *StatusError; on success the body is decoded into out when out is non-nil.
func (c *Client) Call(ctx context.Context, path string, opts *Options, out any) error {
	resp, err := c.do(ctx, path, opts)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	method := methodOf(opts)
	if !isSuccess(resp.StatusCode) {
		text, _ := io.ReadAll(resp.Body)
		metrics.ClientRequests.WithLabelValues(method, "status_error").Inc()
		return &StatusError{
			Method: method,
			URL:    c.URL(path),
			Status: resp.StatusCode,
			Body:   string(text),
		}
	}

	metrics.ClientRequests.WithLabelValues(method, "ok").Inc()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := decodeJSON(resp.Body, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// decodeJSON requires the whole body to be one JSON document.
func decodeJSON(r io.Reader, out any) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (c *Client) do(ctx context.Context, path string, opts *Options) (*http.Response, error) {
	method := methodOf(opts)
	var body any
	if opts != nil {
		body = opts.Body
	}

	var reader io.Reader
	if body != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		// Encoder appends a newline; the wire body is the bare JSON document.
		reader = bytes.NewReader(bytes.TrimRight(buf.Bytes(), "\n"))
	}

	target := c.URL(path)
	ctx, span := c.tracer.Start(ctx, method+" "+path, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.full", target),
	)

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("build request %s %s: %w", method, target, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.ClientRequests.WithLabelValues(method, "transport_error").Inc()
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if !isSuccess(resp.StatusCode) {
		span.SetStatus(codes.Error, resp.Status)
	}
	c.logger.Debug("api request", map[string]interface{}{
		"method":     method,
		"url":        target,
		"status":     resp.StatusCode,
		"durationMs": time.Since(start).Milliseconds(),
	})
	return resp, nil
}

func methodOf(opts *Options) string {
	if opts == nil || opts.Method == "" {
		return http.MethodGet
	}
	return opts.Method
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
