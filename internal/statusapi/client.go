package statusapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nixlim/mission-control/internal/config"
)

const globalStatePath = "/global/"

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 4 << 20

var tracer = otel.Tracer("statusapi")

// Client talks to the Mission Control Status API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default instrumented HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken overrides the bearer token resolved from config.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(cfg config.StatusAPIConfig, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.ResolvedToken(),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   cfg.RequestTimeout(),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchGlobalState retrieves the current global state records.
func (c *Client) FetchGlobalState(ctx context.Context) (resp *Response, err error) {
	ctx, span := tracer.Start(ctx, "fetch-global-state")
	defer func() { endSpan(span, err) }()

	resp, err = c.do(ctx, http.MethodGet, nil, "fetch global state", "Failed to get global state")
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return resp, fmt.Errorf("fetch global state: %w: %s", ErrUnsuccessful, resp.Message)
	}
	return resp, nil
}

// CreateGlobalState submits a new global state record.
func (c *Client) CreateGlobalState(ctx context.Context, rec Record) (resp *Response, err error) {
	ctx, span := tracer.Start(ctx, "create-global-state")
	defer func() { endSpan(span, err) }()

	body, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}

	resp, err = c.do(ctx, http.MethodPost, body, "create global state", "Failed to create global state")
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return resp, fmt.Errorf("create global state: %w: %s", ErrUnsuccessful, resp.Message)
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, method string, body []byte, op, fallback string) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+globalStatePath, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: creating request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: reading response body: %w", op, err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		msg := fallback
		var eb errorBody
		if json.Unmarshal(data, &eb) == nil && eb.text() != "" {
			msg = eb.text()
		}
		return nil, &Error{Op: op, StatusCode: httpResp.StatusCode, Message: msg}
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%s: decoding response body: %w", op, err)
	}
	return &resp, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// FormatTime renders t the way the Status API stores createdAt.
func FormatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
