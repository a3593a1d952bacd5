// Package client is the typed HTTP client for the PatternLab REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/patternlab/internal/platform/logger"
)

const maxBodyBytes = 1 << 20

// TokenSource supplies the bearer token for authenticated calls.
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
}

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Log        *logger.Logger

	Tokens      TokenSource
	OnForbidden func(ctx context.Context)
}

type Client struct {
	baseURL     string
	timeout     time.Duration
	httpClient  *http.Client
	log         *logger.Logger
	tracer      trace.Tracer
	tokens      TokenSource
	onForbidden func(ctx context.Context)
}

func New(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("baseURL required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		baseURL:     baseURL,
		timeout:     timeout,
		httpClient:  hc,
		log:         log.With("client", "PatternLabAPI"),
		tracer:      otel.Tracer("github.com/yungbote/patternlab/internal/client"),
		tokens:      opts.Tokens,
		onForbidden: opts.OnForbidden,
	}, nil
}

// WithSession returns a copy of c that authenticates with tokens and calls
// onForbidden when an authenticated endpoint answers 403.
func (c *Client) WithSession(tokens TokenSource, onForbidden func(ctx context.Context)) *Client {
	cp := *c
	cp.tokens = tokens
	cp.onForbidden = onForbidden
	return &cp
}

func (c *Client) BaseURL() string { return c.baseURL }

type call struct {
	op       string
	method   string
	path     string
	body     any
	authed   bool
	fallback string
}

func (c *Client) bearer(ctx context.Context) (string, bool) {
	if c.tokens == nil {
		return "", false
	}
	tok, ok := c.tokens.Token(ctx)
	if !ok || strings.TrimSpace(tok) == "" {
		return "", false
	}
	return tok, true
}

func setHeaders(req *http.Request, token string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// do performs one attempt. Failures are never retried.
func (c *Client) do(ctx context.Context, cl call, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "patternlab.api."+cl.op, trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", cl.method),
			attribute.String("url.path", cl.path),
		))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var token string
	if cl.authed {
		tok, ok := c.bearer(ctx)
		if !ok {
			return ErrSessionExpired
		}
		token = tok
	}

	var rdr io.Reader = http.NoBody
	if cl.body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(cl.body); err != nil {
			return fmt.Errorf("encode %s request: %w", cl.op, err)
		}
		rdr = &buf
	}

	ctx2, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx2, cl.method, c.baseURL+cl.path, rdr)
	if err != nil {
		return err
	}
	setHeaders(req, token)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("timeout: %w", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("network error: %w", err)
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	_ = resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	c.log.Debug("api call",
		"op", cl.op,
		"method", cl.method,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if readErr != nil {
		return fmt.Errorf("network error: read %s response: %w", cl.op, readErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		herr := parseHTTPError(cl.op, resp.StatusCode, raw, cl.fallback, cl.authed)
		if errors.Is(herr, ErrSessionExpired) {
			c.log.Warn("authenticated call rejected, ending session", "op", cl.op)
			if c.onForbidden != nil {
				c.onForbidden(ctx)
			}
		}
		return herr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", cl.op, err)
	}
	return nil
}
