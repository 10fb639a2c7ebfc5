// Package client calls a remote healthbridge server's method endpoint. It is
// used by the CLI and by the stdio MCP server, which run locally while the
// bridge runs next to the health store (usually reached over Tailscale).
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/claude/healthbridge/internal/bridge"
	"github.com/claude/healthbridge/internal/healthstore"
	"github.com/claude/healthbridge/internal/models"
	"github.com/claude/healthbridge/internal/taxonomy"
)

// StatusError is a non-200 answer from the server.
type StatusError struct {
	Path   string
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Path, e.Code, e.Detail)
}

// retryable reports server-side failures worth another attempt.
func (e *StatusError) retryable() bool {
	return e.Code >= 500 && e.Code != http.StatusNotImplemented
}

// Options tunes a Client. Zero values use the defaults.
type Options struct {
	Timeout      time.Duration
	Retries      uint64
	RetryBackoff time.Duration
}

// Client sends method calls to the server.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retries    uint64
	backoff    time.Duration
}

// New creates a Client for the server at baseURL.
func New(baseURL, apiKey string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.Retries == 0 {
		opts.Retries = 2
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: opts.Timeout},
		retries:    opts.Retries,
		backoff:    opts.RetryBackoff,
	}
}

// Call posts args to the named method and returns the decoded result; a nil
// result is the method's null answer. Numbers decode as json.Number.
func (c *Client) Call(ctx context.Context, method string, args map[string]any) (any, error) {
	raw, err := c.call(ctx, method, args)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var result any
	if err := dec.Decode(&result); err != nil {
		return nil, fmt.Errorf("client: decode %s result: %w", method, err)
	}
	return result, nil
}

func (c *Client) call(ctx context.Context, method string, args map[string]any) (json.RawMessage, error) {
	if args == nil {
		args = map[string]any{}
	}
	data, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("client: marshal %s args: %w", method, err)
	}

	body, err := c.do(ctx, http.MethodPost, "/api/v1/methods/"+url.PathEscape(method), data)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("client: decode %s response: %w", method, err)
	}
	return resp.Result, nil
}

// do sends one request with bounded retry on transport errors and 5xx answers.
func (c *Client) do(ctx context.Context, httpMethod, path string, payload []byte) ([]byte, error) {
	var body []byte
	op := func() error {
		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, httpMethod, c.baseURL+path, reqBody)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("client: create request: %w", err))
		}
		req.Header.Set("X-API-Key", c.apiKey)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("client: %s: %w", path, err)
		}
		defer func() { _ = resp.Body.Close() }()

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("client: read body: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			serr := &StatusError{Path: path, Code: resp.StatusCode, Detail: errorDetail(b)}
			if serr.retryable() {
				return serr
			}
			return backoff.Permanent(serr)
		}
		body = b
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(c.backoff), c.retries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return body, nil
}

// errorDetail extracts the server's {"error": ...} message, falling back to the raw body.
func errorDetail(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var serr *StatusError
	return errors.As(err, &serr) && serr.Code == code
}

func windowArgs(window healthstore.TimeRange) map[string]any {
	return map[string]any{
		"startTime": window.Start.UnixMilli(),
		"endTime":   window.End.UnixMilli(),
	}
}

// UseHealthConnect selects the Health Connect backend on the server.
func (c *Client) UseHealthConnect(ctx context.Context) error {
	_, err := c.call(ctx, bridge.MethodUseHealthConnectIfAvailable, nil)
	return err
}

// HasPermissions asks whether the required scopes are granted.
func (c *Client) HasPermissions(ctx context.Context) (bool, error) {
	return c.boolCall(ctx, bridge.MethodHasPermissions)
}

// RequestAuthorization runs the server's consent flow.
func (c *Client) RequestAuthorization(ctx context.Context) (bool, error) {
	return c.boolCall(ctx, bridge.MethodRequestAuthorization)
}

func (c *Client) boolCall(ctx context.Context, method string) (bool, error) {
	raw, err := c.call(ctx, method, nil)
	if err != nil {
		return false, err
	}
	var ok bool
	if err := json.Unmarshal(raw, &ok); err != nil {
		return false, fmt.Errorf("client: decode %s result: %w", method, err)
	}
	return ok, nil
}

// GetData lists key's records in window. A nil slice is the null result.
func (c *Client) GetData(ctx context.Context, key taxonomy.MetricKey, window healthstore.TimeRange) ([]models.CanonicalRecord, error) {
	args := windowArgs(window)
	args["dataTypeKey"] = string(key)
	raw, err := c.call(ctx, bridge.MethodGetData, args)
	if err != nil {
		return nil, err
	}
	var records []models.CanonicalRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("client: decode getData result: %w", err)
	}
	return records, nil
}

// GetTotalSteps returns the step count in window. A nil result is the null result.
func (c *Client) GetTotalSteps(ctx context.Context, window healthstore.TimeRange) (*int64, error) {
	raw, err := c.call(ctx, bridge.MethodGetTotalStepsInInterval, windowArgs(window))
	if err != nil {
		return nil, err
	}
	var steps *int64
	if err := json.Unmarshal(raw, &steps); err != nil {
		return nil, fmt.Errorf("client: decode getTotalStepsInInterval result: %w", err)
	}
	return steps, nil
}

// GetStepsAndCalories returns the daily buckets for window. A nil slice is the null result.
func (c *Client) GetStepsAndCalories(ctx context.Context, window healthstore.TimeRange) ([]models.StepsCaloriesBucket, error) {
	raw, err := c.call(ctx, bridge.MethodGetTotalStepAndCaloriesInInterval, windowArgs(window))
	if err != nil {
		return nil, err
	}
	var buckets []models.StepsCaloriesBucket
	if err := json.Unmarshal(raw, &buckets); err != nil {
		return nil, fmt.Errorf("client: decode getTotalStepAndCaloriesInInterval result: %w", err)
	}
	return buckets, nil
}

// PermissionState is one scope in the server's permission listing.
type PermissionState struct {
	Scope string `json:"scope"`
	State string `json:"state"`
}

// Permissions is the server's store availability and per-scope consent state.
type Permissions struct {
	Availability string            `json:"availability"`
	Permissions  []PermissionState `json:"permissions"`
}

// Permissions fetches the permission listing.
func (c *Client) Permissions(ctx context.Context) (*Permissions, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/v1/permissions", nil)
	if err != nil {
		return nil, err
	}
	var p Permissions
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("client: decode permissions: %w", err)
	}
	return &p, nil
}

// Catalog fetches the server's metric and activity catalog.
func (c *Client) Catalog(ctx context.Context) (*taxonomy.Catalog, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/v1/catalog", nil)
	if err != nil {
		return nil, err
	}
	var cat taxonomy.Catalog
	if err := json.Unmarshal(body, &cat); err != nil {
		return nil, fmt.Errorf("client: decode catalog: %w", err)
	}
	return &cat, nil
}
