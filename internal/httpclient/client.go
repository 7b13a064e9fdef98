// Package httpclient is the shared HTTP delegation helper every stage
// worker uses to hand a unit of work to its external per-language
// microservice and decode the JSON or raw-bytes response.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Client wraps http.Client with the stage workers' call conventions: a
// default per-call deadline applied when the caller's context carries
// none, and uniform error wrapping so a failing language service always
// surfaces as "httpclient: ...".
type Client struct {
	http           *http.Client
	defaultTimeout time.Duration
}

// New builds a Client. If defaultTimeout <= 0, it falls back to 60s.
func New(defaultTimeout time.Duration) *Client {
	if defaultTimeout <= 0 {
		defaultTimeout = 60 * time.Second
	}
	return &Client{
		http:           &http.Client{},
		defaultTimeout: defaultTimeout,
	}
}

// withDeadline applies the client's default timeout only when ctx has no
// deadline of its own, mirroring how a bounded external call should never
// silently inherit an unbounded parent context.
func (c *Client) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.defaultTimeout)
}

// PostJSON posts payload as a JSON body to url and decodes a JSON response
// into out. If out is nil, the response body is discarded after the status
// check.
func (c *Client) PostJSON(ctx context.Context, url string, payload, out interface{}) error {
	ctx, cancel := c.withDeadline(ctx)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("httpclient: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("httpclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

// PostMultipart posts a single file field named fieldName (filename,
// data) as a multipart/form-data body, used by the native-parse stage
// worker which expects an uploaded-file style request.
func (c *Client) PostMultipart(ctx context.Context, url, fieldName, filename string, data []byte, out interface{}) error {
	ctx, cancel := c.withDeadline(ctx)
	defer cancel()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(fieldName, filename)
	if err != nil {
		return fmt.Errorf("httpclient: build multipart field: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("httpclient: write multipart field: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("httpclient: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return fmt.Errorf("httpclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	return c.do(req, out)
}

// PostJSONRaw is PostJSON without a JSON-decoded response: it returns the
// response body verbatim, for callers that need to forward the payload on
// as-is (e.g. re-storing it) rather than unmarshal it into a Go type.
func (c *Client) PostJSONRaw(ctx context.Context, url string, payload interface{}) ([]byte, error) {
	ctx, cancel := c.withDeadline(ctx)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("httpclient: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("httpclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doRaw(req)
}

// PostMultipartRaw is PostMultipart without a JSON-decoded response: it
// returns the response body verbatim, for front ends (like the native
// AST parsers) whose payload is an opaque blob rather than a fixed JSON
// schema this codebase needs to understand.
func (c *Client) PostMultipartRaw(ctx context.Context, url, fieldName, filename string, data []byte) ([]byte, error) {
	ctx, cancel := c.withDeadline(ctx)
	defer cancel()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(fieldName, filename)
	if err != nil {
		return nil, fmt.Errorf("httpclient: build multipart field: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("httpclient: write multipart field: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("httpclient: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, fmt.Errorf("httpclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	return c.doRaw(req)
}

// PostMultipartFieldsRaw posts several named fields as a single
// multipart/form-data body and returns the response verbatim. The
// queryengine delegation needs this: the same knowledge-base blob is
// submitted under both the "kb" and "queries" field names in one request.
func (c *Client) PostMultipartFieldsRaw(ctx context.Context, url string, fields map[string][]byte) ([]byte, error) {
	ctx, cancel := c.withDeadline(ctx)
	defer cancel()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, data := range fields {
		part, err := w.CreateFormField(name)
		if err != nil {
			return nil, fmt.Errorf("httpclient: build multipart field %q: %w", name, err)
		}
		if _, err := part.Write(data); err != nil {
			return nil, fmt.Errorf("httpclient: write multipart field %q: %w", name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("httpclient: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, fmt.Errorf("httpclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	return c.doRaw(req)
}

func (c *Client) doRaw(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: unexpected status %d: %s", resp.StatusCode, truncate(respBody, 512))
	}
	return respBody, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	respBody, err := c.doRaw(req)
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("httpclient: decode response: %w", err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
