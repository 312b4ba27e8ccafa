package invoker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/redartera/flytekit/pkg/ferr"
	"github.com/redartera/flytekit/pkg/flog"
)

// StatusError is returned for non-2xx responses. The response body is
// captured so transport failures carry their diagnostics with them.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d\n[body] %s",
		e.Method, e.URL, e.StatusCode, bytes.TrimSpace(e.Body))
}

// Client is the HTTP counterpart of ExecInvoker: one JSON request/response
// round trip per call, bounded by a timeout, with failures classified into
// invocation errors (transport/status) and decode errors (unusable payload).
type Client struct {
	BaseURL string
	// Editor mutates each outgoing request, typically to attach auth
	// headers. May be nil.
	Editor func(req *http.Request) error

	hc  *http.Client
	log *flog.Logger
}

// NewClient creates a JSON API client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, log *flog.Logger) *Client {
	if log == nil {
		log = flog.NewDefault()
	}
	return &Client{
		BaseURL: baseURL,
		hc:      &http.Client{Timeout: timeout},
		log:     log,
	}
}

// WithEditor returns a shallow copy of the client using the given request
// editor. The underlying http.Client is shared, so per-call editors are
// cheap and safe under concurrent use.
func (c *Client) WithEditor(editor func(req *http.Request) error) *Client {
	clone := *c
	clone.Editor = editor
	return &clone
}

// DoJSON issues method+path with an optional JSON body and decodes the
// response into out (when out is non-nil). Non-2xx responses return an
// invocation error wrapping StatusError; undecodable 2xx payloads return a
// decode error.
func (c *Client) DoJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return ferr.New(ferr.CodeDecode, err)
		}
		body = bytes.NewReader(data)
	}

	url := c.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return ferr.New(ferr.CodeInvocation, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Editor != nil {
		if err := c.Editor(req); err != nil {
			return err
		}
	}

	c.log.Debug("invoking request", "method", method, "url", url)
	resp, err := c.hc.Do(req)
	if err != nil {
		return ferr.New(ferr.CodeInvocation, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return ferr.New(ferr.CodeInvocation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{
			Method:     method,
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       respBody,
		}
		c.log.Error("request failed", "method", method, "url", url, "status", resp.StatusCode)
		return ferr.New(ferr.CodeInvocation, statusErr)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		c.log.Error("failed to decode response", "method", method, "url", url)
		return ferr.New(ferr.CodeDecode, err)
	}
	return nil
}
