package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nhle/facultyflow/internal/credential"
	"github.com/nhle/facultyflow/internal/logging"
)

// Client is a thin HTTP client for the faculty task-management REST API.
// It attaches the stored bearer token, marshals JSON and turns failures
// into *Error values. It never retries.
type Client struct {
	baseURL    string
	tokens     credential.Store
	httpClient *http.Client

	mu             sync.Mutex
	onUnauthorized []func()
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each request. Zero keeps the transport default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client for the API rooted at baseURL
// (e.g. https://portal.example.edu/api). Tokens are read from and
// invalidated in the given store.
func NewClient(baseURL string, tokens credential.Store, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// OnUnauthorized registers fn to run after a 401 response cleared the
// stored token.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = append(c.onUnauthorized, fn)
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) post(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

func (c *Client) patch(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPatch, path, body, result)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// errorBody is the JSON shape of non-2xx responses.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// do builds the request, attaches auth, executes it once and decodes the
// JSON response into result. A 204 or a nil result skips decoding.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body any,
	result any,
) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	log := logging.Logger.WithFields(logrus.Fields{
		"method":     method,
		"path":       path,
		"request_id": requestID,
	})

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Warn("request failed without response")
		return &Error{Message: MsgNetworkError, Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Message: MsgNetworkError, Method: method, Path: path, Err: err}
	}

	log = log.WithFields(logrus.Fields{
		"status":  resp.StatusCode,
		"elapsed": time.Since(start).Round(time.Millisecond),
	})

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{
			Status:  resp.StatusCode,
			Message: errorMessage(respBody),
			Method:  method,
			Path:    path,
		}
		log.WithField("message", apiErr.Message).Warn("request rejected")

		if resp.StatusCode == http.StatusUnauthorized {
			c.invalidate()
		}
		return apiErr
	}

	log.Debug("request ok")

	// No content to parse (e.g. 204).
	if result == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		log.WithError(err).Warn("unreadable response body")
		return &Error{Message: MsgNetworkError, Method: method, Path: path, Err: fmt.Errorf("unmarshaling response: %w", err)}
	}

	return nil
}

// errorMessage extracts "error" or "message" from a JSON error body.
func errorMessage(body []byte) string {
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil {
		if msg := strings.TrimSpace(eb.Error); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(eb.Message); msg != "" {
			return msg
		}
	}
	return MsgGenericError
}

func (c *Client) token() string {
	if c.tokens == nil {
		return ""
	}
	token, err := c.tokens.Get(credential.TokenKey)
	if err != nil {
		if !errors.Is(err, credential.ErrNotFound) {
			logging.Logger.WithError(err).Warn("reading stored token")
		}
		return ""
	}
	return token
}

// invalidate clears the stored token and notifies listeners.
func (c *Client) invalidate() {
	if c.tokens != nil {
		if err := c.tokens.Delete(credential.TokenKey); err != nil {
			logging.Logger.WithError(err).Warn("clearing stored token after 401")
		}
	}

	c.mu.Lock()
	hooks := append([]func(){}, c.onUnauthorized...)
	c.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}
