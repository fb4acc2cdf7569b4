package restapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	jsonv2 "encoding/json/v2"

	"agencyctl/internal/adapters/driven/session"
	"agencyctl/internal/core/domain"
	"agencyctl/internal/core/service/resource"
)

const DefaultTimeout = 30 * time.Second

// cachedResponse remembers the last 200 payload per path so a later 304 can
// resolve with real data instead of an empty body.
type cachedResponse struct {
	etag    string
	payload []byte
}

// Client is the shared HTTP layer every resource gateway goes through. It
// attaches the bearer token from the persisted session, keeps a per-path ETag
// cache for conditional GETs, and clears the session on a 401 before invoking
// the configured unauthorized hook.
type Client struct {
	baseURL string
	http    *http.Client
	session *session.Store

	// onUnauthorized runs after a 401 clears the session; the CLI uses it to
	// tell the user to log in again, mirroring the admin-route redirect.
	onUnauthorized func()

	mu    sync.Mutex
	cache map[string]cachedResponse
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

func WithUnauthorizedHook(hook func()) Option {
	return func(c *Client) {
		c.onUnauthorized = hook
	}
}

func NewClient(baseURL string, sess *session.Store, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		session: sess,
		cache:   make(map[string]cachedResponse),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetJSON performs a conditional GET. On 304 it returns the cached payload
// together with resource.ErrNotModified so callers can keep their state.
func (c *Client) GetJSON(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("restapi: building request: %w", err)
	}

	c.mu.Lock()
	cached, hasCache := c.cache[path]
	c.mu.Unlock()
	if hasCache && cached.etag != "" {
		req.Header.Set("If-None-Match", cached.etag)
	}

	resp, body, err := c.send(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotModified {
		if hasCache {
			return cached.payload, resource.ErrNotModified
		}
		// a 304 without anything cached resolves empty; the store keeps
		// whatever it already has either way
		return nil, resource.ErrNotModified
	}

	if err := checkStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	if etag := resp.Header.Get("ETag"); etag != "" {
		c.mu.Lock()
		c.cache[path] = cachedResponse{etag: etag, payload: body}
		c.mu.Unlock()
	}

	return body, nil
}

// SendJSON performs a write with a JSON body. A nil payload sends no body.
func (c *Client) SendJSON(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		encoded, err := jsonv2.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("restapi: encoding payload: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("restapi: building request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}

	resp, body, err := c.send(req)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

// SendMultipart performs a write with a multipart form body. Scalar fields go
// in as-is; array and object values are JSON-stringified, which is what the
// backend's form parser expects; the staged attachment becomes the file part.
func (c *Client) SendMultipart(ctx context.Context, method, path string, payload domain.Record, att *domain.Attachment) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for key, value := range payload {
		if key == domain.AttachmentKey || value == nil {
			continue
		}
		switch v := value.(type) {
		case string:
			if err := writer.WriteField(key, v); err != nil {
				return nil, fmt.Errorf("restapi: writing field %q: %w", key, err)
			}
		case bool, int, int64, float64, float32:
			if err := writer.WriteField(key, fmt.Sprintf("%v", v)); err != nil {
				return nil, fmt.Errorf("restapi: writing field %q: %w", key, err)
			}
		default:
			encoded, err := jsonv2.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("restapi: encoding field %q: %w", key, err)
			}
			if err := writer.WriteField(key, string(encoded)); err != nil {
				return nil, fmt.Errorf("restapi: writing field %q: %w", key, err)
			}
		}
	}

	if att != nil {
		field := att.Field
		if field == "" {
			field = "image"
		}
		part, err := writer.CreateFormFile(field, att.Filename)
		if err != nil {
			return nil, fmt.Errorf("restapi: creating file part: %w", err)
		}
		if _, err := part.Write(att.Content); err != nil {
			return nil, fmt.Errorf("restapi: writing file part: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("restapi: finalizing form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("restapi: building request: %w", err)
	}
	// multipart carries its own boundary-bearing content type
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, body, err := c.send(req)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

// send executes the request with the bearer token attached and handles the
// cross-cutting 401 behaviour in one place.
func (c *Client) send(req *http.Request) (*http.Response, []byte, error) {
	if c.session != nil {
		if token := c.session.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", resource.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("restapi: reading response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if c.session != nil {
			if err := c.session.Clear(); err != nil {
				log.Printf("WARN: could not clear session after 401: %v", err)
			}
		}
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
	}

	return resp, body, nil
}

// checkStatus turns any non-2xx response into a typed StatusError carrying
// whatever message the backend provided.
func checkStatus(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	var errBody struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	message := ""
	if len(body) > 0 {
		if err := jsonv2.Unmarshal(body, &errBody); err == nil {
			message = errBody.Message
			if message == "" {
				message = errBody.Error
			}
		}
		if message == "" {
			message = strings.TrimSpace(string(body))
			if len(message) > 200 {
				message = message[:200]
			}
		}
	}

	return &resource.StatusError{Status: status, Message: message}
}
