// Package approvalapi is the REST client of the upstream approval service.
package approvalapi

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

	"github.com/google/uuid"
	"github.com/spf13/cast"
	"github.com/stoewer/go-strcase"
	"go.uber.org/zap"
)

// RequestIDHeader carries the correlation id of every upstream request
const RequestIDHeader = "X-Request-ID"

// Defaults used when Config leaves a field empty
const (
	DefaultBaseURL = "http://localhost:3000/api"
	DefaultTimeout = 10 * time.Second
)

// ErrNotFound is returned when the upstream answers with empty data for a lookup
var ErrNotFound = errors.New("not found")

// HTTPClient interface for testability
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds upstream connection settings
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client calls the approval service. It implements port.ApprovalAPI,
// port.SchemaProvider, port.DepartmentProvider and port.AttachmentAPI.
type Client struct {
	baseURL    string
	httpClient HTTPClient
	logger     *zap.Logger
}

// NewClient creates a client with a net/http transport bounded by cfg.Timeout
func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return NewClientWithHTTP(cfg, &http.Client{Timeout: timeout}, logger)
}

// NewClientWithHTTP creates a client over a caller-supplied transport
func NewClientWithHTTP(cfg Config, httpClient HTTPClient, logger *zap.Logger) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		logger:     logger,
	}
}

// APIError is a failed upstream call: a non-2xx status or a non-success envelope code
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: status=%d code=%d msg=%s", e.Method, e.Path, e.StatusCode, e.Code, e.Message)
}

type requestIDKey struct{}

// WithRequestID makes the client reuse id instead of generating one
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// request describes one upstream call
type request struct {
	method      string
	path        string
	query       url.Values
	body        interface{}
	rawBody     io.Reader
	contentType string
}

// do sends req, unwraps the {code, message, data} envelope and decodes data
// into out. Response keys are converted to camelCase first.
func (c *Client) do(ctx context.Context, req request, out interface{}) (string, error) {
	endpoint := c.baseURL + req.path
	if len(req.query) > 0 {
		endpoint += "?" + req.query.Encode()
	}

	body := req.rawBody
	contentType := req.contentType
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return "", fmt.Errorf("marshal request body: %w", err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	rid := requestID(ctx)
	httpReq.Header.Set(RequestIDHeader, rid)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("Upstream request failed",
			zap.String("method", req.method),
			zap.String("path", req.path),
			zap.String("request_id", rid),
			zap.Error(err))
		return "", fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("Upstream request",
		zap.String("method", req.method),
		zap.String("path", req.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
		zap.String("request_id", rid))

	env, decodeErr := decodeEnvelope(raw)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Method: req.method, Path: req.path, StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		if decodeErr == nil {
			apiErr.Code = env.code
			if env.message != "" {
				apiErr.Message = env.message
			}
		}
		return "", apiErr
	}
	if decodeErr != nil {
		return "", fmt.Errorf("%s %s: decode response: %w", req.method, req.path, decodeErr)
	}
	if !env.success() {
		return "", &APIError{Method: req.method, Path: req.path, StatusCode: resp.StatusCode, Code: env.code, Message: env.message}
	}

	if out != nil && len(env.data) > 0 && string(env.data) != "null" {
		if err := json.Unmarshal(env.data, out); err != nil {
			return "", fmt.Errorf("%s %s: decode data: %w", req.method, req.path, err)
		}
	}
	return env.message, nil
}

type envelope struct {
	hasCode bool
	code    int
	message string
	data    json.RawMessage
}

// success holds for code 200, code 0 or no code at all
func (e envelope) success() bool {
	return !e.hasCode || e.code == 200 || e.code == 0
}

func decodeEnvelope(raw []byte) (envelope, error) {
	var env envelope
	if len(bytes.TrimSpace(raw)) == 0 {
		return env, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic interface{}
	if err := dec.Decode(&generic); err != nil {
		return env, err
	}

	m, ok := CamelizeKeys(generic).(map[string]interface{})
	if !ok {
		return env, errors.New("response is not an object")
	}

	if code, present := m["code"]; present && code != nil {
		n, err := cast.ToIntE(code)
		if err != nil {
			return env, fmt.Errorf("code %v: %w", code, err)
		}
		env.hasCode = true
		env.code = n
	}
	env.message = cast.ToString(m["message"])
	if env.message == "" {
		env.message = cast.ToString(m["msg"])
	}
	if data, present := m["data"]; present {
		b, err := json.Marshal(data)
		if err != nil {
			return env, err
		}
		env.data = b
	}
	return env, nil
}

// CamelizeKeys converts every underscore_case object key in v to lowerCamelCase
func CamelizeKeys(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			key := k
			if strings.Contains(k, "_") {
				key = strcase.LowerCamelCase(k)
			}
			out[key] = CamelizeKeys(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = CamelizeKeys(item)
		}
		return out
	default:
		return v
	}
}
