// Package api provides the HTTP adapter for the RAG QA backend.
// Implements ports.Backend; every failure is folded into *APIError.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Wccurate/NLP-Frontend/internal/domain/entities"
	"github.com/Wccurate/NLP-Frontend/internal/domain/ports"
)

const (
	// DefaultBasePath is used when no base address is configured.
	DefaultBasePath = "/api"

	// DefaultOrigin resolves relative base addresses.
	DefaultOrigin = "http://localhost:8000"

	// DefaultHistoryLimit is the number of past turns requested when the
	// caller passes a non-positive limit.
	DefaultHistoryLimit = 20
)

var (
	_ ports.Backend      = (*Client)(nil)
	_ ports.BackendError = (*APIError)(nil)
)

// Client implements ports.Backend over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	origin     string
	httpClient *http.Client
	logger     *zap.Logger
}

// WithOrigin sets the scheme and host used to resolve a relative base address.
func WithOrigin(origin string) Option {
	return func(o *clientOptions) { o.origin = origin }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *clientOptions) { o.logger = l }
}

// NormalizeBaseURL applies the base address rules: empty means the relative
// default path, and a single trailing slash is dropped.
func NormalizeBaseURL(value string) string {
	if value == "" {
		return DefaultBasePath
	}
	return strings.TrimSuffix(value, "/")
}

// NewClient creates a backend client for the given base address.
func NewClient(baseURL string, opts ...Option) *Client {
	o := clientOptions{origin: DefaultOrigin}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		// No timeout: a slow backend only delays the caller.
		o.httpClient = &http.Client{}
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	return &Client{
		baseURL: resolveBase(NormalizeBaseURL(baseURL), o.origin),
		client:  o.httpClient,
		logger:  o.logger,
	}
}

// BaseURL returns the absolute base address requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func resolveBase(base, origin string) string {
	// "/" was trimmed to "": the backend is mounted at the origin root.
	if base == "" || base == "/" {
		return strings.TrimSuffix(origin, "/")
	}
	u, err := url.Parse(base)
	if err != nil || u.IsAbs() {
		return base
	}
	return strings.TrimSuffix(origin, "/") + "/" + strings.TrimPrefix(base, "/")
}

func (c *Client) buildURL(path string) string {
	return c.baseURL + path
}

// CheckHealth reports whether the backend answers {"status":"ok"}.
func (c *Client) CheckHealth(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL("/health"), nil)
	if err != nil {
		return false, newAPIError(0, MsgHealthFailed, err)
	}

	status, body, err := c.do(req)
	if err != nil {
		return false, err
	}
	if !isSuccess(status) {
		return false, c.fail(req, newAPIError(status, MsgHealthFailed, nil))
	}

	var data any
	if err := decodeJSON(status, body, &data); err != nil {
		return false, c.fail(req, err)
	}

	obj, _ := data.(map[string]any)
	s, _ := obj["status"].(string)
	return s == "ok", nil
}

// FetchHistory returns up to limit past turns, oldest first.
func (c *Client) FetchHistory(ctx context.Context, limit int) ([]entities.HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	endpoint := c.buildURL("/history") + "?limit=" + strconv.Itoa(limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, newAPIError(0, MsgHistoryFailed, err)
	}

	status, body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, c.fail(req, newAPIError(status, MsgHistoryFailed, nil))
	}

	entries := []entities.HistoryEntry{}
	if err := decodeJSON(status, body, &entries); err != nil {
		return nil, c.fail(req, err)
	}
	if entries == nil {
		// A literal JSON null.
		entries = []entities.HistoryEntry{}
	}
	return entries, nil
}

// Generate posts one user turn as multipart form data.
func (c *Client) Generate(ctx context.Context, genReq entities.GenerateRequest) (*entities.GenerateResponse, error) {
	payload, contentType, err := encodeGenerateForm(genReq)
	if err != nil {
		return nil, newAPIError(0, MsgGenerateFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL("/generate"), bytes.NewReader(payload))
	if err != nil {
		return nil, newAPIError(0, MsgGenerateFailed, err)
	}
	req.Header.Set("Content-Type", contentType)

	status, body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, c.fail(req, newAPIError(status, generateFailureMessage(status, body), nil))
	}

	var resp entities.GenerateResponse
	if err := decodeJSON(status, body, &resp); err != nil {
		return nil, c.fail(req, err)
	}
	return &resp, nil
}

// encodeGenerateForm builds the multipart body. The auxiliary flags are fixed:
// the client never asks for web search, streaming or document persistence.
func encodeGenerateForm(genReq entities.GenerateRequest) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"web_search", "false"},
		{"return_stream", "false"},
		{"persist_documents", "false"},
		{"input", genReq.Input},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("writing field %s: %w", f[0], err)
		}
	}

	if genReq.File != nil {
		part, err := w.CreateFormFile("file", genReq.File.Name)
		if err != nil {
			return nil, "", fmt.Errorf("creating file part: %w", err)
		}
		if _, err := part.Write(genReq.File.Data); err != nil {
			return nil, "", fmt.Errorf("writing file part: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart writer: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// generateFailureMessage resolves the message for a failed generate call:
// a string "detail" from the body wins over the generic message, and 422 always
// maps to the validation message.
func generateFailureMessage(status int, body []byte) string {
	if status == http.StatusUnprocessableEntity {
		return MsgInputRequired
	}

	var data struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &data); err != nil || len(data.Detail) == 0 {
		return MsgGenerateFailed
	}

	var detail string
	if err := json.Unmarshal(data.Detail, &detail); err != nil || detail == "" {
		return MsgGenerateFailed
	}
	return detail
}

// do sends the request and reads the whole body. Transport failures become
// an *APIError with status 0.
func (c *Client) do(req *http.Request) (int, []byte, error) {
	c.logger.Debug("backend request",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()))

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, c.fail(req, newAPIError(0, MsgBackendUnreachable, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, c.fail(req, newAPIError(resp.StatusCode, MsgInvalidJSON, fmt.Errorf("reading response: %w", err)))
	}

	c.logger.Debug("backend response",
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)))

	return resp.StatusCode, body, nil
}

func (c *Client) fail(req *http.Request, err *APIError) error {
	c.logger.Warn("backend call failed",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Int("status", err.Status),
		zap.String("message", err.Message),
		zap.NamedError("cause", err.Err))
	return err
}

// decodeJSON parses body into v. An empty body leaves v untouched, which
// reads as an empty object.
func decodeJSON(status int, body []byte, v any) *APIError {
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return newAPIError(status, MsgInvalidJSON, err)
	}
	return nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
