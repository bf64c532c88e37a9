package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"golang.org/x/exp/slog"

	"sitekeeper/internal/app/client/config"
	"sitekeeper/internal/app/client/outbox"
)

const idempotencyHeader = "X-Idempotency-Key"

// Client issues HTTP calls against the site API. Failures are
// classified into connectivity errors (the server was never reached)
// and API errors (the server rejected the request); the outbox engine
// and the facade branch on that distinction.
type Client struct {
	client    *http.Client
	log       *slog.Logger
	baseURL   string
	token     string
	userAgent string
}

func New(cfg *config.Config, log *slog.Logger) *Client {
	client := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			MaxIdleConnsPerHost: 10,
		},
	}

	scheme := "http://"
	if cfg.EnableTLS {
		scheme = "https://"
	}

	return &Client{
		client:    client,
		log:       log.With(slog.String("component", "transport")),
		baseURL:   scheme + cfg.ServerAddress,
		userAgent: "SiteKeeper-Client/1.0",
	}
}

// SetToken sets the bearer credential attached to every request.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Token returns the current bearer credential.
func (c *Client) Token() string {
	return c.token
}

// BaseURL returns the server address every path is resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// HealthCheck probes server reachability.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return &outbox.ConnectivityError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status: %d", resp.StatusCode)
	}

	return nil
}

// Login authenticates and returns the bearer token. Auth mutations
// are never queued offline.
func (c *Client) Login(ctx context.Context, login, password string) (string, error) {
	body := map[string]string{"login": login, "password": password}

	data, err := c.DoJSON(ctx, http.MethodPost, "/auth/login", body, "")
	if err != nil {
		return "", err
	}

	var loginResp struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(data, &loginResp); err != nil {
		return "", fmt.Errorf("failed to parse login response: %w", err)
	}
	if loginResp.AccessToken == "" {
		return "", fmt.Errorf("login response carried no token")
	}

	c.SetToken(loginResp.AccessToken)
	return loginResp.AccessToken, nil
}

// DoJSON executes a call with an optional JSON body. An empty
// idempotencyKey omits the deduplication header.
func (c *Client) DoJSON(ctx context.Context, method, path string, body any, idempotencyKey string) (json.RawMessage, error) {
	var reqBody io.Reader
	contentType := ""
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
		contentType = "application/json"
	}

	return c.send(ctx, method, path, reqBody, contentType, idempotencyKey)
}

// DoForm executes a call with a multipart body assembled from queued
// form fields; file fields are written byte-for-byte.
func (c *Client) DoForm(ctx context.Context, method, path string, fields []outbox.FormField, idempotencyKey string) (json.RawMessage, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, field := range fields {
		if field.Kind == outbox.FieldFile {
			part, err := writer.CreateFormFile(field.Key, field.FileName)
			if err != nil {
				return nil, fmt.Errorf("failed to build multipart body: %w", err)
			}
			if _, err := part.Write(field.Data); err != nil {
				return nil, fmt.Errorf("failed to build multipart body: %w", err)
			}
			continue
		}
		if err := writer.WriteField(field.Key, field.Value); err != nil {
			return nil, fmt.Errorf("failed to build multipart body: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}

	return c.send(ctx, method, path, &buf, writer.FormDataContentType(), idempotencyKey)
}

// Replay executes a queued entry, attaching its stored idempotency
// key so the server deduplicates repeated deliveries.
func (c *Client) Replay(ctx context.Context, entry outbox.Entry) (json.RawMessage, error) {
	switch entry.BodyKind {
	case outbox.BodyJSON:
		var body any
		if len(entry.JSONBody) > 0 {
			body = entry.JSONBody
		}
		return c.DoJSON(ctx, entry.Method, entry.Path, body, entry.IdempotencyKey)
	case outbox.BodyForm:
		return c.DoForm(ctx, entry.Method, entry.Path, entry.FormFields, entry.IdempotencyKey)
	default:
		return c.DoJSON(ctx, entry.Method, entry.Path, nil, entry.IdempotencyKey)
	}
}

func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType, idempotencyKey string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if idempotencyKey != "" {
		req.Header.Set(idempotencyHeader, idempotencyKey)
	}

	c.log.Debug("sending request", "method", method, "url", req.URL.String())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &outbox.ConnectivityError{Err: err}
	}

	return c.parseResponse(resp)
}

// parseResponse decodes the API envelope {success, data | error}.
// A parseable envelope with success=false, or any 4xx/5xx status,
// is an application failure, never a connectivity one.
func (c *Client) parseResponse(resp *http.Response) (json.RawMessage, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &outbox.ConnectivityError{Err: err}
	}

	c.log.Debug("received response", "status", resp.StatusCode)

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	parsed := json.Unmarshal(body, &envelope) == nil

	if resp.StatusCode >= 400 || (parsed && !envelope.Success) {
		apiErr := &outbox.APIError{Status: resp.StatusCode}
		if parsed {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		return nil, apiErr
	}

	if !parsed {
		return nil, fmt.Errorf("failed to parse response (status %d)", resp.StatusCode)
	}

	return envelope.Data, nil
}
