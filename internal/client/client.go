// Package client is a typed HTTP client for the shortener API.
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

	"github.com/MikhailRaia/secure-shortener/internal/model"
)

// ErrNoRedirect is returned by Resolve when the server answers without a Location.
var ErrNoRedirect = errors.New("server did not redirect")

// APIError is a non-2xx response decoded from the server's error body.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type Option func(*Client)

// WithToken sends the token as a Bearer credential on every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create shortens rawURL on behalf of userID. userID may be empty when the
// token identifies the owner.
func (c *Client) Create(ctx context.Context, rawURL, userID string) (model.CreateResponse, error) {
	var created model.CreateResponse

	body, err := json.Marshal(model.CreateRequest{URL: rawURL, UserID: userID})
	if err != nil {
		return created, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/urls", bytes.NewReader(body))
	if err != nil {
		return created, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return created, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := decodeResponse(resp, &created); err != nil {
		return created, err
	}
	return created, nil
}

// List returns the links owned by userID in creation order.
func (c *Client) List(ctx context.Context, userID string) ([]model.UserURL, error) {
	path := "/urls"
	if userID != "" {
		path += "?" + url.Values{"userId": {userID}}.Encode()
	}

	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var list model.ListResponse
	if err := decodeResponse(resp, &list); err != nil {
		return nil, err
	}
	return list.URLs, nil
}

// Resolve returns the original URL behind code without following the redirect.
func (c *Client) Resolve(ctx context.Context, code string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/"+url.PathEscape(code), nil)
	if err != nil {
		return "", err
	}

	noFollow := *c.httpClient
	noFollow.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	resp, err := noFollow.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", decodeError(resp)
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return "", ErrNoRedirect
	}
	return location, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func decodeResponse(resp *http.Response, v any) error {
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	var body model.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
		if body.Message != "" {
			apiErr.Message += ": " + body.Message
		}
	}
	return apiErr
}
