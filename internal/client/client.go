// Package client talks to the upload api and to the pre-signed storage urls it hands out.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	uploadv1 "github.com/ryu-qqq/FileFlow-sub002/internal/adapters/handlers/http/chi/v1/upload"

	"github.com/google/uuid"
)

// APIError is a non 2xx answer of the api
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api returned %d: %s", e.StatusCode, e.Message)
}

// Client calls the v1 upload api with a bearer token
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New returns a Client for the api served at baseURL
func New(baseURL string, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), token: token, http: httpClient}
}

func (c *Client) sessionPath(sessionID uuid.UUID, suffix string) string {
	return fmt.Sprintf("/api/v1/upload/sessions/%s%s", sessionID, suffix)
}

func (c *Client) CreateSession(ctx context.Context, req uploadv1.V1CreateSessionRequest) (*uploadv1.V1CreateSessionResponse, error) {
	var resp uploadv1.V1CreateSessionResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/upload/sessions", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetStatus(ctx context.Context, sessionID uuid.UUID) (*uploadv1.V1StatusResponse, error) {
	var resp uploadv1.V1StatusResponse
	if err := c.do(ctx, http.MethodGet, c.sessionPath(sessionID, ""), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) PartURL(ctx context.Context, sessionID uuid.UUID, partNumber int) (*uploadv1.V1PartURLResponse, error) {
	var resp uploadv1.V1PartURLResponse
	if err := c.do(ctx, http.MethodPost, c.sessionPath(sessionID, fmt.Sprintf("/parts/%d/url", partNumber)), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) MarkPart(ctx context.Context, sessionID uuid.UUID, partNumber int, etag string, sizeBytes int64) (*uploadv1.V1StatusResponse, error) {
	var resp uploadv1.V1StatusResponse
	req := uploadv1.V1MarkPartRequest{ETag: etag, SizeBytes: sizeBytes}
	if err := c.do(ctx, http.MethodPut, c.sessionPath(sessionID, fmt.Sprintf("/parts/%d", partNumber)), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Complete(ctx context.Context, sessionID uuid.UUID) (*uploadv1.V1CompletionResponse, error) {
	var resp uploadv1.V1CompletionResponse
	if err := c.do(ctx, http.MethodPost, c.sessionPath(sessionID, "/complete"), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Confirm(ctx context.Context, sessionID uuid.UUID, etag string) (*uploadv1.V1CompletionResponse, error) {
	var resp uploadv1.V1CompletionResponse
	req := uploadv1.V1ConfirmUploadRequest{ETag: etag}
	if err := c.do(ctx, http.MethodPost, c.sessionPath(sessionID, "/confirm"), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Cancel(ctx context.Context, sessionID uuid.UUID) (*uploadv1.V1Session, error) {
	var resp uploadv1.V1Session
	if err := c.do(ctx, http.MethodDelete, c.sessionPath(sessionID, ""), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Put sends body to a pre-signed url and returns the etag reported by storage
func (c *Client) Put(ctx context.Context, grant *uploadv1.V1Grant, body io.Reader, sizeBytes int64) (string, error) {
	method := grant.Method
	if method == "" {
		method = http.MethodPut
	}
	req, err := http.NewRequestWithContext(ctx, method, grant.URL, body)
	if err != nil {
		return "", err
	}
	req.ContentLength = sizeBytes
	for key, value := range grant.Headers {
		req.Header.Set(key, value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to put object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("storage returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return resp.Header.Get("ETag"), nil
}

func (c *Client) do(ctx context.Context, method string, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
