// Package client talks to a roomchat server over its REST API and WebSocket streams.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vovakirdan/roomchat/internal/proto"
)

// APIError is a failed REST call or a rejected stream request.
type APIError struct {
	Status int
	Code   string
	Msg    string
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("api error (status %d): %s: %s", e.Status, e.Code, e.Msg)
	}
	return fmt.Sprintf("api error: %s: %s", e.Code, e.Msg)
}

// Client provides access to a roomchat server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the server at baseURL, e.g. "http://localhost:8080".
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetHTTPClient allows setting a custom HTTP client.
func (c *Client) SetHTTPClient(client *http.Client) {
	if client != nil {
		c.httpClient = client
	}
}

// CreateRoom creates a room with the given display name.
func (c *Client) CreateRoom(ctx context.Context, name string) (*proto.Room, error) {
	var resp proto.Room
	if err := c.post(ctx, "/api/rooms", proto.CreateRoomRequest{Name: name}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListRooms returns every room on the server.
func (c *Client) ListRooms(ctx context.Context) ([]proto.Room, error) {
	var resp []proto.Room
	if err := c.get(ctx, "/api/rooms", &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// History returns a snapshot of a room's messages in timestamp order.
func (c *Client) History(ctx context.Context, roomID string) (*proto.History, error) {
	var resp proto.History
	if err := c.get(ctx, "/api/rooms/"+url.PathEscape(roomID)+"/messages", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, body, dest any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, dest)
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, dest)
}

func (c *Client) do(req *http.Request, dest any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp.StatusCode, body)
	}

	if dest != nil {
		if err := json.Unmarshal(body, dest); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

func decodeAPIError(status int, body []byte) error {
	var errResp proto.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Code != "" {
		return &APIError{Status: status, Code: errResp.Error.Code, Msg: errResp.Error.Msg}
	}
	return &APIError{Status: status, Code: "http_error", Msg: strings.TrimSpace(string(body))}
}

// wsURL maps the REST base URL onto the WebSocket scheme.
func (c *Client) wsURL(path string) string {
	base := c.baseURL
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + path
}
