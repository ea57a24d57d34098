// Package upstreamapi is the monitor's HTTP client for the upstream
// phira API: chart metadata/download for the chart cache, login/identity
// for the auth relay, and room listings for the room directory. The
// upstream's own chart-format parsing is out of scope here — Download
// expects the upstream to hand back the same serialized (ChartInfo,
// Chart) wire shape the monitor itself serves over /chart/{id}.
package upstreamapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/chart"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/chartcodec"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/diag"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/httpapi"
)

// Client is a thin HTTP client against the upstream phira API base.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New builds a Client with a sane request timeout.
func New(baseURL string) *Client {
	return &Client{BaseURL: baseURL, HTTP: &http.Client{Timeout: 15 * time.Second}}
}

type chartMeta struct {
	ChartUpdated string `json:"chart_updated"`
}

// FetchMetadata satisfies chartcache.Fetcher.
func (c *Client) FetchMetadata(ctx context.Context, id string) (string, error) {
	var meta chartMeta
	if err := c.getJSON(ctx, fmt.Sprintf("/chart/%s/meta", id), &meta); err != nil {
		return "", &diag.Error{Kind: diag.TransientUpstream, Op: "upstreamapi.FetchMetadata", Err: err}
	}
	return meta.ChartUpdated, nil
}

// Download satisfies chartcache.Fetcher.
func (c *Client) Download(ctx context.Context, id string) (*chart.Info, *chart.Chart, error) {
	data, err := c.getBytes(ctx, fmt.Sprintf("/chart/%s/download", id))
	if err != nil {
		return nil, nil, &diag.Error{Kind: diag.TransientUpstream, Op: "upstreamapi.Download", Err: err}
	}
	info, ch, err := chartcodec.Decode(data)
	if err != nil {
		return nil, nil, &diag.Error{Kind: diag.ParseError, Op: "upstreamapi.Download", Err: err}
	}
	return info, ch, nil
}

// Login satisfies httpapi.AuthClient.
func (c *Client) Login(ctx context.Context, username, password string) (string, httpapi.AuthUser, error) {
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	req, err := c.newRequest(ctx, http.MethodPost, "/login", bytes.NewReader(body))
	if err != nil {
		return "", httpapi.AuthUser{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		Token string          `json:"token"`
		User  httpapi.AuthUser `json:"user"`
	}
	if err := c.doJSON(req, &out); err != nil {
		return "", httpapi.AuthUser{}, err
	}
	return out.Token, out.User, nil
}

// Me satisfies httpapi.AuthClient.
func (c *Client) Me(ctx context.Context, token string) (httpapi.AuthUser, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/me", nil)
	if err != nil {
		return httpapi.AuthUser{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var user httpapi.AuthUser
	if err := c.doJSON(req, &user); err != nil {
		return httpapi.AuthUser{}, err
	}
	return user, nil
}

// ListRooms satisfies httpapi.RoomLister.
func (c *Client) ListRooms(ctx context.Context) ([]httpapi.RoomSummary, error) {
	var rooms []httpapi.RoomSummary
	if err := c.getJSON(ctx, "/rooms", &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	return http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("upstream %s %s: status %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.doJSON(req, out)
}

func (c *Client) getBytes(ctx context.Context, path string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("upstream GET %s: status %d", path, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
