// Package client is a small JSON client for the lesson service API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vmx-pso/lesson-service/internal/data"
)

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SetToken sets the bearer token sent with every request.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Do sends body as JSON and decodes a 2xx response into dst. Any other status
// comes back as an *APIError.
func (c *Client) Do(ctx context.Context, method, path string, body, dst any) error {
	var reader io.Reader
	if body != nil {
		js, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(js)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp)
	}

	if dst == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// Login exchanges credentials for a bearer token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*data.Token, error) {
	var out struct {
		Token data.Token `json:"authentication_token"`
	}

	err := c.Do(ctx, http.MethodPost, "/v1/tokens/authentication", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}

	c.SetToken(out.Token.Plaintext)

	return &out.Token, nil
}

type SongQuery struct {
	Title    string
	Author   string
	Level    string
	Key      string
	Sort     string
	Page     int
	PageSize int
}

func (q SongQuery) values() url.Values {
	qs := url.Values{}

	set := func(key, value string) {
		if value != "" {
			qs.Set(key, value)
		}
	}

	set("title", q.Title)
	set("author", q.Author)
	set("level", q.Level)
	set("key", q.Key)
	set("sort", q.Sort)

	if q.Page > 0 {
		qs.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		qs.Set("page_size", strconv.Itoa(q.PageSize))
	}

	return qs
}

func (c *Client) ListSongs(ctx context.Context, q SongQuery) ([]*data.Song, data.Metadata, error) {
	var out struct {
		Songs    []*data.Song  `json:"songs"`
		Metadata data.Metadata `json:"metadata"`
	}

	path := "/v1/songs"
	if qs := q.values().Encode(); qs != "" {
		path += "?" + qs
	}

	err := c.Do(ctx, http.MethodGet, path, nil, &out)
	if err != nil {
		return nil, data.Metadata{}, err
	}

	return out.Songs, out.Metadata, nil
}

func (c *Client) SongStats(ctx context.Context) (*data.SongStats, error) {
	var out struct {
		Stats *data.SongStats `json:"stats"`
	}

	err := c.Do(ctx, http.MethodGet, "/v1/stats/songs", nil, &out)
	if err != nil {
		return nil, err
	}

	return out.Stats, nil
}

func (c *Client) LessonStats(ctx context.Context) (*data.LessonStats, error) {
	var out struct {
		Stats *data.LessonStats `json:"stats"`
	}

	err := c.Do(ctx, http.MethodGet, "/v1/stats/lessons", nil, &out)
	if err != nil {
		return nil, err
	}

	return out.Stats, nil
}
