package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ouro/internal/game"
)

// Client talks to a running ouro-api.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   strings.TrimSpace(token),
		HTTP: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Result is the body of actions whose precondition may not hold.
type Result struct {
	OK      bool    `json:"ok"`
	ID      string  `json:"id,omitempty"`
	Upgrade string  `json:"upgrade,omitempty"`
	Scales  float64 `json:"scales,omitempty"`
}

func (c *Client) Snapshot(ctx context.Context) (game.Snapshot, error) {
	var out game.Snapshot
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/snapshot", nil, &out)
	return out, err
}

func (c *Client) Bite(ctx context.Context, at time.Time) (game.BiteOutcome, error) {
	var (
		out  game.BiteOutcome
		body any
	)
	if !at.IsZero() {
		body = map[string]any{"at": at}
	}
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/bite", body, &out)
	return out, err
}

func (c *Client) PurchaseSlot(ctx context.Context, slot int) (Result, error) {
	var out Result
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/purchase", map[string]any{"slot": slot}, &out)
	return out, err
}

func (c *Client) Purchase(ctx context.Context, id string) (Result, error) {
	var out Result
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/purchase", map[string]any{"id": id}, &out)
	return out, err
}

func (c *Client) Shed(ctx context.Context) (Result, error) {
	var out Result
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/shed", nil, &out)
	return out, err
}

func (c *Client) Ascend(ctx context.Context, purchases map[string]int) (bool, game.AscendResult, error) {
	var out struct {
		OK     bool              `json:"ok"`
		Result game.AscendResult `json:"result"`
	}
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/ascend", map[string]any{"purchases": purchases}, &out)
	return out.OK, out.Result, err
}

// Action posts to an endpoint that takes no body, such as golden/catch.
func (c *Client) Action(ctx context.Context, path string) (Result, error) {
	var out Result
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/"+strings.TrimLeft(path, "/"), nil, &out)
	return out, err
}

func (c *Client) Save(ctx context.Context) error {
	return c.jsonRequest(ctx, http.MethodPost, "/v1/save", nil, nil)
}

func (c *Client) Wipe(ctx context.Context) (game.Snapshot, error) {
	var out game.Snapshot
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/wipe", map[string]any{"confirm": true}, &out)
	return out, err
}

func (c *Client) Export(ctx context.Context) ([]byte, error) {
	var out json.RawMessage
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/export", nil, &out)
	return out, err
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("api status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
