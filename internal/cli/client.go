package cli

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
)

// Client is the thin HTTP wrapper plunderctl speaks to the API with. The
// acting user rides on every request in X-User-ID; admin calls carry the
// bearer token instead.
type Client struct {
	BaseURL    string
	UserID     string
	AdminToken string
	HTTP       *http.Client
}

func NewClient(baseURL, userID, adminToken string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		UserID:     userID,
		AdminToken: adminToken,
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) Balances(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/balances", nil, &out)
	return out, err
}

func (c *Client) Daily(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/daily", map[string]any{}, &out)
	return out, err
}

func (c *Client) Deposit(ctx context.Context, amount int64) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/deposit", map[string]any{"amount": amount}, &out)
	return out, err
}

func (c *Client) Withdraw(ctx context.Context, amount int64) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/withdraw", map[string]any{"amount": amount}, &out)
	return out, err
}

func (c *Client) Transfer(ctx context.Context, to string, amount int64) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/transfer", map[string]any{"to": to, "amount": amount}, &out)
	return out, err
}

func (c *Client) Work(ctx context.Context, skill string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/work/"+url.PathEscape(skill), map[string]any{}, &out)
	return out, err
}

func (c *Client) PlayGame(ctx context.Context, game string, stake int64) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/games/"+url.PathEscape(game), map[string]any{"stake": stake}, &out)
	return out, err
}

func (c *Client) Steal(ctx context.Context, target string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/steal", map[string]any{"target": target}, &out)
	return out, err
}

func (c *Client) HeistStart(ctx context.Context, stake int64) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/heists", map[string]any{"stake": stake}, &out)
	return out, err
}

func (c *Client) HeistJoin(ctx context.Context, id string, stake int64) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/heists/"+url.PathEscape(id)+"/join", map[string]any{"stake": stake}, &out)
	return out, err
}

func (c *Client) HeistStatus(ctx context.Context, id string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/heists/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) HeistResolve(ctx context.Context, id string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/heists/"+url.PathEscape(id)+"/resolve", map[string]any{}, &out)
	return out, err
}

func (c *Client) Stats(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/stats", nil, &out)
	return out, err
}

func (c *Client) Shop(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/shop", nil, &out)
	return out, err
}

func (c *Client) Buy(ctx context.Context, itemKey string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/shop/buy", map[string]any{"item_key": itemKey}, &out)
	return out, err
}

func (c *Client) BankUpgrade(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/shop/bank-upgrade", map[string]any{}, &out)
	return out, err
}

func (c *Client) Equip(ctx context.Context, itemKey string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/equip", map[string]any{"item_key": itemKey}, &out)
	return out, err
}

func (c *Client) Leaderboard(ctx context.Context, kind string, limit int) (map[string]any, error) {
	path := "/v1/leaderboard/" + url.PathEscape(kind)
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) AdminGrant(ctx context.Context, userID string, amount int64) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/admin/grant", map[string]any{"user_id": userID, "amount": amount}, &out)
	return out, err
}

func (c *Client) AdminXP(ctx context.Context, userID, skill string, xp int64) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/admin/xp", map[string]any{"user_id": userID, "skill": skill, "xp": xp}, &out)
	return out, err
}

// Do issues an arbitrary request. The offline queue replays captured
// commands through it.
func (c *Client) Do(ctx context.Context, method, path string, body map[string]any) (map[string]any, error) {
	var in any
	if body != nil {
		in = body
	}
	var out map[string]any
	err := c.jsonRequest(ctx, method, path, in, &out)
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
	if c.UserID != "" {
		req.Header.Set("X-User-ID", c.UserID)
	}
	if c.AdminToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AdminToken)
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
