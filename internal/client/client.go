// Package client talks to a running habitpal server for the CLI commands.
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

	"github.com/lazypower/habitpal/internal/engine"
	"github.com/lazypower/habitpal/internal/model"
)

const DefaultTimeout = 5 * time.Second

// Client talks to the habitpal server.
type Client struct {
	http    *http.Client
	baseURL string
}

// New creates a client for the server at baseURL. A zero timeout uses
// DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// StatusError is returned for any response with a 4xx or 5xx status.
type StatusError struct {
	Method  string
	Path    string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Message)
}

// do sends a request with an optional JSON body and returns the response body.
func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", path, err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response %s: %w", path, err)
	}
	if resp.StatusCode >= 400 {
		msg := strings.TrimSpace(string(data))
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return data, &StatusError{Method: method, Path: path, Code: resp.StatusCode, Message: msg}
	}
	return data, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	data, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Healthy checks if the server is reachable.
func (c *Client) Healthy(ctx context.Context) bool {
	_, err := c.do(ctx, http.MethodGet, "/api/health", nil)
	return err == nil
}

// State fetches the full application state.
func (c *Client) State(ctx context.Context) (engine.State, error) {
	var st engine.State
	err := c.doJSON(ctx, http.MethodGet, "/api/state", nil, &st)
	return st, err
}

// Summary fetches today's markdown summary.
func (c *Client) Summary(ctx context.Context) (string, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/summary", nil)
	return string(data), err
}

// Progress is the server's answer to a log or undo.
type Progress struct {
	Changed   bool                `json:"changed"`
	Progress  model.DailyProgress `json:"progress"`
	Stats     model.HabitStats    `json:"stats"`
	Companion *model.Companion    `json:"companion"`
}

type progressBody struct {
	Date string     `json:"date,omitempty"`
	Mood model.Mood `json:"mood,omitempty"`
}

// Log records one increment for habitID on date ("" is today).
func (c *Client) Log(ctx context.Context, habitID, date string, mood model.Mood) (Progress, error) {
	var p Progress
	err := c.doJSON(ctx, http.MethodPost, "/api/habits/"+habitID+"/log", progressBody{Date: date, Mood: mood}, &p)
	return p, err
}

// Undo removes one increment for habitID on date ("" is today).
func (c *Client) Undo(ctx context.Context, habitID, date string) (Progress, error) {
	var p Progress
	err := c.doJSON(ctx, http.MethodPost, "/api/habits/"+habitID+"/undo", progressBody{Date: date}, &p)
	return p, err
}

// AddHabit creates a habit and returns it with its assigned ID.
func (c *Client) AddHabit(ctx context.Context, h engine.NewHabit) (model.Habit, error) {
	var out model.Habit
	err := c.doJSON(ctx, http.MethodPost, "/api/habits", h, &out)
	return out, err
}

// CreateCompanion hatches a companion. reset replaces an existing one.
func (c *Client) CreateCompanion(ctx context.Context, name, color string, reset bool) (*model.Companion, error) {
	var out model.Companion
	body := map[string]any{"name": name, "color": color, "reset": reset}
	if err := c.doJSON(ctx, http.MethodPost, "/api/companion", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
