package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/notewire/notewire/pkg/types"
)

// Client wraps the HTTP API for CLI usage.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a client against the server at base, e.g.
// "http://localhost:3000".
func NewClient(base string) *Client {
	return &Client{
		base: base,
		http: &http.Client{Timeout: 15 * time.Second},
	}
}

type noteRequest struct {
	Key   string `json:"key,omitempty"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// NoteList mirrors the server's index response.
type NoteList struct {
	Count int               `json:"count"`
	Notes []types.NoteTitle `json:"notes"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, &buf)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var remote errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&remote); err == nil && remote.Error != "" {
			return fmt.Errorf("%s %s: %s (status %d)", method, path, remote.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// CreateNote creates a note with the given key.
func (c *Client) CreateNote(ctx context.Context, key, title, body string) (*types.Note, error) {
	var note types.Note
	err := c.do(ctx, http.MethodPost, "/notes", noteRequest{Key: key, Title: title, Body: body}, &note)
	if err != nil {
		return nil, err
	}
	return &note, nil
}

// ReadNote fetches a note by key.
func (c *Client) ReadNote(ctx context.Context, key string) (*types.Note, error) {
	var note types.Note
	if err := c.do(ctx, http.MethodGet, "/notes/"+key, nil, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// UpdateNote replaces a note's title and body.
func (c *Client) UpdateNote(ctx context.Context, key, title, body string) (*types.Note, error) {
	var note types.Note
	if err := c.do(ctx, http.MethodPut, "/notes/"+key, noteRequest{Title: title, Body: body}, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// DestroyNote deletes a note by key.
func (c *Client) DestroyNote(ctx context.Context, key string) error {
	return c.do(ctx, http.MethodDelete, "/notes/"+key, nil, nil)
}

// ListNotes fetches the index view.
func (c *Client) ListNotes(ctx context.Context) (*NoteList, error) {
	var list NoteList
	if err := c.do(ctx, http.MethodGet, "/notes", nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// RecentMessages fetches the recent chat messages for a note's room.
func (c *Client) RecentMessages(ctx context.Context, key string) ([]types.Message, error) {
	var recent []types.Message
	if err := c.do(ctx, http.MethodGet, "/notes/"+key+"/messages", nil, &recent); err != nil {
		return nil, err
	}
	return recent, nil
}
