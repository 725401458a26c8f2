// Package relay implements the data-provider interface against the relay
// daemon's JSON-over-HTTP API.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/blobbi/island/internal/errs"
	"github.com/blobbi/island/internal/event"
)

// Client talks to one relay over HTTP. Per-request deadlines come from the
// caller's context; the underlying client timeout is a hard upper bound so a
// partitioned relay cannot hang the UI.
type Client struct {
	base string
	http *http.Client
}

// NewClient constructs a relay client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		base: baseURL,
		http: &http.Client{Timeout: timeout},
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// QueryLatest fetches the latest events for a kind and author.
func (c *Client) QueryLatest(ctx context.Context, kind int, author string) ([]event.Event, error) {
	u := fmt.Sprintf("%s/events?kind=%s&author=%s",
		c.base, strconv.Itoa(kind), url.QueryEscape(author))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, remoteError(resp)
	}
	var out []event.Event
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return out, nil
}

// Publish posts a signed event to the relay.
func (c *Client) Publish(ctx context.Context, ev event.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/events", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		return nil
	case http.StatusTooManyRequests:
		return fmt.Errorf("relay: %w", errs.ErrRateLimited)
	default:
		return remoteError(resp)
	}
}

func remoteError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var eb errorBody
	if json.Unmarshal(b, &eb) == nil && eb.Error != "" {
		return fmt.Errorf("relay: %s (status %d)", eb.Error, resp.StatusCode)
	}
	return fmt.Errorf("relay: status %d", resp.StatusCode)
}
