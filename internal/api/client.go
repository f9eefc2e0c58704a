package api

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

	"golang.org/x/sync/errgroup"

	"github.com/javiermolinar/dayline/internal/dateutil"
	"github.com/javiermolinar/dayline/internal/item"
	"github.com/javiermolinar/dayline/internal/planner"
	"github.com/javiermolinar/dayline/internal/session"
)

var _ session.Backend = (*Client)(nil)

// Client talks to a dayline server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Items fetches events and tasks for day in parallel.
func (c *Client) Items(ctx context.Context, day time.Time) ([]item.Item, error) {
	var events, tasks []item.Item
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		events, err = c.List(gctx, day, item.KindEvent)
		return err
	})
	g.Go(func() error {
		var err error
		tasks, err = c.List(gctx, day, item.KindTask)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return item.NewDay(day, append(events, tasks...)).Items(), nil
}

// List fetches the items of one kind for day.
func (c *Client) List(ctx context.Context, day time.Time, kind item.Kind) ([]item.Item, error) {
	q := url.Values{}
	q.Set("date", dateutil.FormatDate(day))
	q.Set("kind", string(kind))

	var dtos []ItemDTO
	if _, err := c.do(ctx, http.MethodGet, "/api/v1/items?"+q.Encode(), nil, &dtos); err != nil {
		return nil, err
	}
	return toItems(dtos)
}

// Trash fetches deleted items.
func (c *Client) Trash(ctx context.Context) ([]item.Item, error) {
	var dtos []ItemDTO
	if _, err := c.do(ctx, http.MethodGet, "/api/v1/trash", nil, &dtos); err != nil {
		return nil, err
	}
	return toItems(dtos)
}

// ProposeWrite submits a proposal. Conflicts and messages are results, not
// errors.
func (c *Client) ProposeWrite(ctx context.Context, p item.Proposal) (item.WriteResult, error) {
	var dto WriteResultDTO
	if _, err := c.do(ctx, http.MethodPost, "/api/v1/proposals", NewProposalRequest(p), &dto,
		http.StatusConflict, http.StatusBadRequest); err != nil {
		return item.WriteResult{}, err
	}
	return dto.WriteResult()
}

// Reschedule moves an item to another day.
func (c *Client) Reschedule(ctx context.Context, id string, day time.Time) error {
	body := RescheduleRequest{Date: dateutil.FormatDate(day)}
	_, err := c.do(ctx, http.MethodPost, "/api/v1/items/"+url.PathEscape(id)+"/reschedule", body, nil)
	return err
}

// Delete moves an item to the trash.
func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/v1/items/"+url.PathEscape(id), nil, nil)
	return err
}

// Restore takes an item out of the trash.
func (c *Client) Restore(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodPost, "/api/v1/items/"+url.PathEscape(id)+"/restore", nil, nil)
	return err
}

// PreviewQuickAdd asks the server how text would be parsed and what it
// would overlap.
func (c *Client) PreviewQuickAdd(ctx context.Context, text string, today time.Time) (planner.Preview, error) {
	var preview QuickAddPreview
	body := QuickAddRequest{Text: text, Today: dateutil.FormatDate(today)}
	if _, err := c.do(ctx, http.MethodPost, "/api/v1/quick-add/preview", body, &preview); err != nil {
		return planner.Preview{}, err
	}
	return preview.Preview()
}

// do sends a JSON request and decodes the envelope's data into out.
// Statuses in accept are decoded like 2xx.
func (c *Client) do(ctx context.Context, method, path string, body, out any, accept ...int) (int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	for _, s := range accept {
		ok = ok || resp.StatusCode == s
	}
	if resp.StatusCode == http.StatusNoContent {
		return resp.StatusCode, nil
	}

	var env struct {
		Data  json.RawMessage `json:"data"`
		Error *Error          `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && err != io.EOF {
		return resp.StatusCode, fmt.Errorf("%s %s: decoding response (status %d): %w", method, path, resp.StatusCode, err)
	}

	if env.Error != nil {
		return resp.StatusCode, toDomain(env.Error)
	}
	if !ok {
		return resp.StatusCode, fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("%s %s: decoding data: %w", method, path, err)
		}
	}
	return resp.StatusCode, nil
}
