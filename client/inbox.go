package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"

	"executive-portfolio-api/models"
)

// ListOptions select and order the inbox page to fetch. Zero values mean
// page 1, the server default page size, newest first, all statuses.
type ListOptions struct {
	Page     int
	PageSize int
	SortBy   string
	Status   string
	Search   string
}

// ListPage is one fetched page plus the pagination facts needed to clamp
// subsequent requests.
type ListPage struct {
	Messages    []models.Message
	TotalPages  int
	CurrentPage int
	TotalCount  int64
}

// Inbox is the admin list view. Concurrent fetches are sequenced so that a
// slow, stale response can never overwrite the state of a later request:
// each fetch takes a monotonically increasing token and only the holder of
// the newest token gets to apply its result.
type Inbox struct {
	client *Client

	seq atomic.Uint64

	mu         sync.Mutex
	messages   []models.Message
	totalPages int
	page       int
	totalCount int64
	stats      models.MessageStats
}

func NewInbox(c *Client) *Inbox {
	return &Inbox{client: c, totalPages: 1, page: 1}
}

// Messages returns the currently applied page.
func (i *Inbox) Messages() []models.Message {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]models.Message, len(i.messages))
	copy(out, i.messages)
	return out
}

// Page returns the current page and total page count.
func (i *Inbox) Page() (current, total int) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.page, i.totalPages
}

// TotalCount returns the number of messages matching the last applied
// list filter.
func (i *Inbox) TotalCount() int64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.totalCount
}

// Stats returns the last fetched aggregate counts.
func (i *Inbox) Stats() models.MessageStats {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.stats
}

// List fetches a page of messages. The requested page is clamped to
// [1, last-known total pages] before the request, so paging past either end
// is a no-op rather than an error. The returned page reports whether it was
// applied; a stale result (superseded by a newer List call) is returned to
// the caller but never stored.
func (i *Inbox) List(ctx context.Context, opts ListOptions) (*ListPage, bool, error) {
	i.mu.Lock()
	if opts.Page < 1 {
		opts.Page = 1
	}
	if i.totalPages > 0 && opts.Page > i.totalPages {
		opts.Page = i.totalPages
	}
	i.mu.Unlock()

	token := i.seq.Add(1)

	page, err := i.client.listMessages(ctx, opts)
	if err != nil {
		return nil, false, err
	}

	// Checked under the same lock as the apply so a newer request can never
	// slip in between the comparison and the assignment
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.seq.Load() != token {
		return page, false, nil
	}

	i.messages = page.Messages
	i.totalPages = page.TotalPages
	i.page = page.CurrentPage
	i.totalCount = page.TotalCount

	return page, true, nil
}

// RefreshStats fetches the aggregate counts for the summary tiles.
func (i *Inbox) RefreshStats(ctx context.Context) (models.MessageStats, error) {
	stats, err := i.client.messageStats(ctx)
	if err != nil {
		return models.MessageStats{}, err
	}

	i.mu.Lock()
	i.stats = stats
	i.mu.Unlock()
	return stats, nil
}

// Delete permanently removes a message after the confirm callback approves.
// Without approval no request is issued. Callers should re-list and refresh
// stats afterwards; both stay consistent with the deletion.
func (i *Inbox) Delete(ctx context.Context, id string, confirm ConfirmFunc) error {
	if confirm == nil || !confirm("Are you sure you want to delete this message? This cannot be undone.") {
		return ErrNotConfirmed
	}
	return i.client.deleteMessage(ctx, id)
}

func (c *Client) listMessages(ctx context.Context, opts ListOptions) (*ListPage, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(opts.Page))
	if opts.PageSize > 0 {
		query.Set("limit", strconv.Itoa(opts.PageSize))
	}
	if opts.SortBy != "" {
		query.Set("sortBy", opts.SortBy)
	}
	if opts.Status != "" {
		query.Set("status", opts.Status)
	}
	if opts.Search != "" {
		query.Set("search", opts.Search)
	}

	req, err := c.newRequest(http.MethodGet, "/api/messages/admin/all?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Messages    []models.Message `json:"messages"`
			TotalPages  int              `json:"totalPages"`
			CurrentPage int              `json:"currentPage"`
			TotalCount  int64            `json:"totalCount"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode message list: %w", err)
	}

	return &ListPage{
		Messages:    body.Data.Messages,
		TotalPages:  body.Data.TotalPages,
		CurrentPage: body.Data.CurrentPage,
		TotalCount:  body.Data.TotalCount,
	}, nil
}

func (c *Client) messageStats(ctx context.Context) (models.MessageStats, error) {
	req, err := c.newRequest(http.MethodGet, "/api/messages/admin/stats", nil)
	if err != nil {
		return models.MessageStats{}, err
	}

	resp, err := c.http.Do(req.WithContext(ctx))
	if err != nil {
		return models.MessageStats{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.MessageStats{}, decodeError(resp)
	}

	var body struct {
		Success bool                `json:"success"`
		Data    models.MessageStats `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return models.MessageStats{}, fmt.Errorf("decode message stats: %w", err)
	}
	return body.Data, nil
}

func (c *Client) deleteMessage(ctx context.Context, id string) error {
	req, err := c.newRequest(http.MethodDelete, "/api/messages/admin/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req.WithContext(ctx))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return decodeError(resp)
	}
}
