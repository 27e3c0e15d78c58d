// Package notify carries role-relevant alerts from the upstream API to
// signed-in browsers: a poller pulls new notifications, a feed tracks
// read/unread state, and a websocket hub pushes them out as they arrive.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Notification statuses.
const (
	StatusUnread = "unread"
	StatusRead   = "read"
)

// Notification is one alert as shown in the bell menu.
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Status    string    `json:"status"`
}

// Acker confirms a read upstream; the API client satisfies it.
type Acker interface {
	Post(ctx context.Context, path string, body any) (json.RawMessage, error)
}

// Feed is the in-memory, newest-first notification list. Notifications are
// never deleted, only flipped to read.
type Feed struct {
	mu          sync.Mutex
	items       []*Notification
	byID        map[string]*Notification
	client      Acker
	subscribers []func(Notification)
	logger      zerolog.Logger
}

// NewFeed creates an empty feed confirming reads through client.
func NewFeed(client Acker, logger zerolog.Logger) *Feed {
	return &Feed{
		byID:   make(map[string]*Notification),
		client: client,
		logger: logger,
	}
}

// Push prepends a notification and fans it out to subscribers, reporting
// whether it was new. Duplicate ids are ignored so a poll overlapping a
// push cannot double-deliver.
func (f *Feed) Push(n Notification) bool {
	f.mu.Lock()
	if _, seen := f.byID[n.ID]; seen {
		f.mu.Unlock()
		return false
	}
	if n.Status == "" {
		n.Status = StatusUnread
	}
	stored := n
	f.items = append([]*Notification{&stored}, f.items...)
	f.byID[n.ID] = &stored
	subs := make([]func(Notification), len(f.subscribers))
	copy(subs, f.subscribers)
	f.mu.Unlock()

	for _, fn := range subs {
		fn(n)
	}
	return true
}

// Subscribe registers a callback fired for every newly pushed notification.
func (f *Feed) Subscribe(fn func(Notification)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribers = append(f.subscribers, fn)
}

// MarkRead flips the notification to read immediately, then confirms with
// the upstream. A failed confirmation is logged but the local flip stands;
// the unread badge staying honest for the user outweighs strict agreement
// with a backend that just failed.
func (f *Feed) MarkRead(ctx context.Context, id string) error {
	f.mu.Lock()
	n, ok := f.byID[id]
	if !ok {
		f.mu.Unlock()
		return fmt.Errorf("notification %s not found", id)
	}
	n.Status = StatusRead
	f.mu.Unlock()

	if f.client == nil {
		return nil
	}
	if _, err := f.client.Post(ctx, "/api/notifications/"+id+"/read", nil); err != nil {
		f.logger.Warn().Err(err).Str("notification_id", id).Msg("read receipt not confirmed upstream")
		return err
	}
	return nil
}

// UnreadCount returns the number of unread notifications.
func (f *Feed) UnreadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, item := range f.items {
		if item.Status == StatusUnread {
			n++
		}
	}
	return n
}

// All returns a newest-first copy of the feed.
func (f *Feed) All() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Notification, len(f.items))
	for i, item := range f.items {
		out[i] = *item
	}
	return out
}
