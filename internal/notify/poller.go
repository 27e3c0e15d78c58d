package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/careview/careview/internal/record"
	"github.com/careview/careview/internal/session"
)

// Lister is the slice of the API client the poller needs.
type Lister interface {
	GetList(ctx context.Context, path string) ([]record.Record, error)
}

// Poller periodically pulls the upstream notification endpoint and feeds
// new alerts into the Feed and the Hub. A failed poll is logged and retried
// on the next tick; the portal stays up without its bell menu.
type Poller struct {
	client   Lister
	feed     *Feed
	hub      *Hub
	interval time.Duration
	logger   zerolog.Logger
}

// NewPoller creates a Poller. hub may be nil when no websocket fan-out is
// wanted (tests).
func NewPoller(client Lister, feed *Feed, hub *Hub, interval time.Duration, logger zerolog.Logger) *Poller {
	return &Poller{client: client, feed: feed, hub: hub, interval: interval, logger: logger}
}

// Run polls until the context is cancelled. It polls once immediately so a
// fresh deploy shows alerts without waiting a full interval.
func (p *Poller) Run(ctx context.Context) {
	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	rows, err := p.client.GetList(ctx, "/api/notifications")
	if err != nil {
		p.logger.Warn().Err(err).Msg("notification poll failed")
		return
	}

	for _, r := range rows {
		n := fromRecord(r)
		if n.ID == "" {
			continue
		}
		if p.feed.Push(n) && p.hub != nil {
			p.hub.Broadcast(roleOf(n), n)
		}
	}
}

func fromRecord(r record.Record) Notification {
	n := Notification{
		ID:      r.ID(""),
		Message: r.String("message"),
		Role:    r.String("role"),
		Status:  StatusUnread,
	}
	if t, err := time.Parse(time.RFC3339, r.String("createdAt")); err == nil {
		n.CreatedAt = t
	}
	return n
}

// roleOf normalizes the upstream role tag; an absent or unknown role means
// the alert goes to everyone.
func roleOf(n Notification) session.Role {
	if n.Role == "" {
		return ""
	}
	role, err := session.ParseRole(n.Role)
	if err != nil {
		return ""
	}
	return role
}
