package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/careview/careview/internal/record"
	"github.com/careview/careview/internal/session"
)

type mockLister struct {
	mu    sync.Mutex
	rows  []record.Record
	err   error
	calls int
}

func (m *mockLister) GetList(_ context.Context, _ string) ([]record.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.rows, m.err
}

func TestPoller_FeedsAndBroadcasts(t *testing.T) {
	lister := &mockLister{rows: []record.Record{
		{"id": "n1", "message": "stock low", "role": "Pharmacist", "createdAt": "2026-03-01T10:00:00Z"},
		{"id": "n2", "message": "bill pending", "role": "Cashier"},
		{"message": "no id, dropped"},
	}}
	feed := NewFeed(nil, zerolog.Nop())
	hub := NewHub()
	pharm := newClient(session.RolePharmacist)
	hub.Register(pharm)

	p := NewPoller(lister, feed, hub, time.Minute, zerolog.Nop())
	p.poll(context.Background())

	if got := len(feed.All()); got != 2 {
		t.Fatalf("expected 2 notifications in feed, got %d", got)
	}
	select {
	case <-pharm.Send:
	default:
		t.Error("pharmacist client missed its role-targeted alert")
	}

	// Second poll of the same payload must not re-deliver.
	p.poll(context.Background())
	if got := len(feed.All()); got != 2 {
		t.Errorf("duplicate poll re-delivered: %d notifications", got)
	}
	select {
	case <-pharm.Send:
		t.Error("duplicate poll re-broadcast an alert")
	default:
	}
}

func TestPoller_SurvivesUpstreamFailure(t *testing.T) {
	lister := &mockLister{err: errors.New("network")}
	feed := NewFeed(nil, zerolog.Nop())

	p := NewPoller(lister, feed, nil, time.Minute, zerolog.Nop())
	p.poll(context.Background())

	if len(feed.All()) != 0 {
		t.Error("failed poll must not fabricate notifications")
	}
}

func TestPoller_RunStopsOnCancel(t *testing.T) {
	lister := &mockLister{}
	p := NewPoller(lister, NewFeed(nil, zerolog.Nop()), nil, time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop on context cancel")
	}

	lister.mu.Lock()
	defer lister.mu.Unlock()
	if lister.calls == 0 {
		t.Error("expected at least one poll before cancel")
	}
}
