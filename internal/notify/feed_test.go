package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type mockAcker struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (m *mockAcker) Post(_ context.Context, path string, _ any) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths = append(m.paths, path)
	if m.err != nil {
		return nil, m.err
	}
	return json.RawMessage(`{"message":"ok"}`), nil
}

func TestFeed_NewestFirstAndDedupe(t *testing.T) {
	f := NewFeed(nil, zerolog.Nop())

	if !f.Push(Notification{ID: "n1", Message: "first"}) {
		t.Fatal("expected n1 to be new")
	}
	f.Push(Notification{ID: "n2", Message: "second"})
	if f.Push(Notification{ID: "n1", Message: "dup"}) {
		t.Error("duplicate id must be ignored")
	}

	all := f.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(all))
	}
	if all[0].ID != "n2" || all[1].ID != "n1" {
		t.Errorf("expected newest first, got %s then %s", all[0].ID, all[1].ID)
	}
	if f.UnreadCount() != 2 {
		t.Errorf("expected 2 unread, got %d", f.UnreadCount())
	}
}

func TestFeed_MarkReadConfirmsUpstream(t *testing.T) {
	acker := &mockAcker{}
	f := NewFeed(acker, zerolog.Nop())
	f.Push(Notification{ID: "n1", Message: "hello"})

	if err := f.MarkRead(context.Background(), "n1"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if f.UnreadCount() != 0 {
		t.Errorf("expected 0 unread, got %d", f.UnreadCount())
	}
	if len(acker.paths) != 1 || acker.paths[0] != "/api/notifications/n1/read" {
		t.Errorf("expected one read receipt, got %v", acker.paths)
	}
}

func TestFeed_MarkReadNotRolledBackOnAckFailure(t *testing.T) {
	acker := &mockAcker{err: errors.New("upstream down")}
	f := NewFeed(acker, zerolog.Nop())
	f.Push(Notification{ID: "n1"})

	if err := f.MarkRead(context.Background(), "n1"); err == nil {
		t.Fatal("expected the ack failure to surface")
	}
	// Local state keeps the flip even though the backend never confirmed.
	if f.UnreadCount() != 0 {
		t.Errorf("expected local read state retained, got %d unread", f.UnreadCount())
	}
}

func TestFeed_MarkReadUnknownID(t *testing.T) {
	f := NewFeed(&mockAcker{}, zerolog.Nop())
	if err := f.MarkRead(context.Background(), "ghost"); err == nil {
		t.Error("expected error for unknown notification")
	}
}

func TestFeed_SubscribeReceivesNewOnly(t *testing.T) {
	f := NewFeed(nil, zerolog.Nop())

	var got []string
	f.Subscribe(func(n Notification) { got = append(got, n.ID) })

	f.Push(Notification{ID: "a"})
	f.Push(Notification{ID: "a"}) // dupe: no callback
	f.Push(Notification{ID: "b"})

	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("unexpected subscriber deliveries: %v", got)
	}
}

func TestFeed_PushDefaultsToUnread(t *testing.T) {
	f := NewFeed(nil, zerolog.Nop())
	f.Push(Notification{ID: "x", CreatedAt: time.Now()})
	if f.All()[0].Status != StatusUnread {
		t.Errorf("expected default status unread, got %q", f.All()[0].Status)
	}
}
