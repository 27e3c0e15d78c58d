package notify

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/careview/careview/internal/session"
)

func newClient(role session.Role) *Client {
	return &Client{ID: string(role) + "-client", Role: role, Send: make(chan []byte, 8)}
}

func TestHub_RegisterUnregister(t *testing.T) {
	h := NewHub()
	doc := newClient(session.RoleDoctor)

	h.Register(doc)
	if h.ClientCount() != 1 || h.RoleCount(session.RoleDoctor) != 1 {
		t.Errorf("expected one registered doctor client")
	}

	h.Unregister(doc)
	if h.ClientCount() != 0 || h.RoleCount(session.RoleDoctor) != 0 {
		t.Errorf("expected empty hub after unregister")
	}
	if _, open := <-doc.Send; open {
		t.Error("expected Send channel closed on unregister")
	}

	// Double unregister must be a no-op, not a double close.
	h.Unregister(doc)
}

func TestHub_BroadcastByRole(t *testing.T) {
	h := NewHub()
	doc := newClient(session.RoleDoctor)
	pharm := newClient(session.RolePharmacist)
	h.Register(doc)
	h.Register(pharm)

	h.Broadcast(session.RoleDoctor, Notification{ID: "n1", Message: "lab result ready"})

	select {
	case data := <-doc.Send:
		var n Notification
		if err := json.Unmarshal(data, &n); err != nil || n.ID != "n1" {
			t.Errorf("unexpected payload: %s", data)
		}
	default:
		t.Fatal("doctor client received nothing")
	}

	select {
	case <-pharm.Send:
		t.Error("pharmacist must not receive doctor-only alerts")
	default:
	}
}

func TestHub_BroadcastAllRoles(t *testing.T) {
	h := NewHub()
	doc := newClient(session.RoleDoctor)
	cash := newClient(session.RoleCashier)
	h.Register(doc)
	h.Register(cash)

	h.Broadcast("", Notification{ID: "n2", Message: "maintenance window"})

	for _, c := range []*Client{doc, cash} {
		select {
		case <-c.Send:
		default:
			t.Errorf("client %s missed the broadcast", c.ID)
		}
	}
}

func TestHub_FullBufferDoesNotBlock(t *testing.T) {
	h := NewHub()
	slow := &Client{ID: "slow", Role: session.RoleAdmin, Send: make(chan []byte)} // unbuffered, never read
	h.Register(slow)

	done := make(chan struct{})
	go func() {
		h.Broadcast(session.RoleAdmin, Notification{ID: "n3"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a slow client")
	}
}
