package ws

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/HampusRydin/vision-scroll-select-stream/internal/logger"
)

func TestRegistry_RegisterSendsWelcomeOnce(t *testing.T) {
	reg := NewRegistry(logger.Discard())
	reg.now = func() time.Time { return time.Date(2024, 1, 1, 8, 9, 10, 0, time.Local) }
	c := newFake("a")

	reg.Register(c)
	reg.Register(c) // duplicate registration is a no-op

	msgs := c.messages()
	if len(msgs) != 1 {
		t.Fatalf("messages: got %d, want 1 welcome", len(msgs))
	}
	var m map[string]string
	if err := json.Unmarshal(msgs[0], &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["event"] != "Server connection" {
		t.Errorf("event: got %q, want Server connection", m["event"])
	}
	if m["message"] != "Connected to WebSocket server" {
		t.Errorf("message: got %q", m["message"])
	}
	if m["timestamp"] != "08:09:10" {
		t.Errorf("timestamp: got %q, want 08:09:10", m["timestamp"])
	}
	if n := reg.Len(); n != 1 {
		t.Errorf("Len: got %d, want 1", n)
	}
}

func TestRegistry_WelcomeOnlyToNewClient(t *testing.T) {
	reg := NewRegistry(logger.Discard())
	a, b := newFake("a"), newFake("b")
	reg.Register(a)
	reg.Register(b)

	if n := len(a.messages()); n != 1 {
		t.Errorf("client a messages: got %d, want 1", n)
	}
	if n := len(b.messages()); n != 1 {
		t.Errorf("client b messages: got %d, want 1", n)
	}
}

func TestRegistry_UnregisterIdempotent(t *testing.T) {
	reg := NewRegistry(logger.Discard())
	c := newFake("a")
	reg.Register(c)

	if !reg.Unregister(c) {
		t.Error("first Unregister: got false, want true")
	}
	if reg.Unregister(c) {
		t.Error("second Unregister: got true, want false")
	}
	if reg.Unregister(newFake("never-registered")) {
		t.Error("Unregister of unknown client: got true, want false")
	}
	if n := reg.Len(); n != 0 {
		t.Errorf("Len: got %d, want 0", n)
	}
}

func TestRegistry_SnapshotIsCopy(t *testing.T) {
	reg := NewRegistry(logger.Discard())
	a, b := newFake("a"), newFake("b")
	reg.Register(a)
	reg.Register(b)

	snap := reg.Snapshot()
	reg.Unregister(a)

	if len(snap) != 2 {
		t.Errorf("snapshot length changed: got %d, want 2", len(snap))
	}
	if n := len(reg.Snapshot()); n != 1 {
		t.Errorf("new snapshot: got %d, want 1", n)
	}
}

func TestRegistry_CloseAll(t *testing.T) {
	reg := NewRegistry(logger.Discard())
	clients := []*fakeClient{newFake("a"), newFake("b"), newFake("c")}
	for _, c := range clients {
		reg.Register(c)
	}

	reg.CloseAll()

	if n := reg.Len(); n != 0 {
		t.Errorf("Len after CloseAll: got %d, want 0", n)
	}
	for _, c := range clients {
		if c.closes != 1 {
			t.Errorf("client %s closed %d times, want 1", c.id, c.closes)
		}
	}
}

func TestRegistry_ConcurrentMutationAndSnapshot(t *testing.T) {
	reg := NewRegistry(logger.Discard())
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c := newFake("c")
				reg.Register(c)
				reg.Unregister(c)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 500; j++ {
			for _, c := range reg.Snapshot() {
				_ = c.ID()
			}
		}
	}()
	wg.Wait()

	if n := reg.Len(); n != 0 {
		t.Errorf("Len: got %d, want 0", n)
	}
}
