package ws

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/HampusRydin/vision-scroll-select-stream/internal/logger"
	"github.com/HampusRydin/vision-scroll-select-stream/pkg/detection"
)

func TestBroadcaster_ThreeClientScenario(t *testing.T) {
	reg := NewRegistry(logger.Discard())
	c1, c2, c3 := newFake("1"), newFake("2"), newFake("3")
	for _, c := range []*fakeClient{c1, c2, c3} {
		reg.Register(c)
	}
	b := newTestBroadcaster(reg, newSource())

	res := b.Pass()
	if res.Delivered != 3 || res.Pruned != 0 {
		t.Fatalf("first pass: got %+v, want 3 delivered", res)
	}
	first := c1.messages()[1]
	for _, c := range []*fakeClient{c2, c3} {
		if got := c.messages()[1]; !bytes.Equal(got, first) {
			t.Errorf("client %s payload differs:\n got %s\nwant %s", c.id, got, first)
		}
	}
	var ev detection.Event
	if err := json.Unmarshal(first, &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := detection.Validate(ev); err != nil {
		t.Errorf("broadcast payload invalid: %v", err)
	}

	// Peer #2 goes away between passes.
	c2.Close()

	res = b.Pass()
	if res.Delivered != 2 || res.Pruned != 1 {
		t.Errorf("second pass: got %+v, want 2 delivered, 1 pruned", res)
	}
	if n := len(c1.messages()); n != 3 {
		t.Errorf("client 1 messages: got %d, want 3", n)
	}
	if n := len(c3.messages()); n != 3 {
		t.Errorf("client 3 messages: got %d, want 3", n)
	}
	if n := len(c2.messages()); n != 2 {
		t.Errorf("client 2 messages: got %d, want 2", n)
	}
	for _, c := range reg.Snapshot() {
		if c == Client(c2) {
			t.Error("client 2 still registered after failed send")
		}
	}
	if n := reg.Len(); n != 2 {
		t.Errorf("Len: got %d, want 2", n)
	}
}

func TestBroadcaster_UnregisteredClientNeverAttempted(t *testing.T) {
	reg := NewRegistry(logger.Discard())
	a, gone := newFake("a"), newFake("gone")
	reg.Register(a)
	reg.Register(gone)
	b := newTestBroadcaster(reg, newSource())

	b.Pass()
	before := gone.sendAttempts()
	reg.Unregister(gone)

	for i := 0; i < 5; i++ {
		if res := b.Pass(); res.Delivered != 1 || res.Pruned != 0 {
			t.Fatalf("pass %d: got %+v, want 1 delivered", i, res)
		}
	}
	if after := gone.sendAttempts(); after != before {
		t.Errorf("send attempts to unregistered client: got %d, want %d", after, before)
	}
}

func TestBroadcaster_FailureDoesNotAbortPass(t *testing.T) {
	reg := NewRegistry(logger.Discard())
	slow := newFake("slow")
	reg.Register(slow)
	slow.failWith = ErrSlowClient

	healthy := []*fakeClient{newFake("a"), newFake("b"), newFake("c")}
	for _, c := range healthy {
		reg.Register(c)
	}
	b := newTestBroadcaster(reg, newSource())

	res := b.Pass()
	if res.Delivered != 3 || res.Pruned != 1 {
		t.Errorf("pass: got %+v, want 3 delivered, 1 pruned", res)
	}
	for _, c := range healthy {
		if n := len(c.messages()); n != 2 {
			t.Errorf("client %s messages: got %d, want 2", c.id, n)
		}
	}
	if slow.closes != 1 {
		t.Errorf("failed client closed %d times, want 1", slow.closes)
	}
}

func TestBroadcaster_PublishRelaysEvent(t *testing.T) {
	reg := NewRegistry(logger.Discard())
	c := newFake("a")
	reg.Register(c)
	src := newSource()
	b := newTestBroadcaster(reg, src)

	ev := detection.Event{Event: detection.KindAnimal, Timestamp: "12:00:00", FeedID: "2", Confidence: 0.7}
	b.Publish(ev)

	want, _ := detection.Marshal(ev)
	msgs := c.messages()
	if len(msgs) != 2 || !bytes.Equal(msgs[1], want) {
		t.Errorf("published payload: got %q, want %s", msgs, want)
	}
	if n := src.count(); n != 0 {
		t.Errorf("source consulted %d times by Publish, want 0", n)
	}
}

func TestBroadcaster_IdleMakesNoSendAttempts(t *testing.T) {
	reg := NewRegistry(logger.Discard())
	src := newSource()
	b := newTestBroadcaster(reg, src)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := &recordingWait{stopAfter: 5, cancel: cancel}
	b.wait = w.wait

	if err := b.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run: got %v, want context.Canceled", err)
	}
	if n := src.count(); n != 0 {
		t.Errorf("events generated while idle: got %d, want 0", n)
	}
	durations := w.recorded()
	if len(durations) != 5 {
		t.Fatalf("idle polls: got %d, want 5", len(durations))
	}
	for i, d := range durations {
		if d != DefaultSchedule.IdlePoll {
			t.Errorf("poll %d: got %v, want %v", i, d, DefaultSchedule.IdlePoll)
		}
	}
}

func TestBroadcaster_RunPacesPassesWithJitter(t *testing.T) {
	reg := NewRegistry(logger.Discard())
	c := newFake("a")
	reg.Register(c)
	b := newTestBroadcaster(reg, newSource())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := &recordingWait{stopAfter: 20, cancel: cancel}
	b.wait = w.wait

	b.Run(ctx) //nolint:errcheck

	if n := len(c.messages()); n != 21 {
		t.Errorf("messages: got %d, want 1 welcome + 20 events", n)
	}
	distinct := map[time.Duration]bool{}
	for _, d := range w.recorded() {
		if d < 2*time.Second || d > 5*time.Second {
			t.Errorf("interval %v outside [2s, 5s]", d)
		}
		distinct[d] = true
	}
	if len(distinct) < 2 {
		t.Error("intervals are not randomized per tick")
	}
}

func TestBroadcaster_RecoversFromPanic(t *testing.T) {
	reg := NewRegistry(logger.Discard())
	c := newFake("a")
	reg.Register(c)
	src := newSource()
	src.panic = 1
	b := newTestBroadcaster(reg, src)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := &recordingWait{stopAfter: 3, cancel: cancel}
	b.wait = w.wait

	b.Run(ctx) //nolint:errcheck

	if n := src.count(); n != 3 {
		t.Errorf("passes attempted: got %d, want 3", n)
	}
	// welcome + passes 2 and 3
	if n := len(c.messages()); n != 3 {
		t.Errorf("messages: got %d, want 3", n)
	}
}

func TestBroadcaster_SetSchedule(t *testing.T) {
	b := newTestBroadcaster(NewRegistry(logger.Discard()), newSource())
	s := Schedule{MinInterval: 10 * time.Millisecond, MaxInterval: 10 * time.Millisecond, IdlePoll: time.Millisecond}
	b.SetSchedule(s)

	if got := b.Schedule(); got != s {
		t.Errorf("Schedule: got %+v, want %+v", got, s)
	}
	if d := b.nextInterval(); d != 10*time.Millisecond {
		t.Errorf("nextInterval with zero span: got %v, want 10ms", d)
	}
}

func TestBroadcaster_RunStopsOnCancel(t *testing.T) {
	reg := NewRegistry(logger.Discard())
	b := newTestBroadcaster(reg, newSource())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run: got %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
