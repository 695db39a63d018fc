package ws

import (
	"context"
	"sync"
	"time"

	"github.com/HampusRydin/vision-scroll-select-stream/internal/logger"
	"github.com/HampusRydin/vision-scroll-select-stream/pkg/detection"
)

// fakeClient records every message it is sent.
type fakeClient struct {
	id string

	mu       sync.Mutex
	msgs     [][]byte
	attempts int
	closed   bool
	closes   int
	failWith error
}

func newFake(id string) *fakeClient { return &fakeClient{id: id} }

func (f *fakeClient) ID() string { return f.id }

func (f *fakeClient) Send(msg []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.closed {
		return ErrClientClosed
	}
	if f.failWith != nil {
		return f.failWith
	}
	f.msgs = append(f.msgs, append([]byte(nil), msg...))
	return nil
}

func (f *fakeClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.closes++
	return nil
}

func (f *fakeClient) messages() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.msgs...)
}

func (f *fakeClient) sendAttempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts
}

// countingSource wraps a seeded generator and counts calls to Next.
type countingSource struct {
	mu    sync.Mutex
	gen   *detection.Generator
	calls int
	panic int // panic on this call number (1-based); 0 disables
}

func newSource() *countingSource {
	return &countingSource{gen: detection.NewGenerator(nil, detection.WithSeed(7))}
}

func (s *countingSource) Next() detection.Event {
	s.mu.Lock()
	s.calls++
	n := s.calls
	s.mu.Unlock()
	if n == s.panic {
		panic("source exploded")
	}
	return s.gen.Next()
}

func (s *countingSource) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// recordingWait replaces Broadcaster.wait. It records each requested
// duration and cancels ctx once stopAfter waits have happened.
type recordingWait struct {
	mu        sync.Mutex
	durations []time.Duration
	stopAfter int
	cancel    context.CancelFunc
}

func (w *recordingWait) wait(ctx context.Context, d time.Duration) bool {
	w.mu.Lock()
	w.durations = append(w.durations, d)
	n := len(w.durations)
	w.mu.Unlock()
	if n >= w.stopAfter {
		w.cancel()
	}
	return ctx.Err() == nil
}

func (w *recordingWait) recorded() []time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]time.Duration(nil), w.durations...)
}

func newTestBroadcaster(reg *Registry, src EventSource) *Broadcaster {
	return NewBroadcaster(reg, src, DefaultSchedule, logger.Discard(), nil)
}
