package ws

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/HampusRydin/vision-scroll-select-stream/pkg/detection"
	"github.com/HampusRydin/vision-scroll-select-stream/server/internal/metrics"
)

// EventSource produces the event for each broadcast pass.
type EventSource interface {
	Next() detection.Event
}

// Schedule controls broadcaster pacing.
type Schedule struct {
	// MinInterval and MaxInterval bound the random pause after each pass.
	MinInterval time.Duration
	MaxInterval time.Duration

	// IdlePoll is the fixed recheck interval while no client is registered.
	IdlePoll time.Duration
}

// DefaultSchedule waits 2-5s between passes and polls an empty registry every second.
var DefaultSchedule = Schedule{
	MinInterval: 2 * time.Second,
	MaxInterval: 5 * time.Second,
	IdlePoll:    1 * time.Second,
}

// PassResult summarizes one fan-out.
type PassResult struct {
	Delivered int
	Pruned    int
}

// Broadcaster generates events and fans them out to every registered client.
type Broadcaster struct {
	reg     *Registry
	src     EventSource
	log     *slog.Logger
	metrics *metrics.Metrics

	mu    sync.Mutex
	sched Schedule
	rng   *rand.Rand

	// wait sleeps for d and reports false if ctx ended first.
	wait func(ctx context.Context, d time.Duration) bool
}

// NewBroadcaster creates a Broadcaster reading events from src. log and m may be nil.
func NewBroadcaster(reg *Registry, src EventSource, sched Schedule, log *slog.Logger, m *metrics.Metrics) *Broadcaster {
	if log == nil {
		log = slog.Default()
	}
	return &Broadcaster{
		reg:     reg,
		src:     src,
		log:     log,
		metrics: m,
		sched:   sched,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		wait:    sleepContext,
	}
}

// Schedule returns the active schedule.
func (b *Broadcaster) Schedule() Schedule {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sched
}

// SetSchedule replaces the schedule from the next wait onwards.
func (b *Broadcaster) SetSchedule(s Schedule) {
	b.mu.Lock()
	b.sched = s
	b.mu.Unlock()
	b.log.Info("broadcaster: schedule updated",
		"min_interval", s.MinInterval, "max_interval", s.MaxInterval, "idle_poll", s.IdlePoll)
}

// Run drives broadcast passes until ctx is cancelled and returns ctx.Err().
func (b *Broadcaster) Run(ctx context.Context) error {
	b.log.Info("broadcaster: started")
	defer b.log.Info("broadcaster: stopped")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if b.reg.Len() == 0 {
			if !b.wait(ctx, b.Schedule().IdlePoll) {
				return ctx.Err()
			}
			continue
		}

		b.supervisedPass()

		if !b.wait(ctx, b.nextInterval()) {
			return ctx.Err()
		}
	}
}

// Pass generates one event and delivers it to every registered client.
func (b *Broadcaster) Pass() PassResult {
	return b.deliver(b.src.Next())
}

// Publish delivers an externally produced event to every registered client.
func (b *Broadcaster) Publish(ev detection.Event) {
	b.deliver(ev)
}

// supervisedPass keeps a panicking event source or client from killing Run.
func (b *Broadcaster) supervisedPass() {
	defer func() {
		if r := recover(); r != nil {
			b.metrics.IncBroadcastPanics()
			b.log.Error("broadcaster: pass panicked, continuing", "panic", r)
		}
	}()
	b.Pass()
}

func (b *Broadcaster) deliver(ev detection.Event) PassResult {
	data, err := detection.Marshal(ev)
	if err != nil {
		b.log.Error("broadcaster: encode event", "err", err)
		return PassResult{}
	}

	var res PassResult
	var failed []Client
	for _, c := range b.reg.Snapshot() {
		if err := c.Send(data); err != nil {
			b.log.Warn("broadcaster: send failed, pruning client", "client_id", c.ID(), "err", err)
			failed = append(failed, c)
			continue
		}
		res.Delivered++
	}

	// Pruned after the pass so one bad client never stops delivery to the rest.
	for _, c := range failed {
		if b.reg.Unregister(c) {
			res.Pruned++
		}
		c.Close() //nolint:errcheck
	}

	b.metrics.ObserveBroadcast(string(ev.Event), res.Delivered, len(failed))
	b.log.Debug("broadcaster: event sent",
		"event", ev.Event,
		"feed_id", ev.FeedID,
		"confidence", ev.Confidence,
		"delivered", res.Delivered,
		"pruned", res.Pruned,
	)
	return res
}

// nextInterval draws the pause after a pass uniformly from the schedule range.
func (b *Broadcaster) nextInterval() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	span := b.sched.MaxInterval - b.sched.MinInterval
	if span <= 0 {
		return b.sched.MinInterval
	}
	return b.sched.MinInterval + time.Duration(b.rng.Int63n(int64(span)+1))
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
