package sender

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/HampusRydin/vision-scroll-select-stream/pkg/detection"
)

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 4 << 10
)

// ErrUnexpectedStatus is wrapped by StatusError.
var ErrUnexpectedStatus = errors.New("unexpected response status")

// StatusError is returned when the endpoint answers with anything but 200.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("endpoint returned HTTP %d", e.Code)
	}
	return fmt.Sprintf("endpoint returned HTTP %d: %s", e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrUnexpectedStatus }

// Result summarises one simulation.
type Result struct {
	Sent      int
	Failed    int
	Cancelled bool
}

// Sender posts events to a single endpoint.
type Sender struct {
	endpoint string
	gen      *detection.Generator
	client   *http.Client
	log      *slog.Logger
	out      io.Writer
	sleep    func(ctx context.Context, d time.Duration) error
}

// Option configures a Sender.
type Option func(*Sender)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(s *Sender) { s.client = c }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sender) { s.log = l }
}

// WithOutput sets where per-event progress lines are printed.
func WithOutput(w io.Writer) Option {
	return func(s *Sender) { s.out = w }
}

// WithSleep replaces the pause between events. Tests use it to avoid real waits.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Sender) { s.sleep = fn }
}

// New returns a Sender posting to endpoint with events drawn from gen.
func New(endpoint string, gen *detection.Generator, opts ...Option) *Sender {
	s := &Sender{
		endpoint: endpoint,
		gen:      gen,
		client:   &http.Client{Timeout: defaultTimeout},
		log:      slog.Default(),
		out:      io.Discard,
		sleep:    sleepContext,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Endpoint returns the target URL.
func (s *Sender) Endpoint() string { return s.endpoint }

// Send POSTs ev as JSON. It returns nil only for HTTP 200.
func (s *Sender) Send(ctx context.Context, ev detection.Event) error {
	body, err := detection.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(b))}
	}
	io.Copy(io.Discard, resp.Body) //nolint:errcheck
	return nil
}

// SendRandom sends a freshly generated event for feedID and returns it.
func (s *Sender) SendRandom(ctx context.Context, feedID string) (detection.Event, error) {
	ev := s.gen.NextForFeed(feedID)
	err := s.Send(ctx, ev)
	if err != nil {
		s.log.Warn("sender: detection event not delivered",
			"endpoint", s.endpoint, "feed_id", feedID, "event", ev.Event, "err", err)
		s.report(ev, err)
		return ev, err
	}
	s.log.Debug("sender: detection event delivered",
		"endpoint", s.endpoint, "feed_id", feedID, "event", ev.Event, "confidence", ev.Confidence)
	s.report(ev, nil)
	return ev, nil
}

// Simulate sends count events to random feeds. After each successful send
// except the last it waits interval; failures move straight on. It stops
// early when ctx is cancelled.
func (s *Sender) Simulate(ctx context.Context, count int, interval time.Duration) Result {
	var res Result
	fmt.Fprintf(s.out, "Sending %d detection events at %v intervals...\n", count, interval)

	for i := 0; i < count; i++ {
		if ctx.Err() != nil {
			res.Cancelled = true
			break
		}
		if _, err := s.SendRandom(ctx, s.gen.RandomFeedID()); err != nil {
			res.Failed++
			continue
		}
		res.Sent++

		if i < count-1 && interval > 0 {
			fmt.Fprintf(s.out, "Waiting %v before sending next event...\n", interval)
			if err := s.sleep(ctx, interval); err != nil {
				res.Cancelled = true
				break
			}
		}
	}

	s.log.Info("sender: simulation finished",
		"sent", res.Sent, "failed", res.Failed, "cancelled", res.Cancelled)
	if !res.Cancelled {
		fmt.Fprintln(s.out, "Detection simulation complete!")
	}
	return res
}

func (s *Sender) report(ev detection.Event, err error) {
	if err == nil {
		b, _ := detection.Marshal(ev)
		fmt.Fprintf(s.out, "Sent detection event: %s\n", b)
		return
	}
	var se *StatusError
	if errors.As(err, &se) {
		fmt.Fprintf(s.out, "Failed to send detection event. Status code: %d\n", se.Code)
		if se.Body != "" {
			fmt.Fprintf(s.out, "Response: %s\n", se.Body)
		}
		return
	}
	fmt.Fprintf(s.out, "Error sending detection event: %v\n", err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
