package detection

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// Value ranges for generated events. All bounds are inclusive.
const (
	MinConfidence = 0.60
	MaxConfidence = 0.99

	MinBoxX, MaxBoxX           = 10, 300
	MinBoxY, MaxBoxY           = 10, 200
	MinBoxWidth, MaxBoxWidth   = 50, 200
	MinBoxHeight, MaxBoxHeight = 50, 200

	// DefaultBoundingBoxProbability is the share of events carrying a box.
	DefaultBoundingBoxProbability = 0.30
)

// Generator produces random detection events. It is safe for concurrent use.
type Generator struct {
	mu      sync.Mutex
	rng     *rand.Rand
	feedIDs []string
	boxProb float64
	now     func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed makes the generator deterministic.
func WithSeed(seed int64) Option {
	return func(g *Generator) { g.rng = rand.New(rand.NewSource(seed)) }
}

// WithClock overrides the wall clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithBoundingBoxProbability sets how often a bounding box is attached.
// Values are clamped to [0, 1].
func WithBoundingBoxProbability(p float64) Option {
	return func(g *Generator) { g.boxProb = clamp01(p) }
}

// NewGenerator returns a Generator drawing feed ids from feedIDs.
// An empty feedIDs falls back to DefaultFeedIDs.
func NewGenerator(feedIDs []string, opts ...Option) *Generator {
	g := &Generator{
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		boxProb: DefaultBoundingBoxProbability,
		now:     time.Now,
	}
	g.feedIDs = copyFeeds(feedIDs)
	for _, o := range opts {
		o(g)
	}
	return g
}

// SetFeedIDs replaces the feed id set used by subsequent events.
func (g *Generator) SetFeedIDs(feedIDs []string) {
	g.mu.Lock()
	g.feedIDs = copyFeeds(feedIDs)
	g.mu.Unlock()
}

// SetBoundingBoxProbability changes the bounding box share for subsequent events.
func (g *Generator) SetBoundingBoxProbability(p float64) {
	g.mu.Lock()
	g.boxProb = clamp01(p)
	g.mu.Unlock()
}

// FeedIDs returns a copy of the current feed id set.
func (g *Generator) FeedIDs() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return copyFeeds(g.feedIDs)
}

// Next returns a freshly generated event.
func (g *Generator) Next() Event {
	g.mu.Lock()
	defer g.mu.Unlock()

	ev := Event{
		Event:      Kinds[g.rng.Intn(len(Kinds))],
		Timestamp:  g.now().Format(TimestampLayout),
		FeedID:     g.feedIDs[g.rng.Intn(len(g.feedIDs))],
		Confidence: g.confidence(),
	}
	if g.rng.Float64() < g.boxProb {
		ev.BoundingBox = &BoundingBox{
			X:      g.between(MinBoxX, MaxBoxX),
			Y:      g.between(MinBoxY, MaxBoxY),
			Width:  g.between(MinBoxWidth, MaxBoxWidth),
			Height: g.between(MinBoxHeight, MaxBoxHeight),
		}
	}
	return ev
}

// NextForFeed returns a generated event pinned to feedID.
func (g *Generator) NextForFeed(feedID string) Event {
	ev := g.Next()
	ev.FeedID = feedID
	return ev
}

// RandomFeedID picks one id from the current feed set.
func (g *Generator) RandomFeedID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.feedIDs[g.rng.Intn(len(g.feedIDs))]
}

// confidence draws uniformly from [MinConfidence, MaxConfidence] at 2 decimals.
// Rounding can never leave the range since both bounds are 2-decimal values.
func (g *Generator) confidence() float64 {
	c := MinConfidence + g.rng.Float64()*(MaxConfidence-MinConfidence)
	return RoundConfidence(c)
}

func (g *Generator) between(lo, hi int) int {
	return lo + g.rng.Intn(hi-lo+1)
}

// RoundConfidence rounds c to 2 decimal places.
func RoundConfidence(c float64) float64 {
	return math.Round(c*100) / 100
}

func copyFeeds(ids []string) []string {
	if len(ids) == 0 {
		ids = DefaultFeedIDs
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

func clamp01(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
