package detection

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidEvent is wrapped by every Validate failure.
var ErrInvalidEvent = errors.New("invalid detection event")

// Validate checks that ev matches the wire contract a receiver accepts.
// Confidence may be anywhere in [0, 1], not just the generator's range.
func Validate(ev Event) error {
	if !ev.Event.Valid() {
		return fmt.Errorf("%w: unknown event kind %q", ErrInvalidEvent, ev.Event)
	}
	if ev.FeedID == "" {
		return fmt.Errorf("%w: feedId is required", ErrInvalidEvent)
	}
	if _, err := time.Parse(TimestampLayout, ev.Timestamp); err != nil {
		return fmt.Errorf("%w: timestamp %q is not HH:MM:SS", ErrInvalidEvent, ev.Timestamp)
	}
	if ev.Confidence < 0 || ev.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v out of range [0, 1]", ErrInvalidEvent, ev.Confidence)
	}
	if b := ev.BoundingBox; b != nil {
		if b.X < 0 || b.Y < 0 {
			return fmt.Errorf("%w: boundingBox origin must not be negative", ErrInvalidEvent)
		}
		if b.Width <= 0 || b.Height <= 0 {
			return fmt.Errorf("%w: boundingBox size must be positive", ErrInvalidEvent)
		}
	}
	return nil
}
