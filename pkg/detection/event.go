package detection

import (
	"encoding/json"
	"time"
)

// TimestampLayout is the wall-clock format used for every timestamp field.
const TimestampLayout = "15:04:05"

// Kind is the detected object class.
type Kind string

// The fixed set of detection kinds.
const (
	KindPerson  Kind = "Person detected"
	KindVehicle Kind = "Vehicle detected"
	KindMotion  Kind = "Motion detected"
	KindAnimal  Kind = "Animal detected"
	KindUnknown Kind = "Unknown object"
)

// Kinds lists every valid Kind.
var Kinds = []Kind{KindPerson, KindVehicle, KindMotion, KindAnimal, KindUnknown}

// DefaultFeedIDs are the camera feed ids used when none are configured.
var DefaultFeedIDs = []string{"1", "2"}

// Valid reports whether k is one of Kinds.
func (k Kind) Valid() bool {
	for _, v := range Kinds {
		if k == v {
			return true
		}
	}
	return false
}

// BoundingBox locates the detected object in frame pixels.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Event is one synthetic detection result. Field order is the wire order.
type Event struct {
	Event       Kind         `json:"event"`
	Timestamp   string       `json:"timestamp"`
	FeedID      string       `json:"feedId"`
	Confidence  float64      `json:"confidence"`
	BoundingBox *BoundingBox `json:"boundingBox,omitempty"`
}

// Welcome is sent once to each client right after it connects.
type Welcome struct {
	Event     string `json:"event"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// NewWelcome returns the connection greeting stamped with t.
func NewWelcome(t time.Time) Welcome {
	return Welcome{
		Event:     "Server connection",
		Message:   "Connected to WebSocket server",
		Timestamp: t.Format(TimestampLayout),
	}
}

// Marshal encodes v as a single compact JSON object.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}
