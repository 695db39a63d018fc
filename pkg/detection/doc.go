// Package detection defines the synthetic detection event shared by the hub
// server and the sender, together with the random generator that produces it.
//
// Wire format (JSON, keys in this order, boundingBox omitted when absent):
//
//	{
//	  "event":       "Person detected",
//	  "timestamp":   "12:00:00",
//	  "feedId":      "1",
//	  "confidence":  0.81,
//	  "boundingBox": {"x": 10, "y": 20, "width": 50, "height": 60}
//	}
//
// The same shape is pushed over WebSocket by the hub and POSTed by the sender,
// so a receiver built for one accepts the other.
package detection
