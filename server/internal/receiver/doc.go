// Package receiver implements the HTTP detection submission endpoint.
//
// It accepts POST requests whose JSON body is a detection.Event, validates
// it, responds 200 {"ok":true} and, when a Publisher is configured, relays
// the event to every connected WebSocket client. Any other method gets 405,
// an undecodable body 400, and a body that fails validation 422.
package receiver
