// Package ws implements the detection broadcast hub.
//
// Registry tracks the live client set. Register sends the one-time welcome
// message while the set is write-locked, so a client can never see a
// broadcast before its welcome. Unregister is idempotent.
//
// Broadcaster runs one background loop: with no clients it polls every
// Schedule.IdlePoll; otherwise it generates one event, sends it to a snapshot
// of the registry, prunes every client whose Send failed, and sleeps for a
// fresh random duration in [MinInterval, MaxInterval]. A panic inside a pass
// is recovered and logged; the loop carries on with the next tick.
//
// Handler upgrades HTTP requests to WebSocket, registers the client, and
// blocks in the read loop until the peer goes away. Unregister runs in a
// deferred call on every exit path. Inbound frames are read and discarded.
//
// Message formats sent to clients:
//
//	{"event":"Server connection","message":"Connected to WebSocket server","timestamp":"HH:MM:SS"}
//	{"event":"Person detected","timestamp":"HH:MM:SS","feedId":"1","confidence":0.81,"boundingBox":{...}}
//
// The upgrader accepts all origins. Apply CORS restrictions at the reverse
// proxy level.
package ws
