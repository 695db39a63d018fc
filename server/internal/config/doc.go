// Package config loads the hub configuration from an optional YAML file.
//
// Config fields:
//   - Server.Host / Server.Port   listener address (default localhost:8080)
//   - Server.WSPath              WebSocket endpoint (default /ws)
//   - Server.SubmitPath          detection submission endpoint (default /detection_output)
//   - Server.RelaySubmissions    fan accepted submissions out to clients (default true)
//   - Server.SendBuffer          per-client queue depth (default 16)
//   - Broadcast.FeedIDs          feed ids events are attributed to (default ["1","2"])
//   - Broadcast.Min/MaxInterval  random pause between passes (default 2s..5s)
//   - Broadcast.IdlePoll         recheck interval with no clients (default 1s)
//   - Broadcast.BoundingBoxProbability  (default 0.30)
//
// Load(path) applies defaults, unmarshals, applies DETECTHUB_HOST,
// DETECTHUB_PORT, LOG_LEVEL and LOG_FORMAT, then validates. LoadDotEnv reads
// a .env file first so those variables can live on disk.
//
// Watch(ctx, path, onChange) reloads the file on write with fsnotify.
package config
