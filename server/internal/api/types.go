package api

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Status        string `json:"status"`
	Clients       int    `json:"clients"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// StatusResponse is the payload for GET /api/v1/status.
type StatusResponse struct {
	Clients   int              `json:"clients"`
	FeedIDs   []string         `json:"feed_ids"`
	Schedule  ScheduleResponse `json:"schedule"`
	StartedAt string           `json:"started_at"`
}

// ScheduleResponse reports the broadcaster pacing in milliseconds.
type ScheduleResponse struct {
	MinIntervalMs int64 `json:"min_interval_ms"`
	MaxIntervalMs int64 `json:"max_interval_ms"`
	IdlePollMs    int64 `json:"idle_poll_ms"`
}

type errorResponse struct {
	Error string `json:"error"`
}
