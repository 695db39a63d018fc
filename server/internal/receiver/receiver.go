package receiver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/HampusRydin/vision-scroll-select-stream/pkg/detection"
	"github.com/HampusRydin/vision-scroll-select-stream/server/internal/metrics"
)

// maxBodyBytes bounds a single submission.
const maxBodyBytes = 64 << 10

// Publisher fans an accepted event out to live clients.
type Publisher interface {
	Publish(ev detection.Event)
}

// Receiver is the http.Handler for detection submissions.
type Receiver struct {
	pub     Publisher
	log     *slog.Logger
	metrics *metrics.Metrics
}

// New creates a Receiver. pub, log and m may be nil; a nil pub only
// acknowledges submissions.
func New(pub Publisher, log *slog.Logger, m *metrics.Metrics) *Receiver {
	if log == nil {
		log = slog.Default()
	}
	return &Receiver{pub: pub, log: log, metrics: m}
}

type okResponse struct {
	OK bool `json:"ok"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (rc *Receiver) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		rc.metrics.IncSubmissions(metrics.ResultRejected)
		return
	}

	var ev detection.Event
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&ev); err != nil {
		rc.log.Debug("receiver: undecodable body", "remote_addr", r.RemoteAddr, "err", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "body must be a JSON detection event"})
		rc.metrics.IncSubmissions(metrics.ResultRejected)
		return
	}

	if err := detection.Validate(ev); err != nil {
		rc.log.Info("receiver: event rejected", "feed_id", ev.FeedID, "err", err)
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		rc.metrics.IncSubmissions(metrics.ResultInvalid)
		return
	}

	if rc.pub != nil {
		rc.pub.Publish(ev)
	}
	rc.metrics.IncSubmissions(metrics.ResultAccepted)
	rc.log.Debug("receiver: event accepted",
		"event", ev.Event,
		"feed_id", ev.FeedID,
		"confidence", ev.Confidence,
		"bounding_box", ev.BoundingBox != nil,
	)
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
