// Package app wires the hub's components together and serves them over HTTP.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/HampusRydin/vision-scroll-select-stream/internal/logger"
	"github.com/HampusRydin/vision-scroll-select-stream/pkg/detection"
	"github.com/HampusRydin/vision-scroll-select-stream/server/internal/api"
	"github.com/HampusRydin/vision-scroll-select-stream/server/internal/config"
	"github.com/HampusRydin/vision-scroll-select-stream/server/internal/metrics"
	"github.com/HampusRydin/vision-scroll-select-stream/server/internal/receiver"
	"github.com/HampusRydin/vision-scroll-select-stream/server/internal/ws"
)

const shutdownTimeout = 10 * time.Second

// App owns the registry, broadcaster and HTTP surface of one hub process.
type App struct {
	cfg     *config.Config
	log     *slog.Logger
	metrics *metrics.Metrics
	started time.Time

	generator   *detection.Generator
	registry    *ws.Registry
	broadcaster *ws.Broadcaster
	wsHandler   *ws.Handler
	receiver    *receiver.Receiver
	api         *api.Handler
}

// New builds an App from cfg. log may be nil.
func New(cfg *config.Config, log *slog.Logger) *App {
	if log == nil {
		log = slog.Default()
	}
	a := &App{
		cfg:     cfg,
		log:     log,
		metrics: metrics.New(),
		started: time.Now(),
	}

	a.generator = detection.NewGenerator(cfg.Broadcast.FeedIDs,
		detection.WithBoundingBoxProbability(cfg.Broadcast.BoundingBoxProbability))
	a.registry = ws.NewRegistry(log)
	a.broadcaster = ws.NewBroadcaster(a.registry, a.generator, scheduleFrom(cfg.Broadcast), log, a.metrics)
	a.wsHandler = ws.NewHandler(a.registry, cfg.Server.SendBuffer, log, a.metrics)

	var pub receiver.Publisher
	if cfg.Server.RelaySubmissions {
		pub = a.broadcaster
	}
	a.receiver = receiver.New(pub, log, a.metrics)

	a.api = api.New(api.Deps{
		Clients:  a.registry.Len,
		Schedule: a.broadcaster.Schedule,
		FeedIDs:  a.generator.FeedIDs,
		Started:  a.started,
	})
	return a
}

// Registry exposes the live client set.
func (a *App) Registry() *ws.Registry { return a.registry }

// Broadcaster exposes the background event loop.
func (a *App) Broadcaster() *ws.Broadcaster { return a.broadcaster }

// Router returns the HTTP handler for every endpoint.
func (a *App) Router() http.Handler {
	r := chi.NewRouter()
	r.MethodNotAllowed(api.MethodNotAllowed)
	r.NotFound(api.NotFound)

	r.Group(func(r chi.Router) {
		r.Use(logger.RequestLogger(a.log))
		r.Use(metrics.RequestMiddleware(a.metrics))

		r.Handle(a.cfg.Server.WSPath, a.wsHandler)
		r.Handle(a.cfg.Server.SubmitPath, a.receiver)
		a.api.Register(r)
		r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			a.metrics.Handler(func() { a.metrics.SetActiveConnections(a.registry.Len()) }).ServeHTTP(w, r)
		})
	})
	return r
}

// ApplyBroadcast pushes reloaded broadcast settings into the running
// generator and broadcaster.
func (a *App) ApplyBroadcast(b config.BroadcastConfig) {
	a.generator.SetFeedIDs(b.FeedIDs)
	a.generator.SetBoundingBoxProbability(b.BoundingBoxProbability)
	a.broadcaster.SetSchedule(scheduleFrom(b))
	a.log.Info("broadcast settings applied",
		"feed_ids", b.FeedIDs,
		"bbox_probability", b.BoundingBoxProbability,
	)
}

// Run serves HTTP and runs the broadcaster until ctx is cancelled or the
// listener fails. Live clients are closed before the server shuts down.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := &http.Server{
		Addr:              a.cfg.Server.Addr(),
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("HTTP server listening",
			"addr", srv.Addr,
			"ws", fmt.Sprintf("ws://%s%s", srv.Addr, a.cfg.Server.WSPath),
			"submit_path", a.cfg.Server.SubmitPath,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	bcDone := make(chan struct{})
	go func() {
		defer close(bcDone)
		a.broadcaster.Run(ctx) //nolint:errcheck
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		runErr = fmt.Errorf("http server: %w", err)
		cancel()
	}

	<-bcDone
	a.registry.CloseAll()

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("http shutdown: %w", err)
	}
	return runErr
}

func scheduleFrom(b config.BroadcastConfig) ws.Schedule {
	return ws.Schedule{
		MinInterval: b.MinInterval,
		MaxInterval: b.MaxInterval,
		IdlePoll:    b.IdlePoll,
	}
}
