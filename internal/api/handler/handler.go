// Package handler implements the HTTP endpoints that trigger monitor runs and
// report service health.
package handler

import (
	"bountywatch/internal/monitor"
	"bountywatch/pkg/controller"
	"bountywatch/pkg/logger"
	"bountywatch/pkg/targets"
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-faster/jx"
	"go.uber.org/zap"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "bountywatch"

// timestampLayout matches the timestamp printed in alerts.
const timestampLayout = "2006-01-02 15:04:05"

type Deps struct {
	Monitor monitor.Monitor
	// TelegramConfigured is reported by the health endpoint.
	TelegramConfigured bool
	// Now stamps health responses. Nil means time.Now.
	Now func() time.Time
}

// Handler serves the /api endpoints. Runs triggered through one Handler never
// overlap.
type Handler struct {
	deps Deps
	mu   sync.Mutex
}

func New(deps Deps) *Handler {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	return &Handler{deps: deps}
}

// Register mounts the endpoints on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/notify", h.Notify)
	mux.HandleFunc("POST /api/notify", h.Notify)
	mux.HandleFunc("GET /api/health", h.Health)
}

func writeJSON(w http.ResponseWriter, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func encodeTargets(e *jx.Encoder, ts []targets.Target) {
	e.Arr(func(e *jx.Encoder) {
		for _, t := range ts {
			e.Obj(func(e *jx.Encoder) {
				e.Field("url", func(e *jx.Encoder) { e.Str(t.URL) })
				e.Field("asset", func(e *jx.Encoder) { e.Str(t.Asset) })
				e.Field("program", func(e *jx.Encoder) { e.Str(t.Program) })
				e.Field("platform", func(e *jx.Encoder) { e.Str(string(t.Platform)) })
			})
		}
	})
}

// Notify runs the monitor once and reports the outcome. The run ignores
// request cancellation and keeps request-scoped values such as the logger, so
// a run that started sending alerts always reaches the snapshot save.
func (h *Handler) Notify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	h.mu.Lock()
	res, err := h.deps.Monitor.Run(context.WithoutCancel(ctx))
	h.mu.Unlock()

	var e jx.Encoder
	if err != nil {
		logger.Error(ctx, "run failed", zap.Error(err))
		controller.AnnotateAccessLog(ctx, zap.Bool("run_success", false))
		e.Obj(func(e *jx.Encoder) {
			e.Field("success", func(e *jx.Encoder) { e.Bool(false) })
			e.Field("error", func(e *jx.Encoder) { e.Str(err.Error()) })
		})
		writeJSON(w, http.StatusInternalServerError, &e)

		return
	}

	controller.AnnotateAccessLog(ctx,
		zap.Bool("run_success", true),
		zap.String("run_id", res.RunID),
		zap.Int("new_assets", res.New),
		zap.Int("total_assets", res.Total))

	e.Obj(func(e *jx.Encoder) {
		e.Field("success", func(e *jx.Encoder) { e.Bool(true) })
		e.Field("new", func(e *jx.Encoder) { e.Int(res.New) })
		e.Field("total", func(e *jx.Encoder) { e.Int(res.Total) })
		e.Field("targets", func(e *jx.Encoder) { encodeTargets(e, res.Targets) })
	})
	writeJSON(w, http.StatusOK, &e)
}

// Health reports liveness and whether alerts go to Telegram.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("status", func(e *jx.Encoder) { e.Str("healthy") })
		e.Field("service", func(e *jx.Encoder) { e.Str(ServiceName) })
		e.Field("timestamp", func(e *jx.Encoder) { e.Str(h.deps.Now().UTC().Format(timestampLayout)) })
		e.Field("telegram_configured", func(e *jx.Encoder) { e.Bool(h.deps.TelegramConfigured) })
	})
	writeJSON(w, http.StatusOK, &e)
}
