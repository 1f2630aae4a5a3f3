// Package web exposes the admin HTTP API of the hostspin daemon.
package web

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/hostspin/internal/model"
	"example.com/hostspin/internal/scheduler"
)

// Scheduler is the subset of *scheduler.Scheduler served by the API.
type Scheduler interface {
	Trigger() bool
	Last() *model.CycleReport
	Status() scheduler.Status
}

type Api struct {
	sched  Scheduler
	token  string
	logger model.Logger
}

// NewRouter returns the admin routes. An empty token disables
// authentication.
func NewRouter(sched Scheduler, token string, logger model.Logger) *chi.Mux {
	api := &Api{sched: sched, token: token, logger: model.ValidLoggerOrDefault(logger)}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, middleware.Timeout(10*time.Second))

	r.Get("/api/health", api.health)
	r.Handle("/metrics", promhttp.Handler())
	r.Group(func(pr chi.Router) {
		pr.Use(api.auth)
		pr.Get("/api/status", api.status)
		pr.Post("/api/run", api.run)
	})
	return r
}

func (a *Api) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.token == "" {
			next.ServeHTTP(w, r)
			return
		}
		got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(got), []byte(a.token)) != 1 {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Api) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusResponse struct {
	Scheduler scheduler.Status   `json:"scheduler"`
	Last      *model.CycleReport `json:"last"`
}

// status answers before the first report too, with a null last, so a
// long first cycle still shows as running.
func (a *Api) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Scheduler: a.sched.Status(), Last: a.sched.Last()})
}

func (a *Api) run(w http.ResponseWriter, r *http.Request) {
	queued := a.sched.Trigger()
	a.logger.Infof("web: manual cycle requested by %s (queued=%v)", r.RemoteAddr, queued)
	writeJSON(w, http.StatusAccepted, map[string]bool{"queued": queued})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
