// Package api wires the scanner's small read-only admin surface: health,
// metrics, blacklist and live-settings management, plus the ops dashboard
// WebSocket feed. Trade execution, order placement and custody are
// explicitly out of scope (§1 Non-goals); there is nothing here to
// authenticate a trader against.
package api

import (
	"net/http"
	"net/http/pprof"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"arbiscan/internal/alert"
	"arbiscan/internal/api/handlers"
	"arbiscan/internal/api/middleware"
	"arbiscan/internal/config"
	"arbiscan/internal/opsfeed"
	"arbiscan/internal/store"
)

// Dependencies bundles everything SetupRoutes needs; every handler is
// skipped (its routes omitted) when its dependency is nil, so a caller
// that only wants health+metrics can pass a mostly-empty Dependencies.
type Dependencies struct {
	Blacklist *alert.Blacklist
	Reloader  *config.Reloader
	KV        store.KVStore
	Hub       *opsfeed.Hub
	Log       zerolog.Logger
}

// SetupRoutes builds the full router: global middleware, the /api/v1
// surface, the ops WebSocket feed, health, metrics and pprof.
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()

	router.Use(middleware.Recovery(deps.Log))
	router.Use(middleware.Logging(deps.Log))
	router.Use(middleware.CORS)

	v1 := router.PathPrefix("/api/v1").Subrouter()

	if deps.Blacklist != nil {
		h := handlers.NewBlacklistHandler(deps.Blacklist)
		v1.HandleFunc("/blacklist", h.GetBlacklist).Methods(http.MethodGet)
		v1.HandleFunc("/blacklist", h.AddToBlacklist).Methods(http.MethodPost)
		v1.HandleFunc("/blacklist/{symbol}", h.RemoveFromBlacklist).Methods(http.MethodDelete)
	}

	if deps.Reloader != nil && deps.KV != nil {
		h := handlers.NewSettingsHandler(deps.Reloader, deps.KV)
		v1.HandleFunc("/settings", h.GetSettings).Methods(http.MethodGet)
		v1.HandleFunc("/settings", h.UpdateSettings).Methods(http.MethodPatch)
	}

	if deps.Hub != nil {
		router.HandleFunc("/ws/ops", func(w http.ResponseWriter, r *http.Request) {
			opsfeed.ServeWS(deps.Hub, deps.Log, w, r)
		}).Methods(http.MethodGet)
	}

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		if deps.KV != nil && deps.KV.Ping(r.Context()) != nil {
			status = http.StatusServiceUnavailable
		}
		w.WriteHeader(status)
	}).Methods(http.MethodGet)

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	debug := router.PathPrefix("/debug/pprof").Subrouter()
	debug.Use(middleware.DebugAuth)
	debug.HandleFunc("/", pprof.Index)
	debug.HandleFunc("/cmdline", pprof.Cmdline)
	debug.HandleFunc("/profile", pprof.Profile)
	debug.HandleFunc("/symbol", pprof.Symbol)
	debug.HandleFunc("/trace", pprof.Trace)
	debug.Handle("/heap", pprof.Handler("heap"))
	debug.Handle("/goroutine", pprof.Handler("goroutine"))
	debug.Handle("/block", pprof.Handler("block"))
	debug.Handle("/threadcreate", pprof.Handler("threadcreate"))
	debug.Handle("/mutex", pprof.Handler("mutex"))
	debug.Handle("/allocs", pprof.Handler("allocs"))

	return router
}
