// Package httpapi implements the monitor's external HTTP surface: the
// chart endpoint, room listings and SSE stream, the auth relay, and the
// live dispatcher's WebSocket upgrade point.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/chartcache"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/session"
)

// ChartStore is the subset of chartcache.Cache the chart handler needs.
type ChartStore interface {
	Get(ctx context.Context, id string) (chartcache.Result, error)
}

// Router assembles the full HTTP surface.
type Router struct {
	charts   ChartStore
	auth     AuthClient
	rooms    *RoomDirectory
	upgrader *session.Upgrader
	log      zerolog.Logger

	mux *chi.Mux
}

// NewRouter wires every endpoint; upgrader may be nil only in tests that
// don't exercise /ws/live.
func NewRouter(charts ChartStore, auth AuthClient, rooms *RoomDirectory, upgrader *session.Upgrader, log zerolog.Logger) *Router {
	rt := &Router{
		charts:   charts,
		auth:     auth,
		rooms:    rooms,
		upgrader: upgrader,
		log:      log.With().Str("component", "httpapi").Logger(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(rt.log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/chart/{id}", rt.handleChart)
	r.Get("/rooms/info", rt.handleRoomsInfo)
	r.Get("/rooms/info/{id}", rt.handleRoomInfoByID)
	r.Get("/rooms/user/{id}", rt.handleRoomUserByID)
	r.Get("/rooms/listen", rt.handleRoomsListen)
	r.Post("/auth/login", rt.handleLogin)
	r.Get("/auth/me", rt.handleMe)
	if rt.upgrader != nil {
		r.Get("/ws/live", rt.upgrader.ServeHTTP)
	}

	rt.mux = r
	return rt
}

// ServeHTTP satisfies http.Handler, delegating to the chi mux.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.mux.ServeHTTP(w, r)
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("elapsed", time.Since(start)).
				Msg("http request")
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}
