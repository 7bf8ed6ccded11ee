package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goliatone/go-push-relay/internal/dispatcher"
	"github.com/goliatone/go-push-relay/internal/hub"
	"github.com/goliatone/go-push-relay/pkg/commands"
	"github.com/goliatone/go-push-relay/pkg/interfaces/logger"
	"github.com/goliatone/go-push-relay/pkg/interfaces/store"
	"github.com/goliatone/go-push-relay/pkg/metrics"
	"github.com/goliatone/go-push-relay/pkg/relay"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies wires the HTTP surface to the relay services.
type Dependencies struct {
	Module  *relay.Module
	Hub     *hub.Hub
	Logger  logger.Logger
	Metrics *metrics.Collector
}

// Server exposes the relay over HTTP: peer websockets, push subscription
// intake, a manual fan-out trigger, and operational endpoints.
type Server struct {
	module  *relay.Module
	hub     *hub.Hub
	router  *hub.Router
	logger  logger.Logger
	metrics *metrics.Collector

	upgrader websocket.Upgrader
}

// New builds the HTTP server facade.
func New(deps Dependencies) (*Server, error) {
	if deps.Module == nil {
		return nil, errors.New("api: relay module is required")
	}
	if deps.Hub == nil {
		return nil, errors.New("api: hub is required")
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}

	cfg := deps.Module.Config()
	return &Server{
		module:  deps.Module,
		hub:     deps.Hub,
		router:  hub.NewRouter(deps.Module.Manager(), cfg.Dispatcher.DefaultTitle, deps.Logger, deps.Metrics),
		logger:  deps.Logger,
		metrics: deps.Metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Peers connect from arbitrary origins; auth is out of scope here.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleHealth)
	r.Get("/ws", s.handleWebsocket)
	r.Post("/subscribe", s.handleSubscribe)
	r.Get("/send", s.handleSend)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("push relay is running"))
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	sock, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed",
			logger.Field{Key: "remote", Value: r.RemoteAddr},
			logger.Field{Key: "error", Value: err},
		)
		return
	}

	conn := s.hub.NewConn(sock, r.RemoteAddr)
	s.hub.Add(conn)
	conn.Run(s.router)
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req commands.SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid subscription payload")
		return
	}

	if err := s.module.Commands().Subscribe.Execute(r.Context(), req); err != nil {
		if errors.Is(err, store.ErrInvalidRegistration) {
			writeError(w, http.StatusBadRequest, "subscription endpoint is required")
			return
		}
		s.logger.Error("subscribe failed", logger.Field{Key: "error", Value: err})
		writeError(w, http.StatusInternalServerError, "could not store subscription")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"subscribed": true})
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	result, err := s.module.Manager().Trigger(r.Context(), "", "This is a test notification from the push relay.")
	if err != nil {
		if errors.Is(err, dispatcher.ErrDispatchUnavailable) {
			writeError(w, http.StatusInternalServerError, "push credentials are not configured")
			return
		}
		s.logger.Error("dispatch failed", logger.Field{Key: "error", Value: err})
		writeError(w, http.StatusInternalServerError, "dispatch failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
