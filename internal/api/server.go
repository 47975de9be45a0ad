package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	mw "github.com/edvin/mirrord/internal/api/middleware"
	"github.com/edvin/mirrord/internal/api/response"
	"github.com/edvin/mirrord/internal/config"
	"github.com/edvin/mirrord/internal/engine"
	"github.com/edvin/mirrord/internal/model"
)

// watchInterval is how often the watch endpoint re-checks for state changes.
const watchInterval = time.Second

// Control is the engine surface the HTTP API drives.
type Control interface {
	StartDaemon()
	StopDaemon()
	RunNow()
	ReloadConfig()
	DaemonState() model.DaemonState
	Statuses() []engine.PairView
	Status(id string) (engine.PairView, bool)
	Config() *config.Config
}

type Server struct {
	router  chi.Router
	logger  zerolog.Logger
	control Control
}

func NewServer(logger zerolog.Logger, control Control) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		logger:  logger.With().Str("component", "api").Logger(),
		control: control,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() {
	// Prometheus metrics endpoint
	s.router.Handle("/metrics", promhttp.Handler())

	// Health check endpoint
	s.router.Get("/healthz", s.handleHealthz)

	s.router.Route("/v1", func(r chi.Router) {
		r.Get("/pairs", s.handleListPairs)
		r.Get("/pairs/{id}", s.handleGetPair)
		r.Get("/pairs/{id}/command", s.handlePairCommand)

		r.Get("/daemon", s.handleDaemonState)
		r.Post("/daemon/start", s.handleDaemonStart)
		r.Post("/daemon/stop", s.handleDaemonStop)

		r.Post("/run", s.handleRunNow)
		r.Post("/config/reload", s.handleReload)

		r.Get("/statuses/watch", s.handleWatch)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleListPairs(w http.ResponseWriter, _ *http.Request) {
	response.WriteJSON(w, http.StatusOK, s.control.Statuses())
}

func (s *Server) handleGetPair(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	view, ok := s.control.Status(id)
	if !ok {
		response.WriteError(w, http.StatusNotFound, "pair not found")
		return
	}
	response.WriteJSON(w, http.StatusOK, view)
}

func (s *Server) handlePairCommand(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	view, ok := s.control.Status(id)
	if !ok {
		response.WriteError(w, http.StatusNotFound, "pair not found")
		return
	}
	cfg := s.control.Config()
	response.WriteJSON(w, http.StatusOK, map[string]string{
		"command": cfg.Copy.Preview(cfg.ToolPath, view.Pair.Source, view.Pair.Destination),
	})
}

func (s *Server) handleDaemonState(w http.ResponseWriter, _ *http.Request) {
	response.WriteJSON(w, http.StatusOK, s.control.DaemonState())
}

func (s *Server) handleDaemonStart(w http.ResponseWriter, _ *http.Request) {
	s.control.StartDaemon()
	response.WriteAccepted(w, "start")
}

func (s *Server) handleDaemonStop(w http.ResponseWriter, _ *http.Request) {
	s.control.StopDaemon()
	response.WriteAccepted(w, "stop")
}

func (s *Server) handleRunNow(w http.ResponseWriter, _ *http.Request) {
	s.control.RunNow()
	response.WriteAccepted(w, "run")
}

func (s *Server) handleReload(w http.ResponseWriter, _ *http.Request) {
	s.control.ReloadConfig()
	response.WriteAccepted(w, "reload")
}

// statusSnapshot is one frame on the watch stream.
type statusSnapshot struct {
	Daemon model.DaemonState `json:"daemon"`
	Pairs  []engine.PairView `json:"pairs"`
}

// handleWatch upgrades to WebSocket and streams state snapshots. A frame is
// sent on connect and whenever the state changes.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Origin checks don't apply to a loopback control API.
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer ws.CloseNow()

	// CloseRead keeps the read side pumped so we notice the client leaving.
	ctx := ws.CloseRead(r.Context())

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	var last []byte
	for {
		snap := statusSnapshot{
			Daemon: s.control.DaemonState(),
			Pairs:  s.control.Statuses(),
		}
		data, err := json.Marshal(snap)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to marshal status snapshot")
			ws.Close(websocket.StatusInternalError, "snapshot failed")
			return
		}
		if !bytes.Equal(data, last) {
			if err := ws.Write(ctx, websocket.MessageText, data); err != nil {
				return
			}
			last = data
		}

		select {
		case <-ctx.Done():
			ws.Close(websocket.StatusNormalClosure, "")
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
