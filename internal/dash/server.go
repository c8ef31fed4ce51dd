package dash

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/Usmankhan866/BetfairBot/internal/config"
	"github.com/Usmankhan866/BetfairBot/internal/exposure"
)

// Controls lets the dashboard pause and resume the betting loop.
type Controls interface {
	Pause()
	Resume()
	Running() bool
}

type Server struct {
	cfg     *config.Store
	cfgPath string
	store   *Store
	tracker *exposure.Tracker
	logs    *LogBuffer
	hub     *Hub
	ctl     Controls
	log     *zap.Logger
}

func NewServer(cfg *config.Store, cfgPath string, store *Store, tracker *exposure.Tracker, logs *LogBuffer, hub *Hub, ctl Controls, log *zap.Logger) *Server {
	return &Server{
		cfg:     cfg,
		cfgPath: cfgPath,
		store:   store,
		tracker: tracker,
		logs:    logs,
		hub:     hub,
		ctl:     ctl,
		log:     log,
	}
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", s.handleIndex)
	r.Get("/api/dash", s.handleRows)
	r.Get("/api/status", s.handleStatus)
	r.Post("/api/start", s.handleStart)
	r.Post("/api/stop", s.handleStop)
	r.Post("/api/config", s.handleConfig)
	r.Get("/ws", s.hub.Serve)
	return r
}

// Start runs the dashboard HTTP server until ctx is canceled.
func (s *Server) Start(ctx context.Context, addr string) {
	if addr == "" {
		s.log.Info("dashboard disabled: empty addr")
		return
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router(),
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		s.log.Info("dashboard listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("dashboard server error", zap.Error(err))
		}
	}()
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

func (s *Server) handleRows(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.store.List())
}

type statusResp struct {
	Status     string            `json:"status"`
	DryRun     bool              `json:"dryRun"`
	Summary    exposure.Summary  `json:"summary"`
	RecentBets []exposure.Record `json:"recentBets"`
	Logs       []string          `json:"logs"`
	Betting    any               `json:"betting"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	status := "stopped"
	if s.ctl.Running() {
		status = "running"
	}
	cfg := s.cfg.Snapshot()
	writeJSON(w, statusResp{
		Status:     status,
		DryRun:     cfg.DryRun,
		Summary:    s.tracker.Summary(),
		RecentBets: s.tracker.Recent(5),
		Logs:       s.logs.Recent(),
		Betting:    cfg.Betting,
	})
}

type apiResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *Server) handleStart(w http.ResponseWriter, _ *http.Request) {
	if s.ctl.Running() {
		writeJSON(w, apiResult{Success: false, Message: "bot is already running"})
		return
	}
	s.ctl.Resume()
	s.log.Info("bot resumed via dashboard")
	writeJSON(w, apiResult{Success: true, Message: "bot started"})
}

func (s *Server) handleStop(w http.ResponseWriter, _ *http.Request) {
	if !s.ctl.Running() {
		writeJSON(w, apiResult{Success: false, Message: "bot is not running"})
		return
	}
	s.ctl.Pause()
	s.log.Info("bot paused via dashboard")
	writeJSON(w, apiResult{Success: true, Message: "bot stopped"})
}

type configUpdate struct {
	Stake           *float64 `json:"stake"`
	PerRaceStopLoss *float64 `json:"perRaceStopLoss"`
	MinRunners      *int     `json:"minRunners"`
	MaxRunners      *int     `json:"maxRunners"`
}

// handleConfig updates betting settings and persists them. Stake and stop
// loss changes take effect on the next run; the tracker keeps the values
// it was created with.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	var upd configUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		writeJSON(w, apiResult{Success: false, Message: "invalid JSON: " + err.Error()})
		return
	}

	next := *s.cfg.Snapshot()
	if upd.Stake != nil {
		next.Betting.Stake = *upd.Stake
	}
	if upd.PerRaceStopLoss != nil {
		next.Betting.PerRaceStopLoss = *upd.PerRaceStopLoss
	}
	if upd.MinRunners != nil {
		next.Betting.MinRunners = *upd.MinRunners
	}
	if upd.MaxRunners != nil {
		next.Betting.MaxRunners = *upd.MaxRunners
	}
	if err := next.Validate(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		writeJSON(w, apiResult{Success: false, Message: err.Error()})
		return
	}

	s.cfg.Replace(&next)
	if s.cfgPath != "" {
		if err := next.Save(s.cfgPath); err != nil {
			s.log.Error("config save failed", zap.Error(err))
			writeJSON(w, apiResult{Success: false, Message: "saved in memory only: " + err.Error()})
			return
		}
	}
	s.log.Info("configuration updated via dashboard")
	writeJSON(w, apiResult{Success: true, Message: "configuration saved; restart to apply stake changes"})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
