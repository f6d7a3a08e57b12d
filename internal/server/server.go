package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lazypower/habitpal/internal/engine"
	"github.com/lazypower/habitpal/internal/store"
)

// Server is the habitpal HTTP API server. It adapts requests onto the
// engine and holds no state of its own.
type Server struct {
	db      *store.DB
	engine  *engine.Engine
	log     *zap.Logger
	router  chi.Router
	version string
	started time.Time
}

// New creates a new Server. db is only used for health checks and may be
// nil when the engine runs over another backend.
func New(db *store.DB, eng *engine.Engine, version string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		db:      db,
		engine:  eng,
		log:     log,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/state", s.handleState)
		r.Get("/summary", s.handleSummary)
		r.Get("/reminders", s.handleReminders)

		r.Post("/habits", s.handleAddHabit)
		r.Route("/habits/{habitID}", func(r chi.Router) {
			r.Patch("/", s.handleUpdateHabit)
			r.Delete("/", s.handleDeleteHabit)
			r.Post("/log", s.handleLogProgress)
			r.Post("/undo", s.handleUndoProgress)
			r.Get("/stats", s.handleHabitStats)
		})

		r.Post("/companion", s.handleCompanion)
		r.Post("/companion/buy", s.handleBuyItem)
		r.Post("/companion/hat", s.handleEquipHat)

		r.Put("/settings", s.handleUpdateSettings)
		r.Post("/reset", s.handleReset)
	})

	r.Handle("/metrics", promhttp.HandlerFor(s.engine.Metrics().Registry, promhttp.HandlerOpts{}))

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	dbPath := ""
	if s.db != nil {
		dbPath = s.db.Path
		if err := s.db.PingContext(r.Context()); err != nil {
			dbOK = false
		}
	}
	lastWrite := ""
	if err := s.engine.LastWriteError(); err != nil {
		lastWrite = err.Error()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"version":          s.version,
		"uptime":           time.Since(s.started).Seconds(),
		"db":               dbOK,
		"db_path":          dbPath,
		"last_write_error": lastWrite,
	})
}

// requestLogger logs one line per request at debug level.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
