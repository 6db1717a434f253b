// Package web serves the browser front end: an embedded dashboard page and
// the JSON API the page polls for chat, SOC, and learning data.
package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/crypto/bcrypt"

	"github.com/hellosecurity/riversos/advisor"
	"github.com/hellosecurity/riversos/chat"
	"github.com/hellosecurity/riversos/dashboard"
	"github.com/hellosecurity/riversos/learning"
	"github.com/hellosecurity/riversos/soc"
)

//go:embed static
var staticFS embed.FS

// Config configures the web server.
type Config struct {
	Addr string // Default: ":5000".

	// BasicAuthUser and BasicAuthHash enable Basic Auth on /api/* when both
	// are set. The hash is a bcrypt hash of the password.
	BasicAuthUser string
	BasicAuthHash string

	MaxBodyBytes int64 // POST body cap. Default: 32KB.
}

func (c *Config) defaults() {
	if c.Addr == "" {
		c.Addr = ":5000"
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 32 * 1024
	}
}

// Server is the HTTP front end.
type Server struct {
	config Config
	engine *learning.Engine
	socs   *soc.Store
	dash   *dashboard.Dashboard
	logger *slog.Logger

	mu      sync.Mutex
	session *chat.Session
}

// NewServer creates a Server. The chat session backs /api/chat so web
// conversations feed the same learning loop as the console.
func NewServer(cfg Config, engine *learning.Engine, socs *soc.Store, dash *dashboard.Dashboard,
	session *chat.Session, logger *slog.Logger) *Server {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config:  cfg,
		engine:  engine,
		socs:    socs,
		dash:    dash,
		session: session,
		logger:  logger,
	}
}

// Router builds the chi router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		f, err := staticFS.Open("static/index.html")
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		defer f.Close()
		io.Copy(w, f)
	})

	r.Route("/api", func(api chi.Router) {
		if s.config.BasicAuthUser != "" && s.config.BasicAuthHash != "" {
			api.Use(s.basicAuth)
		}
		api.Post("/chat", s.handleChat)
		api.Get("/dashboard-data", s.handleDashboardData)
		api.Get("/soc-data", s.handleSOCData)
		api.Post("/advisory", s.handleAdvisory)
		api.Get("/learning-progress", s.handleLearningProgress)
	})

	return r
}

// Serve runs the server until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("web interface listening", "addr", s.config.Addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		jsonErr(w, "message is required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	response, _ := s.session.Handle(r.Context(), req.Message)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{
		"response":  response,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleDashboardData(w http.ResponseWriter, r *http.Request) {
	snap, err := s.dash.Snapshot(r.Context())
	if err != nil {
		s.logger.Error("dashboard snapshot failed", "error", err)
		jsonErr(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleSOCData(w http.ResponseWriter, r *http.Request) {
	data, err := s.socs.Dashboard(r.Context())
	if err != nil {
		s.logger.Error("soc dashboard failed", "error", err)
		jsonErr(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"active_alerts":  data.ActiveAlerts,
		"open_incidents": data.OpenIncidents,
		"active_hunts":   data.ActiveHunts,
	})
}

func (s *Server) handleAdvisory(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)

	var req struct {
		Topic string `json:"topic"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		jsonErr(w, "topic is required", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"guidance":  advisor.Guidance(req.Topic),
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleLearningProgress(w http.ResponseWriter, r *http.Request) {
	summary := s.engine.Summary(r.Context())
	status := "Initializing"
	if summary.Domains > 0 {
		status = "Learning"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"domains_active":      summary.Domains,
		"average_expertise":   summary.AverageSkill,
		"conversation_memory": summary.MemoryLen,
		"threat_patterns":     summary.PatternGroups,
		"status":              status,
	})
}

// basicAuth enforces Basic Auth against the configured bcrypt hash.
func (s *Server) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(user), []byte(s.config.BasicAuthUser)) != 1 ||
			bcrypt.CompareHashAndPassword([]byte(s.config.BasicAuthHash), []byte(pass)) != nil {
			w.Header().Set("WWW-Authenticate", `Basic realm="riversos"`)
			jsonErr(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonErr(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
