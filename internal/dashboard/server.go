package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"labelme/internal/observability"
	"labelme/pkg/models"
)

// Clearer drops every cached result
type Clearer interface {
	ClearAll()
}

// ServerConfig configures the HTTP surface
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Info            models.Dashboard
}

// Server serves the dashboard page and its JSON API
type Server struct {
	config   ServerConfig
	composer *Composer
	cache    Clearer
	renderer *Renderer
	health   *observability.HealthManager
	metrics  *observability.Metrics
	logger   *observability.Logger
}

// NewServer wires the dashboard handlers
func NewServer(config ServerConfig, composer *Composer, cache Clearer, obs *observability.Observability) (*Server, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	if config.Addr == "" {
		config.Addr = ":8501"
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	return &Server{
		config:   config,
		composer: composer,
		cache:    cache,
		renderer: renderer,
		health:   obs.Health,
		metrics:  obs.Metrics,
		logger:   obs.Logger.WithField("component", "http"),
	}, nil
}

// Router creates the HTTP router
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.loggingMiddleware)

	router.HandleFunc("/", s.handleIndex).Methods("GET")
	router.HandleFunc("/refresh", s.handleRefresh).Methods("POST")
	router.HandleFunc("/api/views/{view}", s.handleView).Methods("GET")
	router.HandleFunc("/healthz", s.health.HealthHandler()).Methods("GET")
	router.Handle("/metrics", s.metrics.Handler()).Methods("GET")

	return router
}

// HTTPServer creates the HTTP server
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.Router(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  2 * time.Minute,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	server := s.HTTPServer()

	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoWithFields("Dashboard listening", map[string]interface{}{"addr": server.Addr})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down dashboard")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	active := ViewID(r.URL.Query().Get("tab"))
	if _, ok := LookupTab(active); !ok {
		active = ViewQuality
	}

	page := &Page{
		Info:   s.config.Info,
		Tabs:   Tabs,
		Active: active,
		Views:  s.composer.Compose(r.Context()),
	}

	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, page); err != nil {
		s.logger.WithError(err).Error("Failed to render page")
		http.Error(w, "failed to render dashboard", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.cache.ClearAll()

	target := "/"
	if tab := r.FormValue("tab"); tab != "" {
		if _, ok := LookupTab(ViewID(tab)); ok {
			target = "/?tab=" + tab
		}
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	id := ViewID(mux.Vars(r)["view"])
	if _, ok := LookupTab(id); !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown view " + string(id)})
		return
	}

	view, err := s.composer.ComposeView(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		s.metrics.RecordRequest(route, rec.status)
		s.logger.InfoWithFields("HTTP request", map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
		})
	})
}
