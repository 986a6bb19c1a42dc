package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/gosight/gameperf/internal/config"
)

// Server serves the game directory over plain HTTP.
type Server struct {
	addr       string
	httpServer *http.Server
	listener   net.Listener
}

// New creates a file server for cfg.Root. It does not listen until Start.
func New(cfg config.ServerConfig) *Server {
	return &Server{
		addr: fmt.Sprintf(":%d", cfg.Port),
		httpServer: &http.Server{
			Handler:           NewRouter(cfg.Root),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// NewRouter returns the static file router for root.
func NewRouter(root string) http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)
	r.Use(CORSMiddleware)

	r.Get("/health", HealthCheck)
	r.Handle("/*", http.FileServer(http.Dir(root)))

	return r
}

// Start binds the port and serves in the background. Bind errors are
// returned before any goroutine starts.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	s.listener = lis

	go func() {
		log.Info().Str("addr", lis.Addr().String()).Msg("Serving game files")
		if err := s.httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("File server stopped")
		}
	}()
	return nil
}

// Port returns the bound port, or 0 before Start.
func (s *Server) Port() int {
	if s.listener == nil {
		return 0
	}
	return s.listener.Addr().(*net.TCPAddr).Port
}

// URL returns the address of page on this server.
func (s *Server) URL(page string) string {
	u := url.URL{
		Scheme: "http",
		Host:   fmt.Sprintf("localhost:%d", s.Port()),
		Path:   "/" + page,
	}
	return u.String()
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.listener == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("Served request")
	})
}
