package inspect

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/ley/internal/errors"
	"github.com/vango-dev/ley/pkg/fiber"
	"github.com/vango-dev/ley/pkg/host"
	"github.com/vango-dev/ley/pkg/loop"
)

// Config configures the inspector.
type Config struct {
	// Host is the memory host the engine renders into. Required.
	Host *host.Memory

	// Loop runs tree reads and event dispatch. If nil they run on the
	// request goroutine, which is only safe when nothing else renders.
	Loop *loop.Loop

	// Gatherer backs /metrics (default: prometheus.DefaultGatherer).
	Gatherer prometheus.Gatherer

	// Logger logs requests (default: slog.Default()).
	Logger *slog.Logger

	// ShutdownTimeout bounds graceful shutdown in Serve (default: 5s).
	ShutdownTimeout time.Duration
}

// Server is the inspector HTTP server.
type Server struct {
	config Config
	router chi.Router
	hub    *Hub
	logger *slog.Logger

	mu    sync.RWMutex
	roots map[string]*fiber.Root
}

// New creates an inspector and subscribes its op stream to the host.
func New(config Config) *Server {
	if config.Gatherer == nil {
		config.Gatherer = prometheus.DefaultGatherer
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 5 * time.Second
	}

	s := &Server{
		config: config,
		hub:    NewHub(config.Logger),
		logger: config.Logger,
		roots:  make(map[string]*fiber.Root),
	}
	if config.Host != nil {
		config.Host.Subscribe(s.hub.BroadcastOp)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(config.Gatherer, promhttp.HandlerOpts{}))
	r.Get("/roots", s.handleRoots)
	r.Route("/roots/{name}", func(r chi.Router) {
		r.Get("/tree", s.handleTree)
		r.Get("/html", s.handleHTML)
	})
	r.Post("/nodes/{id}/{event}", s.handleDispatch)
	r.Get("/ops", s.hub.HandleWebSocket)
	s.router = r
	return s
}

// Handler returns the inspector's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Hub returns the op stream hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Mount makes root visible under name. Safe from any goroutine.
func (s *Server) Mount(name string, root *fiber.Root) {
	s.mu.Lock()
	s.roots[name] = root
	s.mu.Unlock()
}

// Unmount hides the root registered under name.
func (s *Server) Unmount(name string) {
	s.mu.Lock()
	delete(s.roots, name)
	s.mu.Unlock()
}

// Serve listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("inspector listening", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != http.ErrServerClosed {
			return errors.New("E141").Wrap(err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	s.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("inspector shutdown error", "error", err)
		return errors.New("E141").Wrap(err)
	}
	return nil
}

func (s *Server) root(name string) *fiber.Root {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roots[name]
}

// exec runs fn where the engine lives.
func (s *Server) exec(ctx context.Context, fn func() error) error {
	if s.config.Loop == nil {
		return fn()
	}
	return s.config.Loop.Do(ctx, fn)
}

func (s *Server) handleRoots(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	names := make([]string, 0, len(s.roots))
	for name := range s.roots {
		names = append(names, name)
	}
	s.mu.RUnlock()
	sort.Strings(names)
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	root := s.root(chi.URLParam(r, "name"))
	if root == nil {
		http.NotFound(w, r)
		return
	}
	var tree *TreeNode
	err := s.exec(r.Context(), func() error {
		tree = Snapshot(root.Fiber())
		return nil
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if tree == nil {
		http.Error(w, "root unmounted", http.StatusGone)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

func (s *Server) handleHTML(w http.ResponseWriter, r *http.Request) {
	root := s.root(chi.URLParam(r, "name"))
	if root == nil || s.config.Host == nil {
		http.NotFound(w, r)
		return
	}
	var out string
	err := s.exec(r.Context(), func() error {
		if n, ok := root.Container().(*host.Node); ok {
			out = s.config.Host.InnerHTML(n)
		}
		return nil
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, out)
}

// handleDispatch calls the node's handler for the event. A non-empty request
// body is passed to the handler as a string argument.
func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || s.config.Host == nil {
		http.NotFound(w, r)
		return
	}
	event := chi.URLParam(r, "event")
	body, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var arg any
	if len(body) > 0 {
		arg = string(body)
	}

	s.mu.RLock()
	roots := make([]*fiber.Root, 0, len(s.roots))
	for _, root := range s.roots {
		roots = append(roots, root)
	}
	s.mu.RUnlock()

	handled := false
	err = s.exec(r.Context(), func() error {
		for _, root := range roots {
			c, ok := root.Container().(*host.Node)
			if !ok {
				continue
			}
			if n := c.FindByID(id); n != nil {
				handled = s.config.Host.Dispatch(n, event, arg)
				return nil
			}
		}
		return nil
	})
	switch {
	case err != nil:
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case !handled:
		http.NotFound(w, r)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("inspector request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
