// Package httpapi exposes the checklists over a JSON HTTP API together
// with health and Prometheus endpoints.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	restful "github.com/emicklei/go-restful/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nibzard/checklist-go/internal/metrics"
	"github.com/nibzard/checklist-go/internal/todo"
)

const shutdownTimeout = 5 * time.Second

// TaskStore is the store surface the API serves.
type TaskStore interface {
	Tasks(userID string) []todo.Task
	Add(userID string, task todo.Task) (todo.Entry, error)
	Edit(userID string, position int, edit todo.Edit) (todo.Task, error)
	Toggle(userID string, index int) (todo.Task, error)
	Delete(userID string, index int) (todo.Task, error)
	Repair(userID string) (int, error)
	Quarantined(userID string) int
}

// Options configures a Server.
type Options struct {
	Addr     string
	Logger   *log.Logger
	Metrics  metrics.Recorder
	Gatherer prometheus.Gatherer
}

// Server serves the API.
type Server struct {
	store     TaskStore
	logger    *log.Logger
	metrics   metrics.Recorder
	container *restful.Container
	http      *http.Server
}

// New builds the routes for store.
func New(store TaskStore, opts Options) *Server {
	restful.DefaultRequestContentType(restful.MIME_JSON)
	restful.DefaultResponseContentType(restful.MIME_JSON)

	s := &Server{
		store:     store,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		container: restful.NewContainer(),
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.metrics == nil {
		s.metrics = metrics.Nop{}
	}

	s.container.Add(s.tasksService())
	s.container.Handle("/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok\n"))
	}))
	if opts.Gatherer != nil {
		s.container.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.container,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.container
}

// Run listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http api listening", "addr", s.http.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("http api stopped")
	return ctx.Err()
}
