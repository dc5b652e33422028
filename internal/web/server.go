// Package web serves the question form.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Generator turns a question into SQL.
type Generator interface {
	GenerateSQL(ctx context.Context, question string) (string, error)
}

const (
	msgInvalid = "Please enter a valid question before submitting."
	msgSuccess = "SQL Query Generated!"
)

type Server struct {
	gen    Generator
	logger *slog.Logger
}

func NewServer(gen Generator, logger *slog.Logger) *Server {
	return &Server{gen: gen, logger: logger}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(LoggingMiddleware(s.logger))
	r.Use(MetricsMiddleware)

	r.Get("/", s.handleForm)
	r.Post("/", s.handleSubmit)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, page{})
}

// handleSubmit never calls the generator for blank questions. Generation
// failures are shown on the page and not retried.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		generationsTotal.WithLabelValues("invalid").Inc()
		s.render(w, http.StatusBadRequest, page{Banner: &banner{Kind: "error", Message: msgInvalid}})
		return
	}
	question := r.PostForm.Get("question")

	if strings.TrimSpace(question) == "" {
		generationsTotal.WithLabelValues("invalid").Inc()
		s.render(w, http.StatusUnprocessableEntity, page{
			Question: question,
			Banner:   &banner{Kind: "error", Message: msgInvalid},
		})
		return
	}

	start := time.Now()
	sql, err := s.gen.GenerateSQL(r.Context(), question)
	generationDurationSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		generationsTotal.WithLabelValues("error").Inc()
		s.logger.Error("failed to generate sql", "err", err)
		s.render(w, http.StatusOK, page{
			Question: question,
			Banner:   &banner{Kind: "error", Message: fmt.Sprintf("An error occurred: %s", err)},
		})
		return
	}

	generationsTotal.WithLabelValues("success").Inc()
	s.logger.Debug("generated sql", "question", question, "sql", sql, "took", time.Since(start))
	s.render(w, http.StatusOK, page{
		Question: question,
		SQL:      sql,
		Banner:   &banner{Kind: "success", Message: msgSuccess},
	})
}

func (s *Server) render(w http.ResponseWriter, status int, p page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, p); err != nil {
		s.logger.Error("failed to render page", "err", err)
	}
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	}
}
