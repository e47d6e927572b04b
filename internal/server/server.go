// Package server exposes an event source over HTTP: a raw text stream on
// /chat and OpenAI-compatible chat completions on /v1/chat/completions.
package server

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/dotcommander/agentgw/internal/errs"
	"github.com/dotcommander/agentgw/internal/stream"
	"github.com/dotcommander/agentgw/internal/wire"
)

// Config configures the HTTP layer.
type Config struct {
	Addr string
	// Model is the id reported by /v1/models.
	Model string
	// System is the system message used when a request has none.
	System          string
	ShutdownTimeout time.Duration
}

// Server serves the gateway endpoints. Handlers share no mutable state: each
// request builds its own conversation and runs its own event stream.
type Server struct {
	cfg    Config
	source stream.Source
	now    func() time.Time
	newID  func() string
}

// New creates a server backed by source.
func New(cfg Config, source stream.Source) *Server {
	return &Server{
		cfg:    cfg,
		source: source,
		now:    time.Now,
		newID:  wire.NewResponseID,
	}
}

// Handler returns the HTTP handler with all routes and middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /v1/chat/completions", s.handleChatCompletions)
	mux.HandleFunc("GET /v1/models", s.handleModels)
	return logRequests(mux)
}

// Run listens on the configured address and serves until ctx is done, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return errs.Wrapf(err, "Could not listen on %s.", s.cfg.Addr)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		err := srv.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	slog.InfoContext(ctx, "server: listening", "addr", ln.Addr().String(), "model", s.cfg.Model)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	slog.InfoContext(ctx, "server: shutting down", "timeout", timeout)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		_ = srv.Close()
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// observe logs every event at debug level and failures at error level. A
// generation canceled because the client went away is not a failure.
func observe(ctx context.Context, events iter.Seq2[stream.Event, error]) iter.Seq2[stream.Event, error] {
	return func(yield func(stream.Event, error) bool) {
		for ev, err := range events {
			switch {
			case errors.Is(err, context.Canceled):
				slog.DebugContext(ctx, "server: generation canceled", "err", err)
			case err != nil:
				slog.ErrorContext(ctx, "server: generation failed", "reason", errs.Reason(err), "err", err)
			default:
				slog.DebugContext(ctx, "server: event", "kind", ev.Kind, "step", ev.Step, "tool", toolName(ev))
			}
			if !yield(ev, err) {
				return
			}
		}
	}
}

func toolName(ev stream.Event) string {
	if ev.Tool == nil {
		return ""
	}
	return ev.Tool.Name
}
