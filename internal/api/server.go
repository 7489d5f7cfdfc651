// ABOUTME: Administrative HTTP server built on chi
// ABOUTME: Listens on TCP or, when enabled, on the tailnet via tsnet

package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"tailscale.com/tsnet"

	"github.com/Luk-bit/Facil-assim-food/internal/auth"
	"github.com/Luk-bit/Facil-assim-food/internal/outbound"
)

// Outbound is the delivery path the API pushes messages through.
type Outbound interface {
	Ready() bool
	Deliver(ctx context.Context, to, text string) outbound.Result
}

// TailscaleOptions configures the optional tailnet listener.
type TailscaleOptions struct {
	Enabled   bool
	Hostname  string
	AuthKey   string
	StateDir  string
	Ephemeral bool
}

// Options configures a Server.
type Options struct {
	// Addr is the TCP listen address. Ignored when Tailscale is enabled.
	Addr      string
	Tailscale TailscaleOptions
	// Verifier guards /send-message and /orders. Nil leaves them open.
	Verifier auth.TokenVerifier
	// Orders backs /orders and the database check in /health/ready.
	// Nil disables both.
	Orders OrderStore
}

// Server serves the administrative API.
type Server struct {
	opts       Options
	outbound   Outbound
	logger     *slog.Logger
	httpServer *http.Server
	tsnet      *tsnet.Server
	listener   net.Listener
	errCh      chan error
}

// NewServer creates a Server. Nothing listens until Start.
func NewServer(opts Options, out Outbound, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		opts:     opts,
		outbound: out,
		logger:   logger.With("component", "api"),
		errCh:    make(chan error, 1),
	}
	s.httpServer = &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/health/ready", s.handleReady)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireBearer(s.opts.Verifier, s.logger))
		r.Post("/send-message", s.handleSendMessage)
		if s.opts.Orders != nil {
			r.Get("/orders", s.handleListOrders)
			r.Get("/orders/{id}", s.handleGetOrder)
		}
	})

	return r
}

// Start opens the listener and serves in the background. Serve errors are
// reported on Errors.
func (s *Server) Start(ctx context.Context) error {
	ln, err := s.listen(ctx)
	if err != nil {
		return err
	}
	s.listener = ln

	go func() {
		s.logger.Info("admin API listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Errors reports a failure of the background server.
func (s *Server) Errors() <-chan error {
	return s.errCh
}

func (s *Server) listen(ctx context.Context) (net.Listener, error) {
	if s.opts.Tailscale.Enabled {
		if s.opts.Addr != "" {
			s.logger.Warn("server.http_addr is ignored when tailscale is enabled", "http_addr", s.opts.Addr)
		}
		return s.listenTailscale(ctx)
	}

	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return nil, fmt.Errorf("listening on HTTP address: %w", err)
	}
	return ln, nil
}

// Shutdown gracefully stops the HTTP server and the tailnet node.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
	}
	if s.tsnet != nil {
		if err := s.tsnet.Close(); err != nil {
			errs = append(errs, fmt.Errorf("tailscale shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}
