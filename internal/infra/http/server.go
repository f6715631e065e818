package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"everyone-bot/internal/infra/logging"
)

const DefaultWebhookPath = "/webhook"

// Server hosts the webhook endpoint (webhook mode) and the health and
// metrics routes.
type Server struct {
	addr   string
	router chi.Router
	log    *zerolog.Logger

	shutdownTimeout time.Duration
	listening       chan string
}

func NewServer(addr string, logger *zerolog.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	return &Server{
		addr:            addr,
		router:          r,
		log:             logger,
		shutdownTimeout: 5 * time.Second,
		listening:       make(chan string, 1),
	}
}

// MountWebhook routes POSTs on path to h.
func (s *Server) MountWebhook(path string, h http.Handler) {
	s.router.Method(http.MethodPost, path, h)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Listening yields the bound address once ListenAndServe is accepting.
func (s *Server) Listening() <-chan string { return s.listening }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	srv := &http.Server{Handler: s.router, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.log.Info().Str("addr", ln.Addr().String()).Msg("http server listening")
	select {
	case s.listening <- ln.Addr().String():
	default:
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// WebhookEndpoint derives both sides of the webhook from the public URL:
// the URL to register with Telegram and the route to mount. A URL without a
// path gets DefaultWebhookPath appended so the two always agree.
func WebhookEndpoint(publicURL string) (registerURL, route string, err error) {
	u, err := url.Parse(strings.TrimSpace(publicURL))
	if err != nil {
		return "", "", fmt.Errorf("parse webhook url: %w", err)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = DefaultWebhookPath
		u.RawPath = ""
	}
	return u.String(), u.EscapedPath(), nil
}
