package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"
)

const (
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

type HTTPServer interface {
	Run() error
	Shutdown() error
	Addr() string
}

type Option func(s *httpServer)

func WithAddr(host string, port uint16) Option {
	return func(s *httpServer) {
		s.srv.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	}
}

// WithTimeout ignores zero values so a partially filled config keeps the defaults.
func WithTimeout(read, write, idle time.Duration) Option {
	return func(s *httpServer) {
		if read > 0 {
			s.srv.ReadTimeout = read
		}

		if write > 0 {
			s.srv.WriteTimeout = write
		}

		if idle > 0 {
			s.srv.IdleTimeout = idle
		}
	}
}

func WithHandler(handler http.Handler) Option {
	return func(s *httpServer) {
		s.srv.Handler = handler
	}
}

func WithShutdownTimeout(timeout time.Duration) Option {
	return func(s *httpServer) {
		if timeout > 0 {
			s.shutdownTimeout = timeout
		}
	}
}

type httpServer struct {
	srv             *http.Server
	shutdownTimeout time.Duration
}

func NewHTTPServer(opts ...Option) HTTPServer {
	s := &httpServer{
		srv: &http.Server{
			Addr:              ":8080",
			ReadTimeout:       defaultReadTimeout,
			ReadHeaderTimeout: defaultReadTimeout,
			WriteTimeout:      defaultWriteTimeout,
			IdleTimeout:       defaultIdleTimeout,
		},
		shutdownTimeout: defaultShutdownTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *httpServer) Run() error {
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *httpServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	return s.srv.Shutdown(ctx)
}

func (s *httpServer) Addr() string {
	return s.srv.Addr
}
