package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/dictation/logger"
	"github.com/kbukum/dictation/server/middleware"
)

// Server is an HTTP server backed by Gin, wrapped in h2c and the standard
// middleware chain.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     Config
	log        *logger.Logger

	mu   sync.Mutex
	addr string
}

// New creates a new Server. Routes are registered on GinEngine before Start.
func New(cfg Config, log *logger.Logger) *Server {
	cfg.ApplyDefaults()

	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	s := &Server{
		engine: engine,
		config: cfg,
		log:    log.WithComponent(logger.ComponentServer),
	}

	chain := middleware.Chain(
		middleware.Recovery(s.log),
		middleware.RequestID(),
		middleware.CORS(&s.config.CORS),
		middleware.BodySizeLimit(cfg.MaxBodySize),
		middleware.RequestLogger(s.log),
	)
	handler := h2c.NewHandler(chain(engine), &http2.Server{IdleTimeout: 120 * time.Second})

	s.httpServer = &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout:      time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:       time.Duration(cfg.IdleTimeout) * time.Second,
	}
	s.addr = s.httpServer.Addr
	return s
}

// GinEngine returns the underlying Gin engine for route registration.
func (s *Server) GinEngine() *gin.Engine {
	return s.engine
}

// Start binds the port and begins serving. It returns once the listener is
// bound so the caller knows the port is ready; serving continues in a goroutine.
func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}

	s.mu.Lock()
	s.addr = listener.Addr().String()
	s.mu.Unlock()

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("Server error", logger.ErrorFields("serve", err))
		}
	}()

	s.log.Debug("HTTP server started", logger.Fields(logger.FieldURL, s.URL()))
	return nil
}

// Stop shuts the server down, waiting up to five seconds for in-flight requests.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Warn("Server shutdown error", logger.ErrorFields("shutdown", err))
		_ = s.httpServer.Close()
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.log.Debug("HTTP server stopped")
	return nil
}

// Addr returns the bound address once started, the configured one before.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// URL returns the http:// base URL of the bound address.
func (s *Server) URL() string {
	return "http://" + s.Addr() + "/"
}
