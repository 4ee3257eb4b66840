// Package server exposes documents, versions and the suggestion assistant
// over HTTP.
//
// Information Hiding:
// - Route layout and JSON shapes
// - Mapping of storage errors to status codes
// - Snapshotting a document and its chat history for one assistant query
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/richinex/scribe/assistant"
	"github.com/richinex/scribe/observability"
	"github.com/richinex/scribe/storage"
)

// Querier runs one assistant query. *assistant.Assistant satisfies it.
type Querier interface {
	ProcessQuery(ctx context.Context, q assistant.Query) assistant.Result
}

// Server wires the store and the assistant into a gin router.
type Server struct {
	store       storage.Store
	assistant   Querier
	metrics     *observability.Metrics
	logger      *slog.Logger
	chatLimiter *rate.Limiter
	router      *gin.Engine
}

// Option customizes a Server.
type Option func(*Server)

// WithMetrics enables request counting and the /metrics endpoint.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger sets the request logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithChatRateLimit limits POST /documents/:id/chat, the only route that
// calls the AI service, to perSecond requests with the given burst. A
// non-positive rate disables the limit.
func WithChatRateLimit(perSecond float64, burst int) Option {
	return func(s *Server) {
		if perSecond <= 0 {
			s.chatLimiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.chatLimiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// New builds the router.
func New(store storage.Store, q Querier, opts ...Option) *Server {
	s := &Server{
		store:     store,
		assistant: q,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	registerValidators()
	s.router = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger(), cors())
	if s.metrics != nil {
		router.Use(s.countRequests())
		router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	router.GET("/", s.root)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	docs := router.Group("/documents")
	docs.POST("", s.createDocument)
	docs.GET("", s.listDocuments)
	docs.GET("/:id", s.getDocument)
	docs.PUT("/:id", s.updateDocument)
	docs.GET("/:id/versions", s.listVersions)
	docs.POST("/:id/chat", s.limitChat(), s.chat)
	docs.GET("/:id/chat", s.chatHistory)

	return router
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // covers a full AI service round trip
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
