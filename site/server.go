// Package site serves the NewsDailly reader API: paged feeds, articles,
// market chips and the theme preference.
package site

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/newsdailly/newsdailly/docstore"
	"github.com/newsdailly/newsdailly/images"
	"github.com/newsdailly/newsdailly/logger"
	"github.com/newsdailly/newsdailly/market"
	"github.com/newsdailly/newsdailly/metrics"
	"github.com/newsdailly/newsdailly/theme"
)

// RequestIDHeader carries the per-request id.
const RequestIDHeader = "X-Request-ID"

// ArticleSuggestions is the number of suggestions shown beside an article.
const ArticleSuggestions = 4

const shutdownTimeout = 5 * time.Second

// Options holds the dependencies of a Server. Store and Theme are required;
// the rest may be nil.
type Options struct {
	Store    docstore.Store
	Images   *images.Resolver
	Markets  *market.Poller
	Theme    *theme.State
	Metrics  *metrics.Metrics
	Logger   logger.Logger
	SiteURL  string
	ImageDir string
}

// Server is the HTTP reader API.
type Server struct {
	store    docstore.Store
	images   *images.Resolver
	markets  *market.Poller
	theme    *theme.State
	metrics  *metrics.Metrics
	log      logger.Logger
	siteURL  string
	imageDir string
}

// NewServer creates a server from opts.
func NewServer(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	siteURL := opts.SiteURL
	if siteURL == "" {
		siteURL = DefaultSiteURL
	}
	return &Server{
		store:    opts.Store,
		images:   opts.Images,
		markets:  opts.Markets,
		theme:    opts.Theme,
		metrics:  opts.Metrics,
		log:      log,
		siteURL:  siteURL,
		imageDir: opts.ImageDir,
	}
}

// SetupRouter configures the Gin router with every reader route.
func (s *Server) SetupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestID(), s.accessLog(), s.countRequests(), cors())

	api := router.Group("/api/v1")
	api.GET("/feed", s.HandleHomeFeed)
	api.GET("/categories", s.HandleListCategories)
	api.GET("/categories/:slug/feed", s.HandleCategoryFeed)
	api.GET("/articles/:slug", s.HandleGetArticle)
	api.GET("/markets", s.HandleMarkets)
	api.GET("/theme", s.HandleGetTheme)
	api.PUT("/theme", s.HandleSetTheme)
	api.POST("/theme/toggle", s.HandleToggleTheme)

	if s.metrics != nil {
		router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
	if s.imageDir != "" {
		router.Static("/images", s.imageDir)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorResponse("not_found", "Page not found"))
	})

	return router
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Starting reader API", logger.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("reader API failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("Shutting down reader API")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down reader API: %w", err)
	}
	return nil
}

// errorResponse creates a standardized error response.
func errorResponse(code, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, "+RequestIDHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}

// requestID reuses a caller-supplied id or mints one.
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("Request handled",
			logger.String("request_id", c.GetString("request_id")),
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("duration", time.Since(start)),
		)
	}
}

func (s *Server) countRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if s.metrics == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
