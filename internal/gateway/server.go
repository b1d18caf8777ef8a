// Package gateway exposes boards over HTTP: a small REST API for reading and
// replacing whole boards, PDF export, and a websocket relay onto the board's
// realtime channel.
package gateway

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/dyluth/slate/pkg/whiteboard"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Store is the document store the gateway serves boards from.
type Store interface {
	whiteboard.DocumentStore
	ListDocuments(ctx context.Context) ([]string, error)
}

// Pinger reports backend liveness for /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config configures a Server.
type Config struct {
	Addr           string
	AllowedOrigins []string

	// Backend names the storage backend in health responses.
	Backend string

	// Health is pinged by /healthz. Nil means always healthy.
	Health Pinger
}

// Server is the HTTP gateway.
type Server struct {
	store     Store
	transport whiteboard.Transport
	config    Config
	router    *gin.Engine
	server    *http.Server
}

// New builds a gateway and registers its routes.
func New(store Store, transport whiteboard.Transport, cfg Config) *Server {
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		store:     store,
		transport: transport,
		config:    cfg,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())
	r.Use(cors.New(corsConfig(s.config.AllowedOrigins)))

	r.GET("/healthz", s.healthCheck)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/boards", s.listBoards)
		v1.GET("/boards/:id", s.getBoard)
		v1.PUT("/boards/:id", s.putBoard)
		v1.GET("/boards/:id/export.pdf", s.exportBoard)
	}

	r.GET("/ws/boards/:id", s.boardSocket)
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "PUT", "OPTIONS"},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address in the background.
func (s *Server) Start() error {
	if s.config.Addr == "" {
		return fmt.Errorf("listen address cannot be empty")
	}

	s.server = &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("[Gateway] Listening on %s", s.config.Addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[Gateway] Server error: %v", err)
		}
	}()

	return nil
}

// Shutdown gracefully stops the server. Open websockets are hijacked
// connections and are not waited for.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Printf("[Gateway] %s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Microsecond))
	}
}

// standardResponse sends a consistent JSON envelope.
func standardResponse(c *gin.Context, code int, data interface{}, err string) {
	status := "success"
	if code >= http.StatusBadRequest {
		status = "error"
	}
	response := gin.H{"status": status}
	if data != nil {
		response["data"] = data
	}
	if err != "" {
		response["error"] = err
	}
	c.JSON(code, response)
}
