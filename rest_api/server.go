// Package rest_api surfaces the biaslens submission, polling, and event
// stream endpoints over HTTP. The browser extension and website talk to this
// API directly, hence the permissive CORS policy.
package rest_api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"     // swagger embed files
	ginSwagger "github.com/swaggo/gin-swagger" // gin-swagger middleware

	"github.com/biaslens/biaslens/events"
	_ "github.com/biaslens/biaslens/rest_api/docs"
	"github.com/biaslens/biaslens/service"
)

// Server holds the HTTP surface and its injected collaborators.
type Server struct {
	submission  *service.Submission
	retrieval   *service.Retrieval
	broadcaster *events.Broadcaster
	restMethods map[string]RestMethod

	httpServer *http.Server
}

// NewServer wires the REST surface. The broadcaster must be the same instance
// completion events are published to (directly for inline deployments, via
// the Redis event bus forwarder for queued ones).
func NewServer(submission *service.Submission, retrieval *service.Retrieval, broadcaster *events.Broadcaster) *Server {
	return &Server{
		submission:  submission,
		retrieval:   retrieval,
		broadcaster: broadcaster,
		restMethods: make(map[string]RestMethod),
	}
}

// Router builds the gin engine with all registered endpoints, CORS, and the
// swagger endpoint.
func (s *Server) Router() (*gin.Engine, error) {
	router := gin.Default()

	// The original service allowed any origin; the extension runs on
	// arbitrary pages.
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}))

	if err := s.RegisterMethod(POST, "/process", s.Process); err != nil {
		return nil, err
	}
	if err := s.RegisterMethod(GET, "/process/:hash", s.Processed); err != nil {
		return nil, err
	}
	if err := s.RegisterMethod(GET, "/events", s.Events); err != nil {
		return nil, err
	}
	if err := s.RegisterMethod(GET, "/healthz", s.Health); err != nil {
		return nil, err
	}

	for _, rm := range s.RestMethods() {
		switch rm.Verb {
		case GET:
			router.GET(rm.Path, rm.Handler)
		case DELETE:
			router.DELETE(rm.Path, rm.Handler)
		case POST:
			router.POST(rm.Path, rm.Handler)
		case PUT:
			router.PUT(rm.Path, rm.Handler)
		case PATCH:
			router.PATCH(rm.Path, rm.Handler)
		default:
			return nil, fmt.Errorf("HTTP verb %d not supported", rm.Verb)
		}
	}

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
	return router, nil
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, address string) error {
	router, err := s.Router()
	if err != nil {
		return err
	}
	s.httpServer = &http.Server{
		Addr:    address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
