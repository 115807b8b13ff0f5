package api

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stellarlinkco/benchkit/internal/config"
	"github.com/stellarlinkco/benchkit/internal/results"
)

// Server exposes stored benchmark runs over HTTP.
type Server struct {
	router  *gin.Engine
	store   *results.Store
	cfg     *config.Config
	dataDir string
}

func NewServer(cfg *config.Config, st *results.Store) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("api: nil config")
	}
	if st == nil {
		return nil, errors.New("api: nil results store")
	}

	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		router:  gin.New(),
		store:   st,
		cfg:     cfg,
		dataDir: cfg.Benchmark.DataDir,
	}
	s.registerMiddleware()
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	api := s.router.Group("/api")
	if key := strings.TrimSpace(s.cfg.Server.APIKey); key != "" {
		api.Use(apiKeyAuthMiddleware(key))
	}

	api.GET("/health", s.handleHealth)
	api.GET("/topics", s.handleListTopics)
	api.GET("/runs", s.handleListRuns)
	api.GET("/runs/:id", s.handleGetRun)
	api.GET("/leaderboard", s.handleLeaderboard)
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() *gin.Engine {
	if s == nil {
		return nil
	}
	return s.router
}

func (s *Server) Run(addr string) error {
	if s == nil || s.router == nil {
		return errors.New("api: nil server")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		addr = ":8080"
	}
	return s.router.Run(addr)
}
