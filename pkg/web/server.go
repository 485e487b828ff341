// Package web exposes the analysis pipeline over HTTP and a live
// websocket feed.
package web

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/cognisync/go-cognisync/pkg/hub"
	"github.com/cognisync/go-cognisync/pkg/pipeline"
	"github.com/cognisync/go-cognisync/pkg/session"
	"github.com/cognisync/go-cognisync/pkg/store"
)

// Version reported by the health endpoint.
const Version = "1.0.0"

// Config wires the server's collaborators. Store and Live are optional.
type Config struct {
	Port     string
	Pipeline *pipeline.Pipeline
	Sessions *session.Manager

	// Store backs the per-session alert query endpoint; nil disables it.
	Store *store.Store

	// Live is the websocket broadcast hub. The caller owns its run loop.
	Live *hub.Hub
}

// Server is the HTTP front end.
type Server struct {
	app    *fiber.App
	cfg    Config
	logger *slog.Logger
}

// NewServer creates the server and registers all routes.
func NewServer(cfg Config) *Server {
	s := &Server{
		cfg:    cfg,
		logger: slog.Default().With("component", "web"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "CogniSync API",
		DisableStartupMessage: true,
	})

	// The browser dashboard runs on a different origin.
	app.Use(cors.New())

	app.Get("/health", s.handleHealth)

	api := app.Group("/api")
	api.Post("/analyze", s.handleAnalyze)
	api.Get("/sessions/:id/history", s.handleHistory)
	api.Get("/sessions/:id/alerts", s.handleAlerts)
	api.Delete("/sessions/:id", s.handleDeleteSession)

	if cfg.Live != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws/live", websocket.New(s.handleLiveWS))
	}

	s.app = app
	return s
}

// Listen serves on the configured port and blocks.
func (s *Server) Listen() error {
	s.logger.Info("http server listening", "port", s.cfg.Port)
	return s.app.Listen(":" + s.cfg.Port)
}

// App exposes the underlying fiber app for tests and custom listeners.
func (s *Server) App() *fiber.App {
	return s.app
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
