package web

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/cognisync/go-cognisync/pkg/hub"
	"github.com/cognisync/go-cognisync/pkg/signal"
)

// AnalyzeRequest is the analyze endpoint's body: one raw feature frame
// plus an optional session key. An empty session_id starts a new session.
type AnalyzeRequest struct {
	SessionID string `json:"session_id"`
	signal.RawSignals
}

// AlertView is the JSON shape of one persisted alert.
type AlertView struct {
	Kind      string    `json:"kind"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	resp := fiber.Map{
		"status":   "ok",
		"version":  Version,
		"sessions": s.cfg.Sessions.Len(),
	}
	if s.cfg.Live != nil {
		resp["live_clients"] = s.cfg.Live.ClientCount()
	}
	return c.JSON(resp)
}

func (s *Server) handleAnalyze(c *fiber.Ctx) error {
	var req AnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	result, err := s.cfg.Pipeline.Process(c.Context(), req.SessionID, req.RawSignals)
	if err != nil {
		s.logger.Error("analyze failed", "session_id", req.SessionID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "analysis failed",
		})
	}
	return c.JSON(result)
}

func (s *Server) handleHistory(c *fiber.Ctx) error {
	id := c.Params("id")
	entries, ok := s.cfg.Pipeline.History(id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "unknown session",
		})
	}
	return c.JSON(fiber.Map{
		"session_id": id,
		"entries":    entries,
	})
}

func (s *Server) handleAlerts(c *fiber.Ctx) error {
	if s.cfg.Store == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "persistence disabled",
		})
	}

	id := c.Params("id")
	limit := c.QueryInt("limit", 50)
	records, err := s.cfg.Store.RecentAlerts(c.Context(), id, limit)
	if err != nil {
		s.logger.Error("alert query failed", "session_id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "alert query failed",
		})
	}

	views := make([]AlertView, 0, len(records))
	for _, r := range records {
		views = append(views, AlertView{
			Kind:      r.Kind,
			Severity:  r.Severity,
			Message:   r.Message,
			CreatedAt: r.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{
		"session_id": id,
		"alerts":     views,
	})
}

func (s *Server) handleDeleteSession(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, ok := s.cfg.Sessions.Peek(id); !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "unknown session",
		})
	}
	s.cfg.Sessions.Remove(id)
	return c.JSON(fiber.Map{"session_id": id, "removed": true})
}

// handleLiveWS subscribes one websocket client to the live feed.
// Blocks for the lifetime of the connection.
func (s *Server) handleLiveWS(c *websocket.Conn) {
	client := hub.NewClient(s.cfg.Live, c)
	client.Run()
}
