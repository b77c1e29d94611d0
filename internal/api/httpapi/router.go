// Package httpapi exposes the pipeline lifecycle and session data over HTTP
// and streams UI events to websocket subscribers.
package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"meeting-insight-service/internal/observability/logging"
	"meeting-insight-service/internal/pipeline"
	"meeting-insight-service/internal/storage"
)

const defaultListLimit = 500

// Server bundles the HTTP surface over a pipeline controller.
type Server struct {
	ctrl  *pipeline.Controller
	store *storage.Store
	hub   *Hub
}

// NewServer creates the HTTP server. store may be nil; the transcript and
// summary listings then return 503.
func NewServer(ctrl *pipeline.Controller, store *storage.Store, hub *Hub) *Server {
	return &Server{ctrl: ctrl, store: store, hub: hub}
}

// App builds the fiber application with all routes registered.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	app.Post("/pipeline/start", s.handleStart)
	app.Post("/pipeline/pause", s.handlePause)
	app.Post("/pipeline/resume", s.handleResume)
	app.Post("/pipeline/stop", s.handleStop)
	app.Post("/pipeline/finalize", s.handleFinalize)
	app.Get("/pipeline/status", s.handleStatus)

	app.Get("/transcripts", s.handleTranscripts)
	app.Get("/summaries", s.handleSummaries)

	app.Get("/ws/events", websocket.New(s.hub.Handle))

	return app
}

func (s *Server) handleStart(c *fiber.Ctx) error {
	if err := s.ctrl.Start(); err != nil {
		return lifecycleError(c, err)
	}
	return c.JSON(fiber.Map{"sessionId": s.ctrl.SessionID()})
}

func (s *Server) handlePause(c *fiber.Ctx) error {
	if err := s.ctrl.Pause(); err != nil {
		return lifecycleError(c, err)
	}
	return c.JSON(s.ctrl.Status())
}

func (s *Server) handleResume(c *fiber.Ctx) error {
	if err := s.ctrl.Resume(); err != nil {
		return lifecycleError(c, err)
	}
	return c.JSON(s.ctrl.Status())
}

func (s *Server) handleStop(c *fiber.Ctx) error {
	final, err := s.ctrl.Stop(c.Context())
	if err != nil {
		return lifecycleError(c, err)
	}
	return c.JSON(fiber.Map{"finalSummary": final})
}

func (s *Server) handleFinalize(c *fiber.Ctx) error {
	final, err := s.ctrl.Finalize(c.Context())
	if errors.Is(err, pipeline.ErrNoPartialSummaries) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		return lifecycleError(c, err)
	}
	return c.JSON(fiber.Map{"finalSummary": final})
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.ctrl.Status())
}

func (s *Server) handleTranscripts(c *fiber.Ctx) error {
	if s.store == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "persistence disabled"})
	}
	sessionID := c.Query("session_id", s.ctrl.SessionID())
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "session_id required"})
	}
	lines, err := s.store.ListLines(sessionID, c.QueryInt("limit", defaultListLimit))
	if err != nil {
		log := logging.WithComponent("httpapi")
		log.Error().Err(err).Msg("Transcript listing failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"sessionId": sessionID, "lines": lines})
}

func (s *Server) handleSummaries(c *fiber.Ctx) error {
	if s.store == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "persistence disabled"})
	}
	sessionID := c.Query("session_id", s.ctrl.SessionID())
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "session_id required"})
	}
	summaries, err := s.store.ListSummaries(sessionID, c.QueryInt("limit", defaultListLimit))
	if err != nil {
		log := logging.WithComponent("httpapi")
		log.Error().Err(err).Msg("Summary listing failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"sessionId": sessionID, "summaries": summaries})
}

func lifecycleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, pipeline.ErrAlreadyRunning), errors.Is(err, pipeline.ErrNotRunning):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}
