package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-parallax/pkg/hub"
	"github.com/teslashibe/go-parallax/pkg/tracking"
)

// handleStatus returns the latest tracking state
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.State())
}

// handleMarkers returns the marker slots; ?active=true filters to bound slots
func (s *Server) handleMarkers(c *fiber.Ctx) error {
	activeOnly := c.QueryBool("active", false)

	s.stateMu.RLock()
	out := make([]tracking.Marker, 0, len(s.markers))
	for _, m := range s.markers {
		if activeOnly && !m.Active {
			continue
		}
		out = append(out, m)
	}
	s.stateMu.RUnlock()

	return c.JSON(out)
}

// handleGetTuning returns the tracker's tuning parameters
func (s *Server) handleGetTuning(c *fiber.Ctx) error {
	tuner := s.getTuner()
	if tuner == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Tracker not running",
		})
	}
	return c.JSON(tuner.GetTuningParams())
}

// handleSetTuning applies the non-zero fields of the request body
func (s *Server) handleSetTuning(c *fiber.Ctx) error {
	tuner := s.getTuner()
	if tuner == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Tracker not running",
		})
	}

	var params tracking.TuningParams
	if err := c.BodyParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	tuner.SetTuningParams(params)
	updated := tuner.GetTuningParams()
	s.logger.Info("tuning params updated", "params", updated)
	s.AddLog("info", "Tuning updated")

	return c.JSON(updated)
}

// handleResetCamera returns the camera to identity
func (s *Server) handleResetCamera(c *fiber.Ctx) error {
	tuner := s.getTuner()
	if tuner == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Tracker not running",
		})
	}
	tuner.ResetCamera()
	s.AddLog("info", "Camera reset")
	return c.JSON(fiber.Map{"reset": true})
}

// handleGetConfig returns the effective application config
func (s *Server) handleGetConfig(c *fiber.Ctx) error {
	if s.OnGetConfig == nil {
		return c.JSON(fiber.Map{})
	}
	return c.JSON(s.OnGetConfig())
}

// handleGetCamera returns the camera config
func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	if s.OnGetCameraConfig == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Camera not configured",
		})
	}
	return c.JSON(s.OnGetCameraConfig())
}

// handleSetCamera passes a partial JSON camera update to the owner
func (s *Server) handleSetCamera(c *fiber.Ctx) error {
	if s.OnSetCameraConfig == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Camera not configured",
		})
	}

	if err := s.OnSetCameraConfig(c.Body()); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if s.OnGetCameraConfig != nil {
		return c.JSON(s.OnGetCameraConfig())
	}
	return c.JSON(fiber.Map{"updated": true})
}

// handleGetLogs returns recent log entries
func (s *Server) handleGetLogs(c *fiber.Ctx) error {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	return c.JSON(s.logs)
}

// handleOrientationWS streams the tracking state on every (rate-limited) tick
func (s *Server) handleOrientationWS(c *websocket.Conn) {
	// Send current state before the first broadcast
	c.WriteJSON(s.State())
	hub.NewClient(s.orientationHub, c).Run()
}

// handleCameraWS streams JPEG preview frames
func (s *Server) handleCameraWS(c *websocket.Conn) {
	hub.NewClient(s.cameraHub, c).Run()
}

// handleLogsWS streams dashboard log entries
func (s *Server) handleLogsWS(c *websocket.Conn) {
	s.logsMu.RLock()
	for _, entry := range s.logs {
		c.WriteJSON(entry)
	}
	s.logsMu.RUnlock()

	hub.NewClient(s.logHub, c).Run()
}
