package handlers

import (
	"log/slog"

	"github.com/agencyhub/postbridge/internal/service"
	"github.com/gofiber/fiber/v2"
)

type ConnectionHandler struct {
	s service.ConnectionService
}

func NewConnectionHandler(service service.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{s: service}
}

func (h *ConnectionHandler) Connect(c *fiber.Ctx) error {
	var cc service.ConnectionCreation
	if err := c.BodyParser(&cc); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	exchange, err := h.s.Connect(c.Context(), &cc)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":   true,
		"exchanged": exchange.Exchanged,
	})
}

func (h *ConnectionHandler) ListConnections(c *fiber.Ctx) error {
	clientID := c.Query("clientId")

	conns, err := h.s.List(c.Context(), clientID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list connections",
		})
	}

	return c.Status(fiber.StatusOK).JSON(conns)
}

func (h *ConnectionHandler) Disconnect(c *fiber.Ctx) error {
	clientID := c.Query("clientId")
	platform := c.Query("platform")

	if err := h.s.Disconnect(c.Context(), clientID, platform); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
