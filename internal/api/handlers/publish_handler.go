package handlers

import (
	"errors"
	"log/slog"

	"github.com/agencyhub/postbridge/internal/service"
	"github.com/agencyhub/postbridge/internal/transfer"
	"github.com/gofiber/fiber/v2"
)

type PublishHandler struct {
	s service.PublisherService
}

func NewPublishHandler(service service.PublisherService) *PublishHandler {
	return &PublishHandler{s: service}
}

// Sweep publishes every due post. The response is always 200 with per-post
// outcomes, even when every post failed; only transport and auth problems
// produce error statuses.
func (h *PublishHandler) Sweep(c *fiber.Ctx) error {
	summary, err := h.s.SweepDue(c.Context())
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(summary)
}

func (h *PublishHandler) PublishPost(c *fiber.Ctx) error {
	var req transfer.PublishRequest
	if err := c.BodyParser(&req); err != nil || req.PostID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "postId is required",
		})
	}

	result, err := h.s.Publish(c.Context(), req.PostID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPostNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": err.Error(),
			})
		case errors.Is(err, service.ErrPostNotPublishable):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": err.Error(),
			})
		default:
			slog.Error(err.Error())
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
	}

	if !result.Success {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": result.Error,
		})
	}

	var platformPostID interface{}
	if result.PlatformPostID != "" {
		platformPostID = result.PlatformPostID
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":        true,
		"platformPostId": platformPostID,
	})
}
