package handlers

import (
	"log/slog"

	"github.com/agencyhub/postbridge/internal/service"
	"github.com/agencyhub/postbridge/internal/transfer"
	"github.com/gofiber/fiber/v2"
)

type TokenHandler struct {
	s service.TokenService
}

func NewTokenHandler(service service.TokenService) *TokenHandler {
	return &TokenHandler{s: service}
}

// HandleAction dispatches the token endpoint's action field: exchange,
// refresh, or check.
func (h *TokenHandler) HandleAction(c *fiber.Ctx) error {
	var req transfer.TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	switch req.Action {
	case "exchange":
		return h.exchange(c, &req)
	case "refresh":
		return h.refresh(c)
	case "check":
		return h.check(c, &req)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unknown action",
		})
	}
}

func (h *TokenHandler) exchange(c *fiber.Ctx, req *transfer.TokenRequest) error {
	if req.AccessToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "accessToken is required",
		})
	}

	result, err := h.s.Exchange(c.Context(), req.AccessToken, req.ClientID)
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var expiresAt interface{}
	if result.ExpiresAt != nil {
		expiresAt = result.ExpiresAt
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":        true,
		"longLivedToken": result.LongLivedToken,
		"expiresAt":      expiresAt,
		"exchanged":      result.Exchanged,
	})
}

func (h *TokenHandler) refresh(c *fiber.Ctx) error {
	summary, err := h.s.RefreshExpiring(c.Context())
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":   true,
		"refreshed": summary.Refreshed,
		"total":     summary.Total,
		"results":   summary.Results,
	})
}

func (h *TokenHandler) check(c *fiber.Ctx, req *transfer.TokenRequest) error {
	if req.ClientID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "clientId is required",
		})
	}

	result, err := h.s.Check(c.Context(), req.ClientID, req.Platform)
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var expiresAt interface{}
	if result.ExpiresAt != nil {
		expiresAt = result.ExpiresAt
	}
	var checkError interface{}
	if result.Error != "" {
		checkError = result.Error
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":   true,
		"isValid":   result.IsValid,
		"expiresAt": expiresAt,
		"error":     checkError,
	})
}
