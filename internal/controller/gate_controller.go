package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"ai-editor-be/internal/dto"
	"ai-editor-be/internal/pkg/serverutils"
	"ai-editor-be/internal/service"
)

type IGateController interface {
	RegisterRoutes(r fiber.Router)
	Unlock(ctx *fiber.Ctx) error
}

type gateController struct {
	service service.IGateService
}

func NewGateController(service service.IGateService) IGateController {
	return &gateController{service: service}
}

func (c *gateController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/gate/v1")
	h.Post("/unlock", c.Unlock)
}

// Unlock trades the shared password for a bearer token.
func (c *gateController) Unlock(ctx *fiber.Ctx) error {
	var req dto.UnlockRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Unlock(ctx.UserContext(), &req)
	if errors.Is(err, service.ErrInvalidPassword) {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid password")
	}
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Unlocked", res))
}
