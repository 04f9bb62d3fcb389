package controller

import (
	"github.com/gofiber/fiber/v2"

	"ai-editor-be/internal/dto"
	"ai-editor-be/internal/pkg/serverutils"
	"ai-editor-be/internal/service"
)

type IAssistController interface {
	RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler)
	Complete(ctx *fiber.Ctx) error
	Suggestions(ctx *fiber.Ctx) error
	Summarize(ctx *fiber.Ctx) error
	TableOfContents(ctx *fiber.Ctx) error
	Format(ctx *fiber.Ctx) error
}

type assistController struct {
	service service.IAssistService
}

func NewAssistController(service service.IAssistService) IAssistController {
	return &assistController{service: service}
}

func (c *assistController) RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler) {
	h := r.Group("/ai/v1", jwtMiddleware)
	h.Post("/complete", c.Complete)
	h.Post("/suggestions", c.Suggestions)
	h.Post("/summarize", c.Summarize)
	h.Post("/toc", c.TableOfContents)
	h.Post("/format", c.Format)
}

func parseText(ctx *fiber.Ctx) (*dto.TextRequest, error) {
	var req dto.TextRequest
	if err := ctx.BodyParser(&req); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}
	return &req, nil
}

// upstream maps a model failure to 502 so clients can tell it from their own mistakes.
func upstream(err error) error {
	return fiber.NewError(fiber.StatusBadGateway, err.Error())
}

func (c *assistController) Complete(ctx *fiber.Ctx) error {
	var req dto.CompleteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	text, err := c.service.Complete(ctx.UserContext(), req.Prompt)
	if err != nil {
		return upstream(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Completed", dto.CompleteResponse{Text: text}))
}

func (c *assistController) Suggestions(ctx *fiber.Ctx) error {
	req, err := parseText(ctx)
	if err != nil {
		return err
	}
	items, err := c.service.Suggest(ctx.UserContext(), req.Text)
	if err != nil {
		return upstream(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Suggestions generated", dto.SuggestionsResponse{Suggestions: items}))
}

func (c *assistController) Summarize(ctx *fiber.Ctx) error {
	req, err := parseText(ctx)
	if err != nil {
		return err
	}
	summary, err := c.service.Summarize(ctx.UserContext(), req.Text)
	if err != nil {
		return upstream(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Summary generated", dto.SummaryResponse{Summary: summary}))
}

func (c *assistController) TableOfContents(ctx *fiber.Ctx) error {
	req, err := parseText(ctx)
	if err != nil {
		return err
	}
	toc, err := c.service.TableOfContents(ctx.UserContext(), req.Text)
	if err != nil {
		return upstream(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Table of contents generated", dto.TableOfContentsResponse{TableOfContents: toc}))
}

func (c *assistController) Format(ctx *fiber.Ctx) error {
	req, err := parseText(ctx)
	if err != nil {
		return err
	}
	content, err := c.service.Format(ctx.UserContext(), req.Text)
	if err != nil {
		return upstream(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Content formatted", dto.FormatResponse{Content: content}))
}
