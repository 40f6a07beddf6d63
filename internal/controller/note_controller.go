package controller

import (
	"notes-stream-be/internal/dto"
	"notes-stream-be/internal/pkg/serverutils"
	"notes-stream-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type INoteController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type noteController struct {
	service service.INoteService
}

func NewNoteController(service service.INoteService) INoteController {
	return &noteController{service: service}
}

func (c *noteController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/v1")
	h.Post("/note/create", c.Create)
	h.Get("/notes", c.List)
	h.Get("/note/:id", c.Show)
	h.Put("/note/:id", c.Update)
	h.Delete("/note/:id", c.Delete)
}

func (c *noteController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateNoteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.ErrBadRequest
	}

	res, err := c.service.Create(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success Create Note", res))
}

func (c *noteController) Show(ctx *fiber.Ctx) error {
	res, err := c.service.Show(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success", res))
}

func (c *noteController) List(ctx *fiber.Ctx) error {
	res, err := c.service.List(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success", res))
}

func (c *noteController) Update(ctx *fiber.Ctx) error {
	var req dto.UpdateNoteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.ErrBadRequest
	}
	req.Id = ctx.Params("id")

	res, err := c.service.Update(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success Update Note", res))
}

func (c *noteController) Delete(ctx *fiber.Ctx) error {
	res, err := c.service.Delete(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success Delete Note", res))
}
