package lov

import (
	"github.com/peatiscoding/cadence-sub000/internal/config"
	"github.com/peatiscoding/cadence-sub000/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type Api struct {
	controller *Controller
	config     *config.Config
}

func NewApi(controller *Controller, config *config.Config) *Api {
	return &Api{controller: controller, config: config}
}

func (h *Api) Setup(app *fiber.App) {
	group := app.Group("/api/workflows/:workflowId/lov", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Get("/:field", h.controller.ListValues)
	group.Delete("/:field", h.controller.InvalidateCache)
}
