package card

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
	cards := app.Group("/api/workflows/:workflowId/cards", middleware.AuthMiddleware(h.config.SkipAuth))

	cards.Post("/", h.controller.CreateCard)
	cards.Get("/", h.controller.ListCards)
	cards.Get("/:cardId", h.controller.GetCard)
	cards.Patch("/:cardId", h.controller.UpdateCard)
	cards.Delete("/:cardId", h.controller.DeleteCard)
}
