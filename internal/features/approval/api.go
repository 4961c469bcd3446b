package approval

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
	approvals := app.Group("/api/workflows/:workflowId/cards/:cardId/approvals",
		middleware.AuthMiddleware(h.config.SkipAuth))

	approvals.Post("/:key", h.controller.SubmitToken)
	approvals.Delete("/:key/:date", h.controller.VoidToken)
}
