package card

import (
	common_api "github.com/peatiscoding/cadence-sub000/internal/common/api"
	"github.com/peatiscoding/cadence-sub000/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type Controller struct {
	Service Service
}

func NewController(service Service) *Controller {
	return &Controller{Service: service}
}

// CreateCard godoc
// @Summary Create a card in its workflow's draft status
// @Tags cards
// @Accept json
// @Produce json
// @Param workflowId path string true "Workflow ID"
// @Param card body CreateInput true "Card"
// @Success 200 {object} map[string]interface{}
// @Router /api/workflows/{workflowId}/cards [post]
func (ctrl *Controller) CreateCard(c *fiber.Ctx) error {
	var input CreateInput
	if err := c.BodyParser(&input); err != nil {
		return common_api.Fail(c, fiber.StatusBadRequest, err)
	}

	claims := middleware.Claims(c)
	card, err := ctrl.Service.Create(c.UserContext(), c.Params("workflowId"), input, claims.UserID, claims.Email)
	if err != nil {
		return common_api.Fail(c, fiber.StatusBadRequest, err)
	}
	return common_api.Success(c, card)
}

// GetCard godoc
// @Summary Get a card
// @Tags cards
// @Produce json
// @Param workflowId path string true "Workflow ID"
// @Param cardId path string true "Card ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/workflows/{workflowId}/cards/{cardId} [get]
func (ctrl *Controller) GetCard(c *fiber.Ctx) error {
	card, err := ctrl.Service.Get(c.UserContext(), c.Params("workflowId"), c.Params("cardId"))
	if err != nil {
		return common_api.Fail(c, fiber.StatusNotFound, err)
	}
	return common_api.Success(c, card)
}

// ListCards godoc
// @Summary List cards of a workflow
// @Tags cards
// @Produce json
// @Param workflowId path string true "Workflow ID"
// @Param status query string false "Filter by status"
// @Success 200 {object} map[string]interface{}
// @Router /api/workflows/{workflowId}/cards [get]
func (ctrl *Controller) ListCards(c *fiber.Ctx) error {
	cards, err := ctrl.Service.List(c.UserContext(),
		c.Params("workflowId"), c.Query("status"),
		int64(c.QueryInt("limit", 100)), int64(c.QueryInt("offset", 0)))
	if err != nil {
		return common_api.Fail(c, fiber.StatusInternalServerError, err)
	}
	return common_api.Success(c, cards)
}

// UpdateCard godoc
// @Summary Edit card fields (status excluded)
// @Tags cards
// @Accept json
// @Produce json
// @Param workflowId path string true "Workflow ID"
// @Param cardId path string true "Card ID"
// @Param fields body map[string]interface{} true "Partial fields"
// @Success 200 {object} map[string]interface{}
// @Router /api/workflows/{workflowId}/cards/{cardId} [patch]
func (ctrl *Controller) UpdateCard(c *fiber.Ctx) error {
	var fields map[string]interface{}
	if err := c.BodyParser(&fields); err != nil {
		return common_api.Fail(c, fiber.StatusBadRequest, err)
	}

	claims := middleware.Claims(c)
	card, err := ctrl.Service.Update(c.UserContext(),
		c.Params("workflowId"), c.Params("cardId"), fields, claims.UserID, claims.Email)
	if err != nil {
		return common_api.Fail(c, fiber.StatusBadRequest, err)
	}
	return common_api.Success(c, card)
}

// DeleteCard godoc
// @Summary Delete a card
// @Tags cards
// @Produce json
// @Param workflowId path string true "Workflow ID"
// @Param cardId path string true "Card ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/workflows/{workflowId}/cards/{cardId} [delete]
func (ctrl *Controller) DeleteCard(c *fiber.Ctx) error {
	claims := middleware.Claims(c)
	err := ctrl.Service.Delete(c.UserContext(), c.Params("workflowId"), c.Params("cardId"), claims.UserID, claims.Email)
	if err != nil {
		return common_api.Fail(c, fiber.StatusBadRequest, err)
	}
	return common_api.Success(c, fiber.Map{"deleted": true})
}
