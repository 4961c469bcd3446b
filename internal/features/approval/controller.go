package approval

import (
	"strconv"

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

type submitRequest struct {
	Note       string `json:"note"`
	IsNegative bool   `json:"isNegative"`
}

// SubmitToken godoc
// @Summary Record an approval token on a card
// @Tags approvals
// @Accept json
// @Produce json
// @Param workflowId path string true "Workflow ID"
// @Param cardId path string true "Card ID"
// @Param key path string true "Approval key"
// @Param body body submitRequest true "Vote"
// @Success 200 {object} map[string]interface{}
// @Router /api/workflows/{workflowId}/cards/{cardId}/approvals/{key} [post]
func (ctrl *Controller) SubmitToken(c *fiber.Ctx) error {
	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		return common_api.Fail(c, fiber.StatusBadRequest, err)
	}

	claims := middleware.Claims(c)
	token, err := ctrl.Service.Submit(c.UserContext(),
		c.Params("workflowId"), c.Params("cardId"), c.Params("key"),
		claims.Email, req.Note, req.IsNegative)
	if err != nil {
		return common_api.Fail(c, fiber.StatusBadRequest, err)
	}
	return common_api.Success(c, token)
}

// VoidToken godoc
// @Summary Void a previously recorded approval token
// @Tags approvals
// @Produce json
// @Param workflowId path string true "Workflow ID"
// @Param cardId path string true "Card ID"
// @Param key path string true "Approval key"
// @Param date path int true "Token date stamp (epoch millis)"
// @Success 200 {object} map[string]interface{}
// @Router /api/workflows/{workflowId}/cards/{cardId}/approvals/{key}/{date} [delete]
func (ctrl *Controller) VoidToken(c *fiber.Ctx) error {
	date, err := strconv.ParseInt(c.Params("date"), 10, 64)
	if err != nil {
		return common_api.Fail(c, fiber.StatusBadRequest, err)
	}

	claims := middleware.Claims(c)
	err = ctrl.Service.Void(c.UserContext(),
		c.Params("workflowId"), c.Params("cardId"), c.Params("key"), date, claims.Email)
	if err != nil {
		return common_api.Fail(c, fiber.StatusBadRequest, err)
	}
	return common_api.Success(c, fiber.Map{"voided": true})
}
