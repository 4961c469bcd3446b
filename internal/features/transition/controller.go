package transition

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

// TransitCard godoc
// @Summary Move a card to another status
// @Description Validates the target status's preconditions, runs its
// @Description transition actions, persists the change, then runs its
// @Description finally actions.
// @Tags transitions
// @Accept json
// @Produce json
// @Param workflowId path string true "Workflow ID"
// @Param cardId path string true "Card ID"
// @Param destination body DestinationContext true "Destination context"
// @Success 200 {object} map[string]interface{}
// @Router /api/workflows/{workflowId}/cards/{cardId}/transit [post]
func (ctrl *Controller) TransitCard(c *fiber.Ctx) error {
	var destination DestinationContext
	if err := c.BodyParser(&destination); err != nil {
		return common_api.Fail(c, fiber.StatusBadRequest, err)
	}

	claims := middleware.Claims(c)
	result, err := ctrl.Service.Transit(c.UserContext(),
		c.Params("workflowId"), c.Params("cardId"), destination, claims.UserID, claims.Email)
	if err != nil {
		if result != nil {
			// Transition committed but finally actions failed: report both
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"success": false,
				"reason":  err.Error(),
				"result":  result,
			})
		}
		return common_api.Fail(c, fiber.StatusBadRequest, err)
	}
	return common_api.Success(c, result)
}
