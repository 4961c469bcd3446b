package stats

import (
	common_api "github.com/peatiscoding/cadence-sub000/internal/common/api"

	"github.com/gofiber/fiber/v2"
)

type Controller struct {
	Repository Repository
}

func NewController(repository Repository) *Controller {
	return &Controller{Repository: repository}
}

// GetWorkflowStats godoc
// @Summary Per-status statistics of a workflow
// @Tags stats
// @Produce json
// @Param workflowId path string true "Workflow ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/workflows/{workflowId}/stats [get]
func (ctrl *Controller) GetWorkflowStats(c *fiber.Ctx) error {
	out, err := ctrl.Repository.ListStats(c.UserContext(), c.Params("workflowId"))
	if err != nil {
		return common_api.Fail(c, fiber.StatusInternalServerError, err)
	}
	return common_api.Success(c, out)
}

// ListActivities godoc
// @Summary Activity feed of a workflow, newest first
// @Tags stats
// @Produce json
// @Param workflowId path string true "Workflow ID"
// @Param cardId query string false "Filter by card ID"
// @Param limit query int false "Max entries (default 100)"
// @Success 200 {object} map[string]interface{}
// @Router /api/workflows/{workflowId}/activities [get]
func (ctrl *Controller) ListActivities(c *fiber.Ctx) error {
	out, err := ctrl.Repository.ListActivities(c.UserContext(),
		c.Params("workflowId"), c.Query("cardId"), int64(c.QueryInt("limit", 100)))
	if err != nil {
		return common_api.Fail(c, fiber.StatusInternalServerError, err)
	}
	return common_api.Success(c, out)
}
