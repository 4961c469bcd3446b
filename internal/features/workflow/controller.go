package workflow

import (
	common_api "github.com/peatiscoding/cadence-sub000/internal/common/api"

	"github.com/gofiber/fiber/v2"
)

type Controller struct {
	Service Service
}

func NewController(service Service) *Controller {
	return &Controller{Service: service}
}

// CreateWorkflow godoc
// @Summary Create workflow configuration
// @Tags workflows
// @Accept json
// @Produce json
// @Param configuration body Configuration true "Workflow configuration"
// @Success 200 {object} map[string]interface{}
// @Router /api/workflows [post]
func (ctrl *Controller) CreateWorkflow(c *fiber.Ctx) error {
	var cfg Configuration
	if err := c.BodyParser(&cfg); err != nil {
		return common_api.Fail(c, fiber.StatusBadRequest, err)
	}
	if err := ctrl.Service.Create(c.UserContext(), &cfg); err != nil {
		return common_api.Fail(c, fiber.StatusBadRequest, err)
	}
	return common_api.Success(c, cfg)
}

// UpdateWorkflow godoc
// @Summary Replace a workflow configuration
// @Tags workflows
// @Accept json
// @Produce json
// @Param workflowId path string true "Workflow ID"
// @Param configuration body Configuration true "Workflow configuration"
// @Success 200 {object} map[string]interface{}
// @Router /api/workflows/{workflowId} [put]
func (ctrl *Controller) UpdateWorkflow(c *fiber.Ctx) error {
	var cfg Configuration
	if err := c.BodyParser(&cfg); err != nil {
		return common_api.Fail(c, fiber.StatusBadRequest, err)
	}
	if err := ctrl.Service.Update(c.UserContext(), c.Params("workflowId"), &cfg); err != nil {
		return common_api.Fail(c, fiber.StatusBadRequest, err)
	}
	return common_api.Success(c, cfg)
}

// GetWorkflow godoc
// @Summary Get a workflow configuration
// @Tags workflows
// @Produce json
// @Param workflowId path string true "Workflow ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/workflows/{workflowId} [get]
func (ctrl *Controller) GetWorkflow(c *fiber.Ctx) error {
	cfg, err := ctrl.Service.Get(c.UserContext(), c.Params("workflowId"))
	if err != nil {
		return common_api.Fail(c, fiber.StatusNotFound, err)
	}
	return common_api.Success(c, cfg)
}

// ListWorkflows godoc
// @Summary List workflow configurations
// @Tags workflows
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/workflows [get]
func (ctrl *Controller) ListWorkflows(c *fiber.Ctx) error {
	configs, err := ctrl.Service.List(c.UserContext())
	if err != nil {
		return common_api.Fail(c, fiber.StatusInternalServerError, err)
	}
	return common_api.Success(c, configs)
}
