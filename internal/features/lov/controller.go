package lov

import (
	"fmt"

	common_api "github.com/peatiscoding/cadence-sub000/internal/common/api"
	"github.com/peatiscoding/cadence-sub000/internal/features/workflow"

	"github.com/gofiber/fiber/v2"
)

type Controller struct {
	Service   Service
	Workflows workflow.Service
}

func NewController(service Service, workflows workflow.Service) *Controller {
	return &Controller{Service: service, Workflows: workflows}
}

// ListValues godoc
// @Summary Resolve the list of values bound to a workflow field
// @Tags lov
// @Produce json
// @Param workflowId path string true "Workflow ID"
// @Param field path string true "Field slug"
// @Param refresh query bool false "Bypass the cache"
// @Success 200 {object} map[string]interface{}
// @Router /api/workflows/{workflowId}/lov/{field} [get]
func (ctrl *Controller) ListValues(c *fiber.Ctx) error {
	cfg, err := ctrl.Workflows.Get(c.UserContext(), c.Params("workflowId"))
	if err != nil {
		return common_api.Fail(c, fiber.StatusNotFound, err)
	}

	slug := c.Params("field")
	field := cfg.FieldBySlug(slug)
	if field == nil || field.Schema.Lov == nil {
		return common_api.Fail(c, fiber.StatusNotFound,
			fmt.Errorf("field %q has no list of values", slug))
	}

	entries, err := ctrl.Service.List(c.UserContext(), field.Schema.Lov, c.QueryBool("refresh"))
	if err != nil {
		return common_api.Fail(c, fiber.StatusBadGateway, err)
	}
	return common_api.Success(c, entries)
}

// InvalidateCache godoc
// @Summary Drop the cached list of values of a workflow field
// @Tags lov
// @Produce json
// @Param workflowId path string true "Workflow ID"
// @Param field path string true "Field slug"
// @Success 200 {object} map[string]interface{}
// @Router /api/workflows/{workflowId}/lov/{field} [delete]
func (ctrl *Controller) InvalidateCache(c *fiber.Ctx) error {
	cfg, err := ctrl.Workflows.Get(c.UserContext(), c.Params("workflowId"))
	if err != nil {
		return common_api.Fail(c, fiber.StatusNotFound, err)
	}

	slug := c.Params("field")
	field := cfg.FieldBySlug(slug)
	if field == nil || field.Schema.Lov == nil {
		return common_api.Fail(c, fiber.StatusNotFound,
			fmt.Errorf("field %q has no list of values", slug))
	}

	cacheKey, err := CacheKeyFor(field.Schema.Lov)
	if err != nil {
		return common_api.Fail(c, fiber.StatusInternalServerError, err)
	}
	if err := ctrl.Service.Invalidate(c.UserContext(), cacheKey); err != nil {
		return common_api.Fail(c, fiber.StatusInternalServerError, err)
	}
	return common_api.Success(c, fiber.Map{"invalidated": cacheKey})
}
