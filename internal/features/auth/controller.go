package auth

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

type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string `json:"token"`
}

// Register godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param input body RegisterRequest true "Register Input"
// @Success 200 {object} map[string]interface{}
// @Router /api/register [post]
func (ctrl *Controller) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return common_api.Fail(c, fiber.StatusBadRequest, err)
	}

	user, err := ctrl.Service.Register(c.UserContext(), req.Email, req.Name, req.Password)
	if err != nil {
		return common_api.Fail(c, fiber.StatusBadRequest, err)
	}
	return common_api.Success(c, user)
}

// Login godoc
// @Summary Login with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param input body LoginRequest true "Login Input"
// @Success 200 {object} AuthResponse
// @Router /api/login [post]
func (ctrl *Controller) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return common_api.Fail(c, fiber.StatusBadRequest, err)
	}

	token, err := ctrl.Service.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return common_api.Fail(c, fiber.StatusUnauthorized, err)
	}
	return common_api.Success(c, AuthResponse{Token: token})
}
