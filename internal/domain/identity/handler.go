package identity

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/claimease/claimease/internal/platform/apperr"
	"github.com/claimease/claimease/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the public auth endpoints on api and the profile
// endpoint on the bearer-protected group.
func (h *Handler) RegisterRoutes(api *echo.Group, protected *echo.Group) {
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)

	protected.GET("/user/profile", h.GetProfile)
}

func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("", "request body must be a JSON object")
	}
	resp, err := h.svc.Register(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("", "request body must be a JSON object")
	}
	resp, err := h.svc.Authenticate(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetProfile(c echo.Context) error {
	userID, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	p, err := h.svc.Profile(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}
