package stats

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	agg *Aggregator
}

func NewHandler(agg *Aggregator) *Handler {
	return &Handler{agg: agg}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/stats/dashboard", h.Dashboard)
	api.GET("/stats/hospital-states", h.HospitalStates)
}

func (h *Handler) Dashboard(c echo.Context) error {
	d, err := h.agg.Dashboard(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) HospitalStates(c echo.Context) error {
	states, err := h.agg.HospitalStates(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, states)
}
