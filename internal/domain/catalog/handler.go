package catalog

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/claimease/claimease/internal/platform/apperr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the public reference-data endpoints.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/hospitals", h.ListHospitals)
	api.GET("/hospitals/:id", h.GetHospital)
	api.GET("/insurance-companies", h.ListInsuranceCompanies)
	api.GET("/policies", h.ListPolicies)
}

func (h *Handler) ListHospitals(c echo.Context) error {
	f := HospitalFilter{
		City:  c.QueryParam("city"),
		State: c.QueryParam("state"),
		Type:  c.QueryParam("type"),
	}
	hospitals, err := h.svc.ListHospitals(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, hospitals)
}

func (h *Handler) GetHospital(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperr.Validation("id", "hospital id must be a positive integer")
	}
	hospital, err := h.svc.GetHospital(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, hospital)
}

func (h *Handler) ListInsuranceCompanies(c echo.Context) error {
	companies, err := h.svc.ListInsuranceCompanies(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, companies)
}

func (h *Handler) ListPolicies(c echo.Context) error {
	var companyID *int64
	if raw := c.QueryParam("company_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return apperr.Validation("company_id", "company_id must be a positive integer")
		}
		companyID = &id
	}
	policies, err := h.svc.ListPolicies(c.Request().Context(), companyID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, policies)
}
