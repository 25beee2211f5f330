package claims

import (
	"errors"
	"io"
	"net/http"
	"strconv"

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

// RegisterRoutes mounts the claim endpoints. Every route requires a
// bearer-authenticated caller.
func (h *Handler) RegisterRoutes(protected *echo.Group) {
	protected.GET("/claims", h.ListClaims)
	protected.POST("/claims", h.SubmitClaim)
	protected.GET("/claims/:id", h.GetClaim)
	protected.POST("/documents/upload", h.UploadDocument)
}

type submitResponse struct {
	Message     string `json:"message"`
	ClaimID     int64  `json:"claim_id"`
	ClaimNumber string `json:"claim_number"`
	Status      Status `json:"claim_status"`
}

func (h *Handler) SubmitClaim(c echo.Context) error {
	userID, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	var req SubmitRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("", "request body must be a JSON object with valid field types")
	}
	claim, err := h.svc.SubmitClaim(c.Request().Context(), userID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, submitResponse{
		Message:     "Claim created successfully",
		ClaimID:     claim.ClaimID,
		ClaimNumber: claim.ClaimNumber,
		Status:      claim.Status,
	})
}

func (h *Handler) ListClaims(c echo.Context) error {
	userID, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	list, err := h.svc.ListClaims(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func (h *Handler) GetClaim(c echo.Context) error {
	userID, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}
	claimID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errClaimNotFound
	}
	detail, err := h.svc.GetClaimDetail(c.Request().Context(), userID, claimID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, detail)
}

type uploadResponse struct {
	Message  string    `json:"message"`
	Document *Document `json:"document"`
}

func (h *Handler) UploadDocument(c echo.Context) error {
	userID, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return ae
		}
		if errors.Is(err, http.ErrMissingFile) {
			return apperr.Required("file")
		}
		return apperr.Validation("file", "request must be multipart/form-data with a file part")
	}
	if fh.Filename == "" {
		return apperr.Required("file")
	}

	f, err := fh.Open()
	if err != nil {
		return apperr.Wrap(err, apperr.KindInternal, "could not read uploaded file")
	}
	defer f.Close()

	var r io.Reader = f
	if limit := h.svc.uploads.MaxBytes; limit > 0 {
		// One byte past the limit is enough to detect an oversize file.
		r = io.LimitReader(f, limit+1)
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return apperr.Wrap(err, apperr.KindInternal, "could not read uploaded file")
	}

	doc, err := h.svc.UploadDocument(c.Request().Context(), userID, UploadInput{
		ClaimID:      c.FormValue("claim_id"),
		DocumentType: c.FormValue("document_type"),
		FileName:     fh.Filename,
		Content:      content,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, uploadResponse{Message: "Document uploaded successfully", Document: doc})
}
