package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/claimease/claimease/internal/platform/auth"
)

// AuditEntry records one access to claim data.
type AuditEntry struct {
	UserID     int64
	Resource   string // claims, documents, profile
	ClaimID    int64
	Action     string // read, create
	IPAddress  string
	UserAgent  string
	Path       string
	Method     string
	Timestamp  time.Time
	RequestID  string
	StatusCode int
}

// AuditRecorder persists audit entries.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

// AuditRecorderFunc is a function adapter for AuditRecorder.
type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

var auditedPrefixes = map[string]string{
	"/api/claims":    "claims",
	"/api/documents": "documents",
	"/api/user":      "profile",
}

// Audit logs who accessed which claim, when and with what outcome. It runs
// after the handler so the status is known. Denied requests are audited too.
func Audit(logger zerolog.Logger, recorder AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			resource := auditResource(req.URL.Path)
			if resource == "" {
				return next(c)
			}

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			entry := AuditEntry{
				Resource:   resource,
				Action:     httpMethodToAction(req.Method),
				IPAddress:  c.RealIP(),
				UserAgent:  req.UserAgent(),
				Path:       req.URL.Path,
				Method:     req.Method,
				Timestamp:  time.Now().UTC(),
				StatusCode: c.Response().Status,
				ClaimID:    auditClaimID(c),
			}
			if uid, ok := auth.UserIDFromContext(c.Request().Context()); ok {
				entry.UserID = uid
			}
			if rid, ok := c.Get("request_id").(string); ok {
				entry.RequestID = rid
			}

			if recorder != nil {
				if recErr := recorder.RecordAccess(entry); recErr != nil {
					logger.Error().Err(recErr).
						Str("request_id", entry.RequestID).
						Msg("failed to record audit entry")
				}
			}

			evt := logger.Info()
			if entry.StatusCode == http.StatusNotFound || entry.StatusCode == http.StatusUnauthorized {
				evt = logger.Warn()
			}
			evt.
				Str("type", "claim_audit").
				Str("request_id", entry.RequestID).
				Int64("user_id", entry.UserID).
				Str("resource", entry.Resource).
				Int64("claim_id", entry.ClaimID).
				Str("action", entry.Action).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("claim_access")

			return nil
		}
	}
}

func auditResource(path string) string {
	for prefix, resource := range auditedPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return resource
		}
	}
	return ""
}

func httpMethodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// auditClaimID takes the claim id from the :id route param on claim routes
// or from an already parsed upload form. Zero when absent.
func auditClaimID(c echo.Context) int64 {
	raw := ""
	if strings.HasPrefix(c.Path(), "/api/claims/") {
		raw = c.Param("id")
	} else if form := c.Request().MultipartForm; form != nil && len(form.Value["claim_id"]) > 0 {
		raw = form.Value["claim_id"][0]
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return id
}
