package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/claimease/claimease/internal/platform/apperr"
)

func TestBodyLimit_AllowsSmallBody(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/claims", strings.NewReader(`{"hospital_id":1}`))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := func(c echo.Context) error {
		b, err := io.ReadAll(c.Request().Body)
		if err != nil {
			t.Fatalf("failed to read body: %v", err)
		}
		if len(b) == 0 {
			t.Error("expected non-empty body")
		}
		called = true
		return c.NoContent(http.StatusCreated)
	}

	if err := BodyLimit(1<<10, 1<<20, "/api/documents/upload")(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected handler to be called")
	}
}

func TestBodyLimit_RejectsOversizedBody_ContentLength(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/claims", bytes.NewReader(bytes.Repeat([]byte("x"), 2048)))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := func(c echo.Context) error {
		called = true
		return nil
	}

	err := BodyLimit(1<<10, 1<<20)(handler)(c)
	if !apperr.HasKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if called {
		t.Error("handler must not run for oversized body")
	}
}

func TestBodyLimit_RejectsOversizedBody_NoContentLength(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/claims", bytes.NewReader(bytes.Repeat([]byte("x"), 2048)))
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		_, err := io.ReadAll(c.Request().Body)
		return err
	}

	err := BodyLimit(1<<10, 1<<20)(handler)(c)
	if !apperr.HasKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error from limited reader, got %v", err)
	}
}

func TestBodyLimit_UploadPathGetsLargerLimit(t *testing.T) {
	e := echo.New()
	body := bytes.Repeat([]byte("x"), 4096)
	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		b, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return err
		}
		if len(b) != len(body) {
			t.Errorf("expected %d bytes, got %d", len(body), len(b))
		}
		return nil
	}

	if err := BodyLimit(1<<10, 8<<10, "/api/documents/upload")(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBodyLimit_NoBody(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/claims", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	if err := BodyLimit(1, 1)(func(echo.Context) error { return nil })(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
