package middleware

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/claimease/claimease/internal/platform/apperr"
)

// multipartOverhead is headroom above the file limit for form fields and
// multipart boundaries on upload routes.
const multipartOverhead = 1 << 20

// BodyLimit caps request bodies at defaultLimit bytes, except for the given
// upload paths which may carry uploadLimit bytes of file content.
//
// Oversized requests are rejected with a ValidationError naming the
// file field.
func BodyLimit(defaultLimit, uploadLimit int64, uploadPaths ...string) echo.MiddlewareFunc {
	uploads := make(map[string]bool, len(uploadPaths))
	for _, p := range uploadPaths {
		uploads[p] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Body == nil || req.Body == http.NoBody {
				return next(c)
			}

			limit := defaultLimit
			if uploads[req.URL.Path] {
				limit = uploadLimit + multipartOverhead
			}

			// Content-Length is checked first for early rejection.
			if req.ContentLength > limit {
				return tooLarge()
			}

			// The limiting reader enforces the limit when Content-Length
			// is missing or wrong.
			req.Body = &limitedReadCloser{
				ReadCloser: req.Body,
				remaining:  limit,
			}
			return next(c)
		}
	}
}

func tooLarge() error {
	return &apperr.Error{
		Kind:    apperr.KindValidation,
		Message: "request body too large",
		Field:   "file",
		Err:     echo.ErrStatusRequestEntityTooLarge,
	}
}

// limitedReadCloser returns an error once more than remaining bytes are read.
type limitedReadCloser struct {
	io.ReadCloser
	remaining int64
	exceeded  bool
}

func (r *limitedReadCloser) Read(p []byte) (n int, err error) {
	if r.exceeded {
		return 0, tooLarge()
	}

	// Read at most remaining+1 to detect overflow.
	toRead := int64(len(p))
	if toRead > r.remaining+1 {
		toRead = r.remaining + 1
	}

	n, err = r.ReadCloser.Read(p[:toRead])
	r.remaining -= int64(n)

	if r.remaining < 0 {
		r.exceeded = true
		return 0, tooLarge()
	}
	return n, err
}
