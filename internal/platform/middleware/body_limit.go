package middleware

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/casemon/casemon/internal/platform/fhir"
)

// BodyLimit rejects request bodies larger than limit ("512K", "1M", a bare
// byte count) with 413 and a too-costly OperationOutcome.
func BodyLimit(limit string) echo.MiddlewareFunc {
	max := ParseSize(limit)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Body == nil || req.Body == http.NoBody {
				return next(c)
			}
			if req.ContentLength > max {
				return tooLarge(c, max)
			}
			req.Body = &limitedBody{ReadCloser: req.Body, max: max, remaining: max}
			err := next(c)
			if lb, ok := req.Body.(*limitedBody); ok && lb.exceeded && !c.Response().Committed {
				return tooLarge(c, max)
			}
			return err
		}
	}
}

type limitedBody struct {
	io.ReadCloser
	max       int64
	remaining int64
	exceeded  bool
}

func (r *limitedBody) Read(p []byte) (int, error) {
	if r.exceeded {
		return 0, &BodyTooLargeError{Max: r.max}
	}
	if int64(len(p)) > r.remaining+1 {
		p = p[:r.remaining+1]
	}
	n, err := r.ReadCloser.Read(p)
	r.remaining -= int64(n)
	if r.remaining < 0 {
		r.exceeded = true
		return 0, &BodyTooLargeError{Max: r.max}
	}
	return n, err
}

// BodyTooLargeError is returned by reads of a body without a declared
// length once they pass the limit. Handlers that read the body themselves
// answer it with TooLargeOutcome.
type BodyTooLargeError struct {
	Max int64
}

func (e *BodyTooLargeError) Error() string {
	return fmt.Sprintf("Request body exceeds maximum allowed size of %d bytes", e.Max)
}

func TooLargeOutcome(err *BodyTooLargeError) *fhir.OperationOutcome {
	return fhir.ErrorsOutcome(fhir.IssueTypeTooCostly, []string{err.Error()})
}

func tooLarge(c echo.Context, max int64) error {
	c.Response().Header().Set(echo.HeaderContentType, fhir.FHIRContentType)
	return c.JSON(http.StatusRequestEntityTooLarge, TooLargeOutcome(&BodyTooLargeError{Max: max}))
}

// ParseSize converts "10M", "512K", "1G" or a bare number into bytes.
// Unparseable input yields 1 MB.
func ParseSize(s string) int64 {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, "B")
	var mult int64 = 1
	switch {
	case strings.HasSuffix(s, "G"):
		mult = 1 << 30
	case strings.HasSuffix(s, "M"):
		mult = 1 << 20
	case strings.HasSuffix(s, "K"):
		mult = 1 << 10
	}
	if mult > 1 {
		s = s[:len(s)-1]
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 1 << 20
	}
	return n * mult
}
