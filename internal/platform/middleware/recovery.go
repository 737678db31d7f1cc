package middleware

import (
	"fmt"
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/casemon/casemon/internal/platform/fhir"
)

// Recovery turns a panic into the generic fatal OperationOutcome. The
// panic value and stack are logged and never sent to the client.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				var stack [4096]byte
				n := runtime.Stack(stack[:], false)

				logger.Error().
					Str("request_id", fmt.Sprintf("%v", c.Get("request_id"))).
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", string(stack[:n])).
					Msg("panic recovered")

				if c.Response().Committed {
					return
				}
				c.Response().Header().Set(echo.HeaderContentType, fhir.FHIRContentType)
				err = c.JSON(http.StatusInternalServerError, fhir.FatalOutcome())
			}()
			return next(c)
		}
	}
}
