package fhir

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// CORSMiddleware lets any origin read FHIR responses. Preflight requests are
// answered with an empty 204 before the route handler runs.
func CORSMiddleware() echo.MiddlewareFunc {
	return echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodOptions,
		},
		AllowHeaders: []string{
			echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderContentType, "If-Match", echo.HeaderXRequestID,
		},
		ExposeHeaders: []string{echo.HeaderLocation, "ETag"},
		MaxAge:        1728000,
	})
}
