package interop

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/casemon/casemon/internal/platform/db"
	"github.com/casemon/casemon/internal/platform/fhir"
	"github.com/casemon/casemon/internal/platform/metrics"
	"github.com/casemon/casemon/internal/platform/middleware"
)

func writeResource(c echo.Context, status int, r fhir.Resource) error {
	c.Response().Header().Set(echo.HeaderContentType, fhir.FHIRContentType)
	return c.JSON(status, r)
}

func send(c echo.Context, o *outcome) error {
	if o.body == nil {
		return c.NoContent(o.status)
	}
	return writeResource(c, o.status, o.body)
}

func requestID(c echo.Context) string {
	if v, ok := c.Get("request_id").(string); ok {
		return v
	}
	return ""
}

func (h *Handler) logUnexpected(cl *call, err error) {
	h.logger.Error().
		Err(err).
		Str("request_id", requestID(cl.c)).
		Str("resource_type", cl.typ).
		Str("method", cl.c.Request().Method).
		Msg("fhir request failed")
}

// outcomeFor maps a handler error onto its HTTP response. raw is the
// submitted resource validation failures are explained against.
func (h *Handler) outcomeFor(cl *call, err error, raw map[string]interface{}) *outcome {
	var perr *fhir.ParseError
	var verr *fhir.ValidationError
	var tooLarge *middleware.BodyTooLargeError
	switch {
	case errors.As(err, &tooLarge):
		return &outcome{status: http.StatusRequestEntityTooLarge, body: middleware.TooLargeOutcome(tooLarge)}
	case errors.As(err, &perr):
		return &outcome{status: http.StatusBadRequest, body: fhir.ErrorsOutcome(fhir.IssueTypeStructure, perr.Messages)}
	case errors.As(err, &verr):
		return &outcome{status: http.StatusUnprocessableEntity, body: fhir.ValidationOutcome(verr, raw)}
	case errors.Is(err, db.ErrNotFound):
		return halt(http.StatusForbidden)
	case errors.Is(err, db.ErrConflict):
		return &outcome{
			status: http.StatusConflict,
			body:   fhir.ConflictOutcome(fmt.Sprintf("%s/%s was modified by another request", cl.typ, cl.c.Param("id"))),
		}
	default:
		h.logUnexpected(cl, err)
		return &outcome{status: http.StatusInternalServerError, body: fhir.FatalOutcome()}
	}
}

func (h *Handler) fail(cl *call, err error, raw map[string]interface{}) error {
	return send(cl.c, h.outcomeFor(cl, err, raw))
}

// writeResult names the outcome of a write for metrics.
func writeResult(status int) string {
	switch status {
	case http.StatusOK:
		return "updated"
	case http.StatusCreated:
		return "created"
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return "invalid"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusConflict:
		return "conflict"
	case http.StatusRequestEntityTooLarge:
		return "too_large"
	}
	return "error"
}

func recordWrite(typ, interaction string, status int) {
	metrics.RecordWrite(typ, interaction, writeResult(status))
}
