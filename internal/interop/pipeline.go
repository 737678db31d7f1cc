package interop

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/casemon/casemon/internal/platform/auth"
	"github.com/casemon/casemon/internal/platform/fhir"
)

// ActorResolver maps a verified token to the identity a request acts as.
type ActorResolver interface {
	Resolve(ctx context.Context, tok *auth.Token) (*auth.Actor, error)
}

// call carries one FHIR request through the pipeline.
type call struct {
	c     echo.Context
	typ   string
	res   *resource
	token *auth.Token
	actor *auth.Actor
}

func (cl *call) ctx() context.Context { return cl.c.Request().Context() }

// outcome is a terminal response. A nil body is sent as an empty response.
type outcome struct {
	status int
	body   fhir.Resource
}

func halt(status int) *outcome { return &outcome{status: status} }

// stage inspects a call and either lets it continue (nil) or ends it.
type stage func(*call) *outcome

func run(cl *call, stages ...stage) *outcome {
	for _, s := range stages {
		if o := s(cl); o != nil {
			return o
		}
	}
	return nil
}

// permission is a resource type and action that some granted scope, in
// either realm, must allow.
type permission struct {
	resourceType string
	action       auth.Action
}

// known resolves the resource type of the route. Writes to read-only
// types are treated as unknown routes.
func (h *Handler) known(write bool) stage {
	return func(cl *call) *outcome {
		r, ok := h.resources[cl.typ]
		if !ok || (write && !r.writable()) {
			return halt(http.StatusNotFound)
		}
		cl.res = r
		return nil
	}
}

// authorize verifies the bearer token and its scopes. It never touches
// the store.
func (h *Handler) authorize(need ...permission) stage {
	return func(cl *call) *outcome {
		raw, ok := auth.BearerToken(cl.c.Request().Header.Get(echo.HeaderAuthorization))
		if !ok {
			return halt(http.StatusUnauthorized)
		}
		tok, err := h.verifier.Verify(cl.ctx(), raw)
		if err != nil {
			return halt(http.StatusUnauthorized)
		}
		for _, p := range need {
			if !auth.Permits(tok.Scopes, p.resourceType, p.action) {
				return halt(http.StatusUnauthorized)
			}
		}
		cl.token = tok
		return nil
	}
}

func (h *Handler) acceptable(cl *call) *outcome {
	req := cl.c.Request()
	if !fhir.AcceptsFHIRJSON(req.Header.Get(echo.HeaderAccept), cl.c.QueryParam("_format")) {
		return halt(http.StatusNotAcceptable)
	}
	return nil
}

func (h *Handler) contentType(mediaType string) stage {
	return func(cl *call) *outcome {
		if fhir.MediaType(cl.c.Request().Header.Get(echo.HeaderContentType)) != mediaType {
			return halt(http.StatusUnsupportedMediaType)
		}
		return nil
	}
}

func (h *Handler) resolveActor(cl *call) *outcome {
	actor, err := h.actors.Resolve(cl.ctx(), cl.token)
	switch {
	case err == nil:
		cl.actor = actor
		return nil
	case errors.Is(err, auth.ErrUnauthorized), errors.Is(err, auth.ErrAPIDisabled), errors.Is(err, auth.ErrNoProxyUser):
		h.logger.Debug().Err(err).Str("request_id", requestID(cl.c)).Msg("token did not resolve to an actor")
		return halt(http.StatusUnauthorized)
	default:
		h.logUnexpected(cl, err)
		return &outcome{status: http.StatusInternalServerError, body: fhir.FatalOutcome()}
	}
}
