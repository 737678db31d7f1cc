package interop

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/casemon/casemon/internal/domain/assessment"
	"github.com/casemon/casemon/internal/domain/closecontact"
	"github.com/casemon/casemon/internal/domain/laboratory"
	"github.com/casemon/casemon/internal/domain/monitoree"
	"github.com/casemon/casemon/internal/domain/vaccine"
	"github.com/casemon/casemon/internal/platform/auth"
	"github.com/casemon/casemon/internal/platform/fhir"
	"github.com/casemon/casemon/internal/platform/middleware"
	"github.com/casemon/casemon/pkg/pagination"
)

const (
	interactionCreate = "create"
	interactionUpdate = "update"
	interactionPatch  = "patch"
)

// Services are the domain services behind the API.
type Services struct {
	Patients      Patients
	CloseContacts CloseContacts
	Vaccines      Vaccines
	Laboratories  Laboratories
	Assessments   Assessments
}

type Config struct {
	// Root is the public URL of the server and ends with a slash.
	Root    string
	Version string
	OAuth   fhir.OAuthEndpoints
}

// Handler serves the FHIR R4 API under /fhir/r4.
type Handler struct {
	svc       Services
	resources map[string]*resource
	verifier  auth.TokenVerifier
	actors    ActorResolver
	root      string

	capability *fhir.CapabilityStatement
	smart      auth.SMARTConfiguration
	logger     zerolog.Logger
}

func NewHandler(svc Services, verifier auth.TokenVerifier, actors ActorResolver, cfg Config, logger zerolog.Logger) *Handler {
	ordered := []*resource{
		patientResource(svc.Patients),
		closeContactResource(svc.CloseContacts),
		vaccineResource(svc.Vaccines),
		laboratoryResource(svc.Laboratories),
		assessmentResource(svc.Assessments),
	}
	h := &Handler{
		svc:       svc,
		resources: make(map[string]*resource, len(ordered)),
		verifier:  verifier,
		actors:    actors,
		root:      cfg.Root,
		smart: auth.NewSMARTConfiguration(auth.SMARTEndpoints{
			Authorize:  cfg.OAuth.Authorize,
			Token:      cfg.OAuth.Token,
			Revoke:     cfg.OAuth.Revoke,
			Introspect: cfg.OAuth.Introspect,
		}),
		logger: logger.With().Str("component", "interop").Logger(),
	}
	for _, r := range ordered {
		h.resources[r.name] = r
	}
	h.capability = capabilityStatement(cfg, ordered)
	return h
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// CORSMiddleware answers preflight requests before the handler runs.
	preflight := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }

	smart := auth.SMARTConfigurationHandler(h.smart)
	e.GET("/.well-known/smart-configuration", smart, fhir.CORSMiddleware())
	e.OPTIONS("/.well-known/smart-configuration", preflight, fhir.CORSMiddleware())

	g := e.Group("/fhir/r4", fhir.CORSMiddleware())
	g.GET("/metadata", h.Metadata)
	g.GET("/.well-known/smart-configuration", smart)
	g.GET("/:type", h.Search)
	g.POST("/:type", h.Create)
	g.GET("/:type/:id", h.Read)
	g.PUT("/:type/:id", h.Update)
	g.PATCH("/:type/:id", h.Patch)
	g.GET("/:type/:id/:operation", h.Operation)

	for _, p := range []string{"/metadata", "/.well-known/smart-configuration", "/:type", "/:type/:id", "/:type/:id/:operation"} {
		g.OPTIONS(p, preflight)
	}
}

func (h *Handler) Metadata(c echo.Context) error {
	return writeResource(c, http.StatusOK, h.capability)
}

func newCall(c echo.Context) *call {
	return &call{c: c, typ: c.Param("type")}
}

// scoped requires action on the resource type of the route.
func (h *Handler) scoped(action auth.Action) stage {
	return func(cl *call) *outcome {
		return h.authorize(permission{resourceType: cl.typ, action: action})(cl)
	}
}

func (h *Handler) Read(c echo.Context) error {
	cl := newCall(c)
	if o := run(cl, h.known(false), h.scoped(auth.ActionRead), h.acceptable, h.resolveActor); o != nil {
		return send(c, o)
	}
	id, ok := fhir.ParseID(c.Param("id"))
	if !ok {
		return c.NoContent(http.StatusForbidden)
	}
	r, err := cl.res.read(cl.ctx(), cl.actor, id)
	if err != nil {
		return h.fail(cl, err, nil)
	}
	if p, ok := r.(*fhir.Patient); ok {
		fhir.SetVersionHeaders(c, p.Meta)
	}
	return writeResource(c, http.StatusOK, r)
}

func (h *Handler) Search(c echo.Context) error {
	cl := newCall(c)
	if o := run(cl, h.known(false), h.scoped(auth.ActionRead), h.acceptable, h.resolveActor); o != nil {
		return send(c, o)
	}
	page := pagination.FromContext(c)
	items, total, err := cl.res.search(cl.ctx(), cl.actor, c.QueryParams(), page.Count, page.Offset())
	if err != nil {
		return h.fail(cl, err, nil)
	}
	bundle := fhir.NewSearchBundle(items, fhir.SearchBundleParams{
		Root:         h.root,
		ResourceType: cl.typ,
		Query:        c.QueryParams(),
		Page:         page,
		Total:        total,
	})
	return writeResource(c, http.StatusOK, bundle)
}

func (h *Handler) Create(c echo.Context) error {
	cl := newCall(c)
	o := run(cl, h.known(true), h.scoped(auth.ActionWrite), h.acceptable, h.contentType(fhir.MediaTypeFHIRJSON), h.resolveActor)
	if o == nil {
		o = h.submit(cl, interactionCreate, 0)
	}
	recordWrite(cl.typ, interactionCreate, o.status)
	return send(c, o)
}

func (h *Handler) Update(c echo.Context) error {
	cl := newCall(c)
	o := run(cl, h.known(true), h.scoped(auth.ActionWrite), h.acceptable, h.contentType(fhir.MediaTypeFHIRJSON), h.resolveActor)
	if o == nil {
		if id, ok := fhir.ParseID(c.Param("id")); ok {
			o = h.submit(cl, interactionUpdate, id)
		} else {
			o = halt(http.StatusForbidden)
		}
	}
	recordWrite(cl.typ, interactionUpdate, o.status)
	return send(c, o)
}

// Patch applies a JSON Patch to the current FHIR form of the record and
// saves the result as if it had been sent with PUT.
func (h *Handler) Patch(c echo.Context) error {
	cl := newCall(c)
	o := run(cl, h.known(true), h.scoped(auth.ActionWrite), h.acceptable, h.contentType(fhir.MediaTypeJSONPatch), h.resolveActor)
	if o == nil {
		o = h.patch(cl)
	}
	recordWrite(cl.typ, interactionPatch, o.status)
	return send(c, o)
}

func (h *Handler) patch(cl *call) *outcome {
	id, ok := fhir.ParseID(cl.c.Param("id"))
	if !ok {
		return halt(http.StatusForbidden)
	}
	current, err := cl.res.read(cl.ctx(), cl.actor, id)
	if err != nil {
		return h.outcomeFor(cl, err, nil)
	}
	doc, err := h.body(cl)
	if err != nil {
		return h.outcomeFor(cl, err, nil)
	}
	patched, _, err := fhir.PatchResource(current, doc)
	if err != nil {
		return &outcome{
			status: http.StatusBadRequest,
			body:   fhir.ErrorsOutcome(fhir.IssueTypeProcessing, []string{"Unable to apply patch: " + err.Error()}),
		}
	}
	return h.persist(cl, interactionPatch, id, patched)
}

// body reads the request. A body cut off by the size limit keeps its
// *middleware.BodyTooLargeError; other read failures become a ParseError.
func (h *Handler) body(cl *call) ([]byte, error) {
	b, err := io.ReadAll(cl.c.Request().Body)
	if err != nil {
		var tooLarge *middleware.BodyTooLargeError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		h.logger.Warn().Err(err).Str("request_id", requestID(cl.c)).Msg("read request body")
		return nil, &fhir.ParseError{Messages: []string{"Unable to read request body"}}
	}
	return b, nil
}

func (h *Handler) submit(cl *call, interaction string, id int64) *outcome {
	body, err := h.body(cl)
	if err != nil {
		return h.outcomeFor(cl, err, nil)
	}
	return h.persist(cl, interaction, id, body)
}

// persist parses and saves a submitted resource. id is zero on create.
func (h *Handler) persist(cl *call, interaction string, id int64, body []byte) *outcome {
	raw, err := fhir.DecodeObject(body)
	if err != nil {
		return h.outcomeFor(cl, &fhir.ParseError{Messages: []string{err.Error()}}, nil)
	}
	if interaction != interactionCreate {
		if rid, ok := raw["id"].(string); ok && rid != cl.c.Param("id") {
			return h.outcomeFor(cl, &fhir.ParseError{Messages: []string{"id: does not match the id in the request URL"}}, raw)
		}
	}

	var r fhir.Resource
	if interaction == interactionCreate {
		r, err = cl.res.create(cl.ctx(), cl.actor, body)
	} else {
		r, err = cl.res.update(cl.ctx(), cl.actor, id, body, cl.c.Request().Header.Get("If-Match"))
	}
	if err != nil {
		return h.outcomeFor(cl, err, raw)
	}

	if p, ok := r.(*fhir.Patient); ok {
		fhir.SetVersionHeaders(cl.c, p.Meta)
	}
	if interaction == interactionCreate {
		cl.c.Response().Header().Set(echo.HeaderLocation, fhir.ResourceURL(h.root, r))
		return &outcome{status: http.StatusCreated, body: r}
	}
	return &outcome{status: http.StatusOK, body: r}
}

// Operation serves instance operations. Only Patient/$everything exists.
func (h *Handler) Operation(c echo.Context) error {
	op := c.Param("operation")
	if c.Param("type") != auth.Patient || (op != "$everything" && op != "%24everything") {
		return c.NoContent(http.StatusNotFound)
	}
	need := make([]permission, 0, len(auth.ResourceTypes))
	for _, t := range auth.ResourceTypes {
		need = append(need, permission{resourceType: t, action: auth.ActionRead})
	}
	cl := newCall(c)
	if o := run(cl, h.known(false), h.authorize(need...), h.acceptable, h.resolveActor); o != nil {
		return send(c, o)
	}
	id, ok := fhir.ParseID(c.Param("id"))
	if !ok {
		return c.NoContent(http.StatusForbidden)
	}
	resources, err := h.everything(cl, id)
	if err != nil {
		return h.fail(cl, err, nil)
	}
	return writeResource(c, http.StatusOK, fhir.NewEverythingBundle(h.root, resources))
}

// everything collects a patient and every record that belongs to it.
func (h *Handler) everything(cl *call, id int64) ([]fhir.Resource, error) {
	ctx := cl.ctx()
	p, err := h.svc.Patients.Get(ctx, cl.actor, id)
	if err != nil {
		return nil, err
	}
	out := []fhir.Resource{monitoree.ToFHIR(p)}

	assessments, err := h.svc.Assessments.ForPatient(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	out = append(out, convert(assessments, assessment.ToFHIR)...)

	labs, err := h.svc.Laboratories.ForPatient(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	out = append(out, convert(labs, laboratory.ToFHIR)...)

	contacts, err := h.svc.CloseContacts.ForPatient(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	out = append(out, convert(contacts, closecontact.ToFHIR)...)

	vaccines, err := h.svc.Vaccines.ForPatient(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return append(out, convert(vaccines, vaccine.ToFHIR)...), nil
}
