package interop

import (
	"context"
	"net/url"

	"github.com/casemon/casemon/internal/domain/assessment"
	"github.com/casemon/casemon/internal/domain/closecontact"
	"github.com/casemon/casemon/internal/domain/laboratory"
	"github.com/casemon/casemon/internal/domain/monitoree"
	"github.com/casemon/casemon/internal/domain/vaccine"
	"github.com/casemon/casemon/internal/platform/auth"
	"github.com/casemon/casemon/internal/platform/db"
	"github.com/casemon/casemon/internal/platform/fhir"
)

type Patients interface {
	Get(ctx context.Context, actor *auth.Actor, id int64) (*monitoree.Patient, error)
	Search(ctx context.Context, actor *auth.Actor, sp monitoree.SearchParams, limit, offset int) ([]*monitoree.Patient, int, error)
	Create(ctx context.Context, actor *auth.Actor, fields fhir.FieldMap) (db.Committed[*monitoree.Patient], error)
	Update(ctx context.Context, actor *auth.Actor, id int64, fields fhir.FieldMap, version *int) (db.Committed[*monitoree.Patient], error)
}

type CloseContacts interface {
	Get(ctx context.Context, actor *auth.Actor, id int64) (*closecontact.CloseContact, error)
	Search(ctx context.Context, actor *auth.Actor, f fhir.DependentFilter, limit, offset int) ([]*closecontact.CloseContact, int, error)
	ForPatient(ctx context.Context, patientID int64) ([]*closecontact.CloseContact, error)
	Create(ctx context.Context, actor *auth.Actor, fields fhir.FieldMap) (db.Committed[*closecontact.CloseContact], error)
	Update(ctx context.Context, actor *auth.Actor, id int64, fields fhir.FieldMap) (db.Committed[*closecontact.CloseContact], error)
}

type Vaccines interface {
	Get(ctx context.Context, actor *auth.Actor, id int64) (*vaccine.Vaccine, error)
	Search(ctx context.Context, actor *auth.Actor, f fhir.DependentFilter, limit, offset int) ([]*vaccine.Vaccine, int, error)
	ForPatient(ctx context.Context, patientID int64) ([]*vaccine.Vaccine, error)
	Create(ctx context.Context, actor *auth.Actor, fields fhir.FieldMap) (db.Committed[*vaccine.Vaccine], error)
	Update(ctx context.Context, actor *auth.Actor, id int64, fields fhir.FieldMap) (db.Committed[*vaccine.Vaccine], error)
}

type Laboratories interface {
	Get(ctx context.Context, actor *auth.Actor, id int64) (*laboratory.Laboratory, error)
	Search(ctx context.Context, actor *auth.Actor, f fhir.DependentFilter, limit, offset int) ([]*laboratory.Laboratory, int, error)
	ForPatient(ctx context.Context, patientID int64) ([]*laboratory.Laboratory, error)
}

type Assessments interface {
	Get(ctx context.Context, actor *auth.Actor, id int64) (*assessment.Assessment, error)
	Search(ctx context.Context, actor *auth.Actor, f fhir.DependentFilter, limit, offset int) ([]*assessment.Assessment, int, error)
	ForPatient(ctx context.Context, patientID int64) ([]*assessment.Assessment, error)
}

// resource binds one FHIR resource type to the services behind it.
// Read-only types leave create and update nil.
type resource struct {
	name   string
	read   func(ctx context.Context, actor *auth.Actor, id int64) (fhir.Resource, error)
	search func(ctx context.Context, actor *auth.Actor, q url.Values, limit, offset int) ([]fhir.Resource, int, error)
	create func(ctx context.Context, actor *auth.Actor, body []byte) (fhir.Resource, error)
	// update receives the If-Match header value, empty when absent.
	update func(ctx context.Context, actor *auth.Actor, id int64, body []byte, ifMatch string) (fhir.Resource, error)

	searchParams []fhir.CapabilitySearchParam
}

func (r *resource) writable() bool { return r.create != nil }

func (r *resource) interactions() []string {
	if r.writable() {
		return []string{"read", "update", "patch", "create", "search-type"}
	}
	return []string{"read", "search-type"}
}

var dependentParams = []fhir.CapabilitySearchParam{
	{Name: "subject", Type: "reference"},
	{Name: "patient", Type: "reference"},
	{Name: "_id", Type: "token"},
}

func convert[T any, R fhir.Resource](items []T, to func(T) R) []fhir.Resource {
	out := make([]fhir.Resource, 0, len(items))
	for _, it := range items {
		out = append(out, to(it))
	}
	return out
}

func patientResource(svc Patients) *resource {
	return &resource{
		name: auth.Patient,
		read: func(ctx context.Context, actor *auth.Actor, id int64) (fhir.Resource, error) {
			p, err := svc.Get(ctx, actor, id)
			if err != nil {
				return nil, err
			}
			return monitoree.ToFHIR(p), nil
		},
		search: func(ctx context.Context, actor *auth.Actor, q url.Values, limit, offset int) ([]fhir.Resource, int, error) {
			items, total, err := svc.Search(ctx, actor, monitoree.ParseSearch(q), limit, offset)
			return convert(items, monitoree.ToFHIR), total, err
		},
		create: func(ctx context.Context, actor *auth.Actor, body []byte) (fhir.Resource, error) {
			p, err := fhir.ParsePatient(body)
			if err != nil {
				return nil, err
			}
			c, err := svc.Create(ctx, actor, monitoree.Translate(p))
			if err != nil {
				return nil, err
			}
			return monitoree.ToFHIR(c.Value()), nil
		},
		update: func(ctx context.Context, actor *auth.Actor, id int64, body []byte, ifMatch string) (fhir.Resource, error) {
			p, err := fhir.ParsePatient(body)
			if err != nil {
				return nil, err
			}
			version, err := fhir.ExpectedVersion(ifMatch, p.Meta)
			if err != nil {
				return nil, err
			}
			c, err := svc.Update(ctx, actor, id, monitoree.Translate(p), version)
			if err != nil {
				return nil, err
			}
			return monitoree.ToFHIR(c.Value()), nil
		},
		searchParams: []fhir.CapabilitySearchParam{
			{Name: "family", Type: "string"},
			{Name: "given", Type: "string"},
			{Name: "telecom", Type: "token"},
			{Name: "email", Type: "token"},
			{Name: "active", Type: "token"},
			{Name: "_id", Type: "token"},
		},
	}
}

// Dependent resources have no version column; updates are last-write-wins.
func closeContactResource(svc CloseContacts) *resource {
	return &resource{
		name: auth.RelatedPerson,
		read: func(ctx context.Context, actor *auth.Actor, id int64) (fhir.Resource, error) {
			c, err := svc.Get(ctx, actor, id)
			if err != nil {
				return nil, err
			}
			return closecontact.ToFHIR(c), nil
		},
		search: func(ctx context.Context, actor *auth.Actor, q url.Values, limit, offset int) ([]fhir.Resource, int, error) {
			items, total, err := svc.Search(ctx, actor, fhir.ParseDependentFilter(q), limit, offset)
			return convert(items, closecontact.ToFHIR), total, err
		},
		create: func(ctx context.Context, actor *auth.Actor, body []byte) (fhir.Resource, error) {
			rp, err := fhir.ParseRelatedPerson(body)
			if err != nil {
				return nil, err
			}
			c, err := svc.Create(ctx, actor, closecontact.Translate(rp))
			if err != nil {
				return nil, err
			}
			return closecontact.ToFHIR(c.Value()), nil
		},
		update: func(ctx context.Context, actor *auth.Actor, id int64, body []byte, _ string) (fhir.Resource, error) {
			rp, err := fhir.ParseRelatedPerson(body)
			if err != nil {
				return nil, err
			}
			c, err := svc.Update(ctx, actor, id, closecontact.Translate(rp))
			if err != nil {
				return nil, err
			}
			return closecontact.ToFHIR(c.Value()), nil
		},
		searchParams: dependentParams,
	}
}

func vaccineResource(svc Vaccines) *resource {
	return &resource{
		name: auth.Immunization,
		read: func(ctx context.Context, actor *auth.Actor, id int64) (fhir.Resource, error) {
			v, err := svc.Get(ctx, actor, id)
			if err != nil {
				return nil, err
			}
			return vaccine.ToFHIR(v), nil
		},
		search: func(ctx context.Context, actor *auth.Actor, q url.Values, limit, offset int) ([]fhir.Resource, int, error) {
			items, total, err := svc.Search(ctx, actor, fhir.ParseDependentFilter(q), limit, offset)
			return convert(items, vaccine.ToFHIR), total, err
		},
		create: func(ctx context.Context, actor *auth.Actor, body []byte) (fhir.Resource, error) {
			im, err := fhir.ParseImmunization(body)
			if err != nil {
				return nil, err
			}
			c, err := svc.Create(ctx, actor, vaccine.Translate(im))
			if err != nil {
				return nil, err
			}
			return vaccine.ToFHIR(c.Value()), nil
		},
		update: func(ctx context.Context, actor *auth.Actor, id int64, body []byte, _ string) (fhir.Resource, error) {
			im, err := fhir.ParseImmunization(body)
			if err != nil {
				return nil, err
			}
			c, err := svc.Update(ctx, actor, id, vaccine.Translate(im))
			if err != nil {
				return nil, err
			}
			return vaccine.ToFHIR(c.Value()), nil
		},
		searchParams: dependentParams,
	}
}

func laboratoryResource(svc Laboratories) *resource {
	return &resource{
		name: auth.Observation,
		read: func(ctx context.Context, actor *auth.Actor, id int64) (fhir.Resource, error) {
			l, err := svc.Get(ctx, actor, id)
			if err != nil {
				return nil, err
			}
			return laboratory.ToFHIR(l), nil
		},
		search: func(ctx context.Context, actor *auth.Actor, q url.Values, limit, offset int) ([]fhir.Resource, int, error) {
			items, total, err := svc.Search(ctx, actor, fhir.ParseDependentFilter(q), limit, offset)
			return convert(items, laboratory.ToFHIR), total, err
		},
		searchParams: dependentParams,
	}
}

func assessmentResource(svc Assessments) *resource {
	return &resource{
		name: auth.QuestionnaireResponse,
		read: func(ctx context.Context, actor *auth.Actor, id int64) (fhir.Resource, error) {
			a, err := svc.Get(ctx, actor, id)
			if err != nil {
				return nil, err
			}
			return assessment.ToFHIR(a), nil
		},
		search: func(ctx context.Context, actor *auth.Actor, q url.Values, limit, offset int) ([]fhir.Resource, int, error) {
			items, total, err := svc.Search(ctx, actor, fhir.ParseDependentFilter(q), limit, offset)
			return convert(items, assessment.ToFHIR), total, err
		},
		searchParams: dependentParams,
	}
}
