package monitoree

import (
	"context"
	"net/url"

	"github.com/casemon/casemon/internal/platform/auth"
	"github.com/casemon/casemon/internal/platform/fhir"
	"github.com/casemon/casemon/internal/platform/validation"
)

// SearchParams are the supported Patient search filters. Blank values are
// dropped when parsing.
type SearchParams struct {
	Family  string
	Given   string
	Telecom string
	Email   string
	ID      *int64
	Active  *bool
	// Impossible is set when a supplied filter cannot match any record.
	Impossible bool
}

func ParseSearch(q url.Values) SearchParams {
	var sp SearchParams
	sp.Family, _ = fhir.Param(q, "family")
	sp.Given, _ = fhir.Param(q, "given")
	sp.Email, _ = fhir.Param(q, "email")
	if v, ok := fhir.Param(q, "telecom"); ok {
		sp.Telecom = validation.PhoneE164(v)
	}
	if v, ok := fhir.Param(q, "_id"); ok {
		if id, ok := fhir.ParseID(v); ok {
			sp.ID = &id
		} else {
			sp.Impossible = true
		}
	}
	if v, ok := fhir.Param(q, "active"); ok {
		if b, ok := fhir.ParseBool(v); ok {
			sp.Active = &b
		}
	}
	return sp
}

// Repository persists monitorees. Reads are restricted to scope and
// return db.ErrNotFound for records outside it.
type Repository interface {
	Get(ctx context.Context, scope auth.PatientScope, id int64) (*Patient, error)
	Search(ctx context.Context, scope auth.PatientScope, params SearchParams, limit, offset int) ([]*Patient, int, error)
	Accessible(ctx context.Context, scope auth.PatientScope, id int64) (bool, error)
	// Create inserts p, making it its own responder.
	Create(ctx context.Context, p *Patient) error
	// Update saves p if its stored lock_version still equals p.LockVersion,
	// then increments it; otherwise it returns db.ErrConflict.
	Update(ctx context.Context, p *Patient) error
}
