package monitoree

import (
	"context"

	"github.com/casemon/casemon/internal/platform/auth"
	"github.com/casemon/casemon/internal/platform/fhir"
)

const InaccessiblePatient = "does not refer to a Patient accessible to the API user/application"

// Access answers whether an actor may attach records to monitoree id.
// *Service implements it.
type Access interface {
	Accessible(ctx context.Context, actor *auth.Actor, id int64) (bool, error)
}

// CheckReference adds a patient_id error unless id is an accessible
// monitoree. Zero ids (missing or unparseable references) always fail.
func CheckReference(ctx context.Context, access Access, actor *auth.Actor, id int64, errs fhir.FieldErrors) error {
	if id == 0 {
		errs.Add("patient_id", InaccessiblePatient)
		return nil
	}
	ok, err := access.Accessible(ctx, actor, id)
	if err != nil {
		return err
	}
	if !ok {
		errs.Add("patient_id", InaccessiblePatient)
	}
	return nil
}
