package closecontact

import (
	"context"

	"github.com/casemon/casemon/internal/platform/auth"
	"github.com/casemon/casemon/internal/platform/fhir"
)

// Repository persists close contacts. Reads are limited to contacts of
// patients in scope and return db.ErrNotFound otherwise.
type Repository interface {
	Get(ctx context.Context, scope auth.PatientScope, id int64) (*CloseContact, error)
	Search(ctx context.Context, scope auth.PatientScope, f fhir.DependentFilter, limit, offset int) ([]*CloseContact, int, error)
	ForPatient(ctx context.Context, patientID int64) ([]*CloseContact, error)
	Create(ctx context.Context, c *CloseContact) error
	Update(ctx context.Context, c *CloseContact) error
}
