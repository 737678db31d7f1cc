package laboratory

import (
	"context"

	"github.com/casemon/casemon/internal/platform/auth"
	"github.com/casemon/casemon/internal/platform/fhir"
)

type Repository interface {
	Get(ctx context.Context, scope auth.PatientScope, id int64) (*Laboratory, error)
	Search(ctx context.Context, scope auth.PatientScope, f fhir.DependentFilter, limit, offset int) ([]*Laboratory, int, error)
	// ForPatient lists every lab of a patient whose access was already checked.
	ForPatient(ctx context.Context, patientID int64) ([]*Laboratory, error)
}
