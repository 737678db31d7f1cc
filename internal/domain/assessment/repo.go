package assessment

import (
	"context"

	"github.com/casemon/casemon/internal/platform/auth"
	"github.com/casemon/casemon/internal/platform/fhir"
)

type Repository interface {
	Get(ctx context.Context, scope auth.PatientScope, id int64) (*Assessment, error)
	Search(ctx context.Context, scope auth.PatientScope, f fhir.DependentFilter, limit, offset int) ([]*Assessment, int, error)
	ForPatient(ctx context.Context, patientID int64) ([]*Assessment, error)
}
