package vaccine

import (
	"context"

	"github.com/casemon/casemon/internal/platform/auth"
	"github.com/casemon/casemon/internal/platform/fhir"
)

type Repository interface {
	Get(ctx context.Context, scope auth.PatientScope, id int64) (*Vaccine, error)
	Search(ctx context.Context, scope auth.PatientScope, f fhir.DependentFilter, limit, offset int) ([]*Vaccine, int, error)
	ForPatient(ctx context.Context, patientID int64) ([]*Vaccine, error)
	Create(ctx context.Context, v *Vaccine) error
	Update(ctx context.Context, v *Vaccine) error
}
