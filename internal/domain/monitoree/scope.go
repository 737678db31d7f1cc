package monitoree

import (
	"github.com/casemon/casemon/internal/platform/auth"
	"github.com/casemon/casemon/internal/platform/db"
	"github.com/casemon/casemon/internal/platform/fhir"
)

// ApplyScope restricts a query over patients aliased p to scope.
func ApplyScope(w *db.Where, scope auth.PatientScope) {
	if len(scope.JurisdictionIDs) == 0 {
		w.Never()
		return
	}
	w.Add("p.jurisdiction_id = ANY($%d)", scope.JurisdictionIDs)
	w.Add("p.purged = FALSE")
	if scope.CreatorID != nil {
		w.Add("p.creator_id = $%d", *scope.CreatorID)
	}
}

// DependentJoin joins the owning patient of a dependent table aliased d.
const DependentJoin = ` JOIN patients p ON p.id = d.patient_id`

// ApplyDependentFilter restricts a dependent query (table aliased d, joined
// with DependentJoin) to scope and the subject/_id filter.
func ApplyDependentFilter(w *db.Where, scope auth.PatientScope, f fhir.DependentFilter) {
	ApplyScope(w, scope)
	if f.Impossible {
		w.Never()
	}
	if f.PatientID != nil {
		w.Add("d.patient_id = $%d", *f.PatientID)
	}
	if f.ID != nil {
		w.Add("d.id = $%d", *f.ID)
	}
}
