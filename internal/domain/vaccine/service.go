package vaccine

import (
	"context"
	"fmt"

	"github.com/casemon/casemon/internal/domain/audit"
	"github.com/casemon/casemon/internal/domain/monitoree"
	"github.com/casemon/casemon/internal/platform/auth"
	"github.com/casemon/casemon/internal/platform/db"
	"github.com/casemon/casemon/internal/platform/fhir"
	"github.com/casemon/casemon/internal/platform/validation"
)

type Service struct {
	repo     Repository
	patients monitoree.Access
	audit    audit.Recorder
	tx       db.Transactor
}

func NewService(repo Repository, patients monitoree.Access, recorder audit.Recorder, tx db.Transactor) *Service {
	return &Service{repo: repo, patients: patients, audit: recorder, tx: tx}
}

func (s *Service) Get(ctx context.Context, actor *auth.Actor, id int64) (*Vaccine, error) {
	return s.repo.Get(ctx, actor.PatientScope(), id)
}

func (s *Service) Search(ctx context.Context, actor *auth.Actor, f fhir.DependentFilter, limit, offset int) ([]*Vaccine, int, error) {
	return s.repo.Search(ctx, actor.PatientScope(), f, limit, offset)
}

// ForPatient lists every record of a patient whose access was already checked.
func (s *Service) ForPatient(ctx context.Context, patientID int64) ([]*Vaccine, error) {
	return s.repo.ForPatient(ctx, patientID)
}

func (s *Service) Create(ctx context.Context, actor *auth.Actor, fields fhir.FieldMap) (db.Committed[*Vaccine], error) {
	v := &Vaccine{}
	apply(v, fields)
	if err := s.validate(ctx, actor, v, fields); err != nil {
		return db.Committed[*Vaccine]{}, err
	}
	return db.Commit(ctx, s.tx, func(ctx context.Context) (*Vaccine, error) {
		if err := s.repo.Create(ctx, v); err != nil {
			return nil, err
		}
		err := s.audit.RecordHistory(ctx, &audit.History{
			PatientID:   v.PatientID,
			CreatedBy:   actor.Label,
			HistoryType: audit.HistoryVaccination,
			Comment:     fmt.Sprintf("Vaccination %d (%s) added via API.", v.ID, deref(v.ProductName)),
		})
		return v, err
	})
}

func (s *Service) Update(ctx context.Context, actor *auth.Actor, id int64, fields fhir.FieldMap) (db.Committed[*Vaccine], error) {
	existing, err := s.repo.Get(ctx, actor.PatientScope(), id)
	if err != nil {
		return db.Committed[*Vaccine]{}, err
	}
	v := *existing
	apply(&v, fields)
	if err := s.validate(ctx, actor, &v, fields); err != nil {
		return db.Committed[*Vaccine]{}, err
	}

	changes := audit.Diff(display(existing), display(&v), Labels)
	return db.Commit(ctx, s.tx, func(ctx context.Context) (*Vaccine, error) {
		if err := s.repo.Update(ctx, &v); err != nil {
			return nil, err
		}
		if len(changes) == 0 {
			return &v, nil
		}
		err := s.audit.RecordHistory(ctx, &audit.History{
			PatientID:   v.PatientID,
			CreatedBy:   actor.Label,
			HistoryType: audit.HistoryVaccinationEdit,
			Comment:     fmt.Sprintf("Vaccination %d updated via API. Changes were: %s.", v.ID, audit.DescribeChanges(changes)),
		})
		return &v, err
	})
}

func (s *Service) validate(ctx context.Context, actor *auth.Actor, v *Vaccine, fields fhir.FieldMap) error {
	errs := validation.DateFields(fields, "administration_date")
	if err := monitoree.CheckReference(ctx, s.patients, actor, v.PatientID, errs); err != nil {
		return fmt.Errorf("check patient reference: %w", err)
	}
	for attr, msgs := range validation.Struct(v) {
		if _, reported := errs[attr]; reported || attr == "patient_id" {
			continue
		}
		for _, m := range msgs {
			errs.Add(attr, m)
		}
	}
	if v.ProductName != nil && len(errs["product_name"]) == 0 {
		p, ok := productByName(*v.ProductName)
		switch {
		case !ok:
			errs.Add("product_name", "is not an acceptable value")
		case v.GroupName != nil && p.Group != *v.GroupName:
			errs.Add("product_name", "does not belong to Vaccine Group '"+*v.GroupName+"'")
		}
	}
	if len(errs) > 0 {
		return &fhir.ValidationError{Errors: errs, Fields: fields, Labels: Labels}
	}
	return nil
}
