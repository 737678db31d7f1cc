package closecontact

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

func (s *Service) Get(ctx context.Context, actor *auth.Actor, id int64) (*CloseContact, error) {
	return s.repo.Get(ctx, actor.PatientScope(), id)
}

func (s *Service) Search(ctx context.Context, actor *auth.Actor, f fhir.DependentFilter, limit, offset int) ([]*CloseContact, int, error) {
	return s.repo.Search(ctx, actor.PatientScope(), f, limit, offset)
}

// ForPatient lists every record of a patient whose access was already checked.
func (s *Service) ForPatient(ctx context.Context, patientID int64) ([]*CloseContact, error) {
	return s.repo.ForPatient(ctx, patientID)
}

func (s *Service) Create(ctx context.Context, actor *auth.Actor, fields fhir.FieldMap) (db.Committed[*CloseContact], error) {
	c := &CloseContact{}
	apply(c, fields)
	if err := s.validate(ctx, actor, c, fields); err != nil {
		return db.Committed[*CloseContact]{}, err
	}
	return db.Commit(ctx, s.tx, func(ctx context.Context) (*CloseContact, error) {
		if err := s.repo.Create(ctx, c); err != nil {
			return nil, err
		}
		err := s.audit.RecordHistory(ctx, &audit.History{
			PatientID:   c.PatientID,
			CreatedBy:   actor.Label,
			HistoryType: audit.HistoryContact,
			Comment:     fmt.Sprintf("Close contact %d added via API.", c.ID),
		})
		return c, err
	})
}

func (s *Service) Update(ctx context.Context, actor *auth.Actor, id int64, fields fhir.FieldMap) (db.Committed[*CloseContact], error) {
	existing, err := s.repo.Get(ctx, actor.PatientScope(), id)
	if err != nil {
		return db.Committed[*CloseContact]{}, err
	}
	c := *existing
	apply(&c, fields)
	if err := s.validate(ctx, actor, &c, fields); err != nil {
		return db.Committed[*CloseContact]{}, err
	}

	changes := diff(existing, &c)
	return db.Commit(ctx, s.tx, func(ctx context.Context) (*CloseContact, error) {
		if err := s.repo.Update(ctx, &c); err != nil {
			return nil, err
		}
		if len(changes) == 0 {
			return &c, nil
		}
		err := s.audit.RecordHistory(ctx, &audit.History{
			PatientID:   c.PatientID,
			CreatedBy:   actor.Label,
			HistoryType: audit.HistoryContactEdit,
			Comment:     fmt.Sprintf("Close contact %d updated via API. Changes were: %s.", c.ID, audit.DescribeChanges(changes)),
		})
		return &c, err
	})
}

func (s *Service) validate(ctx context.Context, actor *auth.Actor, c *CloseContact, fields fhir.FieldMap) error {
	errs := fhir.FieldErrors{}
	if err := monitoree.CheckReference(ctx, s.patients, actor, c.PatientID, errs); err != nil {
		return fmt.Errorf("check patient reference: %w", err)
	}
	for attr, msgs := range validation.Struct(c) {
		if attr == "patient_id" {
			continue
		}
		for _, m := range msgs {
			errs.Add(attr, m)
		}
	}
	if len(errs) > 0 {
		return &fhir.ValidationError{Errors: errs, Fields: fields, Labels: Labels}
	}
	return nil
}

func diff(before, after *CloseContact) []audit.Change {
	return audit.Diff(display(before), display(after), Labels)
}
