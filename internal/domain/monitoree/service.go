package monitoree

import (
	"context"
	"fmt"

	"github.com/casemon/casemon/internal/domain/audit"
	"github.com/casemon/casemon/internal/domain/jurisdiction"
	"github.com/casemon/casemon/internal/platform/auth"
	"github.com/casemon/casemon/internal/platform/db"
	"github.com/casemon/casemon/internal/platform/fhir"
	"github.com/casemon/casemon/internal/platform/validation"
)

// Jurisdictions is the part of the jurisdiction service monitorees need.
type Jurisdictions interface {
	Get(ctx context.Context, id int64) (*jurisdiction.Jurisdiction, error)
	ByPath(ctx context.Context, path string) (*jurisdiction.Jurisdiction, bool, error)
	Transferable(ctx context.Context, id int64) ([]int64, error)
}

type Service struct {
	repo          Repository
	jurisdictions Jurisdictions
	audit         audit.Recorder
	tx            db.Transactor
}

func NewService(repo Repository, jurisdictions Jurisdictions, recorder audit.Recorder, tx db.Transactor) *Service {
	return &Service{repo: repo, jurisdictions: jurisdictions, audit: recorder, tx: tx}
}

func (s *Service) Get(ctx context.Context, actor *auth.Actor, id int64) (*Patient, error) {
	return s.repo.Get(ctx, actor.PatientScope(), id)
}

func (s *Service) Search(ctx context.Context, actor *auth.Actor, sp SearchParams, limit, offset int) ([]*Patient, int, error) {
	return s.repo.Search(ctx, actor.PatientScope(), sp, limit, offset)
}

// Accessible reports whether id is a monitoree the actor may reference.
func (s *Service) Accessible(ctx context.Context, actor *auth.Actor, id int64) (bool, error) {
	return s.repo.Accessible(ctx, actor.PatientScope(), id)
}

// Create enrolls a monitoree from translated attributes. Without a
// submitted jurisdiction path the actor's own jurisdiction is used.
func (s *Service) Create(ctx context.Context, actor *auth.Actor, fields fhir.FieldMap) (db.Committed[*Patient], error) {
	creator := actor.UserID
	p := &Patient{Monitoring: true, CreatorID: &creator, JurisdictionID: actor.JurisdictionID}
	apply(p, fields)

	errs := fhir.FieldErrors{}
	if err := s.assignJurisdiction(ctx, p, fields, actor.InSubtree, errs); err != nil {
		return db.Committed[*Patient]{}, err
	}
	if p.JurisdictionPath == "" {
		j, err := s.jurisdictions.Get(ctx, p.JurisdictionID)
		if err != nil {
			return db.Committed[*Patient]{}, fmt.Errorf("load actor jurisdiction: %w", err)
		}
		p.JurisdictionPath = j.Path
	}
	errs.Merge(check(p, fields))
	if len(errs) > 0 {
		return db.Committed[*Patient]{}, &fhir.ValidationError{Errors: errs, Fields: fields, Labels: Labels}
	}

	return db.Commit(ctx, s.tx, func(ctx context.Context) (*Patient, error) {
		if err := s.repo.Create(ctx, p); err != nil {
			return nil, err
		}
		err := s.audit.RecordHistory(ctx, &audit.History{
			PatientID:   p.ID,
			CreatedBy:   actor.Label,
			HistoryType: audit.HistoryEnrollment,
			Comment:     "Monitoree enrolled via API.",
		})
		return p, err
	})
}

// Update replaces the attributes of monitoree id. A non-nil version must
// match the stored FHIR versionId. Moving the monitoree to another
// jurisdiction is limited to the actor's transferable jurisdictions and
// records a Transfer.
func (s *Service) Update(ctx context.Context, actor *auth.Actor, id int64, fields fhir.FieldMap, version *int) (db.Committed[*Patient], error) {
	existing, err := s.repo.Get(ctx, actor.PatientScope(), id)
	if err != nil {
		return db.Committed[*Patient]{}, err
	}
	if version != nil && *version != existing.LockVersion+1 {
		return db.Committed[*Patient]{}, db.ErrConflict
	}

	p := *existing
	apply(&p, fields)

	errs := fhir.FieldErrors{}
	if path := fields.String("jurisdiction_id"); path != "" && path != existing.JurisdictionPath {
		allowed, err := s.jurisdictions.Transferable(ctx, actor.JurisdictionID)
		if err != nil {
			return db.Committed[*Patient]{}, fmt.Errorf("load transferable jurisdictions: %w", err)
		}
		if err := s.assignJurisdiction(ctx, &p, fields, func(id int64) bool { return contains(allowed, id) }, errs); err != nil {
			return db.Committed[*Patient]{}, err
		}
	}
	errs.Merge(check(&p, fields))
	if len(errs) > 0 {
		return db.Committed[*Patient]{}, &fhir.ValidationError{Errors: errs, Fields: fields, Labels: Labels}
	}

	changes := diff(existing, &p)
	return db.Commit(ctx, s.tx, func(ctx context.Context) (*Patient, error) {
		if err := s.repo.Update(ctx, &p); err != nil {
			return nil, err
		}
		for _, h := range histories(existing, &p, changes) {
			h.PatientID = p.ID
			h.CreatedBy = actor.Label
			if err := s.audit.RecordHistory(ctx, h); err != nil {
				return nil, err
			}
		}
		if p.JurisdictionID != existing.JurisdictionID {
			err := s.audit.RecordTransfer(ctx, &audit.Transfer{
				PatientID:          p.ID,
				FromJurisdictionID: existing.JurisdictionID,
				ToJurisdictionID:   p.JurisdictionID,
				WhoID:              actor.UserID,
			})
			if err != nil {
				return nil, err
			}
		}
		return &p, nil
	})
}

// assignJurisdiction resolves a submitted jurisdiction path onto p and
// checks it against allowed.
func (s *Service) assignJurisdiction(ctx context.Context, p *Patient, fields fhir.FieldMap, allowed func(id int64) bool, errs fhir.FieldErrors) error {
	path := fields.String("jurisdiction_id")
	if path == "" {
		return nil
	}
	j, ok, err := s.jurisdictions.ByPath(ctx, path)
	if err != nil {
		return fmt.Errorf("resolve jurisdiction path: %w", err)
	}
	if !ok {
		errs.Add("jurisdiction_id", "is not a valid jurisdiction path")
		return nil
	}
	if !allowed(j.ID) {
		errs.Add("jurisdiction_id", "must be within the jurisdictions available to the API user/application")
		return nil
	}
	p.JurisdictionID = j.ID
	p.JurisdictionPath = j.Path
	return nil
}

func check(p *Patient, fields fhir.FieldMap) fhir.FieldErrors {
	errs := validation.DateFields(fields, "date_of_birth", "last_date_of_exposure", "symptom_onset")
	for attr, msgs := range validation.Struct(p) {
		if _, unparsed := errs[attr]; unparsed {
			continue
		}
		for _, m := range msgs {
			errs.Add(attr, m)
		}
	}
	if p.PreferredContactMethod != nil {
		switch *p.PreferredContactMethod {
		case ContactEmail:
			if p.Email == nil {
				errs.Add("email", "is required when Preferred Contact Method is '"+ContactEmail+"'")
			}
		case ContactSMSLink, ContactTelephone, ContactSMSText:
			if p.PrimaryTelephone == nil {
				errs.Add("primary_telephone", "is required when Preferred Contact Method is '"+*p.PreferredContactMethod+"'")
			}
		}
	}
	return errs
}

func diff(before, after *Patient) []audit.Change {
	return audit.Diff(display(before), display(after), Labels)
}

func histories(before, after *Patient, changes []audit.Change) []*audit.History {
	var out []*audit.History
	if len(changes) > 0 {
		out = append(out, &audit.History{
			HistoryType: audit.HistoryRecordEdit,
			Comment:     "Monitoree updated via API. Changes were: " + audit.DescribeChanges(changes) + ".",
		})
	}
	if before.Monitoring != after.Monitoring {
		state := "off"
		if after.Monitoring {
			state = "on"
		}
		out = append(out, &audit.History{
			HistoryType: audit.HistoryMonitoring,
			Comment:     "Continuous monitoring was turned " + state + " via API.",
		})
	}
	if before.JurisdictionID != after.JurisdictionID {
		out = append(out, &audit.History{
			HistoryType: audit.HistoryMonitoring,
			Comment:     "Monitoree was transferred via API from " + before.JurisdictionPath + " to " + after.JurisdictionPath + ".",
		})
	}
	return out
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
