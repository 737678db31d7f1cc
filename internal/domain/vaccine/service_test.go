package vaccine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/casemon/casemon/internal/domain/audit"
	"github.com/casemon/casemon/internal/domain/monitoree"
	"github.com/casemon/casemon/internal/platform/auth"
	"github.com/casemon/casemon/internal/platform/db"
	"github.com/casemon/casemon/internal/platform/fhir"
)

// =========== Mocks ===========

type mockRepo struct {
	store  map[int64]*Vaccine
	nextID int64
}

func (m *mockRepo) Get(_ context.Context, _ auth.PatientScope, id int64) (*Vaccine, error) {
	v, ok := m.store[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *mockRepo) Search(_ context.Context, _ auth.PatientScope, _ fhir.DependentFilter, _, _ int) ([]*Vaccine, int, error) {
	return nil, len(m.store), nil
}

func (m *mockRepo) ForPatient(_ context.Context, patientID int64) ([]*Vaccine, error) {
	var out []*Vaccine
	for id := int64(1); id <= m.nextID; id++ {
		if item, ok := m.store[id]; ok && item.PatientID == patientID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *mockRepo) Create(_ context.Context, v *Vaccine) error {
	m.nextID++
	v.ID = m.nextID
	v.UpdatedAt = time.Now()
	cp := *v
	m.store[v.ID] = &cp
	return nil
}

func (m *mockRepo) Update(_ context.Context, v *Vaccine) error {
	cp := *v
	m.store[v.ID] = &cp
	return nil
}

type mockAccess map[int64]bool

func (m mockAccess) Accessible(_ context.Context, _ *auth.Actor, id int64) (bool, error) {
	return m[id], nil
}

type mockRecorder struct{ histories []*audit.History }

func (m *mockRecorder) RecordHistory(_ context.Context, h *audit.History) error {
	m.histories = append(m.histories, h)
	return nil
}

func (m *mockRecorder) RecordTransfer(_ context.Context, _ *audit.Transfer) error { return nil }

type inlineTx struct{}

func (inlineTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// =========== Helpers ===========

func newTestService() (*Service, *mockRepo, *mockRecorder) {
	repo := &mockRepo{store: make(map[int64]*Vaccine)}
	rec := &mockRecorder{}
	return NewService(repo, mockAccess{1: true}, rec, inlineTx{}), repo, rec
}

func actor() *auth.Actor {
	return &auth.Actor{Kind: auth.ActorApplication, UserID: 3, Label: "Registry (API)", Subtree: []int64{1}}
}

func translate(t *testing.T, body string) fhir.FieldMap {
	t.Helper()
	im, err := fhir.ParseImmunization([]byte(body))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return Translate(im)
}

const immunizationBody = `{
	"resourceType": "Immunization",
	"status": "completed",
	"vaccineCode": {"coding": [{"system": "http://hl7.org/fhir/sid/cvx", "code": "207"}]},
	"patient": {"reference": "Patient/1"},
	"occurrenceDateTime": "2021-03-01",
	"protocolApplied": [{
		"targetDisease": [{"coding": [{"system": "http://snomed.info/sct", "code": "840539006"}]}],
		"doseNumberPositiveInt": 1
	}]
}`

// =========== Tests ===========

func TestCreate_Success(t *testing.T) {
	svc, _, rec := newTestService()
	c, err := svc.Create(context.Background(), actor(), translate(t, immunizationBody))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := c.Value()
	if deref(v.ProductName) != "Moderna COVID-19 Vaccine (Non-Bivalent)" || deref(v.GroupName) != "COVID-19" || deref(v.DoseNumber) != "1" {
		t.Errorf("unexpected vaccine %+v", v)
	}
	if len(rec.histories) != 1 || rec.histories[0].HistoryType != audit.HistoryVaccination {
		t.Errorf("unexpected histories %+v", rec.histories)
	}
}

func TestCreate_UnknownProductAndPatient(t *testing.T) {
	svc, repo, _ := newTestService()
	body := `{
		"resourceType": "Immunization",
		"status": "completed",
		"vaccineCode": {"coding": [{"system": "http://hl7.org/fhir/sid/cvx", "code": "999"}]},
		"patient": {"reference": "Patient/2"},
		"occurrenceDateTime": "2021-03-01",
		"protocolApplied": [{"targetDisease": [{"coding": [{"code": "840539006"}]}], "doseNumberString": "first"}]
	}`
	_, err := svc.Create(context.Background(), actor(), translate(t, body))
	var verr *fhir.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if got := verr.Errors["patient_id"]; len(got) != 1 || got[0] != monitoree.InaccessiblePatient {
		t.Errorf("unexpected patient_id errors %v", got)
	}
	if len(verr.Errors["product_name"]) != 1 || len(verr.Errors["dose_number"]) != 1 {
		t.Errorf("expected product and dose errors, got %v", verr.Errors)
	}
	if verr.Fields["product_name"].Value != "999" {
		t.Errorf("expected unknown code to be kept, got %v", verr.Fields["product_name"].Value)
	}
	if len(repo.store) != 0 {
		t.Error("expected no write")
	}
}

func TestUpdate_RecordsChanges(t *testing.T) {
	svc, _, rec := newTestService()
	c, err := svc.Create(context.Background(), actor(), translate(t, immunizationBody))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	body := `{
		"resourceType": "Immunization",
		"status": "completed",
		"vaccineCode": {"coding": [{"system": "http://hl7.org/fhir/sid/cvx", "code": "207"}]},
		"patient": {"reference": "Patient/1"},
		"occurrenceDateTime": "2021-03-29",
		"protocolApplied": [{
			"targetDisease": [{"coding": [{"system": "http://snomed.info/sct", "code": "840539006"}]}],
			"doseNumberPositiveInt": 2
		}]
	}`
	up, err := svc.Update(context.Background(), actor(), c.ID(), translate(t, body))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if deref(up.Value().DoseNumber) != "2" {
		t.Errorf("expected dose 2, got %v", up.Value().DoseNumber)
	}
	if len(rec.histories) != 2 || rec.histories[1].HistoryType != audit.HistoryVaccinationEdit {
		t.Fatalf("expected edit history, got %+v", rec.histories)
	}
}

func TestRoundTrip(t *testing.T) {
	date := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	orig := &Vaccine{
		ID: 4, PatientID: 1,
		GroupName: strp("COVID-19"), ProductName: strp("Janssen (J&J) COVID-19 Vaccine"),
		AdministrationDate: &date, DoseNumber: strp("Unknown"), Notes: strp("left arm"),
	}
	body, err := fhir.Marshal(ToFHIR(orig))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back := &Vaccine{}
	apply(back, translate(t, string(body)))
	want, got := display(orig), display(back)
	for attr := range want {
		if want[attr] != got[attr] {
			t.Errorf("%s: got %q, want %q", attr, got[attr], want[attr])
		}
	}
}

func strp(s string) *string { return &s }
