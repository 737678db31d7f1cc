package closecontact

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

// mockRepo treats patients listed in visible as the scope.
type mockRepo struct {
	store   map[int64]*CloseContact
	nextID  int64
	visible map[int64]bool
}

func newMockRepo(visible ...int64) *mockRepo {
	m := &mockRepo{store: make(map[int64]*CloseContact), visible: make(map[int64]bool)}
	for _, id := range visible {
		m.visible[id] = true
	}
	return m
}

func (m *mockRepo) Get(_ context.Context, _ auth.PatientScope, id int64) (*CloseContact, error) {
	c, ok := m.store[id]
	if !ok || !m.visible[c.PatientID] {
		return nil, db.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockRepo) Search(_ context.Context, _ auth.PatientScope, f fhir.DependentFilter, limit, offset int) ([]*CloseContact, int, error) {
	var out []*CloseContact
	for id := int64(1); id <= m.nextID; id++ {
		c, ok := m.store[id]
		if !ok || !m.visible[c.PatientID] || f.Impossible {
			continue
		}
		if f.PatientID != nil && c.PatientID != *f.PatientID {
			continue
		}
		out = append(out, c)
	}
	return out, len(out), nil
}

func (m *mockRepo) ForPatient(_ context.Context, patientID int64) ([]*CloseContact, error) {
	var out []*CloseContact
	for id := int64(1); id <= m.nextID; id++ {
		if item, ok := m.store[id]; ok && item.PatientID == patientID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *mockRepo) Create(_ context.Context, c *CloseContact) error {
	m.nextID++
	c.ID = m.nextID
	c.UpdatedAt = time.Now()
	cp := *c
	m.store[c.ID] = &cp
	return nil
}

func (m *mockRepo) Update(_ context.Context, c *CloseContact) error {
	if _, ok := m.store[c.ID]; !ok {
		return db.ErrNotFound
	}
	cp := *c
	m.store[c.ID] = &cp
	return nil
}

type mockAccess struct {
	visible map[int64]bool
	err     error
}

func (m mockAccess) Accessible(_ context.Context, _ *auth.Actor, id int64) (bool, error) {
	return m.visible[id], m.err
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

func newTestService(visible ...int64) (*Service, *mockRepo, *mockRecorder) {
	repo := newMockRepo(visible...)
	access := mockAccess{visible: repo.visible}
	rec := &mockRecorder{}
	return NewService(repo, access, rec, inlineTx{}), repo, rec
}

func actor() *auth.Actor {
	return &auth.Actor{Kind: auth.ActorUser, UserID: 4, Role: auth.RoleContactTracer, Label: "tracer@example.org", Subtree: []int64{1}}
}

func fields(t *testing.T, body string) fhir.FieldMap {
	t.Helper()
	rp, err := fhir.ParseRelatedPerson([]byte(body))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return Translate(rp)
}

const contactBody = `{
	"resourceType": "RelatedPerson",
	"patient": {"reference": "Patient/1"},
	"name": [{"family": "Doe", "given": ["Sam"]}],
	"telecom": [{"system": "phone", "value": "650-253-0000"}]
}`

// =========== Tests ===========

func TestCreate_Success(t *testing.T) {
	svc, _, rec := newTestService(1)
	c, err := svc.Create(context.Background(), actor(), fields(t, contactBody))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Value().PatientID != 1 || deref(c.Value().PrimaryTelephone) != "+16502530000" {
		t.Errorf("unexpected contact %+v", c.Value())
	}
	if len(rec.histories) != 1 || rec.histories[0].PatientID != 1 || rec.histories[0].HistoryType != audit.HistoryContact {
		t.Errorf("unexpected histories %+v", rec.histories)
	}
}

func TestCreate_InaccessiblePatient(t *testing.T) {
	svc, repo, _ := newTestService(2)
	_, err := svc.Create(context.Background(), actor(), fields(t, contactBody))
	var verr *fhir.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if got := verr.Errors["patient_id"]; len(got) != 1 || got[0] != monitoree.InaccessiblePatient {
		t.Errorf("unexpected errors %v", verr.Errors)
	}
	if len(repo.store) != 0 {
		t.Error("expected no write")
	}
}

func TestCreate_NonPatientReference(t *testing.T) {
	svc, _, _ := newTestService(1)
	body := `{"resourceType": "RelatedPerson", "patient": {"reference": "Group/1"}}`
	_, err := svc.Create(context.Background(), actor(), fields(t, body))
	var verr *fhir.ValidationError
	if !errors.As(err, &verr) || len(verr.Errors["patient_id"]) != 1 {
		t.Fatalf("expected patient_id error, got %v", err)
	}
	if verr.Fields["patient_id"].Raw != "Group/1" {
		t.Errorf("expected raw reference to be kept, got %q", verr.Fields["patient_id"].Raw)
	}
}

func TestUpdate_RecordsChanges(t *testing.T) {
	svc, _, rec := newTestService(1)
	c, err := svc.Create(context.Background(), actor(), fields(t, contactBody))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	body := `{
		"resourceType": "RelatedPerson",
		"patient": {"reference": "Patient/1"},
		"name": [{"family": "Doe", "given": ["Samantha"]}],
		"extension": [{"url": "` + ExtContactAttempts + `", "valueInteger": 2}]
	}`
	up, err := svc.Update(context.Background(), actor(), c.ID(), fields(t, body))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if up.Value().ContactAttempts != 2 || up.Value().PrimaryTelephone != nil {
		t.Errorf("expected full replace, got %+v", up.Value())
	}
	if len(rec.histories) != 2 || rec.histories[1].HistoryType != audit.HistoryContactEdit {
		t.Fatalf("expected edit history, got %+v", rec.histories)
	}
}

func TestUpdate_NotVisible(t *testing.T) {
	svc, repo, _ := newTestService(1)
	repo.store[5] = &CloseContact{ID: 5, PatientID: 9}
	if _, err := svc.Update(context.Background(), actor(), 5, fields(t, contactBody)); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	notes := "called twice"
	orig := &CloseContact{ID: 3, PatientID: 1, FirstName: strp("Sam"), LastName: strp("Doe"),
		PrimaryTelephone: strp("+16502530000"), Email: strp("sam@example.org"), ContactAttempts: 2, Notes: &notes}
	body, err := fhir.Marshal(ToFHIR(orig))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back := &CloseContact{}
	apply(back, fields(t, string(body)))
	want, got := display(orig), display(back)
	for attr := range want {
		if want[attr] != got[attr] {
			t.Errorf("%s: got %q, want %q", attr, got[attr], want[attr])
		}
	}
}

func strp(s string) *string { return &s }
