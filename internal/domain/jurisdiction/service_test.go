package jurisdiction

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/casemon/casemon/internal/platform/db"
)

// =========== Mock Repository ===========

type mockRepo struct {
	byID   map[int64]*Jurisdiction
	nextID int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{byID: make(map[int64]*Jurisdiction)}
}

func (m *mockRepo) GetByID(_ context.Context, id int64) (*Jurisdiction, error) {
	j, ok := m.byID[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return j, nil
}

func (m *mockRepo) GetByPath(_ context.Context, path string) (*Jurisdiction, error) {
	for _, j := range m.byID {
		if j.Path == path {
			return j, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *mockRepo) Descendants(_ context.Context, ancestry string) ([]int64, error) {
	var ids []int64
	for _, j := range m.byID {
		if j.Ancestry == nil {
			continue
		}
		if *j.Ancestry == ancestry || strings.HasPrefix(*j.Ancestry, ancestry+"/") {
			ids = append(ids, j.ID)
		}
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })
	return ids, nil
}

func (m *mockRepo) Create(_ context.Context, j *Jurisdiction) error {
	for _, existing := range m.byID {
		if existing.Path == j.Path {
			j.ID = existing.ID
			return nil
		}
	}
	m.nextID++
	j.ID = m.nextID
	cp := *j
	m.byID[j.ID] = &cp
	return nil
}

// =========== Helper ===========

const treeYAML = `
USA:
  State 1:
    County 1:
    County 2:
  State 2:
    County 3:
Canada:
`

// seeded builds ids USA=1, State 1=2, County 1=3, County 2=4, State 2=5,
// County 3=6, Canada=7.
func seeded(t *testing.T) (*mockRepo, *Service) {
	t.Helper()
	nodes, err := ParseTree(strings.NewReader(treeYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	repo := newMockRepo()
	n, err := Seed(context.Background(), repo, nodes)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if n != 7 {
		t.Fatalf("expected 7 jurisdictions, got %d", n)
	}
	return repo, NewService(repo)
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// =========== Tests ===========

func TestSeed_PathsAndAncestry(t *testing.T) {
	repo, _ := seeded(t)
	j, err := repo.GetByPath(context.Background(), "USA, State 1, County 2")
	if err != nil {
		t.Fatalf("expected County 2 by path: %v", err)
	}
	if j.Ancestry == nil || *j.Ancestry != "1/2" {
		t.Errorf("expected ancestry 1/2, got %v", j.Ancestry)
	}
	if j.RootID() != 1 {
		t.Errorf("expected root 1, got %d", j.RootID())
	}
}

func TestSubtree(t *testing.T) {
	_, svc := seeded(t)
	ctx := context.Background()

	tests := []struct {
		id   int64
		want []int64
	}{
		{1, []int64{1, 2, 3, 4, 5, 6}},
		{2, []int64{2, 3, 4}},
		{4, []int64{4}},
		{7, []int64{7}},
	}
	for _, tt := range tests {
		got, err := svc.Subtree(ctx, tt.id)
		if err != nil {
			t.Fatalf("Subtree(%d): %v", tt.id, err)
		}
		if !equalIDs(got, tt.want) {
			t.Errorf("Subtree(%d) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestSubtree_Unknown(t *testing.T) {
	_, svc := seeded(t)
	if _, err := svc.Subtree(context.Background(), 99); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTransferable_IsWholeHierarchy(t *testing.T) {
	_, svc := seeded(t)
	got, err := svc.Transferable(context.Background(), 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalIDs(got, []int64{1, 2, 3, 4, 5, 6}) {
		t.Errorf("Transferable(4) = %v", got)
	}
}

func TestByPath(t *testing.T) {
	_, svc := seeded(t)
	j, ok, err := svc.ByPath(context.Background(), "USA, State 2")
	if err != nil || !ok || j.ID != 5 {
		t.Fatalf("expected State 2, got %v %v %v", j, ok, err)
	}
	_, ok, err = svc.ByPath(context.Background(), "USA, State 9")
	if err != nil || ok {
		t.Fatalf("expected miss without error, got ok=%v err=%v", ok, err)
	}
}

func TestParseTree_Rejects(t *testing.T) {
	for _, doc := range []string{"- a\n- b\n", "USA: plain text\n"} {
		if _, err := ParseTree(strings.NewReader(doc)); err == nil {
			t.Errorf("expected error for %q", doc)
		}
	}
}

func TestParseTree_Empty(t *testing.T) {
	nodes, err := ParseTree(strings.NewReader(""))
	if err != nil || nodes != nil {
		t.Fatalf("expected no nodes, got %v %v", nodes, err)
	}
}
