package db

import (
	"context"
	"errors"
	"testing"
)

type record struct{ id int64 }

func (r *record) Identifier() int64 { return r.id }

// inlineTx runs fn directly and records whether it failed.
type inlineTx struct{ rolledBack bool }

func (t *inlineTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	t.rolledBack = err != nil
	return err
}

func TestCommit_ReturnsRecord(t *testing.T) {
	tr := &inlineTx{}
	got, err := Commit(context.Background(), tr, func(ctx context.Context) (*record, error) {
		return &record{id: 42}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID() != 42 || got.Value().id != 42 {
		t.Errorf("expected committed id 42, got %d", got.ID())
	}
}

func TestCommit_MissingIdentifierRollsBack(t *testing.T) {
	tr := &inlineTx{}
	_, err := Commit(context.Background(), tr, func(ctx context.Context) (*record, error) {
		return &record{}, nil
	})
	if !errors.Is(err, ErrNoIdentifier) {
		t.Fatalf("expected ErrNoIdentifier, got %v", err)
	}
	if !tr.rolledBack {
		t.Error("expected transaction to be rolled back")
	}
}

func TestCommit_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	tr := &inlineTx{}
	_, err := Commit(context.Background(), tr, func(ctx context.Context) (*record, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestTxFromContext_Empty(t *testing.T) {
	if tx := TxFromContext(context.Background()); tx != nil {
		t.Error("expected no transaction in empty context")
	}
}
