package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned by repositories when a row does not exist or
	// lies outside the caller's visible set.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when an optimistic lock check fails.
	ErrConflict = errors.New("record was modified concurrently")
	// ErrNoIdentifier is returned by Commit when the unit of work finished
	// without producing a persisted record.
	ErrNoIdentifier = errors.New("transaction produced no identifier")
)

// Queryable is the subset of pgx shared by pools, connections and transactions.
type Queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type txKey struct{}

// TxFromContext returns the transaction bound to ctx, if any.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey{}).(pgx.Tx)
	return tx
}

// WithTx binds tx to ctx so repositories join it.
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// Conn picks the transaction in ctx or falls back to the pool.
func Conn(ctx context.Context, pool *pgxpool.Pool) Queryable {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

// Transactor runs fn inside a single database transaction. Repositories
// called with the ctx passed to fn join that transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type pgTransactor struct{ pool *pgxpool.Pool }

func NewTransactor(pool *pgxpool.Pool) Transactor {
	return &pgTransactor{pool: pool}
}

func (t *pgTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if TxFromContext(ctx) != nil {
		return fn(ctx)
	}
	tx, err := t.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(WithTx(ctx, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Identified is implemented by records that receive a database id on save.
type Identified interface {
	Identifier() int64
}

// Committed holds a record that was saved by a transaction that committed.
// It can only be produced by Commit.
type Committed[T Identified] struct {
	value T
}

func (c Committed[T]) Value() T { return c.value }

func (c Committed[T]) ID() int64 { return c.value.Identifier() }

// Commit runs fn in a transaction and returns its record only if the
// transaction committed and the record carries an id. A record without an
// id aborts the transaction before commit.
func Commit[T Identified](ctx context.Context, tr Transactor, fn func(ctx context.Context) (T, error)) (Committed[T], error) {
	var out T
	err := tr.WithinTx(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		if v.Identifier() == 0 {
			return ErrNoIdentifier
		}
		out = v
		return nil
	})
	if err != nil {
		return Committed[T]{}, err
	}
	return Committed[T]{value: out}, nil
}
