package laboratory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/casemon/casemon/internal/domain/monitoree"
	"github.com/casemon/casemon/internal/platform/auth"
	"github.com/casemon/casemon/internal/platform/db"
	"github.com/casemon/casemon/internal/platform/fhir"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const cols = `d.id, d.patient_id, d.lab_type, d.specimen_collection, d.report, d.result,
	d.created_at, d.updated_at`

func scan(row pgx.Row) (*Laboratory, error) {
	var l Laboratory
	err := row.Scan(&l.ID, &l.PatientID, &l.LabType, &l.SpecimenCollection, &l.Report, &l.Result,
		&l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	return &l, err
}

func (r *repoPG) Get(ctx context.Context, scope auth.PatientScope, id int64) (*Laboratory, error) {
	var w db.Where
	monitoree.ApplyDependentFilter(&w, scope, fhir.DependentFilter{ID: &id})
	return scan(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+cols+` FROM laboratories d`+monitoree.DependentJoin+w.SQL(), w.Args()...))
}

func (r *repoPG) Search(ctx context.Context, scope auth.PatientScope, f fhir.DependentFilter, limit, offset int) ([]*Laboratory, int, error) {
	var w db.Where
	monitoree.ApplyDependentFilter(&w, scope, f)
	conn := db.Conn(ctx, r.pool)

	var total int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM laboratories d`+monitoree.DependentJoin+w.SQL(), w.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count laboratories: %w", err)
	}
	if limit == 0 || total == 0 {
		return nil, total, nil
	}
	page, args := w.Page(limit, offset)
	items, err := r.list(ctx, `SELECT `+cols+` FROM laboratories d`+monitoree.DependentJoin+w.SQL()+` ORDER BY d.id`+page, args...)
	return items, total, err
}

func (r *repoPG) ForPatient(ctx context.Context, patientID int64) ([]*Laboratory, error) {
	return r.list(ctx, `SELECT `+cols+` FROM laboratories d WHERE d.patient_id = $1 ORDER BY d.id`, patientID)
}

func (r *repoPG) list(ctx context.Context, sql string, args ...interface{}) ([]*Laboratory, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query laboratories: %w", err)
	}
	defer rows.Close()
	var items []*Laboratory
	for rows.Next() {
		l, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}
