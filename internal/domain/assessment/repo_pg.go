package assessment

import (
	"context"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
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

const cols = `d.id, d.patient_id, d.symptomatic, d.who_reported, d.symptoms, d.created_at, d.updated_at`

func scan(row pgx.Row) (*Assessment, error) {
	var a Assessment
	var symptoms []byte
	err := row.Scan(&a.ID, &a.PatientID, &a.Symptomatic, &a.WhoReported, &symptoms, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(symptoms) > 0 {
		if err := json.Unmarshal(symptoms, &a.Symptoms); err != nil {
			return nil, fmt.Errorf("decode symptoms of assessment %d: %w", a.ID, err)
		}
	}
	return &a, nil
}

func (r *repoPG) Get(ctx context.Context, scope auth.PatientScope, id int64) (*Assessment, error) {
	var w db.Where
	monitoree.ApplyDependentFilter(&w, scope, fhir.DependentFilter{ID: &id})
	return scan(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+cols+` FROM assessments d`+monitoree.DependentJoin+w.SQL(), w.Args()...))
}

func (r *repoPG) Search(ctx context.Context, scope auth.PatientScope, f fhir.DependentFilter, limit, offset int) ([]*Assessment, int, error) {
	var w db.Where
	monitoree.ApplyDependentFilter(&w, scope, f)

	var total int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM assessments d`+monitoree.DependentJoin+w.SQL(), w.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count assessments: %w", err)
	}
	if limit == 0 || total == 0 {
		return nil, total, nil
	}
	page, args := w.Page(limit, offset)
	items, err := r.list(ctx, `SELECT `+cols+` FROM assessments d`+monitoree.DependentJoin+w.SQL()+` ORDER BY d.id`+page, args...)
	return items, total, err
}

func (r *repoPG) ForPatient(ctx context.Context, patientID int64) ([]*Assessment, error) {
	return r.list(ctx, `SELECT `+cols+` FROM assessments d WHERE d.patient_id = $1 ORDER BY d.id`, patientID)
}

func (r *repoPG) list(ctx context.Context, sql string, args ...interface{}) ([]*Assessment, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query assessments: %w", err)
	}
	defer rows.Close()
	var items []*Assessment
	for rows.Next() {
		a, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
