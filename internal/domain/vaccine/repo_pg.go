package vaccine

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

const cols = `d.id, d.patient_id, d.group_name, d.product_name, d.administration_date,
	d.dose_number, d.notes, d.created_at, d.updated_at`

func scan(row pgx.Row) (*Vaccine, error) {
	var v Vaccine
	err := row.Scan(&v.ID, &v.PatientID, &v.GroupName, &v.ProductName, &v.AdministrationDate,
		&v.DoseNumber, &v.Notes, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	return &v, err
}

func (r *repoPG) Get(ctx context.Context, scope auth.PatientScope, id int64) (*Vaccine, error) {
	var w db.Where
	monitoree.ApplyDependentFilter(&w, scope, fhir.DependentFilter{ID: &id})
	return scan(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+cols+` FROM vaccines d`+monitoree.DependentJoin+w.SQL(), w.Args()...))
}

func (r *repoPG) Search(ctx context.Context, scope auth.PatientScope, f fhir.DependentFilter, limit, offset int) ([]*Vaccine, int, error) {
	var w db.Where
	monitoree.ApplyDependentFilter(&w, scope, f)
	conn := db.Conn(ctx, r.pool)

	var total int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM vaccines d`+monitoree.DependentJoin+w.SQL(), w.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count vaccines: %w", err)
	}
	if limit == 0 || total == 0 {
		return nil, total, nil
	}
	page, args := w.Page(limit, offset)
	rows, err := conn.Query(ctx, `SELECT `+cols+` FROM vaccines d`+monitoree.DependentJoin+w.SQL()+` ORDER BY d.id`+page, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search vaccines: %w", err)
	}
	defer rows.Close()
	var items []*Vaccine
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, v)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ForPatient(ctx context.Context, patientID int64) ([]*Vaccine, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `SELECT `+cols+` FROM vaccines d WHERE d.patient_id = $1 ORDER BY d.id`, patientID)
	if err != nil {
		return nil, fmt.Errorf("list vaccines: %w", err)
	}
	defer rows.Close()
	var items []*Vaccine
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *repoPG) Create(ctx context.Context, v *Vaccine) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO vaccines (patient_id, group_name, product_name, administration_date, dose_number, notes)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at, updated_at`,
		v.PatientID, v.GroupName, v.ProductName, v.AdministrationDate, v.DoseNumber, v.Notes,
	).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert vaccine: %w", err)
	}
	return nil
}

func (r *repoPG) Update(ctx context.Context, v *Vaccine) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE vaccines SET patient_id=$2, group_name=$3, product_name=$4, administration_date=$5,
			dose_number=$6, notes=$7, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		v.ID, v.PatientID, v.GroupName, v.ProductName, v.AdministrationDate, v.DoseNumber, v.Notes,
	).Scan(&v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return db.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update vaccine: %w", err)
	}
	return nil
}
