package closecontact

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

const cols = `d.id, d.patient_id, d.first_name, d.last_name, d.primary_telephone, d.email,
	d.contact_attempts, d.notes, d.enrolled_id, d.created_at, d.updated_at`

func scan(row pgx.Row) (*CloseContact, error) {
	var c CloseContact
	err := row.Scan(&c.ID, &c.PatientID, &c.FirstName, &c.LastName, &c.PrimaryTelephone, &c.Email,
		&c.ContactAttempts, &c.Notes, &c.EnrolledID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	return &c, err
}

func (r *repoPG) Get(ctx context.Context, scope auth.PatientScope, id int64) (*CloseContact, error) {
	var w db.Where
	monitoree.ApplyDependentFilter(&w, scope, fhir.DependentFilter{ID: &id})
	return scan(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+cols+` FROM close_contacts d`+monitoree.DependentJoin+w.SQL(), w.Args()...))
}

func (r *repoPG) Search(ctx context.Context, scope auth.PatientScope, f fhir.DependentFilter, limit, offset int) ([]*CloseContact, int, error) {
	var w db.Where
	monitoree.ApplyDependentFilter(&w, scope, f)
	conn := db.Conn(ctx, r.pool)

	var total int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM close_contacts d`+monitoree.DependentJoin+w.SQL(), w.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count close contacts: %w", err)
	}
	if limit == 0 || total == 0 {
		return nil, total, nil
	}
	page, args := w.Page(limit, offset)
	rows, err := conn.Query(ctx, `SELECT `+cols+` FROM close_contacts d`+monitoree.DependentJoin+w.SQL()+` ORDER BY d.id`+page, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search close contacts: %w", err)
	}
	defer rows.Close()
	var items []*CloseContact
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ForPatient(ctx context.Context, patientID int64) ([]*CloseContact, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `SELECT `+cols+` FROM close_contacts d WHERE d.patient_id = $1 ORDER BY d.id`, patientID)
	if err != nil {
		return nil, fmt.Errorf("list close contacts: %w", err)
	}
	defer rows.Close()
	var items []*CloseContact
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *repoPG) Create(ctx context.Context, c *CloseContact) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO close_contacts (patient_id, first_name, last_name, primary_telephone, email, contact_attempts, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at, updated_at`,
		c.PatientID, c.FirstName, c.LastName, c.PrimaryTelephone, c.Email, c.ContactAttempts, c.Notes,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert close contact: %w", err)
	}
	return nil
}

func (r *repoPG) Update(ctx context.Context, c *CloseContact) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE close_contacts SET patient_id=$2, first_name=$3, last_name=$4, primary_telephone=$5,
			email=$6, contact_attempts=$7, notes=$8, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		c.ID, c.PatientID, c.FirstName, c.LastName, c.PrimaryTelephone, c.Email, c.ContactAttempts, c.Notes,
	).Scan(&c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return db.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update close contact: %w", err)
	}
	return nil
}
