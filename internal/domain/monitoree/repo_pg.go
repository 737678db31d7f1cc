package monitoree

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/casemon/casemon/internal/platform/auth"
	"github.com/casemon/casemon/internal/platform/db"
	"github.com/casemon/casemon/internal/platform/fhir"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const patientCols = `p.id, p.first_name, p.middle_name, p.last_name, p.date_of_birth, p.sex,
	p.primary_telephone, p.secondary_telephone, p.email, p.preferred_contact_method,
	p.address_line_1, p.address_line_2, p.address_city, p.address_state, p.address_zip,
	p.address_county, p.primary_language, p.user_defined_id_statelocal,
	p.monitoring, p.isolation, p.last_date_of_exposure, p.symptom_onset,
	p.jurisdiction_id, j.path, p.creator_id, p.responder_id, p.purged, p.lock_version,
	p.created_at, p.updated_at`

const patientFrom = ` FROM patients p JOIN jurisdictions j ON j.id = p.jurisdiction_id`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.FirstName, &p.MiddleName, &p.LastName, &p.DateOfBirth, &p.Sex,
		&p.PrimaryTelephone, &p.SecondaryTelephone, &p.Email, &p.PreferredContactMethod,
		&p.AddressLine1, &p.AddressLine2, &p.AddressCity, &p.AddressState, &p.AddressZip,
		&p.AddressCounty, &p.PrimaryLanguage, &p.UserDefinedIDStatelocal,
		&p.Monitoring, &p.Isolation, &p.LastDateOfExposure, &p.SymptomOnset,
		&p.JurisdictionID, &p.JurisdictionPath, &p.CreatorID, &p.ResponderID, &p.Purged, &p.LockVersion,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	return &p, err
}

func (r *repoPG) Get(ctx context.Context, scope auth.PatientScope, id int64) (*Patient, error) {
	var w db.Where
	w.Add("p.id = $%d", id)
	ApplyScope(&w, scope)
	return scanPatient(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+patientCols+patientFrom+w.SQL(), w.Args()...))
}

func (r *repoPG) Accessible(ctx context.Context, scope auth.PatientScope, id int64) (bool, error) {
	var w db.Where
	w.Add("p.id = $%d", id)
	ApplyScope(&w, scope)
	var ok bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM patients p`+w.SQL()+`)`, w.Args()...).Scan(&ok)
	return ok, err
}

func (r *repoPG) Search(ctx context.Context, scope auth.PatientScope, sp SearchParams, limit, offset int) ([]*Patient, int, error) {
	var w db.Where
	ApplyScope(&w, scope)
	if sp.Impossible {
		w.Never()
	}
	if sp.Family != "" {
		w.Add("p.last_name ILIKE $%d", fhir.LikePattern(sp.Family))
	}
	if sp.Given != "" {
		w.Add("p.first_name ILIKE $%d", fhir.LikePattern(sp.Given))
	}
	if sp.Telecom != "" {
		pattern := fhir.LikePattern(sp.Telecom)
		w.Add("(p.primary_telephone ILIKE $%d OR p.secondary_telephone ILIKE $%d)", pattern, pattern)
	}
	if sp.Email != "" {
		w.Add("p.email ILIKE $%d", fhir.LikePattern(sp.Email))
	}
	if sp.ID != nil {
		w.Add("p.id = $%d", *sp.ID)
	}
	if sp.Active != nil {
		w.Add("p.monitoring = $%d", *sp.Active)
	}

	conn := db.Conn(ctx, r.pool)
	var total int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM patients p`+w.SQL(), w.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}
	if limit == 0 || total == 0 {
		return nil, total, nil
	}

	page, args := w.Page(limit, offset)
	rows, err := conn.Query(ctx, `SELECT `+patientCols+patientFrom+w.SQL()+` ORDER BY p.id`+page, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search patients: %w", err)
	}
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	conn := db.Conn(ctx, r.pool)
	err := conn.QueryRow(ctx, `
		INSERT INTO patients (first_name, middle_name, last_name, date_of_birth, sex,
			primary_telephone, secondary_telephone, email, preferred_contact_method,
			address_line_1, address_line_2, address_city, address_state, address_zip,
			address_county, primary_language, user_defined_id_statelocal,
			monitoring, isolation, last_date_of_exposure, symptom_onset,
			jurisdiction_id, creator_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)
		RETURNING id, lock_version, created_at, updated_at`,
		p.FirstName, p.MiddleName, p.LastName, p.DateOfBirth, p.Sex,
		p.PrimaryTelephone, p.SecondaryTelephone, p.Email, p.PreferredContactMethod,
		p.AddressLine1, p.AddressLine2, p.AddressCity, p.AddressState, p.AddressZip,
		p.AddressCounty, p.PrimaryLanguage, p.UserDefinedIDStatelocal,
		p.Monitoring, p.Isolation, p.LastDateOfExposure, p.SymptomOnset,
		p.JurisdictionID, p.CreatorID,
	).Scan(&p.ID, &p.LockVersion, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	if _, err := conn.Exec(ctx, `UPDATE patients SET responder_id = id WHERE id = $1`, p.ID); err != nil {
		return fmt.Errorf("set responder: %w", err)
	}
	p.ResponderID = &p.ID
	return nil
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE patients SET first_name=$3, middle_name=$4, last_name=$5, date_of_birth=$6, sex=$7,
			primary_telephone=$8, secondary_telephone=$9, email=$10, preferred_contact_method=$11,
			address_line_1=$12, address_line_2=$13, address_city=$14, address_state=$15, address_zip=$16,
			address_county=$17, primary_language=$18, user_defined_id_statelocal=$19,
			monitoring=$20, isolation=$21, last_date_of_exposure=$22, symptom_onset=$23,
			jurisdiction_id=$24, lock_version = lock_version + 1, updated_at = NOW()
		WHERE id = $1 AND lock_version = $2
		RETURNING lock_version, updated_at`,
		p.ID, p.LockVersion,
		p.FirstName, p.MiddleName, p.LastName, p.DateOfBirth, p.Sex,
		p.PrimaryTelephone, p.SecondaryTelephone, p.Email, p.PreferredContactMethod,
		p.AddressLine1, p.AddressLine2, p.AddressCity, p.AddressState, p.AddressZip,
		p.AddressCounty, p.PrimaryLanguage, p.UserDefinedIDStatelocal,
		p.Monitoring, p.Isolation, p.LastDateOfExposure, p.SymptomOnset,
		p.JurisdictionID,
	).Scan(&p.LockVersion, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return db.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("update patient: %w", err)
	}
	return nil
}
