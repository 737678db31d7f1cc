package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/casemon/casemon/internal/platform/db"
)

// Recorder persists audit entries. Callers pass the ctx of the
// transaction that saves the audited change.
type Recorder interface {
	RecordHistory(ctx context.Context, h *History) error
	RecordTransfer(ctx context.Context, t *Transfer) error
}

type recorderPG struct{ pool *pgxpool.Pool }

func NewRecorderPG(pool *pgxpool.Pool) Recorder {
	return &recorderPG{pool: pool}
}

func (r *recorderPG) RecordHistory(ctx context.Context, h *History) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO histories (patient_id, created_by, history_type, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		h.PatientID, h.CreatedBy, h.HistoryType, h.Comment).Scan(&h.ID, &h.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

func (r *recorderPG) RecordTransfer(ctx context.Context, t *Transfer) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO transfers (patient_id, from_jurisdiction_id, to_jurisdiction_id, who_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		t.PatientID, t.FromJurisdictionID, t.ToJurisdictionID, t.WhoID).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}
