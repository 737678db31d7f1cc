package jurisdiction

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/casemon/casemon/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const cols = `id, name, path, ancestry, created_at`

func scan(row pgx.Row) (*Jurisdiction, error) {
	var j Jurisdiction
	if err := row.Scan(&j.ID, &j.Name, &j.Path, &j.Ancestry, &j.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, err
	}
	return &j, nil
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Jurisdiction, error) {
	return scan(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+cols+` FROM jurisdictions WHERE id = $1`, id))
}

func (r *repoPG) GetByPath(ctx context.Context, path string) (*Jurisdiction, error) {
	return scan(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+cols+` FROM jurisdictions WHERE path = $1`, path))
}

func (r *repoPG) Descendants(ctx context.Context, ancestry string) ([]int64, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT id FROM jurisdictions
		WHERE ancestry = $1 OR ancestry LIKE $1 || '/%'
		ORDER BY id`, ancestry)
	if err != nil {
		return nil, fmt.Errorf("query descendants: %w", err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *repoPG) Create(ctx context.Context, j *Jurisdiction) error {
	return db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO jurisdictions (name, path, ancestry)
		VALUES ($1, $2, $3)
		ON CONFLICT (path) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, created_at`,
		j.Name, j.Path, j.Ancestry).Scan(&j.ID, &j.CreatedAt)
}
