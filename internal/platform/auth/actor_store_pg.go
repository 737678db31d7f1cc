package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/casemon/casemon/internal/platform/db"
)

type actorStorePG struct{ pool *pgxpool.Pool }

func NewActorStorePG(pool *pgxpool.Pool) ActorStore {
	return &actorStorePG{pool: pool}
}

func (s *actorStorePG) UserByID(ctx context.Context, id int64) (*User, error) {
	u := &User{}
	var role string
	err := db.Conn(ctx, s.pool).QueryRow(ctx,
		`SELECT id, email, role, jurisdiction_id, api_enabled, locked_at IS NOT NULL
		 FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Email, &role, &u.JurisdictionID, &u.APIEnabled, &u.Locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %d not found", ErrUnauthorized, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", id, err)
	}
	u.Role = Role(role)
	return u, nil
}

func (s *actorStorePG) ApplicationByUID(ctx context.Context, uid string) (*Application, error) {
	a := &Application{}
	err := db.Conn(ctx, s.pool).QueryRow(ctx,
		`SELECT a.id, a.uid, a.name, a.jurisdiction_id, u.id
		 FROM oauth_applications a
		 LEFT JOIN users u ON u.id = a.user_id AND u.is_api_proxy
		 WHERE a.uid = $1`, uid).
		Scan(&a.ID, &a.UID, &a.Name, &a.JurisdictionID, &a.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: application %q not found", ErrUnauthorized, uid)
	}
	if err != nil {
		return nil, fmt.Errorf("load application %q: %w", uid, err)
	}
	return a, nil
}
