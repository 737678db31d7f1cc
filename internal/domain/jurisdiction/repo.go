package jurisdiction

import "context"

// Repository reads and seeds the jurisdiction tree. Lookups that find
// nothing return db.ErrNotFound.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Jurisdiction, error)
	GetByPath(ctx context.Context, path string) (*Jurisdiction, error)
	// Descendants returns the ids of jurisdictions whose ancestry lies
	// under ancestry, excluding the node itself.
	Descendants(ctx context.Context, ancestry string) ([]int64, error)
	Create(ctx context.Context, j *Jurisdiction) error
}
