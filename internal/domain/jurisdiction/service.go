package jurisdiction

import (
	"context"
	"errors"
	"fmt"

	"github.com/casemon/casemon/internal/platform/db"
)

// Service answers the hierarchy questions asked by authorization and
// monitoree enrollment.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Subtree returns id followed by every descendant id.
func (s *Service) Subtree(ctx context.Context, id int64) ([]int64, error) {
	j, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("jurisdiction %d: %w", id, err)
	}
	desc, err := s.repo.Descendants(ctx, j.ChildAncestry())
	if err != nil {
		return nil, err
	}
	return append([]int64{j.ID}, desc...), nil
}

// Transferable returns the jurisdictions a monitoree may be moved into by
// an actor in jurisdiction id: the whole hierarchy under id's root.
func (s *Service) Transferable(ctx context.Context, id int64) ([]int64, error) {
	j, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("jurisdiction %d: %w", id, err)
	}
	return s.Subtree(ctx, j.RootID())
}

// ByPath resolves a full jurisdiction path. ok is false when no
// jurisdiction has that path.
func (s *Service) ByPath(ctx context.Context, path string) (*Jurisdiction, bool, error) {
	j, err := s.repo.GetByPath(ctx, path)
	if errors.Is(err, db.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return j, true, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Jurisdiction, error) {
	return s.repo.GetByID(ctx, id)
}
