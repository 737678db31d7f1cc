package laboratory

import (
	"context"

	"github.com/casemon/casemon/internal/platform/auth"
	"github.com/casemon/casemon/internal/platform/fhir"
)

// Service exposes lab results read-only.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, actor *auth.Actor, id int64) (*Laboratory, error) {
	return s.repo.Get(ctx, actor.PatientScope(), id)
}

func (s *Service) Search(ctx context.Context, actor *auth.Actor, f fhir.DependentFilter, limit, offset int) ([]*Laboratory, int, error) {
	return s.repo.Search(ctx, actor.PatientScope(), f, limit, offset)
}

func (s *Service) ForPatient(ctx context.Context, patientID int64) ([]*Laboratory, error) {
	return s.repo.ForPatient(ctx, patientID)
}
