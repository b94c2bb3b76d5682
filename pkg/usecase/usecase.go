package usecase

import (
	"github.com/wardops-lab/lifeline/pkg/domain/interfaces"
	"github.com/wardops-lab/lifeline/pkg/engine"
)

// UseCases glues authorization to the repository and the escalation engine.
// It owns no state of its own; every decision is either a policy check on the
// principal or a delegation.
type UseCases struct {
	repo   interfaces.Repository
	engine *engine.Engine
}

var _ interfaces.AlertUsecases = (*UseCases)(nil)
var _ interfaces.RosterUsecases = (*UseCases)(nil)

func New(repo interfaces.Repository, eng *engine.Engine) *UseCases {
	return &UseCases{
		repo:   repo,
		engine: eng,
	}
}
