package interfaces

import (
	"context"

	"github.com/wardops-lab/lifeline/pkg/domain/model/staff"
	"github.com/wardops-lab/lifeline/pkg/domain/types"
)

// RecipientResolver maps (hospital, tier) to the on-duty staff who should be
// notified at that tier. An empty result is not an error: escalation
// proceeds and the gap is logged as a staffing warning.
type RecipientResolver interface {
	Resolve(ctx context.Context, hospitalID types.HospitalID, tier int) (staff.Members, error)
}
