package staff

import (
	"time"

	"github.com/wardops-lab/lifeline/pkg/domain/types"
)

// Staff is a roster entry. Duty status is the only mutable field; recipient
// resolution only ever sees on-duty staff.
type Staff struct {
	ID         types.UserID     `json:"id"`
	Name       string           `json:"name"`
	Role       types.Role       `json:"role"`
	HospitalID types.HospitalID `json:"hospital_id"`
	OnDuty     bool             `json:"on_duty"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

type Members []*Staff

// IDs returns the principal ids of the members, preserving order.
func (x Members) IDs() []types.UserID {
	ids := make([]types.UserID, len(x))
	for i, s := range x {
		ids[i] = s.ID
	}
	return ids
}
