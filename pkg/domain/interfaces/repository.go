package interfaces

import (
	"context"

	"github.com/wardops-lab/lifeline/pkg/domain/model/alert"
	"github.com/wardops-lab/lifeline/pkg/domain/model/staff"
	"github.com/wardops-lab/lifeline/pkg/domain/types"
)

// Repository is the single source of truth for alerts, their escalation
// audit trail, and the staff roster. The engine's in-memory timer map is a
// derived cache over this state.
type Repository interface {
	CreateAlert(ctx context.Context, a alert.Alert) error
	GetAlert(ctx context.Context, alertID types.AlertID) (*alert.Alert, error)

	// GetActiveAlerts returns all active alerts for a hospital. The zero
	// hospital ID returns active alerts across all hospitals, which recovery
	// uses to re-arm timers after a restart.
	GetActiveAlerts(ctx context.Context, hospitalID types.HospitalID) (alert.Alerts, error)

	// TransitionIfTier atomically applies tr when the alert satisfies
	// expect, and returns the updated alert. A precondition mismatch yields
	// an error tagged errs.TagConflict carrying the alert's current tier and
	// status; a missing alert yields errs.TagNotFound. This is the only
	// mutation path for alert lifecycle state, and the mechanism that
	// serializes transitions per alert regardless of process topology.
	TransitionIfTier(ctx context.Context, alertID types.AlertID, expect alert.Expect, tr alert.Transition) (*alert.Alert, error)

	AppendEscalationEvent(ctx context.Context, ev alert.EscalationEvent) error
	ListEscalationEvents(ctx context.Context, alertID types.AlertID) ([]alert.EscalationEvent, error)

	// Roster management for recipient resolution.
	PutStaff(ctx context.Context, s staff.Staff) error
	GetStaff(ctx context.Context, id types.UserID) (*staff.Staff, error)
	ListOnDutyStaff(ctx context.Context, hospitalID types.HospitalID, roles []types.Role) (staff.Members, error)
	SetStaffDuty(ctx context.Context, id types.UserID, onDuty bool) (*staff.Staff, error)
}
