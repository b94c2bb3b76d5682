package interfaces

import (
	"context"

	"github.com/wardops-lab/lifeline/pkg/domain/model/alert"
	"github.com/wardops-lab/lifeline/pkg/domain/model/auth"
	"github.com/wardops-lab/lifeline/pkg/domain/model/staff"
	"github.com/wardops-lab/lifeline/pkg/domain/types"
)

// AlertUsecases is the lifecycle API consumed by the HTTP controller. Every
// operation authorizes the principal before delegating, and returns the
// definitive current alert state on success.
type AlertUsecases interface {
	CreateAlert(ctx context.Context, p *auth.Principal, input alert.CreateInput) (*alert.Alert, error)
	AcknowledgeAlert(ctx context.Context, p *auth.Principal, alertID types.AlertID, note string) (*alert.Alert, error)
	ResolveAlert(ctx context.Context, p *auth.Principal, alertID types.AlertID, outcome types.ResolveOutcome) (*alert.Alert, error)
	EscalateAlert(ctx context.Context, p *auth.Principal, alertID types.AlertID) (*alert.Alert, error)

	GetAlert(ctx context.Context, p *auth.Principal, alertID types.AlertID) (*alert.Alert, error)
	ListActiveAlerts(ctx context.Context, p *auth.Principal) (alert.Alerts, error)
	ListEscalationEvents(ctx context.Context, p *auth.Principal, alertID types.AlertID) ([]alert.EscalationEvent, error)
}

// RosterUsecases manages duty status for recipient resolution.
type RosterUsecases interface {
	SetStaffDuty(ctx context.Context, p *auth.Principal, id types.UserID, onDuty bool) (*staff.Staff, error)
}
