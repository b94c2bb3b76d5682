package alert

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/wardops-lab/lifeline/pkg/domain/model/errs"
	"github.com/wardops-lab/lifeline/pkg/domain/types"
	"github.com/wardops-lab/lifeline/pkg/utils/clock"
)

// Alert is an emergency raised by an operator for a room. All fields other
// than the lifecycle ones (Status, CurrentTier, acknowledgment/resolution
// fields, LastTransitionAt) are immutable after creation.
type Alert struct {
	ID          types.AlertID     `json:"id"`
	HospitalID  types.HospitalID  `json:"hospital_id"`
	RoomNumber  string            `json:"room_number"`
	Type        types.AlertType   `json:"type"`
	Urgency     types.Urgency     `json:"urgency"`
	Description string            `json:"description,omitempty"`
	Status      types.AlertStatus `json:"status"`

	// CurrentTier only increases while the alert is active, and is frozen
	// once the alert leaves the active state.
	CurrentTier int `json:"current_tier"`

	CreatedBy types.UserID `json:"created_by"`
	CreatedAt time.Time    `json:"created_at"`

	// LastTransitionAt is the start of the current tier's timeout window:
	// CreatedAt initially, then the time of each tier advance. Recovery uses
	// it to compute the remaining duration after a restart.
	LastTransitionAt time.Time `json:"last_transition_at"`

	AcknowledgedBy   types.UserID `json:"acknowledged_by,omitempty"`
	AcknowledgedAt   *time.Time   `json:"acknowledged_at,omitempty"`
	AcknowledgedNote string       `json:"acknowledged_note,omitempty"`

	ResolvedBy types.UserID         `json:"resolved_by,omitempty"`
	ResolvedAt *time.Time           `json:"resolved_at,omitempty"`
	Outcome    types.ResolveOutcome `json:"outcome,omitempty"`
}

type Alerts []*Alert

// CreateInput is the operator-supplied portion of a new alert.
type CreateInput struct {
	RoomNumber  string          `json:"room_number"`
	Type        types.AlertType `json:"type"`
	Urgency     types.Urgency   `json:"urgency"`
	Description string          `json:"description,omitempty"`
}

func (x *CreateInput) Validate() error {
	if x.RoomNumber == "" {
		return goerr.New("room number is required", goerr.T(errs.TagValidation))
	}
	if err := x.Type.Validate(); err != nil {
		return goerr.Wrap(err, "invalid alert type", goerr.T(errs.TagValidation))
	}
	if err := x.Urgency.Validate(); err != nil {
		return goerr.Wrap(err, "invalid urgency", goerr.T(errs.TagValidation))
	}
	return nil
}

// New builds an active tier-1 alert. The creation time comes from the
// context clock so tests control it.
func New(ctx context.Context, hospitalID types.HospitalID, createdBy types.UserID, input CreateInput) Alert {
	now := clock.Now(ctx)
	return Alert{
		ID:               types.NewAlertID(),
		HospitalID:       hospitalID,
		RoomNumber:       input.RoomNumber,
		Type:             input.Type,
		Urgency:          input.Urgency,
		Description:      input.Description,
		Status:           types.AlertStatusActive,
		CurrentTier:      1,
		CreatedBy:        createdBy,
		CreatedAt:        now,
		LastTransitionAt: now,
	}
}

// IsActive reports whether the alert still escalates on timeout.
func (x *Alert) IsActive() bool {
	return x.Status == types.AlertStatusActive
}

// Clone returns a shallow copy safe to hand out of a repository.
func (x *Alert) Clone() *Alert {
	c := *x
	return &c
}
