package alert

import (
	"time"

	"github.com/wardops-lab/lifeline/pkg/domain/types"
)

// EscalationEvent is one row of the append-only audit trail. One event is
// recorded per tier transition, never for an alert that has already left the
// active state.
type EscalationEvent struct {
	ID          types.EscalationEventID `json:"id"`
	AlertID     types.AlertID           `json:"alert_id"`
	FromTier    int                     `json:"from_tier"`
	ToTier      int                     `json:"to_tier"`
	Reason      types.EscalationReason  `json:"reason"`
	TriggeredBy types.UserID            `json:"triggered_by,omitempty"` // empty for timeout escalations
	OccurredAt  time.Time               `json:"occurred_at"`
}

func NewEscalationEvent(alertID types.AlertID, fromTier, toTier int, reason types.EscalationReason, triggeredBy types.UserID, occurredAt time.Time) EscalationEvent {
	return EscalationEvent{
		ID:          types.NewEscalationEventID(),
		AlertID:     alertID,
		FromTier:    fromTier,
		ToTier:      toTier,
		Reason:      reason,
		TriggeredBy: triggeredBy,
		OccurredAt:  occurredAt,
	}
}
