package alert

import (
	"time"

	"github.com/wardops-lab/lifeline/pkg/domain/types"
)

// Expect is the precondition of a compare-and-set transition. A transition
// applies only if the alert's status is one of Statuses and, when Tier is
// non-zero, the current tier equals Tier. The tier check is what arbitrates
// the acknowledge/timeout race: both sides expect the same tier, and the
// repository lets exactly one of them through.
type Expect struct {
	Statuses []types.AlertStatus
	Tier     int // 0 means any tier
}

// Matches reports whether the alert satisfies the precondition.
func (x Expect) Matches(a *Alert) bool {
	if x.Tier != 0 && a.CurrentTier != x.Tier {
		return false
	}
	for _, s := range x.Statuses {
		if a.Status == s {
			return true
		}
	}
	return false
}

// ExpectActiveTier is the precondition shared by timeout escalation, manual
// escalation, and acknowledgment.
func ExpectActiveTier(tier int) Expect {
	return Expect{
		Statuses: []types.AlertStatus{types.AlertStatusActive},
		Tier:     tier,
	}
}

// ExpectUnresolved is the precondition for resolution, which is allowed from
// both active and acknowledged states at any tier.
func ExpectUnresolved() Expect {
	return Expect{
		Statuses: []types.AlertStatus{types.AlertStatusActive, types.AlertStatusAcknowledged},
	}
}

// Transition is the mutation half of a compare-and-set. Zero-valued fields
// are left untouched by the repository.
type Transition struct {
	Status types.AlertStatus
	Tier   int

	AcknowledgedBy   types.UserID
	AcknowledgedAt   *time.Time
	AcknowledgedNote string

	ResolvedBy types.UserID
	ResolvedAt *time.Time
	Outcome    types.ResolveOutcome

	LastTransitionAt *time.Time
}

// Escalated advances the tier while keeping the alert active.
func Escalated(toTier int, at time.Time) Transition {
	return Transition{
		Status:           types.AlertStatusActive,
		Tier:             toTier,
		LastTransitionAt: &at,
	}
}

// Acknowledged freezes the tier and records who picked up the alert.
func Acknowledged(by types.UserID, at time.Time, note string) Transition {
	return Transition{
		Status:           types.AlertStatusAcknowledged,
		AcknowledgedBy:   by,
		AcknowledgedAt:   &at,
		AcknowledgedNote: note,
	}
}

// Resolved closes the alert with an outcome.
func Resolved(by types.UserID, at time.Time, outcome types.ResolveOutcome) Transition {
	return Transition{
		Status:     types.AlertStatusResolved,
		ResolvedBy: by,
		ResolvedAt: &at,
		Outcome:    outcome,
	}
}

// Apply mutates a copy of the alert with the non-zero fields of the
// transition. Shared by the in-memory repository and tests.
func (x Transition) Apply(a *Alert) *Alert {
	c := a.Clone()
	if x.Status != "" {
		c.Status = x.Status
	}
	if x.Tier != 0 {
		c.CurrentTier = x.Tier
	}
	if x.AcknowledgedBy != types.EmptyUserID {
		c.AcknowledgedBy = x.AcknowledgedBy
	}
	if x.AcknowledgedAt != nil {
		c.AcknowledgedAt = x.AcknowledgedAt
	}
	if x.AcknowledgedNote != "" {
		c.AcknowledgedNote = x.AcknowledgedNote
	}
	if x.ResolvedBy != types.EmptyUserID {
		c.ResolvedBy = x.ResolvedBy
	}
	if x.ResolvedAt != nil {
		c.ResolvedAt = x.ResolvedAt
	}
	if x.Outcome != "" {
		c.Outcome = x.Outcome
	}
	if x.LastTransitionAt != nil {
		c.LastTransitionAt = *x.LastTransitionAt
	}
	return c
}
