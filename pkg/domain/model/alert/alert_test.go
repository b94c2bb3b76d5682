package alert_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/wardops-lab/lifeline/pkg/domain/model/alert"
	"github.com/wardops-lab/lifeline/pkg/domain/types"
	"github.com/wardops-lab/lifeline/pkg/utils/clock"
)

func TestNewAlertDefaults(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	ctx := clock.With(context.Background(), func() time.Time { return now })

	a := alert.New(ctx, "h-1", "op-1", alert.CreateInput{
		RoomNumber: "301",
		Type:       types.AlertTypeCardiacArrest,
		Urgency:    1,
	})

	gt.NoError(t, a.ID.Validate())
	gt.Value(t, a.Status).Equal(types.AlertStatusActive)
	gt.Value(t, a.CurrentTier).Equal(1)
	gt.Value(t, a.CreatedAt).Equal(now)
	gt.Value(t, a.LastTransitionAt).Equal(now)
	gt.True(t, a.IsActive())
}

func TestCreateInputValidate(t *testing.T) {
	valid := alert.CreateInput{RoomNumber: "301", Type: types.AlertTypeFall, Urgency: 3}
	gt.NoError(t, valid.Validate())

	cases := map[string]alert.CreateInput{
		"missing room":  {Type: types.AlertTypeFall, Urgency: 3},
		"bad type":      {RoomNumber: "301", Type: "earthquake", Urgency: 3},
		"urgency low":   {RoomNumber: "301", Type: types.AlertTypeFall, Urgency: 0},
		"urgency high":  {RoomNumber: "301", Type: types.AlertTypeFall, Urgency: 6},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			gt.Error(t, input.Validate())
		})
	}
}

func TestExpectMatches(t *testing.T) {
	a := &alert.Alert{Status: types.AlertStatusActive, CurrentTier: 2}

	gt.True(t, alert.ExpectActiveTier(2).Matches(a))
	gt.False(t, alert.ExpectActiveTier(1).Matches(a))
	gt.True(t, alert.ExpectUnresolved().Matches(a))

	a.Status = types.AlertStatusAcknowledged
	gt.False(t, alert.ExpectActiveTier(2).Matches(a))
	gt.True(t, alert.ExpectUnresolved().Matches(a))

	a.Status = types.AlertStatusResolved
	gt.False(t, alert.ExpectUnresolved().Matches(a))
}

func TestTransitionApply(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	base := &alert.Alert{
		ID:               types.NewAlertID(),
		Status:           types.AlertStatusActive,
		CurrentTier:      1,
		LastTransitionAt: now.Add(-time.Minute),
	}

	escalated := alert.Escalated(2, now).Apply(base)
	gt.Value(t, escalated.CurrentTier).Equal(2)
	gt.Value(t, escalated.LastTransitionAt).Equal(now)
	gt.Value(t, escalated.Status).Equal(types.AlertStatusActive)
	// the original is untouched
	gt.Value(t, base.CurrentTier).Equal(1)

	acked := alert.Acknowledged("rn-1", now, "on it").Apply(base)
	gt.Value(t, acked.Status).Equal(types.AlertStatusAcknowledged)
	gt.Value(t, acked.AcknowledgedBy).Equal(types.UserID("rn-1"))
	gt.Value(t, acked.AcknowledgedNote).Equal("on it")
	gt.True(t, acked.AcknowledgedAt != nil)
	gt.Value(t, acked.CurrentTier).Equal(1)

	resolved := alert.Resolved("dr-1", now, types.ResolveOutcomeHandled).Apply(acked)
	gt.Value(t, resolved.Status).Equal(types.AlertStatusResolved)
	gt.Value(t, resolved.Outcome).Equal(types.ResolveOutcomeHandled)
	gt.True(t, resolved.ResolvedAt != nil)
}
