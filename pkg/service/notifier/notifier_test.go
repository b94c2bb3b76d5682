package notifier_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/wardops-lab/lifeline/pkg/domain/interfaces"
	"github.com/wardops-lab/lifeline/pkg/domain/model/alert"
	"github.com/wardops-lab/lifeline/pkg/domain/model/staff"
	"github.com/wardops-lab/lifeline/pkg/domain/types"
	"github.com/wardops-lab/lifeline/pkg/service/notifier"
	"github.com/wardops-lab/lifeline/pkg/utils/clock"
)

func testAlert(ctx context.Context) *alert.Alert {
	a := alert.New(ctx, "h-1", "op-1", alert.CreateInput{
		RoomNumber:  "301",
		Type:        types.AlertTypeCodeBlue,
		Urgency:     1,
		Description: "patient unresponsive",
	})
	return &a
}

func testRecipients() staff.Members {
	return staff.Members{
		{ID: "rn-1", Name: "Asha Patel", Role: types.RoleNurse, HospitalID: "h-1", OnDuty: true},
		{ID: "dr-1", Name: "Ines Oliveira", Role: types.RoleDoctor, HospitalID: "h-1", OnDuty: true},
	}
}

func TestConsoleNotify(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	ctx := clock.With(context.Background(), func() time.Time { return now })

	var buf bytes.Buffer
	n := notifier.NewConsole(&buf)

	report, err := n.Notify(ctx, testAlert(ctx), testRecipients())
	gt.NoError(t, err)
	gt.Value(t, report.Channel).Equal("console")
	gt.Value(t, report.Delivered).Equal(2)
	gt.Value(t, report.SentAt).Equal(now)

	out := buf.String()
	gt.True(t, strings.Contains(out, "room 301"))
	gt.True(t, strings.Contains(out, "patient unresponsive"))
	gt.True(t, strings.Contains(out, "Asha Patel (nurse)"))
	gt.True(t, strings.Contains(out, "Ines Oliveira (doctor)"))
}

type recordingNotifier struct {
	calls int
	err   error
}

func (n *recordingNotifier) Notify(ctx context.Context, a *alert.Alert, recipients staff.Members) (*interfaces.DeliveryReport, error) {
	n.calls++
	if n.err != nil {
		return nil, n.err
	}
	return &interfaces.DeliveryReport{Channel: "recording", Delivered: len(recipients), SentAt: clock.Now(ctx)}, nil
}

func TestMultiAggregates(t *testing.T) {
	ctx := context.Background()
	ok := &recordingNotifier{}
	bad := &recordingNotifier{err: goerr.New("webhook 500")}
	n := notifier.NewMulti(ok, bad)

	report, err := n.Notify(ctx, testAlert(ctx), testRecipients())
	gt.NoError(t, err)
	gt.Value(t, ok.calls).Equal(1)
	gt.Value(t, bad.calls).Equal(1)
	gt.Value(t, report.Delivered).Equal(2)
	gt.Value(t, report.Failed).Equal(2)
}

func TestMultiFailsWhenAllChannelsFail(t *testing.T) {
	ctx := context.Background()
	a := &recordingNotifier{err: goerr.New("down")}
	b := &recordingNotifier{err: goerr.New("also down")}
	n := notifier.NewMulti(a, b)

	_, err := n.Notify(ctx, testAlert(ctx), testRecipients())
	gt.Error(t, err)
}
