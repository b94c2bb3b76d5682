package notifier

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/wardops-lab/lifeline/pkg/domain/interfaces"
	"github.com/wardops-lab/lifeline/pkg/domain/model/alert"
	"github.com/wardops-lab/lifeline/pkg/domain/model/errs"
	"github.com/wardops-lab/lifeline/pkg/domain/model/staff"
	"github.com/wardops-lab/lifeline/pkg/utils/clock"
)

// Multi fans one notification out to several channels. Delivery succeeds if
// at least one channel succeeds; the report aggregates per-channel counts so
// a dead channel still shows up in the failed column.
type Multi struct {
	notifiers []interfaces.Notifier
}

func NewMulti(notifiers ...interfaces.Notifier) *Multi {
	return &Multi{notifiers: notifiers}
}

func (x *Multi) Notify(ctx context.Context, a *alert.Alert, recipients staff.Members) (*interfaces.DeliveryReport, error) {
	report := &interfaces.DeliveryReport{
		Channel: "multi",
		SentAt:  clock.Now(ctx),
	}

	var failures []error
	for _, n := range x.notifiers {
		r, err := n.Notify(ctx, a, recipients)
		if err != nil {
			report.Failed += len(recipients)
			failures = append(failures, err)
			continue
		}
		report.Delivered += r.Delivered
		report.Failed += r.Failed
	}

	if len(x.notifiers) > 0 && len(failures) == len(x.notifiers) {
		return nil, goerr.Wrap(errors.Join(failures...), "all notification channels failed",
			goerr.T(errs.TagNotification))
	}
	return report, nil
}
