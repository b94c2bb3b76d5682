package engine

import (
	"context"
	"time"

	"github.com/wardops-lab/lifeline/pkg/domain/interfaces"
	"github.com/wardops-lab/lifeline/pkg/domain/model/alert"
	"github.com/wardops-lab/lifeline/pkg/domain/model/staff"
	"github.com/wardops-lab/lifeline/pkg/utils/clock"
	"github.com/wardops-lab/lifeline/pkg/utils/logging"
)

// retryQueue re-attempts failed notifications with linear backoff and a
// bounded attempt count. It shares the engine's scheduler so tests drive it
// with virtual time. Retries are best effort; state progress never waits for
// them.
type retryQueue struct {
	sched       clock.Scheduler
	notifier    interfaces.Notifier
	metrics     *Metrics
	maxAttempts int
	backoff     time.Duration
}

func (q *retryQueue) enqueue(ctx context.Context, a *alert.Alert, recipients staff.Members, attempt int) {
	// The backoff timer outlives the request that queued the retry, so the
	// captured context must survive the request's cancellation.
	ctx = context.WithoutCancel(ctx)

	if attempt > q.maxAttempts {
		q.metrics.countNotification("dropped")
		logging.From(ctx).Error("giving up on notification after retries",
			"alert_id", a.ID, "tier", a.CurrentTier, "attempts", q.maxAttempts)
		return
	}

	q.sched.AfterFunc(q.backoff*time.Duration(attempt), func() {
		if _, err := q.notifier.Notify(ctx, a, recipients); err != nil {
			q.metrics.countNotification("retry_failed")
			logging.From(ctx).Warn("notification retry failed", "error", err,
				"alert_id", a.ID, "attempt", attempt)
			q.enqueue(ctx, a, recipients, attempt+1)
			return
		}
		q.metrics.countNotification("retried")
	})
}
