package engine

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/wardops-lab/lifeline/pkg/domain/interfaces"
	"github.com/wardops-lab/lifeline/pkg/domain/model/alert"
	"github.com/wardops-lab/lifeline/pkg/domain/model/errs"
	"github.com/wardops-lab/lifeline/pkg/domain/types"
	"github.com/wardops-lab/lifeline/pkg/utils/clock"
	"github.com/wardops-lab/lifeline/pkg/utils/errutil"
	"github.com/wardops-lab/lifeline/pkg/utils/logging"
)

const (
	DefaultMaxTier          = 4
	DefaultRenotifyInterval = 5 * time.Minute
)

// Engine owns the mapping from alert id to the armed escalation timer and
// enforces that acknowledgment, resolution, and timeout-driven escalation are
// mutually exclusive per tier transition. The repository's TransitionIfTier
// is the arbiter: the engine never trusts its timer map for correctness, only
// for scheduling. The map is a rebuildable cache; Recover reconstructs it
// from persisted state after a restart.
type Engine struct {
	repo     interfaces.Repository
	resolver interfaces.RecipientResolver
	notifier interfaces.Notifier
	stream   interfaces.AlertStream
	policy   TimeoutPolicy
	sched    clock.Scheduler
	metrics  *Metrics
	retry    *retryQueue

	maxTier       int
	renotifyEvery time.Duration

	mu      sync.Mutex
	timers  map[types.AlertID]clock.Timer
	stopped bool
}

type Option func(*Engine)

func WithScheduler(sched clock.Scheduler) Option {
	return func(e *Engine) {
		e.sched = sched
	}
}

func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

func WithStream(stream interfaces.AlertStream) Option {
	return func(e *Engine) {
		e.stream = stream
	}
}

func WithMaxTier(maxTier int) Option {
	return func(e *Engine) {
		if maxTier > 0 {
			e.maxTier = maxTier
		}
	}
}

func WithRenotifyInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.renotifyEvery = d
		}
	}
}

func WithNotifyRetry(maxAttempts int, backoff time.Duration) Option {
	return func(e *Engine) {
		e.retry.maxAttempts = maxAttempts
		e.retry.backoff = backoff
	}
}

func New(repo interfaces.Repository, resolver interfaces.RecipientResolver, notifier interfaces.Notifier, policy TimeoutPolicy, opts ...Option) *Engine {
	e := &Engine{
		repo:          repo,
		resolver:      resolver,
		notifier:      notifier,
		policy:        policy,
		sched:         clock.Real(),
		maxTier:       DefaultMaxTier,
		renotifyEvery: DefaultRenotifyInterval,
		timers:        make(map[types.AlertID]clock.Timer),
	}
	e.retry = &retryQueue{
		notifier:    notifier,
		maxAttempts: 3,
		backoff:     30 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.retry.sched = e.sched
	e.retry.metrics = e.metrics
	return e
}

// StartEscalation arms the tier-1 timer for a freshly created active alert
// and notifies the first tier immediately.
func (e *Engine) StartEscalation(ctx context.Context, a *alert.Alert) error {
	if !a.IsActive() {
		return goerr.New("cannot start escalation for a non-active alert",
			goerr.T(errs.TagConflict),
			goerr.TV(errutil.AlertIDKey, a.ID),
			goerr.TV(errutil.StatusKey, a.Status),
		)
	}

	e.armAfter(ctx, a, e.policy(a.Urgency, a.CurrentTier), a.CurrentTier)
	e.notifyTier(ctx, a, a.CurrentTier)
	return nil
}

// Acknowledge freezes escalation for the alert. It is idempotent: a second
// acknowledgment returns the stored acknowledgment unchanged. Losing the CAS
// race to a timeout escalation is not fatal either; the acknowledgment is
// retried at the refreshed tier, so the caller always ends up with the
// alert's definitive current state.
func (e *Engine) Acknowledge(ctx context.Context, alertID types.AlertID, by types.UserID, note string) (*alert.Alert, error) {
	const maxAttempts = 3

	for i := 0; i < maxAttempts; i++ {
		a, err := e.repo.GetAlert(ctx, alertID)
		if err != nil {
			return nil, err
		}
		switch a.Status {
		case types.AlertStatusAcknowledged:
			return a, nil
		case types.AlertStatusResolved:
			return nil, goerr.New("alert already resolved",
				goerr.T(errs.TagConflict),
				goerr.TV(errutil.AlertIDKey, alertID),
				goerr.TV(errutil.StatusKey, a.Status),
			)
		}

		updated, err := e.repo.TransitionIfTier(ctx, alertID,
			alert.ExpectActiveTier(a.CurrentTier),
			alert.Acknowledged(by, clock.Now(ctx), note))
		if err == nil {
			e.cancelTimer(alertID)
			e.publish(ctx, updated)
			logging.From(ctx).Info("alert acknowledged",
				"alert_id", alertID, "by", by, "tier", updated.CurrentTier)
			return updated, nil
		}
		if !goerr.HasTag(err, errs.TagConflict) {
			return nil, err
		}
		// A timeout escalation won this tier; re-read and apply the
		// acknowledgment to the new tier.
	}

	return nil, goerr.New("acknowledgment kept losing concurrent transitions",
		goerr.T(errs.TagConflict), goerr.TV(errutil.AlertIDKey, alertID))
}

// Resolve closes the alert from either active or acknowledged state and
// cancels any pending timer before returning.
func (e *Engine) Resolve(ctx context.Context, alertID types.AlertID, by types.UserID, outcome types.ResolveOutcome) (*alert.Alert, error) {
	updated, err := e.repo.TransitionIfTier(ctx, alertID,
		alert.ExpectUnresolved(),
		alert.Resolved(by, clock.Now(ctx), outcome))
	if err != nil {
		if goerr.HasTag(err, errs.TagConflict) {
			return nil, goerr.Wrap(err, "alert already resolved", goerr.T(errs.TagConflict))
		}
		return nil, err
	}

	e.cancelTimer(alertID)
	e.publish(ctx, updated)
	logging.From(ctx).Info("alert resolved",
		"alert_id", alertID, "by", by, "outcome", outcome)
	return updated, nil
}

// ManualEscalate advances the tier by one ahead of the timeout, bounded by
// the maximum tier, and re-arms the timer for the new tier.
func (e *Engine) ManualEscalate(ctx context.Context, alertID types.AlertID, by types.UserID) (*alert.Alert, error) {
	a, err := e.repo.GetAlert(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if !a.IsActive() {
		return nil, goerr.New("only active alerts can be escalated",
			goerr.T(errs.TagConflict),
			goerr.TV(errutil.AlertIDKey, alertID),
			goerr.TV(errutil.StatusKey, a.Status),
		)
	}
	if a.CurrentTier >= e.maxTier {
		return nil, goerr.New("alert already at maximum escalation tier",
			goerr.T(errs.TagConflict),
			goerr.TV(errutil.AlertIDKey, alertID),
			goerr.TV(errutil.TierKey, a.CurrentTier),
		)
	}

	now := clock.Now(ctx)
	toTier := a.CurrentTier + 1
	updated, err := e.repo.TransitionIfTier(ctx, alertID,
		alert.ExpectActiveTier(a.CurrentTier),
		alert.Escalated(toTier, now))
	if err != nil {
		return nil, err
	}

	e.recordEvent(ctx, alert.NewEscalationEvent(alertID, a.CurrentTier, toTier, types.EscalationReasonManual, by, now))
	e.metrics.countEscalation("manual")
	e.publish(ctx, updated)
	logging.From(ctx).Info("alert escalated manually",
		"alert_id", alertID, "by", by, "from_tier", a.CurrentTier, "to_tier", toTier)

	e.notifyTier(ctx, updated, toTier)
	e.armNext(ctx, updated, toTier)
	return updated, nil
}

// Recover reloads every active alert and re-arms its timer for the remaining
// portion of the current tier's window. Overdue alerts fire immediately; the
// CAS precondition ensures transitions persisted before the restart are not
// repeated.
func (e *Engine) Recover(ctx context.Context) error {
	alerts, err := e.repo.GetActiveAlerts(ctx, types.EmptyHospitalID)
	if err != nil {
		return goerr.Wrap(err, "failed to load active alerts for recovery")
	}

	now := clock.Now(ctx)
	for _, a := range alerts {
		elapsed := now.Sub(a.LastTransitionAt)
		var window time.Duration
		if a.CurrentTier >= e.maxTier {
			window = e.renotifyEvery
		} else {
			window = e.policy(a.Urgency, a.CurrentTier)
		}
		remaining := window - elapsed
		if remaining < 0 {
			remaining = 0
		}
		e.armAfter(ctx, a, remaining, a.CurrentTier)
	}

	logging.From(ctx).Info("re-armed escalation timers", "alerts", len(alerts))
	return nil
}

// Stop disarms all timers. Pending callbacks that already fired become
// no-ops through the stopped flag and the CAS guard.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopped = true
	for id, t := range e.timers {
		t.Stop()
		delete(e.timers, id)
	}
	e.metrics.setActiveTimers(0)
}

// ActiveTimers reports the number of armed timers; the map is a cache, so
// this is a scheduling detail, not a source of truth.
func (e *Engine) ActiveTimers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.timers)
}

// armAfter replaces the alert's timer with one firing after d. Registering a
// new timer implicitly cancels the prior one, which keeps the at-most-one
// timer invariant.
func (e *Engine) armAfter(ctx context.Context, a *alert.Alert, d time.Duration, fromTier int) {
	// The callback must outlive the request that armed it, but it still
	// needs the context's clock and logger for deterministic tests.
	cbCtx := context.WithoutCancel(ctx)
	id := a.ID

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return
	}
	if old, ok := e.timers[id]; ok {
		old.Stop()
	}
	e.timers[id] = e.sched.AfterFunc(d, func() {
		e.onTimerFired(cbCtx, id, fromTier)
	})
	e.metrics.setActiveTimers(len(e.timers))
}

func (e *Engine) armNext(ctx context.Context, a *alert.Alert, tier int) {
	if tier >= e.maxTier {
		e.armAfter(ctx, a, e.renotifyEvery, tier)
		return
	}
	e.armAfter(ctx, a, e.policy(a.Urgency, tier), tier)
}

func (e *Engine) cancelTimer(id types.AlertID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if t, ok := e.timers[id]; ok {
		t.Stop()
		delete(e.timers, id)
	}
	e.metrics.setActiveTimers(len(e.timers))
}

// onTimerFired handles a tier timeout. It races acknowledgment through the
// repository CAS; the loser drops its tick without side effects.
func (e *Engine) onTimerFired(ctx context.Context, alertID types.AlertID, fromTier int) {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	logger := logging.From(ctx)

	a, err := e.repo.GetAlert(ctx, alertID)
	if err != nil {
		errs.Handle(ctx, goerr.Wrap(err, "timer fired for unloadable alert", goerr.TV(errutil.AlertIDKey, alertID)))
		e.cancelTimer(alertID)
		return
	}
	if !a.IsActive() {
		// Orphaned tick after acknowledgment or resolution.
		e.cancelTimer(alertID)
		return
	}

	if fromTier >= e.maxTier {
		// Terminal sub-state: keep notifying the broadest tier on the
		// configured interval. No further tier transitions, no events.
		e.notifyTier(ctx, a, e.maxTier)
		e.armAfter(ctx, a, e.renotifyEvery, fromTier)
		return
	}

	now := clock.Now(ctx)
	toTier := fromTier + 1
	updated, err := e.repo.TransitionIfTier(ctx, alertID,
		alert.ExpectActiveTier(fromTier),
		alert.Escalated(toTier, now))
	if err != nil {
		if goerr.HasTag(err, errs.TagConflict) {
			// An acknowledgment or a manual escalation won; the winner has
			// already adjusted or cancelled the timer. Do not touch the map.
			logger.Debug("dropped stale escalation tick",
				"alert_id", alertID, "expected_tier", fromTier)
			return
		}
		errs.Handle(ctx, goerr.Wrap(err, "failed to escalate alert", goerr.TV(errutil.AlertIDKey, alertID)))
		// Repository hiccup: keep the alert alive by retrying the same tier
		// after a full window rather than silently dropping escalation.
		e.armAfter(ctx, a, e.policy(a.Urgency, fromTier), fromTier)
		return
	}

	e.recordEvent(ctx, alert.NewEscalationEvent(alertID, fromTier, toTier, types.EscalationReasonTimeout, types.EmptyUserID, now))
	e.metrics.countEscalation("timeout")
	e.publish(ctx, updated)
	logger.Info("alert escalated on timeout",
		"alert_id", alertID, "from_tier", fromTier, "to_tier", toTier, "urgency", int(updated.Urgency))

	e.notifyTier(ctx, updated, toTier)
	e.armNext(ctx, updated, toTier)
}

// recordEvent appends to the audit trail. A write failure is reported but
// never rolls back the transition that already happened.
func (e *Engine) recordEvent(ctx context.Context, ev alert.EscalationEvent) {
	if err := e.repo.AppendEscalationEvent(ctx, ev); err != nil {
		errs.Handle(ctx, goerr.Wrap(err, "failed to record escalation event", goerr.TV(errutil.AlertIDKey, ev.AlertID)))
	}
}

// notifyTier resolves the tier's audience and fans out. Neither a staffing
// gap nor a notifier failure blocks escalation progress.
func (e *Engine) notifyTier(ctx context.Context, a *alert.Alert, tier int) {
	logger := logging.From(ctx)

	recipients, err := e.resolver.Resolve(ctx, a.HospitalID, tier)
	if err != nil {
		logger.Warn("failed to resolve recipients", "error", err,
			"alert_id", a.ID, "hospital_id", a.HospitalID, "tier", tier)
		return
	}
	if len(recipients) == 0 {
		e.metrics.countStaffingGap()
		logger.Warn("staffing gap: no on-duty recipients",
			"alert_id", a.ID, "hospital_id", a.HospitalID, "tier", tier)
		return
	}

	report, err := e.notifier.Notify(ctx, a, recipients)
	if err != nil {
		e.metrics.countNotification("failed")
		logger.Warn("notification failed, queueing retry", "error", err,
			"alert_id", a.ID, "tier", tier, "recipients", len(recipients))
		e.retry.enqueue(ctx, a, recipients, 1)
		return
	}
	e.metrics.countNotification("ok")
	logger.Info("notified tier recipients",
		"alert_id", a.ID, "tier", tier,
		"delivered", report.Delivered, "failed", report.Failed, "channel", report.Channel)
}

func (e *Engine) publish(ctx context.Context, a *alert.Alert) {
	if e.stream == nil {
		return
	}
	e.stream.Publish(ctx, a)
}
