package interfaces

import (
	"context"
	"time"

	"github.com/wardops-lab/lifeline/pkg/domain/model/alert"
	"github.com/wardops-lab/lifeline/pkg/domain/model/staff"
)

// DeliveryReport summarizes one fan-out attempt. It is logged and counted,
// never acted on by the engine's state machine.
type DeliveryReport struct {
	Channel   string    `json:"channel"`
	Delivered int       `json:"delivered"`
	Failed    int       `json:"failed"`
	SentAt    time.Time `json:"sent_at"`
}

// Notifier delivers an alert to a set of recipients out of band. The engine
// treats it as fire-and-forget: an error is recorded (and retried with
// bounded attempts) but never blocks a tier transition.
type Notifier interface {
	Notify(ctx context.Context, a *alert.Alert, recipients staff.Members) (*DeliveryReport, error)
}

// AlertStream receives lifecycle updates for live dashboards. Implementations
// must not block; the hub buffers internally.
type AlertStream interface {
	Publish(ctx context.Context, a *alert.Alert)
}
