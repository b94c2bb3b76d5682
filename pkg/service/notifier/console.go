package notifier

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/wardops-lab/lifeline/pkg/domain/interfaces"
	"github.com/wardops-lab/lifeline/pkg/domain/model/alert"
	"github.com/wardops-lab/lifeline/pkg/domain/model/errs"
	"github.com/wardops-lab/lifeline/pkg/domain/model/staff"
	"github.com/wardops-lab/lifeline/pkg/utils/clock"
)

// Console renders alert fan-outs to a terminal. It is the default channel in
// local demo mode and doubles as a paper trail when no pager integration is
// configured.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

var (
	consoleHeader = color.New(color.FgHiRed, color.Bold)
	consoleField  = color.New(color.FgCyan)
	consoleMuted  = color.New(color.Faint)
)

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (x *Console) Notify(ctx context.Context, a *alert.Alert, recipients staff.Members) (*interfaces.DeliveryReport, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	now := clock.Now(ctx)

	var b strings.Builder
	consoleHeader.Fprintf(&b, "%s  room %s  tier %d\n", a.Type.Label(), a.RoomNumber, a.CurrentTier)
	consoleField.Fprintf(&b, "  urgency:  ")
	fmt.Fprintf(&b, "%s\n", a.Urgency.Label())
	if a.Description != "" {
		consoleField.Fprintf(&b, "  details:  ")
		fmt.Fprintf(&b, "%s\n", a.Description)
	}
	consoleField.Fprintf(&b, "  raised:   ")
	fmt.Fprintf(&b, "%s\n", humanize.RelTime(a.CreatedAt, now, "ago", "from now"))
	consoleField.Fprintf(&b, "  page to:  ")
	names := make([]string, len(recipients))
	for i, s := range recipients {
		names[i] = fmt.Sprintf("%s (%s)", s.Name, s.Role)
	}
	fmt.Fprintf(&b, "%s\n", strings.Join(names, ", "))
	consoleMuted.Fprintf(&b, "  alert %s\n", a.ID)

	if _, err := fmt.Fprint(x.w, b.String()); err != nil {
		return nil, goerr.Wrap(err, "failed to write console notification",
			goerr.T(errs.TagNotification))
	}

	return &interfaces.DeliveryReport{
		Channel:   "console",
		Delivered: len(recipients),
		SentAt:    now,
	}, nil
}
