package clock_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/wardops-lab/lifeline/pkg/utils/clock"
)

func TestContextClock(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := clock.With(context.Background(), func() time.Time { return fixed })

	gt.Value(t, clock.Now(ctx)).Equal(fixed)
	gt.Value(t, clock.Since(ctx, fixed.Add(-time.Minute))).Equal(time.Minute)
}

func TestContextClockFallback(t *testing.T) {
	before := time.Now()
	got := clock.Now(context.Background())
	gt.True(t, !got.Before(before))
}

func TestFakeAdvanceFiresInOrder(t *testing.T) {
	f := clock.NewFake(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	var fired []string
	f.AfterFunc(30*time.Second, func() { fired = append(fired, "b") })
	f.AfterFunc(10*time.Second, func() { fired = append(fired, "a") })
	f.AfterFunc(2*time.Minute, func() { fired = append(fired, "c") })

	f.Advance(time.Minute)
	gt.Array(t, fired).Equal([]string{"a", "b"})
	gt.Value(t, f.Pending()).Equal(1)

	f.Advance(time.Minute)
	gt.Array(t, fired).Equal([]string{"a", "b", "c"})
	gt.Value(t, f.Pending()).Equal(0)
}

func TestFakeStop(t *testing.T) {
	f := clock.NewFake(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	var fired bool
	tm := f.AfterFunc(10*time.Second, func() { fired = true })
	gt.True(t, tm.Stop())

	f.Advance(time.Minute)
	gt.False(t, fired)
	gt.False(t, tm.Stop())
}

func TestFakeRearmWithinAdvance(t *testing.T) {
	f := clock.NewFake(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	var count int
	var rearm func()
	rearm = func() {
		count++
		if count < 3 {
			f.AfterFunc(10*time.Second, rearm)
		}
	}
	f.AfterFunc(10*time.Second, rearm)

	// One Advance covers the chained deadlines
	f.Advance(time.Minute)
	gt.Value(t, count).Equal(3)
}

func TestFakeNowFollowsDeadlines(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	f := clock.NewFake(start)

	var at time.Time
	f.AfterFunc(45*time.Second, func() { at = f.Now() })

	f.Advance(time.Minute)
	gt.Value(t, at).Equal(start.Add(45 * time.Second))
	gt.Value(t, f.Now()).Equal(start.Add(time.Minute))
}
